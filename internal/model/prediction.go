package model

import "time"

// Prediction fields produced by the engine.
const (
	FieldRoofAgeBucket        = "roof_age_bucket"
	FieldHVACPresent          = "hvac_present"
	FieldHVACType             = "hvac_type"
	FieldHVACAgeBucket        = "hvac_age_bucket"
	FieldWaterHeaterType      = "water_heater_type"
	FieldWaterHeaterAgeBucket = "water_heater_age_bucket"
)

// Prediction is one inferred fact about a property. Rows are unique per
// (AddressID, Field, ModelVersion); re-running a model version overwrites.
type Prediction struct {
	ID           string     `json:"id"`
	AddressID    string     `json:"address_id"`
	Field        string     `json:"field"`
	Value        string     `json:"predicted_value"`
	Confidence   float64    `json:"confidence_score"`
	Provenance   Provenance `json:"provenance"`
	RunID        string     `json:"prediction_run_id"`
	ModelVersion string     `json:"model_version"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RunSummary is the result of one prediction run for a property.
type RunSummary struct {
	PredictionsGenerated int    `json:"predictions_generated"`
	PredictionRunID      string `json:"prediction_run_id"`
	ModelVersion         string `json:"model_version"`
}
