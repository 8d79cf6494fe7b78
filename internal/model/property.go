// Package model defines the domain types shared across the prediction engine,
// the seasonal planner, and the persistence layer.
package model

import (
	"encoding/json"
	"time"

	"github.com/twpayne/go-geom"
)

// Property is an ingested address. It is the immutable reference for
// age-based inference; rows are created on address ingestion and rarely change.
type Property struct {
	ID         string   `json:"id"`
	Address    string   `json:"address"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	Zip        string   `json:"zip,omitempty"`
	YearBuilt  *int     `json:"year_built,omitempty"`
	SquareFeet *int     `json:"square_feet,omitempty"`
	Lat        *float64 `json:"lat,omitempty"`
	Lon        *float64 `json:"lon,omitempty"`
	// TLCScore is the 0-100 condition signal; higher means the home needs more attention.
	TLCScore  *float64  `json:"tlc_score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Location returns the property coordinates as a point (lon, lat), or nil
// when either coordinate is missing.
func (p Property) Location() *geom.Point {
	if p.Lat == nil || p.Lon == nil {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{*p.Lon, *p.Lat})
}

// Enrichment snapshot providers.
const (
	ProviderPermits  = "permits"
	ProviderAssessor = "assessor"
	ProviderGeocoder = "geocoder"
)

// EnrichmentSnapshot is one opaque payload from an external data provider.
// Snapshots are append-only; a newer snapshot never deletes an older one.
type EnrichmentSnapshot struct {
	ID         string          `json:"id"`
	PropertyID string          `json:"property_id"`
	Provider   string          `json:"provider"`
	Payload    json.RawMessage `json:"payload"`
	FetchedAt  time.Time       `json:"fetched_at"`
}

// LatestSnapshot returns the most recently fetched snapshot for provider.
func LatestSnapshot(snapshots []EnrichmentSnapshot, provider string) *EnrichmentSnapshot {
	var latest *EnrichmentSnapshot
	for i := range snapshots {
		s := &snapshots[i]
		if s.Provider != provider {
			continue
		}
		if latest == nil || s.FetchedAt.After(latest.FetchedAt) {
			latest = s
		}
	}
	return latest
}

// SnapshotsFor returns every snapshot from provider, newest first.
func SnapshotsFor(snapshots []EnrichmentSnapshot, provider string) []EnrichmentSnapshot {
	var out []EnrichmentSnapshot
	for _, s := range snapshots {
		if s.Provider == provider {
			out = append(out, s)
		}
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].FetchedAt.After(out[j-1].FetchedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
