// Package seasonal generates dated maintenance task candidates from a
// property's climate zone, condition score, and open renovation items.
package seasonal

import (
	"time"

	"github.com/sells-group/homesense/internal/climate"
	"github.com/sells-group/homesense/internal/model"
)

// Task categories.
const (
	CategorySeasonal   = "seasonal"
	CategorySafety     = "safety"
	CategoryInspection = "inspection"
	CategoryRenovation = "renovation"
)

// Template is a recurring task anchored to a calendar month.
type Template struct {
	Title       string
	Description string
	Category    string
	SystemType  string
	Month       time.Month
	Priority    model.TaskPriority
	Cost        float64 // 0 when there is no typical cost
}

var commonTemplates = []Template{
	{"Test smoke & CO detectors", "Press the test button on every detector and replace batteries that chirp.", CategorySafety, model.SystemSafety, time.March, model.PriorityMedium, 0},
	{"Test smoke & CO detectors", "Press the test button on every detector and replace batteries that chirp.", CategorySafety, model.SystemSafety, time.October, model.PriorityMedium, 0},
}

var zoneTemplates = map[climate.Zone][]Template{
	climate.HighHeat: {
		{"Flush water heater", "Drain a few gallons to clear sediment from the tank.", CategorySeasonal, model.SystemWaterHeater, time.January, model.PriorityLow, 0},
		{"Solar panel cleaning", "Rinse dust and pollen off the panels before peak sun.", CategorySeasonal, model.SystemSolar, time.February, model.PriorityLow, 150},
		{"Irrigation system check", "Run each zone and fix broken heads before the dry season.", CategorySeasonal, model.SystemSprinkler, time.March, model.PriorityLow, 0},
		{"Service AC before summer", "Have the condenser cleaned and refrigerant checked before peak cooling.", CategorySeasonal, model.SystemHVAC, time.April, model.PriorityHigh, 150},
		{"Pool pump & equipment service", "Inspect the pump, filter, and heater ahead of swim season.", CategorySeasonal, model.SystemPool, time.April, model.PriorityMedium, 200},
		{"Hurricane shutter check", "Test every shutter and replace missing hardware before storm season.", CategorySeasonal, model.SystemExterior, time.May, model.PriorityHigh, 0},
		{"Generator test run", "Run the generator under load and top off fuel before storm season.", CategorySeasonal, model.SystemGenerator, time.May, model.PriorityMedium, 0},
		{"Inspect roof for heat & storm damage", "Look for lifted shingles and cracked tiles after the spring storms.", CategorySeasonal, model.SystemRoof, time.June, model.PriorityMedium, 0},
		{"Clean dryer vent", "Clear lint from the vent run to the exterior.", CategorySeasonal, model.SystemGeneral, time.September, model.PriorityLow, 0},
	},
	climate.Coastal: {
		{"Flush water heater", "Drain a few gallons to clear sediment from the tank.", CategorySeasonal, model.SystemWaterHeater, time.January, model.PriorityLow, 0},
		{"Rinse AC condenser coils", "Wash salt deposits off the outdoor unit and check fins for corrosion.", CategorySeasonal, model.SystemHVAC, time.April, model.PriorityMedium, 0},
		{"Inspect exterior paint & sealants", "Reseal cracked caulk and touch up paint exposed to salt air.", CategorySeasonal, model.SystemExterior, time.May, model.PriorityMedium, 0},
		{"Pool pump & equipment service", "Inspect the pump, filter, and heater ahead of swim season.", CategorySeasonal, model.SystemPool, time.May, model.PriorityMedium, 200},
		{"Storm preparedness check", "Clear drains, secure outdoor furniture, and check flood vents.", CategorySeasonal, model.SystemGeneral, time.August, model.PriorityHigh, 0},
		{"Clean gutters", "Remove debris so winter storms drain away from the foundation.", CategorySeasonal, model.SystemRoof, time.November, model.PriorityMedium, 175},
	},
	climate.FreezeThaw: {
		{"Check roof for ice dams", "Look for ice buildup at the eaves and clear downspouts.", CategorySeasonal, model.SystemRoof, time.January, model.PriorityMedium, 0},
		{"Flush water heater", "Drain a few gallons to clear sediment from the tank.", CategorySeasonal, model.SystemWaterHeater, time.February, model.PriorityLow, 0},
		{"Test sump pump", "Pour water into the pit and confirm the pump cycles before the thaw.", CategorySeasonal, model.SystemPlumbing, time.March, model.PriorityMedium, 0},
		{"Service AC before summer", "Have the condenser cleaned and refrigerant checked before peak cooling.", CategorySeasonal, model.SystemHVAC, time.May, model.PriorityMedium, 150},
		{"Septic tank inspection", "Have the tank level checked and pumped if needed.", CategorySeasonal, model.SystemSeptic, time.June, model.PriorityLow, 350},
		{"Furnace tune-up", "Replace the filter and have the burners and heat exchanger inspected.", CategorySeasonal, model.SystemHVAC, time.September, model.PriorityHigh, 150},
		{"Close pool for winter", "Lower the water, blow out lines, and cover the pool.", CategorySeasonal, model.SystemPool, time.September, model.PriorityMedium, 250},
		{"Winterize exterior plumbing", "Shut off and drain hose bibs and exposed supply lines before the first freeze.", CategorySeasonal, model.SystemPlumbing, time.October, model.PriorityHigh, 0},
		{"Blow out irrigation lines", "Clear water from sprinkler lines so they don't crack.", CategorySeasonal, model.SystemSprinkler, time.October, model.PriorityMedium, 100},
		{"Clean gutters before winter", "Remove leaves so meltwater can drain.", CategorySeasonal, model.SystemRoof, time.November, model.PriorityMedium, 175},
	},
	climate.Moderate: {
		{"Flush water heater", "Drain a few gallons to clear sediment from the tank.", CategorySeasonal, model.SystemWaterHeater, time.March, model.PriorityLow, 0},
		{"HVAC spring tune-up", "Have the cooling side serviced and the filter replaced.", CategorySeasonal, model.SystemHVAC, time.April, model.PriorityMedium, 150},
		{"Sprinkler system check", "Run each zone and adjust heads.", CategorySeasonal, model.SystemSprinkler, time.April, model.PriorityLow, 0},
		{"Inspect roof & flashing", "Check flashing around chimneys and vents after winter.", CategorySeasonal, model.SystemRoof, time.May, model.PriorityMedium, 0},
		{"Pool pump & equipment service", "Inspect the pump, filter, and heater ahead of swim season.", CategorySeasonal, model.SystemPool, time.May, model.PriorityLow, 200},
		{"Well water test", "Send a water sample for bacteria and nitrate testing.", CategorySeasonal, model.SystemWell, time.July, model.PriorityLow, 60},
		{"EV charger inspection", "Check the cable, connector, and breaker for heat damage.", CategorySeasonal, model.SystemEVCharger, time.August, model.PriorityLow, 0},
		{"HVAC fall tune-up", "Have the heating side serviced before cold weather.", CategorySeasonal, model.SystemHVAC, time.October, model.PriorityMedium, 150},
		{"Clean gutters", "Remove leaves before winter rains.", CategorySeasonal, model.SystemRoof, time.November, model.PriorityMedium, 175},
	},
}

// ZoneTemplates returns the templates for a zone followed by the common
// set. Unknown zones get the moderate set.
func ZoneTemplates(z climate.Zone) []Template {
	set, ok := zoneTemplates[z]
	if !ok {
		set = zoneTemplates[climate.Moderate]
	}
	out := make([]Template, 0, len(set)+len(commonTemplates))
	out = append(out, set...)
	return append(out, commonTemplates...)
}

// tlcTemplates are prepended when the condition score says the home needs
// attention.
var tlcTemplates = []Template{
	{Title: "Whole-home condition inspection", Description: "Book a general inspection to triage deferred maintenance.", Category: CategoryInspection, SystemType: model.SystemGeneral, Priority: model.PriorityUrgent, Cost: 400},
	{Title: "Roof & attic leak inspection", Description: "Check the attic and ceilings for active leaks or water staining.", Category: CategoryInspection, SystemType: model.SystemRoof, Priority: model.PriorityUrgent},
	{Title: "Electrical safety inspection", Description: "Have an electrician check the panel and look for scorched outlets.", Category: CategoryInspection, SystemType: model.SystemElectrical, Priority: model.PriorityUrgent},
}

// NextOccurrence returns the nearest 15th of month strictly after now.
func NextOccurrence(month time.Month, now time.Time) time.Time {
	now = now.UTC()
	d := time.Date(now.Year(), month, 15, 0, 0, 0, 0, time.UTC)
	if !d.After(now) {
		d = d.AddDate(1, 0, 0)
	}
	return d
}
