package evidence

import "strings"

// Roof subtypes, matching the lifespan reference table.
const (
	RoofAsphaltShingle       = "asphalt_shingle"
	RoofArchitecturalShingle = "architectural_shingle"
	RoofTile                 = "tile"
	RoofMetal                = "metal"
	RoofFlat                 = "flat"
	RoofWoodShake            = "wood_shake"
)

// HVAC subtypes.
const (
	HVACHeatPump         = "heat_pump"
	HVACMiniSplit        = "mini_split"
	HVACCentralACFurnace = "central_ac_furnace"
	HVACCentralAC        = "central_ac"
	HVACFurnace          = "furnace"
)

// Water heater subtypes.
const (
	WaterHeaterTankGas      = "tank_gas"
	WaterHeaterTankElectric = "tank_electric"
	WaterHeaterTankless     = "tankless"
	WaterHeaterHeatPump     = "heat_pump"
)

type keywordMap struct {
	value    string
	keywords []string
}

// Ordered: more specific materials first ("concrete tile" before "concrete").
var roofMaterials = []keywordMap{
	{RoofArchitecturalShingle, []string{"architectural", "dimensional", "laminate"}},
	{RoofTile, []string{"tile", "clay", "barrel", "slate"}},
	{RoofMetal, []string{"metal", "steel", "aluminum", "standing seam"}},
	{RoofWoodShake, []string{"shake", "wood", "cedar"}},
	{RoofFlat, []string{"built-up", "built up", "gravel", "membrane", "tpo", "epdm", "bitumen", "rolled", "roll roof", "flat"}},
	{RoofAsphaltShingle, []string{"asphalt", "composition", "shingle", "fiberglass"}},
}

// RoofSubtype maps a free-text roof material to a reference subtype, or ""
// when nothing recognizable is present.
func RoofSubtype(material string) string {
	return matchKeywords(foldText(material), roofMaterials)
}

var hvacTypes = []keywordMap{
	{HVACMiniSplit, []string{"mini split", "mini-split", "ductless"}},
	{HVACHeatPump, []string{"heat pump", "heatpump"}},
	{HVACCentralACFurnace, []string{"ac and furnace", "ac & furnace", "a/c and furnace", "air conditioner and furnace", "split system with furnace"}},
	{HVACFurnace, []string{"furnace", "forced air gas", "boiler"}},
	{HVACCentralAC, []string{"central air", "central ac", "central a/c", "condenser", "air condition", "a/c", "split system"}},
}

// HVACTypeFromText infers an HVAC subtype from permit or listing text.
func HVACTypeFromText(text string) string {
	return matchKeywords(foldText(text), hvacTypes)
}

// HVACTypeFromAssessor combines assessor heating and cooling attributes.
// Electric heat with central cooling is almost always a heat pump.
func HVACTypeFromAssessor(heatingType, heatingFuel, cooling string) string {
	ht, fuel := foldText(heatingType), foldText(heatingFuel)
	hasCooling, coolingKnown := CoolingPresent(cooling)

	if t := matchKeywords(ht, hvacTypes[:2]); t != "" {
		return t
	}
	gasHeat := strings.Contains(fuel, "gas") || strings.Contains(fuel, "oil") || strings.Contains(fuel, "propane") ||
		strings.Contains(ht, "furnace") || strings.Contains(ht, "forced air")
	electricHeat := strings.Contains(fuel, "electric") || strings.Contains(ht, "electric")

	switch {
	case gasHeat && hasCooling:
		return HVACCentralACFurnace
	case gasHeat:
		return HVACFurnace
	case electricHeat && hasCooling:
		return HVACHeatPump
	case coolingKnown && hasCooling:
		return HVACCentralAC
	}
	return ""
}

var waterHeaterTypes = []keywordMap{
	{WaterHeaterTankless, []string{"tankless", "on-demand", "on demand", "instantaneous"}},
	{WaterHeaterHeatPump, []string{"heat pump water heater", "hybrid water heater", "hpwh"}},
	{WaterHeaterTankGas, []string{"gas water heater", "gas wh", "natural gas", "propane"}},
	{WaterHeaterTankElectric, []string{"electric water heater", "electric wh", "electric"}},
}

// WaterHeaterTypeFromText infers a water heater subtype from permit text.
func WaterHeaterTypeFromText(text string) string {
	return matchKeywords(foldText(text), waterHeaterTypes)
}

// WaterHeaterTypeFromFuel maps the home's heating fuel to the likely tank type.
func WaterHeaterTypeFromFuel(fuel string) string {
	f := foldText(fuel)
	switch {
	case f == "":
		return ""
	case strings.Contains(f, "gas") || strings.Contains(f, "propane") || strings.Contains(f, "oil"):
		return WaterHeaterTankGas
	case strings.Contains(f, "electric"):
		return WaterHeaterTankElectric
	}
	return ""
}

func matchKeywords(text string, table []keywordMap) string {
	if text == "" {
		return ""
	}
	for _, km := range table {
		for _, kw := range km.keywords {
			if strings.Contains(text, kw) {
				return km.value
			}
		}
	}
	return ""
}
