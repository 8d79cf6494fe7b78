package evidence

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"github.com/twpayne/go-geom"
)

// AssessorRecord is the typed view of a tax-assessor payload.
type AssessorRecord struct {
	YearBuilt     *int
	EffectiveYear *int
	RoofMaterial  string
	HeatingFuel   string
	HeatingType   string
	CoolingType   string
	SquareFeet    *int
	Location      *geom.Point
	City          string
	State         string
}

// Known assessor payload shapes, newest first: the nested list form
// ("property[0]..."), the flat object form, and the legacy "attributes" form.
var (
	yearBuiltPaths = []string{
		"property.0.summary.yearbuilt", "summary.yearbuilt", "building.summary.yearbuilt",
		"attributes.year_built", "year_built", "yearBuilt",
	}
	effectiveYearPaths = []string{
		"property.0.building.summary.yearbuilteffective", "building.summary.yearbuilteffective",
		"attributes.effective_year_built", "effective_year_built", "effectiveYearBuilt",
	}
	roofMaterialPaths = []string{
		"property.0.building.construction.roofcover", "building.construction.roofcover",
		"attributes.roof_material", "roof_material", "roofMaterial", "roof.material",
	}
	heatingFuelPaths = []string{
		"property.0.utilities.heatingfuel", "utilities.heatingfuel",
		"attributes.heating_fuel", "heating_fuel", "heatingFuel",
	}
	heatingTypePaths = []string{
		"property.0.utilities.heatingtype", "utilities.heatingtype",
		"attributes.heating_type", "heating_type", "heatingType",
	}
	coolingTypePaths = []string{
		"property.0.utilities.coolingtype", "utilities.coolingtype",
		"attributes.cooling_type", "cooling_type", "coolingType", "ac",
	}
	squareFeetPaths = []string{
		"property.0.building.size.livingsize", "building.size.livingsize",
		"attributes.living_area", "square_feet", "sqft", "livingArea",
	}
	latPaths = []string{
		"property.0.location.latitude", "location.latitude", "geocode.lat", "lat", "latitude",
	}
	lonPaths = []string{
		"property.0.location.longitude", "location.longitude", "geocode.lng", "geocode.lon", "lng", "lon", "longitude",
	}
	cityPaths = []string{
		"property.0.address.locality", "address.locality", "location.city", "address.city", "city",
	}
	statePaths = []string{
		"property.0.address.countrySubd", "address.countrySubd", "location.state", "address.state", "state",
	}
)

// plausibleYear rejects build years that cannot describe a standing house.
func plausibleYear(y int) bool { return y >= 1700 && y <= 2100 }

// ExtractAssessor parses an assessor payload. Missing fields stay nil/empty;
// only a payload that is not JSON at all is an error.
func ExtractAssessor(payload json.RawMessage) (*AssessorRecord, error) {
	if !gjson.ValidBytes(payload) {
		return nil, eris.New("evidence: assessor payload is not valid json")
	}
	root := gjson.ParseBytes(payload)

	rec := &AssessorRecord{
		YearBuilt:     firstInt(root, plausibleYear, yearBuiltPaths...),
		EffectiveYear: firstInt(root, plausibleYear, effectiveYearPaths...),
		RoofMaterial:  firstString(root, roofMaterialPaths...),
		HeatingFuel:   firstString(root, heatingFuelPaths...),
		HeatingType:   firstString(root, heatingTypePaths...),
		CoolingType:   firstString(root, coolingTypePaths...),
		SquareFeet:    firstInt(root, func(n int) bool { return n > 0 }, squareFeetPaths...),
		Location:      point(firstFloat(root, latPaths...), firstFloat(root, lonPaths...)),
		City:          firstString(root, cityPaths...),
		State:         firstString(root, statePaths...),
	}
	return rec, nil
}

// GeocodeRecord is the typed view of a geocoder payload.
type GeocodeRecord struct {
	Location *geom.Point
	City     string
	State    string
}

// ExtractGeocode parses a geocoder payload (Google-style results, GeoJSON
// features, or a flat object).
func ExtractGeocode(payload json.RawMessage) (*GeocodeRecord, error) {
	if !gjson.ValidBytes(payload) {
		return nil, eris.New("evidence: geocode payload is not valid json")
	}
	root := gjson.ParseBytes(payload)

	lat := firstFloat(root, "results.0.geometry.location.lat", "features.0.geometry.coordinates.1", "location.lat", "lat", "latitude")
	lon := firstFloat(root, "results.0.geometry.location.lng", "features.0.geometry.coordinates.0", "location.lng", "lng", "lon", "longitude")

	return &GeocodeRecord{
		Location: point(lat, lon),
		City:     firstString(root, "results.0.city", "features.0.properties.city", "address.city", "city"),
		State:    firstString(root, "results.0.state", "features.0.properties.state", "address.state", "state"),
	}, nil
}

func point(lat, lon *float64) *geom.Point {
	if lat == nil || lon == nil {
		return nil
	}
	if *lat < -90 || *lat > 90 || *lon < -180 || *lon > 180 {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{*lon, *lat})
}

// Latitude returns the latitude of pt, or nil.
func Latitude(pt *geom.Point) *float64 {
	if pt == nil {
		return nil
	}
	lat := pt.Y()
	return &lat
}

// CoolingPresent interprets an assessor cooling attribute. known is false
// when the attribute is empty.
func CoolingPresent(cooling string) (present, known bool) {
	c := foldText(cooling)
	if c == "" {
		return false, false
	}
	switch c {
	case "none", "no", "n", "0", "false", "no cooling", "not available":
		return false, true
	}
	return !strings.HasPrefix(c, "none"), true
}
