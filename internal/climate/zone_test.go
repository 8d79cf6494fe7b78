package climate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestDeriveZone(t *testing.T) {
	tests := []struct {
		name  string
		state string
		city  string
		lat   *float64
		want  Zone
	}{
		{"all absent", "", "", nil, Moderate},
		{"hot state abbreviation", "FL", "", nil, HighHeat},
		{"hot state full name", "Arizona", "", nil, HighHeat},
		{"southern latitude", "", "", ptr(25.8), HighHeat},
		{"hot city without state", "", "Las Vegas", nil, HighHeat},
		{"florida beach is high heat first", "FL", "Miami Beach", nil, HighHeat},
		{"named coastal city", "CA", "San Diego", nil, Coastal},
		{"beach keyword", "NC", "Kure Beach", nil, Coastal},
		{"coastal wins over cold state", "MA", "Cape Cod", nil, Coastal},
		{"northern state", "MN", "", nil, FreezeThaw},
		{"northern latitude", "", "", ptr(44.9), FreezeThaw},
		{"cold city", "", "Chicago", nil, FreezeThaw},
		{"hot city beats cold latitude", "", "Phoenix", ptr(45.0), HighHeat},
		{"temperate state", "TN", "Nashville", ptr(36.1), Moderate},
		{"unknown state text", "Narnia", "", nil, Moderate},
		{"costa mesa is not mesa", "CA", "Costa Mesa", nil, Coastal},
		{"mesa in a cold state", "CO", "Mesa Verde", nil, FreezeThaw},
		{"mesa without state", "", "Mesa", nil, HighHeat},
		{"keyword inside a word", "OH", "Beachwood", nil, FreezeThaw},
		{"punctuation in city", "", "St Paul", nil, FreezeThaw},
		{"portland maine", "ME", "Portland", nil, Coastal},
		{"portland oregon", "OR", "Portland", ptr(45.5), FreezeThaw},
		{"portland without state", "", "Portland", nil, Moderate},
		{"newport kentucky", "KY", "Newport", nil, Moderate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveZone(tt.state, tt.city, tt.lat))
		})
	}
}

func TestDeriveZone_Total(t *testing.T) {
	states := []string{"", "FL", "mn", "Tennessee", "xx"}
	cities := []string{"", "Phoenix", "Santa Monica", "Duluth", "Springfield"}
	lats := []*float64{nil, ptr(20), ptr(35), ptr(48)}

	for _, s := range states {
		for _, c := range cities {
			for _, l := range lats {
				assert.True(t, DeriveZone(s, c, l).Valid(), "state=%q city=%q", s, c)
			}
		}
	}
}

func TestParseZone(t *testing.T) {
	assert.Equal(t, FreezeThaw, ParseZone("FREEZE_THAW"))
	assert.Equal(t, Coastal, ParseZone(" coastal "))
	assert.Equal(t, Moderate, ParseZone("tropical"))
	assert.Equal(t, Moderate, ParseZone(""))
}

func TestStateCode(t *testing.T) {
	assert.Equal(t, "tx", stateCode("Texas"))
	assert.Equal(t, "tx", stateCode(" TX "))
	assert.Equal(t, "", stateCode("Ontario"))
}
