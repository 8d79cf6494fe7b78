package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoofSubtype(t *testing.T) {
	tests := map[string]string{
		"Composition Shingle":   RoofAsphaltShingle,
		"ARCHITECTURAL SHINGLE": RoofArchitecturalShingle,
		"Concrete Tile":         RoofTile,
		"Standing Seam Metal":   RoofMetal,
		"Built-Up / Gravel":     RoofFlat,
		"Cedar Shake":           RoofWoodShake,
		"":                      "",
		"unknown covering":      "",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, RoofSubtype(in))
		})
	}
}

func TestHVACTypeFromText(t *testing.T) {
	assert.Equal(t, HVACMiniSplit, HVACTypeFromText("Install ductless mini-split"))
	assert.Equal(t, HVACHeatPump, HVACTypeFromText("Replace heat pump and air handler"))
	assert.Equal(t, HVACCentralACFurnace, HVACTypeFromText("New AC and furnace"))
	assert.Equal(t, HVACFurnace, HVACTypeFromText("Furnace replacement"))
	assert.Equal(t, HVACCentralAC, HVACTypeFromText("Replace condenser"))
	assert.Equal(t, "", HVACTypeFromText("duct cleaning"))
}

func TestHVACTypeFromAssessor(t *testing.T) {
	tests := []struct {
		name                 string
		heatType, fuel, cool string
		want                 string
	}{
		{"explicit heat pump", "Heat Pump", "", "", HVACHeatPump},
		{"gas forced air with central", "Forced Air", "Gas", "Central", HVACCentralACFurnace},
		{"gas no cooling", "", "Natural Gas", "None", HVACFurnace},
		{"electric with central", "Electric", "", "Central", HVACHeatPump},
		{"cooling only", "", "", "Central", HVACCentralAC},
		{"nothing", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HVACTypeFromAssessor(tt.heatType, tt.fuel, tt.cool))
		})
	}
}

func TestWaterHeaterType(t *testing.T) {
	assert.Equal(t, WaterHeaterTankless, WaterHeaterTypeFromText("Rinnai tankless install"))
	assert.Equal(t, WaterHeaterHeatPump, WaterHeaterTypeFromText("Hybrid water heater 50 gal"))
	assert.Equal(t, WaterHeaterTankGas, WaterHeaterTypeFromText("40 gal gas water heater"))
	assert.Equal(t, WaterHeaterTankElectric, WaterHeaterTypeFromText("Electric water heater"))
	assert.Equal(t, "", WaterHeaterTypeFromText("water heater"))

	assert.Equal(t, WaterHeaterTankGas, WaterHeaterTypeFromFuel("GAS"))
	assert.Equal(t, WaterHeaterTankElectric, WaterHeaterTypeFromFuel("Electric"))
	assert.Equal(t, "", WaterHeaterTypeFromFuel("Solar"))
	assert.Equal(t, "", WaterHeaterTypeFromFuel(""))
}
