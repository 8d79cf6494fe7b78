package evidence

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/homesense/internal/model"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name       string
		raw        float64
		systems    []string
		want       float64
		normalized bool
	}{
		{"hvac in cents", 5_000_000, []string{model.SystemHVAC}, 50_000, true},
		{"plausible hvac", 12_500, []string{model.SystemHVAC}, 12_500, false},
		{"water heater in cents", 180_000, []string{model.SystemWaterHeater}, 1_800, true},
		{"roof under ceiling", 200_000, []string{model.SystemRoof}, 200_000, false},
		{"most generous trade wins", 200_000, []string{model.SystemHVAC, model.SystemRoof}, 200_000, false},
		{"unknown trade under global ceiling", 3_000_000, nil, 3_000_000, false},
		{"over global ceiling", 25_000_000, nil, 250_000, true},
		{"zero", 0, []string{model.SystemHVAC}, 0, false},
		{"negative", -10, nil, -10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, normalized := NormalizeValue(tt.raw, tt.systems)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.Equal(t, tt.normalized, normalized)
		})
	}
}
