package predict

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/homesense/internal/model"
)

type bucket struct {
	min   int
	label string
}

// ageBuckets are the per-system age ranges, ascending. Each system has its
// own granularity; the last bucket is open-ended and is the highest risk.
var ageBuckets = map[string][]bucket{
	model.SystemRoof: {
		{0, "0-5"}, {6, "6-10"}, {11, "11-15"}, {16, "16-20"}, {21, "21+"},
	},
	model.SystemHVAC: {
		{0, "0-4"}, {5, "5-9"}, {10, "10-14"}, {15, "15+"},
	},
	model.SystemWaterHeater: {
		{0, "0-3"}, {4, "4-7"}, {8, "8-11"}, {12, "12+"},
	},
}

// Bucket maps an age in years to the system's bucket label.
func Bucket(system string, age int) (string, error) {
	buckets, ok := ageBuckets[system]
	if !ok {
		return "", eris.Errorf("predict: no age buckets for system %q", system)
	}
	if age < 0 {
		return "", eris.Errorf("predict: negative %s age %d", system, age)
	}
	label := buckets[0].label
	for _, b := range buckets {
		if age >= b.min {
			label = b.label
		}
	}
	return label, nil
}

// highestRiskAge returns the lower bound of the system's last bucket.
func highestRiskAge(system string) int {
	buckets := ageBuckets[system]
	if len(buckets) == 0 {
		return 0
	}
	return buckets[len(buckets)-1].min
}
