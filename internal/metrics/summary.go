package metrics

import (
	"fmt"

	"github.com/montanaflynn/stats"
)

// Summary condenses a metric history into its headline statistics.
type Summary struct {
	Mean   float64
	Min    float64
	Max    float64
	StdDev float64
	Last   float64
}

// Summarize computes the summary of a non-empty metric series.
func Summarize(series []float64) (Summary, error) {
	if len(series) == 0 {
		return Summary{}, fmt.Errorf("metrics: empty series")
	}
	d := stats.LoadRawData(series)
	mean, err := d.Mean()
	if err != nil {
		return Summary{}, fmt.Errorf("metrics: mean: %w", err)
	}
	min, err := d.Min()
	if err != nil {
		return Summary{}, fmt.Errorf("metrics: min: %w", err)
	}
	max, err := d.Max()
	if err != nil {
		return Summary{}, fmt.Errorf("metrics: max: %w", err)
	}
	sd, err := d.StandardDeviation()
	if err != nil {
		return Summary{}, fmt.Errorf("metrics: stddev: %w", err)
	}
	return Summary{Mean: mean, Min: min, Max: max, StdDev: sd, Last: series[len(series)-1]}, nil
}

func (s Summary) String() string {
	return fmt.Sprintf("mean=%.4f min=%.4f max=%.4f stddev=%.4f last=%.4f", s.Mean, s.Min, s.Max, s.StdDev, s.Last)
}
