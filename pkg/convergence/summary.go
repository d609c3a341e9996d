package convergence

import "math"

// smoothingAlpha weights the newest sample in Summary.Smoothed.
const smoothingAlpha = 0.3

// Summary condenses a series for tabular display.
type Summary struct {
	Label    string  `json:"label"    yaml:"label"`
	Count    int     `json:"count"    yaml:"count"`
	Last     float64 `json:"last"     yaml:"last"`
	Min      float64 `json:"min"      yaml:"min"`
	Max      float64 `json:"max"      yaml:"max"`
	Smoothed float64 `json:"smoothed" yaml:"smoothed"`
}

// Summarize returns one summary per non-empty series, in series order.
func Summarize(series []Series) []Summary {
	out := make([]Summary, 0, len(series))

	for _, s := range series {
		if len(s.Points) == 0 {
			continue
		}

		sum := Summary{
			Label: s.Label,
			Count: len(s.Points),
			Min:   math.Inf(1),
			Max:   math.Inf(-1),
		}

		var ema movingAverage

		for _, p := range s.Points {
			sum.Min = math.Min(sum.Min, p.Value)
			sum.Max = math.Max(sum.Max, p.Value)
			sum.Smoothed = ema.update(p.Value)
		}

		sum.Last = s.Points[len(s.Points)-1].Value
		out = append(out, sum)
	}

	return out
}

// movingAverage is an exponential moving average seeded by its first sample.
type movingAverage struct {
	value  float64
	seeded bool
}

func (m *movingAverage) update(v float64) float64 {
	if !m.seeded {
		m.value, m.seeded = v, true

		return v
	}

	m.value = smoothingAlpha*v + (1-smoothingAlpha)*m.value

	return m.value
}
