package metrics

// Sample is one observed transition of an episode.
type Sample struct {
	Pose       []float64
	Target     [3]float64
	Action     float64
	ActionNorm float64
	Reward     float64
	Done       bool
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Default returns a fresh instance of every episode metric.
func Default() []Metric {
	return []Metric{
		NewReturn(),
		NewAltitudeError(),
		NewMaxDistance(),
		NewActionEffort(),
		NewHover(0.5),
	}
}

// Snapshot collects the current value of each metric by name.
func Snapshot(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
