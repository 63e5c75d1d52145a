package metrics

import "gonum.org/v1/gonum/floats"

// MaxDistance is the furthest the airframe strayed from the target.
type MaxDistance struct {
	max float64
}

func NewMaxDistance() *MaxDistance {
	return &MaxDistance{}
}

func (m *MaxDistance) Name() string {
	return "max_distance"
}

func (m *MaxDistance) Observe(s Sample) {
	if len(s.Pose) < 3 {
		return
	}
	d := floats.Distance(s.Pose[:3], s.Target[:], 2)
	if d > m.max {
		m.max = d
	}
}

func (m *MaxDistance) Value() float64 {
	return m.max
}

func (m *MaxDistance) Reset() {
	m.max = 0
}
