package metrics

import "math"

// ActionEffort is the mean magnitude of the normalized action.
type ActionEffort struct {
	sum     float64
	samples int
}

func NewActionEffort() *ActionEffort {
	return &ActionEffort{}
}

func (c *ActionEffort) Name() string {
	return "action_effort"
}

func (c *ActionEffort) Observe(s Sample) {
	c.sum += math.Abs(s.ActionNorm)
	c.samples++
}

func (c *ActionEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ActionEffort) Reset() {
	c.sum = 0
	c.samples = 0
}
