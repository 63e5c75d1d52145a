package metrics

// Return is the undiscounted sum of rewards.
type Return struct {
	sum float64
}

func NewReturn() *Return { return &Return{} }

func (r *Return) Name() string     { return "return" }
func (r *Return) Observe(s Sample) { r.sum += s.Reward }
func (r *Return) Value() float64   { return r.sum }
func (r *Return) Reset()           { r.sum = 0 }
