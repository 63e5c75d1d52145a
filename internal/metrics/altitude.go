package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// AltitudeError is the mean absolute vertical distance to the target.
type AltitudeError struct {
	errs []float64
}

func NewAltitudeError() *AltitudeError {
	return &AltitudeError{}
}

func (a *AltitudeError) Name() string {
	return "altitude_error"
}

func (a *AltitudeError) Observe(s Sample) {
	if len(s.Pose) < 3 {
		return
	}
	a.errs = append(a.errs, math.Abs(s.Pose[2]-s.Target[2]))
}

func (a *AltitudeError) Value() float64 {
	if len(a.errs) == 0 {
		return 0
	}
	return stat.Mean(a.errs, nil)
}

func (a *AltitudeError) Reset() {
	a.errs = a.errs[:0]
}

// Hover is the fraction of samples within band of the target altitude.
type Hover struct {
	band    float64
	inside  int
	samples int
}

func NewHover(band float64) *Hover {
	return &Hover{band: band}
}

func (h *Hover) Name() string {
	return "hover_fraction"
}

func (h *Hover) Observe(s Sample) {
	if len(s.Pose) < 3 {
		return
	}
	h.samples++
	if math.Abs(s.Pose[2]-s.Target[2]) <= h.band {
		h.inside++
	}
}

func (h *Hover) Value() float64 {
	if h.samples == 0 {
		return 0
	}
	return float64(h.inside) / float64(h.samples)
}

func (h *Hover) Reset() {
	h.inside = 0
	h.samples = 0
}
