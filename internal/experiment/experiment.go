package experiment

import (
	"context"
	"errors"
	"fmt"

	"github.com/san-kum/quadtask/internal/metrics"
	"github.com/san-kum/quadtask/internal/task"
)

var ErrNoSteps = errors.New("experiment: max steps must be positive")

// Transition is one recorded Step call.
type Transition struct {
	Index       int
	Time        float64
	Observation []float64
	Reward      float64
	Done        bool
	Pose        []float64
}

// Episode is the full record of one reset-to-terminal run.
type Episode struct {
	Index       int
	Seed        uint64
	Action      float64
	Initial     []float64
	Transitions []Transition
	Return      float64
	Terminated  bool
	Metrics     map[string]float64
}

// Len is the number of recorded steps.
func (e *Episode) Len() int { return len(e.Transitions) }

type clock interface {
	Time() float64
}

type failing interface {
	Err() error
}

// RunEpisode resets tk and applies action until the episode terminates,
// maxSteps is reached, or ctx is done. Metrics are reset first.
func RunEpisode(ctx context.Context, tk *task.Task, action float64, maxSteps int, ms []metrics.Metric) (*Episode, error) {
	if maxSteps <= 0 {
		return nil, ErrNoSteps
	}

	for _, m := range ms {
		m.Reset()
	}

	ep := &Episode{
		Action:      action,
		Initial:     tk.Reset(),
		Transitions: make([]Transition, 0, 256),
	}

	clk, _ := tk.Simulator().(clock)
	target := tk.TargetPos()
	actionNorm := tk.NormalizeAction(action)

	for i := 0; i < maxSteps; i++ {
		select {
		case <-ctx.Done():
			return ep, ctx.Err()
		default:
		}

		obs, reward, done := tk.Step(action)
		pose := tk.Pose()

		tr := Transition{
			Index:       i,
			Observation: obs,
			Reward:      reward,
			Done:        done,
			Pose:        pose,
		}
		if clk != nil {
			tr.Time = clk.Time()
		}
		ep.Transitions = append(ep.Transitions, tr)
		ep.Return += reward

		s := metrics.Sample{
			Pose:       pose,
			Target:     target,
			Action:     action,
			ActionNorm: actionNorm,
			Reward:     reward,
			Done:       done,
		}
		for _, m := range ms {
			m.Observe(s)
		}

		if done {
			ep.Terminated = true
			break
		}
	}

	ep.Metrics = metrics.Snapshot(ms)

	if f, ok := tk.Simulator().(failing); ok && f.Err() != nil {
		return ep, fmt.Errorf("episode at step %d: %w", ep.Len(), f.Err())
	}
	return ep, nil
}
