package experiment

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/san-kum/quadtask/internal/integrators"
	"github.com/san-kum/quadtask/internal/metrics"
	"github.com/san-kum/quadtask/internal/physics"
	"github.com/san-kum/quadtask/internal/task"
)

// Registry builds the pieces of a run from their configured names.
type Registry struct {
	metrics func() []metrics.Metric
	logger  *log.Logger
}

func NewRegistry() *Registry {
	return &Registry{metrics: metrics.Default}
}

// Metrics returns a fresh metric set; each episode needs its own.
func (r *Registry) Metrics() []metrics.Metric {
	return r.metrics()
}

// SetMetrics replaces the metric set factory.
func (r *Registry) SetMetrics(fn func() []metrics.Metric) {
	r.metrics = fn
}

// SetLogger hands logger to every Task the factory builds.
func (r *Registry) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// TaskFactory returns a constructor for Tasks backed by the reference
// simulator with the named integrator and model parameter overrides.
func (r *Registry) TaskFactory(integrator string, params map[string]float64, dt float64) (func(task.Config) *task.Task, error) {
	// Registered integrators carry no state and are shared across Tasks.
	integ, err := integrators.ByName(integrator)
	if err != nil {
		return nil, err
	}
	base := physics.NewQuadcopter()
	for name, v := range params {
		if err := base.SetParam(name, v); err != nil {
			return nil, err
		}
	}

	return func(cfg task.Config) *task.Task {
		// Quadcopter holds only scalars, so a value copy is independent.
		model := new(physics.Quadcopter)
		*model = *base

		ic := physics.InitialConditions{
			Pose:            cfg.InitPose,
			Velocity:        cfg.InitVelocities,
			AngularVelocity: cfg.InitAngleVelocities,
		}
		sim := physics.NewSim(model, integ, ic, cfg.Runtime)
		sim.SetDt(dt)
		opts := []task.Option{task.WithSimulator(sim)}
		if r.logger != nil {
			opts = append(opts, task.WithLogger(r.logger))
		}
		return task.New(cfg, opts...)
	}, nil
}

// Describe names a factory configuration for logs.
func Describe(integrator string, dt float64) string {
	if dt <= 0 {
		dt = physics.DefaultDt
	}
	return fmt.Sprintf("%s@%.0fHz", integrator, 1/dt)
}
