package experiment

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/quadtask/internal/task"
)

// Config describes a batch of independent episodes.
type Config struct {
	Task     task.Config
	Action   float64
	Episodes int
	MaxSteps int
	Workers  int
}

// Ensemble runs independent episodes concurrently. Each episode gets its own
// Task built by the factory and seeded Task.Seed + index, so results do not
// depend on scheduling.
type Ensemble struct {
	cfg      Config
	registry *Registry
	factory  func(cfg task.Config) *task.Task
}

func NewEnsemble(cfg Config, registry *Registry, factory func(cfg task.Config) *task.Task) *Ensemble {
	if factory == nil {
		factory = func(cfg task.Config) *task.Task { return task.New(cfg) }
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Ensemble{cfg: cfg, registry: registry, factory: factory}
}

func (e *Ensemble) Run(ctx context.Context) ([]*Episode, error) {
	if e.cfg.Episodes <= 0 {
		return nil, fmt.Errorf("experiment: episodes must be positive, got %d", e.cfg.Episodes)
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	episodes := make([]*Episode, e.cfg.Episodes)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < e.cfg.Episodes; i++ {
		g.Go(func() error {
			tc := e.cfg.Task
			if tc.Seed != 0 {
				tc.Seed += uint64(i)
			}
			tk := e.factory(tc)

			ep, err := RunEpisode(ctx, tk, e.cfg.Action, e.cfg.MaxSteps, e.registry.Metrics())
			if err != nil {
				return fmt.Errorf("episode %d: %w", i, err)
			}
			ep.Index = i
			ep.Seed = tc.Seed
			episodes[i] = ep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return episodes, nil
}

// Summary aggregates episode returns and lengths.
type Summary struct {
	Episodes   int
	MeanReturn float64
	StdReturn  float64
	MinReturn  float64
	MaxReturn  float64
	MeanLength float64
	Terminated int
}

func Summarize(episodes []*Episode) Summary {
	if len(episodes) == 0 {
		return Summary{}
	}

	returns := make([]float64, len(episodes))
	lengths := make([]float64, len(episodes))
	s := Summary{Episodes: len(episodes)}
	for i, ep := range episodes {
		returns[i] = ep.Return
		lengths[i] = float64(ep.Len())
		if ep.Terminated {
			s.Terminated++
		}
	}

	s.MeanReturn, s.StdReturn = stat.MeanStdDev(returns, nil)
	if len(returns) < 2 {
		s.StdReturn = 0
	}
	s.MinReturn = floats.Min(returns)
	s.MaxReturn = floats.Max(returns)
	s.MeanLength = stat.Mean(lengths, nil)
	return s
}
