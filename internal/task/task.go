package task

import (
	"io"
	"math"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/quadtask/internal/integrators"
	"github.com/san-kum/quadtask/internal/physics"
)

const (
	ActionRepeat = 1
	ActionLow    = 390.0
	ActionHigh   = 420.0
	ActionSize   = 1

	// HoverHeight is the altitude observations are centred on.
	HoverHeight = 10.0

	// StepZScale and ResetZScale normalize altitude offsets. They differ
	// between the two paths and are kept apart on purpose.
	StepZScale  = 3.0
	ResetZScale = 10.0

	// PerturbUnit bounds the altitude nudge applied on reset.
	PerturbUnit = 0.1

	rewardDecay = 0.005
)

// DefaultTargetPos is the hover point the reward measures against.
var DefaultTargetPos = [3]float64{0, 0, HoverHeight}

// Simulator is everything the task needs from the physics engine.
type Simulator interface {
	Reset()
	NextTimestep(action float64) bool
	// Pose is position (x, y, z) followed by Euler angles.
	Pose() []float64
	Velocity() []float64
	NudgeAltitude(delta float64)
}

// Config fixes the episode's initial conditions and goal. Nil slices and a
// zero Runtime take their defaults.
type Config struct {
	InitPose            []float64
	InitVelocities      []float64
	InitAngleVelocities []float64
	Runtime             float64
	TargetPos           []float64
	Seed                uint64
}

// Task turns simulator state into observations and rewards for a hover
// objective.
type Task struct {
	sim    Simulator
	rng    *rand.Rand
	logger *log.Logger

	actionRepeat int
	stateSize    int
	actionLow    float64
	actionHigh   float64
	actionRange  float64
	actionSize   int
	targetPos    [3]float64

	phase Phase
	steps int
}

// Option customizes New.
type Option func(*Task)

// WithSimulator replaces the reference physics simulator.
func WithSimulator(sim Simulator) Option {
	return func(t *Task) { t.sim = sim }
}

// WithRand replaces the seeded random source used for reset perturbation.
func WithRand(rng *rand.Rand) Option {
	return func(t *Task) { t.rng = rng }
}

func WithLogger(logger *log.Logger) Option {
	return func(t *Task) { t.logger = logger }
}

// NewRand returns the generator a Task owns for the given seed. A zero seed
// draws a fresh seed from the runtime.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func New(cfg Config, opts ...Option) *Task {
	t := &Task{
		actionRepeat: ActionRepeat,
		actionLow:    ActionLow,
		actionHigh:   ActionHigh,
		actionSize:   ActionSize,
		targetPos:    DefaultTargetPos,
	}
	t.stateSize = t.actionRepeat * 2
	t.actionRange = t.actionHigh - t.actionLow

	if cfg.TargetPos != nil {
		copy(t.targetPos[:], cfg.TargetPos[:3])
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.sim == nil {
		ic := physics.InitialConditions{
			Pose:            cfg.InitPose,
			Velocity:        cfg.InitVelocities,
			AngularVelocity: cfg.InitAngleVelocities,
		}
		t.sim = physics.NewSim(physics.NewQuadcopter(), integrators.NewRK4(), ic, cfg.Runtime)
	}
	if t.rng == nil {
		t.rng = NewRand(cfg.Seed)
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}

	return t
}

func (t *Task) StateSize() int        { return t.stateSize }
func (t *Task) ActionSize() int       { return t.actionSize }
func (t *Task) ActionLow() float64    { return t.actionLow }
func (t *Task) ActionHigh() float64   { return t.actionHigh }
func (t *Task) ActionRepeat() int     { return t.actionRepeat }
func (t *Task) TargetPos() [3]float64 { return t.targetPos }
func (t *Task) Phase() Phase          { return t.phase }
func (t *Task) Steps() int            { return t.steps }
func (t *Task) Simulator() Simulator  { return t.sim }
func (t *Task) Pose() []float64       { return t.sim.Pose() }
func (t *Task) Velocity() []float64   { return t.sim.Velocity() }

// Reward scores the current pose: sum over x, y, z of
// tanh(1 - 0.005*|p - target|). The maximum, 3*tanh(1), is reached only at
// the target.
func (t *Task) Reward() float64 {
	pose := t.sim.Pose()
	axes := make([]float64, 3)
	for i := range axes {
		axes[i] = math.Tanh(1 - rewardDecay*math.Abs(pose[i]-t.targetPos[i]))
	}
	return floats.Sum(axes)
}

// NormalizeAction maps [ActionLow, ActionHigh] onto [-1, 1]. Values outside
// the bounds map outside that range.
func (t *Task) NormalizeAction(action float64) float64 {
	return (action-t.actionLow)/t.actionRange*2 - 1
}

// Step applies action for each repeat and returns the stacked observation,
// the summed reward and the termination flag of the final repeat.
func (t *Task) Step(action float64) ([]float64, float64, bool) {
	reward := 0.0
	done := false
	obs := make([]float64, 0, t.stateSize)

	for i := 0; i < t.actionRepeat; i++ {
		done = t.sim.NextTimestep(action)
		reward += t.Reward()

		zNorm := (t.sim.Pose()[2] - HoverHeight) / StepZScale
		vzNorm := t.sim.Velocity()[2] / StepZScale
		obs = append(obs, zNorm, vzNorm)
	}

	t.steps++
	if done {
		t.phase = PhaseTerminated
	} else {
		t.phase = PhaseStepping
	}

	t.logger.Debug("step",
		"n", t.steps,
		"action", action,
		"action_norm", t.NormalizeAction(action),
		"reward", reward,
		"done", done,
	)

	return obs, reward, done
}

// Reset starts a new episode a small random distance above or below the
// initial altitude. The reported vertical velocity is always zero.
func (t *Task) Reset() []float64 {
	t.sim.Reset()
	t.sim.NudgeAltitude((2*t.rng.Float64() - 1) * PerturbUnit)

	zNorm := (t.sim.Pose()[2] - HoverHeight) / ResetZScale
	obs := make([]float64, 0, t.stateSize)
	for i := 0; i < t.actionRepeat; i++ {
		obs = append(obs, zNorm, 0)
	}

	t.steps = 0
	t.phase = PhaseReset
	t.logger.Debug("reset", "z", t.sim.Pose()[2], "z_norm", zNorm)

	return obs
}
