package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/quadtask/internal/dynamo"
	"github.com/san-kum/quadtask/internal/integrators"
	"github.com/san-kum/quadtask/internal/physics"
	"github.com/san-kum/quadtask/internal/task"
)

const (
	DefaultAction   = 404.0
	DefaultEpisodes = 1
	DefaultMaxSteps = 1000
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Seed       uint64             `yaml:"seed"`
	Action     float64            `yaml:"action"`
	Episodes   int                `yaml:"episodes"`
	Workers    int                `yaml:"workers"`
	MaxSteps   int                `yaml:"max_steps"`
	Integrator string             `yaml:"integrator"`
	Dt         float64            `yaml:"dt"`
	Task       TaskConfig         `yaml:"task"`
	Physics    map[string]float64 `yaml:"physics,omitempty"`
}

type TaskConfig struct {
	InitPose            []float64 `yaml:"init_pose,omitempty"`
	InitVelocities      []float64 `yaml:"init_velocities,omitempty"`
	InitAngleVelocities []float64 `yaml:"init_angle_velocities,omitempty"`
	Runtime             float64   `yaml:"runtime"`
	TargetPos           []float64 `yaml:"target_pos,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Action:     DefaultAction,
		Episodes:   DefaultEpisodes,
		MaxSteps:   DefaultMaxSteps,
		Integrator: "rk4",
		Dt:         physics.DefaultDt,
		Task: TaskConfig{
			Runtime: physics.DefaultRuntime,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func checkLen(name string, v []float64, n int) error {
	if v != nil && len(v) != n {
		return fmt.Errorf("%w: %w: %s needs %d components, got %d", ErrInvalidConfig, dynamo.ErrDimensionMismatch, name, n, len(v))
	}
	return nil
}

// Validate catches dimension and range mistakes before they reach the task,
// which does no checking of its own.
func (c *Config) Validate() error {
	if err := checkLen("init_pose", c.Task.InitPose, 6); err != nil {
		return err
	}
	if err := checkLen("init_velocities", c.Task.InitVelocities, 3); err != nil {
		return err
	}
	if err := checkLen("init_angle_velocities", c.Task.InitAngleVelocities, 3); err != nil {
		return err
	}
	if err := checkLen("target_pos", c.Task.TargetPos, 3); err != nil {
		return err
	}
	if c.Task.Runtime < 0 {
		return fmt.Errorf("%w: runtime must not be negative, got %f", ErrInvalidConfig, c.Task.Runtime)
	}
	if c.Episodes <= 0 {
		return fmt.Errorf("%w: episodes must be positive, got %d", ErrInvalidConfig, c.Episodes)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("%w: max_steps must be positive, got %d", ErrInvalidConfig, c.MaxSteps)
	}
	if c.Dt < 0 {
		return fmt.Errorf("%w: dt must not be negative, got %f", ErrInvalidConfig, c.Dt)
	}
	if _, err := integrators.ByName(c.Integrator); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	q := physics.NewQuadcopter()
	for name, v := range c.Physics {
		if err := q.SetParam(name, v); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

// ToTask converts the file layout into the task's own configuration.
func (c *Config) ToTask() task.Config {
	return task.Config{
		InitPose:            c.Task.InitPose,
		InitVelocities:      c.Task.InitVelocities,
		InitAngleVelocities: c.Task.InitAngleVelocities,
		Runtime:             c.Task.Runtime,
		TargetPos:           c.Task.TargetPos,
		Seed:                c.Seed,
	}
}
