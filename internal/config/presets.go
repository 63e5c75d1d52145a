package config

import "sort"

var Presets = map[string]*Config{
	"hover": {
		Action: 404, Episodes: 1, MaxSteps: DefaultMaxSteps, Integrator: "rk4",
		Task: TaskConfig{Runtime: 5},
	},
	"drop": {
		Action: 390, Episodes: 1, MaxSteps: DefaultMaxSteps, Integrator: "rk4",
		Task: TaskConfig{InitPose: []float64{0, 0, 10, 0, 0, 0}, Runtime: 10},
	},
	"climb": {
		Action: 420, Episodes: 1, MaxSteps: DefaultMaxSteps, Integrator: "rk4",
		Task: TaskConfig{
			InitPose:  []float64{0, 0, 5, 0, 0, 0},
			Runtime:   5,
			TargetPos: []float64{0, 0, 15},
		},
	},
	"offset": {
		Action: 404, Episodes: 8, MaxSteps: DefaultMaxSteps, Integrator: "rk4",
		Task: TaskConfig{
			InitPose:       []float64{2, -2, 12, 0, 0, 0},
			InitVelocities: []float64{0.5, 0, -0.5},
			Runtime:        5,
		},
	},
	"tilt": {
		Action: 410, Episodes: 1, MaxSteps: DefaultMaxSteps, Integrator: "rk4",
		Task: TaskConfig{
			InitPose:            []float64{0, 0, 10, 0.05, 0, 0},
			InitAngleVelocities: []float64{0.1, 0, 0},
			Runtime:             5,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := *p
	cfg.Task.InitPose = clone(p.Task.InitPose)
	cfg.Task.InitVelocities = clone(p.Task.InitVelocities)
	cfg.Task.InitAngleVelocities = clone(p.Task.InitAngleVelocities)
	cfg.Task.TargetPos = clone(p.Task.TargetPos)
	if cfg.Dt == 0 {
		cfg.Dt = DefaultConfig().Dt
	}
	return &cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func clone(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return append([]float64(nil), v...)
}
