package task

import (
	"math"
	"testing"
)

// fakeSim moves along a scripted trajectory, one entry per NextTimestep.
type fakeSim struct {
	initPose []float64
	initVel  []float64
	pose     []float64
	vel      []float64
	traj     [][2]float64 // z, vz
	dones    []bool
	calls    int
	resets   int
}

func newFakeSim(z float64) *fakeSim {
	f := &fakeSim{
		initPose: []float64{0, 0, z, 0, 0, 0},
		initVel:  []float64{0, 0, 0},
	}
	f.Reset()
	return f
}

func (f *fakeSim) Reset() {
	f.pose = append([]float64(nil), f.initPose...)
	f.vel = append([]float64(nil), f.initVel...)
	f.calls = 0
	f.resets++
}

func (f *fakeSim) NextTimestep(action float64) bool {
	i := f.calls
	f.calls++
	if i < len(f.traj) {
		f.pose[2] = f.traj[i][0]
		f.vel[2] = f.traj[i][1]
	}
	if i < len(f.dones) {
		return f.dones[i]
	}
	return false
}

func (f *fakeSim) Pose() []float64             { return append([]float64(nil), f.pose...) }
func (f *fakeSim) Velocity() []float64         { return append([]float64(nil), f.vel...) }
func (f *fakeSim) NudgeAltitude(delta float64) { f.pose[2] += delta }

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-12
}

func TestConstructionDefaults(t *testing.T) {
	tk := New(Config{})

	if tk.ActionRepeat() != 1 {
		t.Errorf("expected action repeat 1, got %d", tk.ActionRepeat())
	}
	if tk.StateSize() != 2 {
		t.Errorf("expected state size 2, got %d", tk.StateSize())
	}
	if tk.ActionSize() != 1 {
		t.Errorf("expected action size 1, got %d", tk.ActionSize())
	}
	if tk.ActionLow() != 390 || tk.ActionHigh() != 420 {
		t.Errorf("expected action bounds [390, 420], got [%f, %f]", tk.ActionLow(), tk.ActionHigh())
	}
	if tk.TargetPos() != [3]float64{0, 0, 10} {
		t.Errorf("expected default target (0,0,10), got %v", tk.TargetPos())
	}
	if tk.Phase() != PhaseReset {
		t.Errorf("expected phase reset, got %s", tk.Phase())
	}
}

func TestCustomTarget(t *testing.T) {
	tk := New(Config{TargetPos: []float64{1, 2, 3}}, WithSimulator(newFakeSim(10)))
	if tk.TargetPos() != [3]float64{1, 2, 3} {
		t.Errorf("expected target (1,2,3), got %v", tk.TargetPos())
	}
}

func TestRewardAtTarget(t *testing.T) {
	targets := [][]float64{
		{0, 0, 10},
		{5, -3, 42},
		{-100, 100, 0.5},
	}
	want := 3 * math.Tanh(1)

	for _, target := range targets {
		sim := newFakeSim(0)
		copy(sim.pose, target)
		tk := New(Config{TargetPos: target}, WithSimulator(sim))

		if got := tk.Reward(); !almostEqual(got, want) {
			t.Errorf("target %v: expected %.10f, got %.10f", target, want, got)
		}
	}
}

func TestRewardDecaysWithDistance(t *testing.T) {
	sim := newFakeSim(10)
	tk := New(Config{}, WithSimulator(sim))
	best := tk.Reward()

	prev := best
	for _, d := range []float64{0.1, 1, 10, 100, 1000} {
		sim.pose[0] = d
		r := tk.Reward()
		if r >= best {
			t.Errorf("offset %f: reward %f not below maximum %f", d, r, best)
		}
		if r >= prev {
			t.Errorf("offset %f: reward %f did not decrease from %f", d, r, prev)
		}
		prev = r
	}

	// symmetric in the sign of the offset
	sim.pose[0] = -10
	neg := tk.Reward()
	sim.pose[0] = 10
	if !almostEqual(neg, tk.Reward()) {
		t.Error("reward should depend on absolute distance only")
	}
}

func TestRewardBounded(t *testing.T) {
	sim := newFakeSim(1000)
	sim.pose[0], sim.pose[1] = -1000, 1000
	tk := New(Config{}, WithSimulator(sim))

	if r := tk.Reward(); r <= -3 || r >= 3 {
		t.Errorf("reward %f outside (-3, 3)", r)
	}
}

func TestRewardIgnoresOrientation(t *testing.T) {
	sim := newFakeSim(10)
	tk := New(Config{}, WithSimulator(sim))
	before := tk.Reward()
	sim.pose[3], sim.pose[4], sim.pose[5] = 1, 2, 3
	if tk.Reward() != before {
		t.Error("Euler angles must not affect the reward")
	}
}

func TestStepNormalization(t *testing.T) {
	sim := newFakeSim(10)
	sim.traj = [][2]float64{{13, 1.5}}
	tk := New(Config{}, WithSimulator(sim))

	obs, reward, done := tk.Step(400)

	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if !almostEqual(obs[0], 1.0) {
		t.Errorf("expected z_norm (13-10)/3 = 1, got %f", obs[0])
	}
	if !almostEqual(obs[1], 0.5) {
		t.Errorf("expected vz_norm 1.5/3 = 0.5, got %f", obs[1])
	}
	if !almostEqual(reward, tk.Reward()) {
		t.Errorf("expected reward %f, got %f", tk.Reward(), reward)
	}
	if done {
		t.Error("unexpected termination")
	}
	if tk.Phase() != PhaseStepping || tk.Steps() != 1 {
		t.Errorf("expected stepping after 1 step, got %s after %d", tk.Phase(), tk.Steps())
	}
}

func TestStepActionRepeat(t *testing.T) {
	sim := newFakeSim(10)
	sim.traj = [][2]float64{{11, 0.3}, {12, 0.6}, {16, 0.9}}
	tk := New(Config{}, WithSimulator(sim))
	tk.actionRepeat = 3
	tk.stateSize = 6

	obs, reward, _ := tk.Step(405)

	if len(obs) != 6 {
		t.Fatalf("expected 6 observations, got %d", len(obs))
	}
	want := []float64{1.0 / 3, 0.1, 2.0 / 3, 0.2, 2, 0.3}
	for i := range want {
		if !almostEqual(obs[i], want[i]) {
			t.Errorf("obs[%d]: expected %f, got %f", i, want[i], obs[i])
		}
	}

	expected := 0.0
	for _, z := range []float64{11, 12, 16} {
		expected += 2*math.Tanh(1) + math.Tanh(1-0.005*math.Abs(z-10))
	}
	if !almostEqual(reward, expected) {
		t.Errorf("expected summed reward %f, got %f", expected, reward)
	}
	if sim.calls != 3 {
		t.Errorf("expected 3 simulator advances, got %d", sim.calls)
	}
}

func TestStepReturnsLastTerminationFlag(t *testing.T) {
	tests := []struct {
		name  string
		dones []bool
		want  bool
	}{
		{"early termination discarded", []bool{true, false}, false},
		{"final termination kept", []bool{false, true}, true},
		{"none", []bool{false, false}, false},
	}

	for _, tt := range tests {
		sim := newFakeSim(10)
		sim.dones = tt.dones
		tk := New(Config{}, WithSimulator(sim))
		tk.actionRepeat = 2
		tk.stateSize = 4

		_, _, done := tk.Step(400)
		if done != tt.want {
			t.Errorf("%s: expected done=%v, got %v", tt.name, tt.want, done)
		}
	}
}

func TestStepAfterTerminationContinues(t *testing.T) {
	sim := newFakeSim(10)
	sim.dones = []bool{true, false}
	tk := New(Config{}, WithSimulator(sim))

	if _, _, done := tk.Step(400); !done {
		t.Fatal("expected termination")
	}
	if tk.Phase() != PhaseTerminated {
		t.Errorf("expected terminated, got %s", tk.Phase())
	}

	obs, _, done := tk.Step(400)
	if len(obs) != 2 || done {
		t.Errorf("step after termination should keep operating, got obs=%v done=%v", obs, done)
	}
	if sim.calls != 2 {
		t.Errorf("expected simulator to advance twice, got %d", sim.calls)
	}
}

func TestResetObservation(t *testing.T) {
	sim := newFakeSim(10)
	tk := New(Config{Seed: 7}, WithSimulator(sim))

	for i := 0; i < 100; i++ {
		obs := tk.Reset()
		if len(obs) != tk.StateSize() {
			t.Fatalf("expected %d observations, got %d", tk.StateSize(), len(obs))
		}
		for j := 1; j < len(obs); j += 2 {
			if obs[j] != 0 {
				t.Errorf("velocity entry %d should be 0, got %f", j, obs[j])
			}
		}

		z := sim.pose[2]
		if math.Abs(z-10) > PerturbUnit+1e-12 {
			t.Errorf("perturbed altitude %f outside 10 +/- %f", z, PerturbUnit)
		}
		if !almostEqual(obs[0], (z-10)/10) {
			t.Errorf("expected z_norm %f, got %f", (z-10)/10, obs[0])
		}
	}
}

func TestResetIgnoresSimulatorVelocity(t *testing.T) {
	sim := newFakeSim(10)
	tk := New(Config{Seed: 1}, WithSimulator(sim))
	sim.initPose[2] = 12
	sim.initVel[2] = 5

	obs := tk.Reset()
	if sim.vel[2] != 5 {
		t.Fatalf("fake simulator velocity not restored: %f", sim.vel[2])
	}

	if obs[1] != 0 {
		t.Errorf("expected velocity observation 0, got %f", obs[1])
	}
	if math.Abs(obs[0]-0.2) > PerturbUnit/ResetZScale+1e-12 {
		t.Errorf("expected z_norm near 0.2, got %f", obs[0])
	}
}

func TestResetRepeatsPair(t *testing.T) {
	sim := newFakeSim(10)
	tk := New(Config{Seed: 3}, WithSimulator(sim))
	tk.actionRepeat = 3
	tk.stateSize = 6

	obs := tk.Reset()
	if len(obs) != 6 {
		t.Fatalf("expected 6 observations, got %d", len(obs))
	}
	for i := 0; i < 6; i += 2 {
		if obs[i] != obs[0] || obs[i+1] != 0 {
			t.Errorf("pair %d: expected [%f 0], got [%f %f]", i/2, obs[0], obs[i], obs[i+1])
		}
	}
}

func TestResetResetsPhase(t *testing.T) {
	sim := newFakeSim(10)
	sim.dones = []bool{true}
	tk := New(Config{}, WithSimulator(sim))

	tk.Step(400)
	tk.Reset()

	if tk.Phase() != PhaseReset || tk.Steps() != 0 {
		t.Errorf("expected reset phase with 0 steps, got %s with %d", tk.Phase(), tk.Steps())
	}
	if sim.resets != 2 {
		t.Errorf("expected simulator reset once by Reset, got %d total", sim.resets)
	}
}

func TestResetDeterministicWithSeed(t *testing.T) {
	a := New(Config{Seed: 42}, WithSimulator(newFakeSim(10)))
	b := New(Config{Seed: 42}, WithSimulator(newFakeSim(10)))

	for i := 0; i < 5; i++ {
		oa, ob := a.Reset(), b.Reset()
		if oa[0] != ob[0] {
			t.Fatalf("reset %d: %f != %f with equal seeds", i, oa[0], ob[0])
		}
	}

	c := New(Config{}, WithSimulator(newFakeSim(10)), WithRand(NewRand(42)))
	d := New(Config{}, WithSimulator(newFakeSim(10)), WithRand(NewRand(42)))
	if c.Reset()[0] != d.Reset()[0] {
		t.Error("injected sources with equal seeds should agree")
	}
}

func TestNormalizeAction(t *testing.T) {
	tk := New(Config{}, WithSimulator(newFakeSim(10)))

	tests := []struct {
		action float64
		want   float64
	}{
		{390, -1},
		{420, 1},
		{405, 0},
		{450, 3},
		{360, -3},
	}

	for _, tt := range tests {
		if got := tk.NormalizeAction(tt.action); !almostEqual(got, tt.want) {
			t.Errorf("action %f: expected %f, got %f", tt.action, tt.want, got)
		}
	}
}

func TestDefaultEpisode(t *testing.T) {
	tk := New(Config{Seed: 11})

	obs := tk.Reset()
	if len(obs) != 2 || obs[1] != 0 {
		t.Fatalf("unexpected reset observation %v", obs)
	}
	if math.Abs(obs[0]) > 0.01+1e-12 {
		t.Errorf("expected |z_norm| <= 0.01, got %f", obs[0])
	}

	obs, reward, done := tk.Step(400)
	if len(obs) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(obs))
	}
	if reward <= -3 || reward >= 3 {
		t.Errorf("reward %f outside (-3, 3)", reward)
	}
	if done {
		t.Error("first step of a 5s episode should not terminate")
	}
}

func TestDefaultEpisodeTerminates(t *testing.T) {
	tk := New(Config{Runtime: 1, Seed: 5})
	tk.Reset()

	steps := 0
	for {
		_, _, done := tk.Step(404)
		steps++
		if done {
			break
		}
		if steps > 1000 {
			t.Fatal("episode never terminated")
		}
	}

	// 1s at 50 Hz
	if steps < 50 || steps > 51 {
		t.Errorf("expected about 50 steps, got %d", steps)
	}
	if tk.Phase() != PhaseTerminated {
		t.Errorf("expected terminated phase, got %s", tk.Phase())
	}
}
