package task_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/quadtask/internal/integrators"
	"github.com/san-kum/quadtask/internal/physics"
	"github.com/san-kum/quadtask/internal/task"
)

var _ = Describe("Episode lifecycle", func() {
	var (
		sim *physics.Sim
		tk  *task.Task
	)

	BeforeEach(func() {
		sim = physics.NewSim(physics.NewQuadcopter(), integrators.NewRK4(), physics.InitialConditions{}, 2)
		tk = task.New(task.Config{Seed: 2024}, task.WithSimulator(sim))
	})

	Context("on reset", func() {
		It("perturbs the altitude within one perturbation unit", func() {
			for i := 0; i < 20; i++ {
				obs := tk.Reset()
				Expect(obs).To(HaveLen(tk.StateSize()))
				Expect(obs[1]).To(BeZero())
				Expect(sim.Pose()[2]).To(BeNumerically("~", physics.DefaultInitPose[2], task.PerturbUnit+1e-12))
				Expect(obs[0]).To(BeNumerically("~", (sim.Pose()[2]-task.HoverHeight)/task.ResetZScale, 1e-12))
			}
		})

		It("rewinds the simulator clock", func() {
			tk.Reset()
			tk.Step(404)
			tk.Step(404)
			Expect(sim.Time()).To(BeNumerically(">", 0))

			tk.Reset()
			Expect(sim.Time()).To(BeZero())
			Expect(tk.Phase()).To(Equal(task.PhaseReset))
		})
	})

	Context("while stepping", func() {
		BeforeEach(func() {
			tk.Reset()
		})

		It("normalizes altitude and climb rate by the step scale", func() {
			obs, _, _ := tk.Step(404)
			Expect(obs).To(HaveLen(2))
			Expect(obs[0]).To(BeNumerically("~", (sim.Pose()[2]-task.HoverHeight)/task.StepZScale, 1e-12))
			Expect(obs[1]).To(BeNumerically("~", sim.Velocity()[2]/task.StepZScale, 1e-12))
		})

		It("reports the reward of the post-step pose", func() {
			_, reward, _ := tk.Step(410)
			Expect(reward).To(Equal(tk.Reward()))
			Expect(reward).To(BeNumerically("<", 3*math.Tanh(1)))
			Expect(reward).To(BeNumerically(">", -3))
		})

		It("climbs above hover speed and sinks below it", func() {
			z0 := sim.Pose()[2]
			for i := 0; i < 50; i++ {
				tk.Step(task.ActionHigh)
			}
			Expect(sim.Pose()[2]).To(BeNumerically(">", z0+0.1))

			tk.Reset()
			z0 = sim.Pose()[2]
			for i := 0; i < 50; i++ {
				tk.Step(task.ActionLow)
			}
			Expect(sim.Pose()[2]).To(BeNumerically("<", z0-0.1))
		})

		It("terminates once the runtime elapses", func() {
			var done bool
			steps := 0
			for !done && steps < 500 {
				_, _, done = tk.Step(404)
				steps++
			}
			Expect(done).To(BeTrue())
			Expect(tk.Phase()).To(Equal(task.PhaseTerminated))
			Expect(sim.Time()).To(BeNumerically(">", 2))
		})

		It("keeps stepping after termination when asked to", func() {
			for {
				if _, _, done := tk.Step(404); done {
					break
				}
			}
			obs, _, done := tk.Step(404)
			Expect(obs).To(HaveLen(2))
			Expect(done).To(BeTrue())
		})
	})

	Context("with a seeded source", func() {
		It("reproduces reset observations across controllers", func() {
			other := task.New(task.Config{Seed: 2024})
			for i := 0; i < 5; i++ {
				Expect(tk.Reset()).To(Equal(other.Reset()))
			}
		})

		It("diverges for different seeds", func() {
			other := task.New(task.Config{Seed: 2025})
			Expect(tk.Reset()).NotTo(Equal(other.Reset()))
		})
	})
})
