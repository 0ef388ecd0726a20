package sim_test

import (
	"context"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/san-kum/grabsim/internal/body"
	"github.com/san-kum/grabsim/internal/geom"
	"github.com/san-kum/grabsim/internal/grab"
	"github.com/san-kum/grabsim/internal/scenario"
	"github.com/san-kum/grabsim/internal/sim"
)

func newSim(name string, mutate func(*grab.Params, *scenario.Options)) *sim.Simulator {
	GinkgoHelper()
	b, err := body.New(body.DefaultConfig())
	Expect(err).NotTo(HaveOccurred())

	p := grab.DefaultParams()
	o := scenario.DefaultOptions()
	if mutate != nil {
		mutate(&p, &o)
	}
	g, err := grab.New("cube", b, p)
	Expect(err).NotTo(HaveOccurred())
	sc, err := scenario.Build(name, b.Pose().Position, o)
	Expect(err).NotTo(HaveOccurred())
	return sim.New(g, b, sc, nil)
}

func run(s *sim.Simulator) *sim.Result {
	GinkgoHelper()
	res, err := s.Run(context.Background(), sim.DefaultConfig())
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Errors).To(BeEmpty())
	return res
}

func sampleAt(res *sim.Result, t float64) sim.Sample {
	GinkgoHelper()
	for _, s := range res.Samples {
		if s.Time >= t {
			return s
		}
	}
	Fail("no sample at or after the requested time")
	return sim.Sample{}
}

func kinds(evs []grab.Event) []grab.EventKind {
	out := make([]grab.EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

var _ = Describe("Simulator", func() {
	Describe("hold", func() {
		var res *sim.Result

		BeforeEach(func() {
			res = run(newSim("hold", nil))
		})

		It("runs every frame of the scenario", func() {
			Expect(res.Frames).To(Equal(180))
			Expect(res.Samples).To(HaveLen(180))
			Expect(res.Samples[0].Time).To(BeNumerically(">", 0))
			Expect(res.FixedSteps).To(BeNumerically("~", 100, 1))
		})

		It("carries the body on the hand once eased in", func() {
			s := sampleAt(res, 0.5)
			Expect(s.Held).To(BeTrue())
			Expect(s.Position.Sub(s.Hand).Len()).To(BeNumerically("<", 1e-9))
			Expect(s.TrackingError()).To(BeNumerically("<", 1e-9))
		})

		It("reports the grab lifecycle in order", func() {
			Expect(kinds(res.Events)).To(Equal([]grab.EventKind{
				grab.EventSelectEntered,
				grab.EventSelectExited,
				grab.EventDetached,
			}))
		})

		It("drops a still body without throwing it", func() {
			Expect(res.Release).NotTo(BeNil())
			Expect(res.Release.Velocity.Len()).To(BeNumerically("<", 1e-9))

			last := res.Samples[len(res.Samples)-1]
			Expect(last.Held).To(BeFalse())
			Expect(last.Position.Y()).To(BeZero())
		})
	})

	Describe("throw", func() {
		It("releases along the hand's direction of travel", func() {
			res := run(newSim("throw", nil))
			Expect(res.Release).NotTo(BeNil())

			dir := mgl64.Vec3{0, 0.5, 1}.Normalize()
			v := res.Release.Velocity
			Expect(v.Z()).To(BeNumerically(">", 2))
			Expect(v.Normalize().Sub(dir).Len()).To(BeNumerically("<", 1e-6))

			at := sampleAt(res, res.Release.Time)
			Expect(at.Held).To(BeFalse())
			Expect(at.Velocity).To(Equal(v))
		})

		It("throws nothing with throw on detach disabled", func() {
			res := run(newSim("throw", func(p *grab.Params, _ *scenario.Options) { p.ThrowOnDetach = false }))
			Expect(res.Release.Velocity).To(Equal(mgl64.Vec3{}))
			Expect(res.Release.AngularVelocity).To(Equal(mgl64.Vec3{}))

			// Gravity comes back with the release and acts on the frame's
			// fixed step before the sample is taken.
			v := sampleAt(res, res.Release.Time).Velocity
			Expect(v.X()).To(BeZero())
			Expect(v.Z()).To(BeZero())
			Expect(v.Y()).To(BeNumerically("~", -body.DefaultGravity*sim.DefaultFixedDt, 1e-9))
		})

		It("tracks with velocity on the fixed step", func() {
			res := run(newSim("throw", func(p *grab.Params, _ *scenario.Options) {
				p.MovementType = grab.MovementVelocityTracking
			}))
			s := sampleAt(res, 0.9)
			Expect(s.Held).To(BeTrue())
			Expect(s.Velocity.Len()).To(BeNumerically(">", 0))
			Expect(s.TrackingError()).To(BeNumerically("<", 0.2))
		})
	})

	It("keeps the throw still across a teleport", func() {
		res := run(newSim("teleport", nil))
		Expect(res.Release).NotTo(BeNil())
		Expect(res.Release.Velocity.Len()).To(BeNumerically("<", 1e-6))

		s := sampleAt(res, 0.9)
		Expect(s.Position.X()).To(BeNumerically("~", 5, 1e-9))
	})

	It("hands the body from one hand to the other", func() {
		res := run(newSim("handoff", nil))
		Expect(kinds(res.Events)).To(Equal([]grab.EventKind{
			grab.EventSelectEntered,
			grab.EventSelectEntered,
			grab.EventSelectExited,
			grab.EventSelectExited,
			grab.EventDetached,
		}))
		Expect(res.Events[4].Interactor.ID()).To(Equal(grab.InteractorID("right")))

		s := sampleAt(res, 0.9)
		Expect(s.Held).To(BeTrue())
		Expect(s.Hand.X()).To(BeNumerically("~", 0.4, 1e-9))
	})

	It("freezes the body when the holding hand is lost", func() {
		res := run(newSim("lost_tracking", nil))
		a, b := sampleAt(res, 0.6), sampleAt(res, 0.95)
		Expect(a.Held).To(BeTrue())
		Expect(b.Position).To(Equal(a.Position))
		Expect(res.Release.Velocity.Len()).To(BeNumerically("<", 1e-9))
	})

	It("switches movement type mid-grab", func() {
		res := run(newSim("switch", nil))
		Expect(res.Release).NotTo(BeNil())
		Expect(sampleAt(res, 0.9).Velocity.Len()).To(BeNumerically(">", 0))
	})

	Describe("Result.Series", func() {
		It("extracts named series", func() {
			res := run(newSim("hold", nil))
			for _, name := range sim.SeriesNames {
				series, err := res.Series(name)
				Expect(err).NotTo(HaveOccurred())
				Expect(series).To(HaveLen(len(res.Samples)))
			}
			ys, _ := res.Series("y")
			Expect(ys[len(ys)-1]).To(BeZero())
			Expect(res.Times()[0]).To(BeNumerically("~", sim.DefaultDt, 1e-12))

			_, err := res.Series("jerk")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("errors", func() {
		DescribeTable("rejects bad frame timing",
			func(mutate func(*sim.Config)) {
				cfg := sim.DefaultConfig()
				mutate(&cfg)
				_, err := newSim("hold", nil).Run(context.Background(), cfg)
				Expect(err).To(MatchError(sim.ErrInvalidConfig))
			},
			Entry("zero dt", func(c *sim.Config) { c.Dt = 0 }),
			Entry("negative fixed dt", func(c *sim.Config) { c.FixedDt = -1 }),
			Entry("negative duration", func(c *sim.Config) { c.Duration = -1 }),
			Entry("no fixed steps", func(c *sim.Config) { c.MaxFixedSteps = 0 }),
		)

		It("stops on an action for an unknown hand", func() {
			b, _ := body.New(body.DefaultConfig())
			g, _ := grab.New("cube", b, grab.DefaultParams())
			rig := scenario.NewRig(geom.Identity())
			sc := &scenario.Scenario{
				Name:    "bad",
				Hands:   []*scenario.Hand{scenario.NewHand("right", scenario.Still(b.Pose()), rig)},
				Rig:     rig,
				Actions: []scenario.Action{{At: 0.05, Kind: scenario.ActionSelect, Hand: "third"}},
				Settle:  1,
			}

			_, err := sim.New(g, b, sc, nil).Run(context.Background(), sim.DefaultConfig())
			Expect(err).To(MatchError(sim.ErrUnknownHand))
			var se *sim.SimError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Time).To(BeNumerically(">=", 0.05))
		})

		It("honours cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := newSim("hold", nil).Run(ctx, sim.DefaultConfig())
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("RunWithCallback", func() {
		It("stops when the callback declines", func() {
			n := 0
			err := newSim("hold", nil).RunWithCallback(context.Background(), sim.DefaultConfig(), func(sim.Sample) bool {
				n++
				return n < 10
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(10))
		})

		It("runs for the configured duration", func() {
			cfg := sim.DefaultConfig()
			cfg.Duration = 0.5
			var last float64
			err := newSim("hold", nil).RunWithCallback(context.Background(), cfg, func(s sim.Sample) bool {
				last = s.Time
				return true
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(last).To(BeNumerically("~", 0.5, sim.DefaultDt))
		})
	})

	Describe("Stepper", func() {
		It("matches a full run frame for frame", func() {
			want := run(newSim("throw", nil))

			st, err := newSim("throw", nil).Start(sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(st.Frames()).To(Equal(want.Frames))

			var got []sim.Sample
			for !st.Done() {
				smp, err := st.Step()
				Expect(err).NotTo(HaveOccurred())
				got = append(got, smp)
			}
			Expect(got).To(Equal(want.Samples))
			Expect(st.Result().Release).To(Equal(want.Release))

			smp, err := st.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(smp).To(Equal(sim.Sample{}))
		})
	})

	Describe("observers and metrics", func() {
		It("sees every frame", func() {
			s := newSim("hold", nil)
			frames := 0
			s.AddObserver(sim.ObserverFunc(func(sim.Sample) { frames++ }))
			s.AddMetric(&maxHeight{})

			res := run(s)
			Expect(frames).To(Equal(res.Frames))
			Expect(res.Metrics).To(HaveKeyWithValue("max_height", BeNumerically("~", 1.1, 1e-9)))
		})
	})

	Describe("Ensemble", func() {
		factory := func(seed int64) (*sim.Simulator, error) {
			return newSim("hold", func(_ *grab.Params, o *scenario.Options) {
				o.Jitter = 0.001
				o.Seed = seed
			}), nil
		}

		It("returns one result per seed, in order", func() {
			e := sim.NewEnsemble(factory, 4, 10)
			e.SetLimit(2)
			results, err := e.Run(context.Background(), sim.DefaultConfig())
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(4))

			again, err := factory(10)
			Expect(err).NotTo(HaveOccurred())
			first := run(again)
			Expect(results[0].Samples[50]).To(Equal(first.Samples[50]))
			Expect(results[1].Samples[50]).NotTo(Equal(first.Samples[50]))
		})

		It("fails when a member cannot be built", func() {
			boom := errors.New("boom")
			e := sim.NewEnsemble(func(seed int64) (*sim.Simulator, error) {
				if seed == 2 {
					return nil, boom
				}
				return factory(seed)
			}, 4, 0)
			_, err := e.Run(context.Background(), sim.DefaultConfig())
			Expect(err).To(MatchError(boom))
		})
	})
})

type maxHeight struct{ v float64 }

func (m *maxHeight) Name() string { return "max_height" }
func (m *maxHeight) Observe(s sim.Sample) {
	m.v = math.Max(m.v, s.Position.Y())
}
func (m *maxHeight) Value() float64 { return m.v }
func (m *maxHeight) Reset()         { m.v = 0 }
