package sim_test

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jaxs-ribs/arena-sub001/internal/logging"
	"github.com/jaxs-ribs/arena-sub001/internal/physics"
	"github.com/jaxs-ribs/arena-sub001/internal/sim"
)

var up = mgl64.Vec3{0, 1, 0}

type frameCounter struct {
	frames []sim.Frame
}

func (c *frameCounter) OnStep(f sim.Frame) { c.frames = append(c.frames, f) }

func mustAdd(i int, err error) int {
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return i
}

var _ = Describe("Simulation", func() {
	Describe("free fall", func() {
		const (
			h0 = 10.0
			g  = 9.81
			dt = 0.01
			n  = 100
		)
		semiImplicit := h0 - g*dt*dt*n*(n+1)/2

		It("follows the semi-implicit Euler closed form", func() {
			s, err := sim.NewWithSingleSphere(h0)
			Expect(err).NotTo(HaveOccurred())
			snap, err := s.Run(dt, n)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Kind).To(Equal("sphere"))
			Expect(snap.Position.Y()).To(BeNumerically("~", semiImplicit, 1e-4))
			Expect(snap.Velocity.Y()).To(BeNumerically("~", -g*dt*n, 1e-9))
			Expect(s.Tick()).To(Equal(n))
			Expect(s.Time()).To(BeNumerically("~", dt*n, 1e-9))
		})

		It("trails the continuous solution by g*dt*T/2", func() {
			continuous := h0 - 0.5*g*(dt*n)*(dt*n)
			Expect(semiImplicit - continuous).To(BeNumerically("~", -0.5*g*dt*(dt*n), 1e-9))
		})
	})

	DescribeTable("ground settle",
		func(p sim.Pipeline) {
			s := sim.New(sim.WithPipeline(p))
			mustAdd(s.AddPlane(up, 0))
			i := mustAdd(s.AddSphere(mgl64.Vec3{0, -0.1, 0}, 0.5, 1))
			Expect(s.Designate(i)).To(Succeed())
			snap, err := s.Run(0.01, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(snap.Position.Y()).To(BeNumerically(">=", 0))
			Expect(s.LastReport().Contacts).NotTo(BeEmpty())
			Expect(s.LastReport().MaxDepth).To(BeNumerically(">", 0.5))
		},
		Entry("direct", sim.PipelineDirect),
		Entry("kernels", sim.PipelineKernels),
	)

	It("comes to rest on the ground without sinking", func() {
		s := sim.New()
		mustAdd(s.AddPlane(up, 0))
		i := mustAdd(s.AddSphere(mgl64.Vec3{0, 2, 0}, 0.5, 1))
		snap, err := s.Run(0.01, 300)
		Expect(err).NotTo(HaveOccurred())
		Expect(snap.Index).To(Equal(i))
		Expect(snap.Position.Y()).To(BeNumerically("~", 0.5, 0.02))
		Expect(snap.Velocity.Y()).To(BeNumerically("~", 0, 1e-3))
	})

	It("keeps every resolved pair within slop after each tick", func() {
		s := sim.New()
		mustAdd(s.AddPlane(up, 0))
		mustAdd(s.AddSphere(mgl64.Vec3{0, 3, 0}, 0.5, 1))
		mustAdd(s.AddBox(mgl64.Vec3{5, 2, 0}, mgl64.Vec3{0.5, 0.5, 0.5}, 2))
		slop := s.ContactSolver().Slop
		for tick := 0; tick < 300; tick++ {
			Expect(s.Step()).To(Succeed())
			for _, c := range s.LastReport().Contacts {
				a, err := s.Body(c.A)
				Expect(err).NotTo(HaveOccurred())
				b, err := s.Body(c.B)
				Expect(err).NotTo(HaveOccurred())
				fresh, out := physics.Collide(&a, &b)
				if out == physics.Hit {
					Expect(fresh.Depth).To(BeNumerically("<=", slop+1e-9), "tick %d pair %d-%d", tick, c.A, c.B)
				}
			}
		}
	})

	It("satisfies a distance joint exactly under pure projection", func() {
		s := sim.New(sim.WithGravity(mgl64.Vec3{}))
		a := mustAdd(s.AddSphere(mgl64.Vec3{0, 0, 0}, 0.1, 1))
		b := mustAdd(s.AddSphere(mgl64.Vec3{3, 0, 0}, 0.1, 1))
		mustAdd(s.AddDistanceJoint(a, b, 2))
		_, err := s.Run(0, 1)
		Expect(err).NotTo(HaveOccurred())
		pa, _ := s.Snapshot(a)
		pb, _ := s.Snapshot(b)
		Expect(pb.Position.Sub(pa.Position).Len()).To(BeNumerically("~", 2, 1e-5))
	})

	It("keeps a ten-link chain roughly intact", func() {
		s := sim.New()
		var ids []int
		for i := 0; i < 10; i++ {
			mass := 1.0
			if i == 0 {
				mass = 0
			}
			ids = append(ids, mustAdd(s.AddSphere(mgl64.Vec3{float64(i), 5, 0}, 0.1, mass)))
		}
		for i := 1; i < len(ids); i++ {
			mustAdd(s.AddDistanceJoint(ids[i-1], ids[i], 1))
		}
		_, err := s.Run(0.01, 10)
		Expect(err).NotTo(HaveOccurred())
		first, _ := s.Snapshot(ids[0])
		last, _ := s.Snapshot(ids[9])
		Expect(last.Position.Sub(first.Position).Len()).To(BeNumerically("~", 9, 0.5))
		Expect(first.Position).To(Equal(mgl64.Vec3{0, 5, 0}))
	})

	It("is deterministic for identical inputs", func() {
		build := func() *sim.Simulation {
			s := sim.New()
			mustAdd(s.AddPlane(up, 0))
			for i := 0; i < 12; i++ {
				x := float64(i%4) * 0.9
				z := float64(i/4) * 0.9
				mustAdd(s.AddSphere(mgl64.Vec3{x, 1 + 0.3*float64(i), z}, 0.5, 1))
			}
			return s
		}
		a, b := build(), build()
		for i := 0; i < 200; i++ {
			Expect(a.Step()).To(Succeed())
			Expect(b.Step()).To(Succeed())
		}
		Expect(a.Snapshots()).To(Equal(b.Snapshots()))
	})

	It("accelerates bodies in inverse proportion to mass", func() {
		s := sim.New(sim.WithGravity(mgl64.Vec3{}))
		light := mustAdd(s.AddSphere(mgl64.Vec3{0, 0, 0}, 0.5, 1))
		heavy := mustAdd(s.AddSphere(mgl64.Vec3{0, 0, 10}, 0.5, 4))
		f := mgl64.Vec3{1, 0, 0}
		Expect(s.SetForce(light, f)).To(Succeed())
		Expect(s.SetForce(heavy, f)).To(Succeed())
		_, err := s.Run(0.01, 10)
		Expect(err).NotTo(HaveOccurred())
		l, _ := s.Snapshot(light)
		h, _ := s.Snapshot(heavy)
		Expect(l.Velocity.X()).To(BeNumerically("~", 0.1, 1e-12))
		Expect(l.Velocity.X()).To(BeNumerically("~", 4*h.Velocity.X(), 1e-12))
	})

	It("gives the lighter of two pushed unit spheres more speed in one step", func() {
		s := sim.New(sim.WithGravity(mgl64.Vec3{}))
		light := mustAdd(s.AddSphere(mgl64.Vec3{0, 0, 0}, 1, 1))
		heavy := mustAdd(s.AddSphere(mgl64.Vec3{0, 0, 10}, 1, 2))
		f := mgl64.Vec3{5, 0, 0}
		Expect(s.SetForce(light, f)).To(Succeed())
		Expect(s.SetForce(heavy, f)).To(Succeed())
		_, err := s.Run(0.1, 1)
		Expect(err).NotTo(HaveOccurred())
		l, _ := s.Snapshot(light)
		h, _ := s.Snapshot(heavy)
		Expect(l.Velocity.X()).To(BeNumerically(">", h.Velocity.X()))
		Expect(l.Velocity.X()).To(BeNumerically("~", 0.5, 1e-12))
		Expect(h.Velocity.X()).To(BeNumerically("~", 0.25, 1e-12))
	})

	It("lets a compliant distance joint stretch where a stiff one does not", func() {
		separation := func(compliance float64) float64 {
			s := sim.New(sim.WithGravity(mgl64.Vec3{}))
			a := mustAdd(s.AddSphere(mgl64.Vec3{0, 0, 0}, 0.1, 1))
			b := mustAdd(s.AddSphere(mgl64.Vec3{3, 0, 0}, 0.1, 1))
			mustAdd(s.AddSoftDistanceJoint(a, b, 2, compliance))
			joints := s.Joints()
			Expect(joints).To(HaveLen(1))
			Expect(joints[0].Kind).To(Equal(physics.JointDistance))
			Expect(joints[0].Compliance).To(Equal(compliance))
			joints[0].RestLength = 100
			_, err := s.Run(0.01, 1)
			Expect(err).NotTo(HaveOccurred())
			pa, _ := s.Snapshot(a)
			pb, _ := s.Snapshot(b)
			return pb.Position.Sub(pa.Position).Len()
		}
		Expect(separation(0)).To(BeNumerically("~", 2, 1e-9))
		soft := separation(1e-4)
		Expect(soft).To(BeNumerically(">", 2.1))
		Expect(soft).To(BeNumerically("<", 3))
	})

	It("fails a strict tick on a pair it has no test for", func() {
		s := sim.New(sim.WithGravity(mgl64.Vec3{}), sim.WithStrictContacts())
		mustAdd(s.AddBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}, 1))
		mustAdd(s.AddCylinder(mgl64.Vec3{0.5, 0, 0}, 0.5, 0.5, 1))
		err := s.Step()
		Expect(err).To(MatchError(physics.ErrUnsupportedPair))
		var pairErr *physics.UnsupportedPairError
		Expect(errors.As(err, &pairErr)).To(BeTrue())
		Expect(pairErr.A).To(Equal(physics.KindBox))
		Expect(pairErr.B).To(Equal(physics.KindCylinder))
		var stepErr *sim.StepError
		Expect(errors.As(err, &stepErr)).To(BeTrue())
		Expect(s.Tick()).To(Equal(1))
	})

	Describe("bookkeeping", func() {
		It("steps an empty simulation as a no-op", func() {
			counter := &frameCounter{}
			s := sim.New(sim.WithObserver(counter))
			Expect(s.Step()).To(Succeed())
			Expect(s.Tick()).To(BeZero())
			Expect(s.Time()).To(BeZero())
			Expect(counter.frames).To(BeEmpty())
			_, err := s.Run(0.01, 5)
			Expect(err).To(MatchError(sim.ErrNoBodies))
		})

		It("issues dense stable indices", func() {
			s := sim.New()
			Expect(mustAdd(s.AddPlane(up, 0))).To(Equal(0))
			Expect(mustAdd(s.AddSphere(mgl64.Vec3{0, 1, 0}, 0.5, 1))).To(Equal(1))
			Expect(mustAdd(s.AddBox(mgl64.Vec3{3, 1, 0}, mgl64.Vec3{1, 1, 1}, 1))).To(Equal(2))
			Expect(mustAdd(s.AddCylinder(mgl64.Vec3{6, 1, 0}, 0.5, 1, 1))).To(Equal(3))
			Expect(s.BodyCount()).To(Equal(4))
		})

		It("rejects invalid bodies and joints", func() {
			s := sim.New()
			_, err := s.AddSphere(mgl64.Vec3{}, -1, 1)
			Expect(err).To(MatchError(sim.ErrInvalidBody))
			Expect(err).To(MatchError(physics.ErrInvalidShape))
			_, err = s.AddPlane(mgl64.Vec3{}, 0)
			Expect(err).To(MatchError(sim.ErrInvalidBody))

			plane := mustAdd(s.AddPlane(up, 0))
			ball := mustAdd(s.AddSphere(mgl64.Vec3{0, 1, 0}, 0.5, 1))
			_, err = s.AddDistanceJoint(plane, ball, 1)
			Expect(err).To(MatchError(sim.ErrInvalidJoint))
			_, err = s.AddDistanceJoint(ball, 7, 1)
			Expect(err).To(MatchError(sim.ErrInvalidJoint))
			_, err = s.AddDistanceJoint(ball, ball, 1)
			Expect(err).To(MatchError(sim.ErrInvalidJoint))
			Expect(s.JointCount()).To(BeZero())
			Expect(s.BodyCount()).To(Equal(2))
		})

		It("rejects out-of-range queries", func() {
			s := sim.New()
			mustAdd(s.AddSphere(mgl64.Vec3{}, 0.5, 1))
			_, err := s.Snapshot(3)
			Expect(err).To(MatchError(sim.ErrIndexOutOfRange))
			Expect(s.SetForce(-1, mgl64.Vec3{})).To(MatchError(sim.ErrIndexOutOfRange))
			Expect(s.Designate(1)).To(MatchError(sim.ErrIndexOutOfRange))
		})

		It("restores the initial state on reset", func() {
			s, err := sim.NewWithSingleSphere(4)
			Expect(err).NotTo(HaveOccurred())
			before := s.Snapshots()
			Expect(s.SetForce(1, mgl64.Vec3{1, 0, 0})).To(Succeed())
			_, err = s.Run(0.01, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Snapshots()).NotTo(Equal(before))

			s.Reset()
			Expect(s.Snapshots()).To(Equal(before))
			Expect(s.Tick()).To(BeZero())
			f, _ := s.Force(1)
			Expect(f).To(Equal(mgl64.Vec3{}))
		})

		It("flattens moving bodies into the observation", func() {
			s, err := sim.NewWithSingleSphere(4)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Observation()).To(Equal([]float64{0, 4, 0, 0, 0, 0}))
		})

		It("stops at cancellation between ticks", func() {
			s, err := sim.NewWithSingleSphere(4)
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err = s.RunContext(ctx, 0.01, 10)
			Expect(err).To(MatchError(context.Canceled))
			Expect(s.Tick()).To(BeZero())
		})
	})

	It("reports pairs it has no test for and warns once per kind pair", func() {
		var out, errOut bytes.Buffer
		log := logging.NewWithWriters("sim", false, &out, &errOut)
		s := sim.New(sim.WithGravity(mgl64.Vec3{}), sim.WithLogger(log))
		box := mustAdd(s.AddBox(mgl64.Vec3{}, mgl64.Vec3{0.5, 0.5, 0.5}, 1))
		cyl := mustAdd(s.AddCylinder(mgl64.Vec3{0.5, 0, 0}, 0.5, 0.5, 1))
		Expect(s.Step()).To(Succeed())
		Expect(s.Step()).To(Succeed())

		Expect(s.LastReport().Unsupported).To(ConsistOf(sim.UnsupportedPair{
			A: box, B: cyl, KindA: physics.KindBox, KindB: physics.KindCylinder,
		}))
		Expect(s.LastReport().Contacts).To(BeEmpty())
		Expect(strings.Count(errOut.String(), "no contact test")).To(Equal(1))
	})

	It("hands every tick to observers and metrics", func() {
		counter := &frameCounter{}
		s, err := sim.NewWithSingleSphere(4, sim.WithObserver(counter))
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Run(0.01, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(counter.frames).To(HaveLen(5))
		last := counter.frames[4]
		Expect(last.Tick).To(Equal(5))
		Expect(last.Bodies).To(HaveLen(2))
		Expect(last.Bodies[0].Kind).To(Equal("plane"))
		Expect(last.Bodies[0].Static).To(BeTrue())
	})
})
