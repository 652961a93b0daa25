package adversary_test

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/synaptic/internal/domain/adversary"
	"github.com/okian/synaptic/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tangler-%d", n)
	}
}

func newPopulation(opts ...adversary.Option) *adversary.Population {
	base := []adversary.Option{
		adversary.WithRand(rand.New(rand.NewSource(42))),
		adversary.WithIDGenerator(sequentialIDs()),
	}
	return adversary.New(append(base, opts...)...)
}

var origin = types.Vec3{}

func TestPopulation_Spawning(t *testing.T) {
	Convey("Given an empty population with default settings", t, func() {
		p := newPopulation()

		Convey("When less than one spawn interval passes", func() {
			spawned := p.Tick(1.9, origin)

			Convey("Then nothing spawns", func() {
				So(spawned, ShouldBeEmpty)
				So(p.Len(), ShouldEqual, 0)
			})
		})

		Convey("When n full intervals pass", func() {
			for _, n := range []int{1, 3, 8, 12} {
				q := newPopulation()
				for i := 0; i < n; i++ {
					q.Tick(2.0, origin)
				}
				So(q.Len(), ShouldEqual, min(n, adversary.DefaultMaxPopulation))
			}
		})

		Convey("When a single huge tick passes", func() {
			spawned := p.Tick(100, origin)

			Convey("Then at most one adversary spawns per tick", func() {
				So(len(spawned), ShouldEqual, 1)
				So(p.Len(), ShouldEqual, 1)
			})
		})

		Convey("When an adversary spawns", func() {
			spawned := p.Tick(2.0, types.Vec3{X: 1000, Z: 1000})
			a := spawned[0]

			Convey("Then it has the spawn attributes", func() {
				So(a.ID, ShouldEqual, "tangler-1")
				So(a.Health, ShouldEqual, adversary.DefaultHealth)
				So(a.Speed, ShouldBeBetweenOrEqual, 0.5, 1.5)
				So(a.Scale, ShouldBeBetweenOrEqual, 0.6, 1.2)
			})

			Convey("Then it is placed inside the spawn square", func() {
				got, err := p.Get(a.ID)
				So(err, ShouldBeNil)
				// It already moved toward the far target this tick.
				So(math.Abs(got.Position.Z), ShouldBeLessThanOrEqualTo, adversary.SpawnExtent+2*1.5)
				So(math.Abs(a.Position.X), ShouldBeLessThanOrEqualTo, adversary.SpawnExtent+2*1.5)
			})
		})

		Convey("When using uuid ids", func() {
			q := adversary.New(adversary.WithRand(rand.New(rand.NewSource(1))))
			a := q.Tick(2, origin)[0]

			Convey("Then ids are unique uuids", func() {
				So(len(a.ID), ShouldEqual, 36)
				q.Tick(2, origin)
				snap := q.Snapshot()
				So(snap[0].ID, ShouldNotEqual, snap[1].ID)
			})
		})
	})

	Convey("Given a custom cap and spawn interval", t, func() {
		p := newPopulation(adversary.WithMaxPopulation(3), adversary.WithSpawnInterval(500*time.Millisecond))

		Convey("When many intervals pass", func() {
			for i := 0; i < 10; i++ {
				p.Tick(0.5, origin)
			}

			Convey("Then the population stops at the cap", func() {
				So(p.Len(), ShouldEqual, 3)
				So(p.Cap(), ShouldEqual, 3)
			})

			Convey("Then the timer keeps running at the cap and a freed slot refills on the next tick", func() {
				So(p.ApplyDamage("tangler-1", 1000).Outcome, ShouldEqual, adversary.Destroyed)
				spawned := p.Tick(0.01, origin)
				So(len(spawned), ShouldEqual, 1)
				So(spawned[0].ID, ShouldEqual, "tangler-4")
				So(p.Len(), ShouldEqual, 3)
			})
		})
	})
}

func TestPopulation_Movement(t *testing.T) {
	Convey("Given a spawned adversary", t, func() {
		p := newPopulation()
		far := types.Vec3{X: 50, Z: 0}
		a := p.Tick(2.0, far)[0]
		before, _ := p.Get(a.ID)

		Convey("When ticking toward a far target", func() {
			p.Tick(1.0, far)
			after, _ := p.Get(a.ID)

			Convey("Then it moves by its speed", func() {
				moved := types.PlanarDistance(before.Position, after.Position)
				So(moved, ShouldAlmostEqual, before.Speed, 1e-9)
				So(types.PlanarDistance(after.Position, far), ShouldBeLessThan, types.PlanarDistance(before.Position, far))
			})

			Convey("Then the pulse follows the phase", func() {
				So(after.RotationPhase, ShouldAlmostEqual, before.RotationPhase+2.0, 1e-12)
				So(after.Scale, ShouldAlmostEqual, 0.8+0.2*math.Sin(after.RotationPhase), 1e-12)
			})
		})

		Convey("When the target sits inside the stopping radius", func() {
			near := types.Vec3{X: before.Position.X + 1.0, Z: before.Position.Z}
			p.Tick(1.0, near)
			after, _ := p.Get(a.ID)

			Convey("Then it does not move", func() {
				So(after.Position, ShouldResemble, before.Position)
				So(p.Contacts(near), ShouldEqual, 1)
			})
		})

		Convey("When walking long enough", func() {
			for i := 0; i < 600; i++ {
				p.Tick(0.1, origin)
			}

			Convey("Then it ends in contact range of the target", func() {
				So(p.Contacts(origin), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})
	})
}

func TestPopulation_Damage(t *testing.T) {
	Convey("Given a population with one adversary", t, func() {
		p := newPopulation()
		id := p.Tick(2.0, origin)[0].ID

		Convey("When damaging it partially", func() {
			res := p.ApplyDamage(id, 25)

			Convey("Then it is damaged and stays alive", func() {
				So(res.Outcome, ShouldEqual, adversary.Damaged)
				So(res.Remaining, ShouldEqual, 75.0)
				So(p.Len(), ShouldEqual, 1)
			})
		})

		Convey("When damage 15 hits an adversary at health 10", func() {
			p.ApplyDamage(id, 90)
			res := p.ApplyDamage(id, 15)

			Convey("Then it is destroyed and removed", func() {
				So(res.Outcome, ShouldEqual, adversary.Destroyed)
				So(p.Len(), ShouldEqual, 0)
				_, err := p.Get(id)
				So(errors.Is(err, adversary.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When damaging an unknown id", func() {
			res := p.ApplyDamage("nobody", 15)

			Convey("Then the outcome is not found", func() {
				So(res.Outcome, ShouldEqual, adversary.NotFound)
				So(p.Len(), ShouldEqual, 1)
			})
		})

		Convey("When a negative amount is applied", func() {
			res := p.ApplyDamage(id, -50)

			Convey("Then health is unchanged", func() {
				So(res.Outcome, ShouldEqual, adversary.Damaged)
				So(res.Remaining, ShouldEqual, adversary.DefaultHealth)
			})
		})

		Convey("When attaching effects", func() {
			ok := p.AttachEffects(id, []string{"stun", "neuroboost"})
			got, _ := p.Get(id)

			Convey("Then the tags are recorded", func() {
				So(ok, ShouldBeTrue)
				So(got.Effects, ShouldResemble, []string{"stun", "neuroboost"})
				So(p.AttachEffects("nobody", []string{"stun"}), ShouldBeFalse)
			})
		})
	})

	Convey("Given several adversaries", t, func() {
		p := newPopulation()
		for i := 0; i < 4; i++ {
			p.Tick(2.0, origin)
		}

		Convey("When destroying one in the middle", func() {
			p.ApplyDamage("tangler-2", 1000)

			Convey("Then the rest remain addressable", func() {
				So(p.Len(), ShouldEqual, 3)
				for _, id := range []string{"tangler-1", "tangler-3", "tangler-4"} {
					got, err := p.Get(id)
					So(err, ShouldBeNil)
					So(got.ID, ShouldEqual, id)
				}
			})
		})
	})
}

func TestPopulation_Clear(t *testing.T) {
	Convey("Given a population filled to the cap", t, func() {
		p := newPopulation()
		for i := 0; i < 10; i++ {
			p.Tick(2.0, origin)
		}
		So(p.Len(), ShouldEqual, 8)

		Convey("When clearing it", func() {
			n := p.Clear()

			Convey("Then it reports the prior count and is empty", func() {
				So(n, ShouldEqual, 8)
				So(p.Len(), ShouldEqual, 0)
				So(p.Snapshot(), ShouldBeEmpty)
			})

			Convey("And spawning resumes on the next interval", func() {
				p.Tick(2.0, origin)
				So(p.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestPopulation_SnapshotIsACopy(t *testing.T) {
	p := newPopulation()
	id := p.Tick(2.0, origin)[0].ID
	p.AttachEffects(id, []string{"stun"})

	snap := p.Snapshot()
	snap[0].Health = -1
	snap[0].Effects[0] = "mutated"

	got, err := p.Get(id)
	if err != nil {
		t.Fatalf("Get(%q): %v", id, err)
	}
	if got.Health != adversary.DefaultHealth || got.Effects[0] != "stun" {
		t.Errorf("snapshot mutation leaked into population: %+v", got)
	}
}

func TestOutcome_String(t *testing.T) {
	cases := map[adversary.Outcome]string{
		adversary.Damaged:     "damaged",
		adversary.Destroyed:   "destroyed",
		adversary.NotFound:    "not_found",
		adversary.Outcome(42): "outcome(42)",
	}
	for o, want := range cases {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", int(o), got, want)
		}
	}
}
