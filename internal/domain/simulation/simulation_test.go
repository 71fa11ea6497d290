package simulation_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/racepick/internal/domain/model"
	"github.com/okian/racepick/internal/domain/simulation"
	. "github.com/smartystreets/goconvey/convey"
	"gonum.org/v1/gonum/stat/combin"
)

// raceWinProbability is the closed form chance of reaching ours wins before
// theirs losses with per-game win probability p.
func raceWinProbability(p float64, race model.Race) float64 {
	total := 0.0
	for j := 0; j < race.Theirs; j++ {
		total += float64(combin.Binomial(race.Ours-1+j, j)) * math.Pow(p, float64(race.Ours)) * math.Pow(1-p, float64(j))
	}
	return total
}

func TestSimulator_Simulate(t *testing.T) {
	Convey("Given a seeded simulator", t, func() {
		sim := simulation.New(simulation.WithTrials(5_000), simulation.WithSeed(7))

		Convey("When the player always wins a 10-2 race", func() {
			d, err := sim.Simulate(100, model.Race{Ours: 10, Theirs: 2})

			Convey("Then every race is a shutout win", func() {
				So(err, ShouldBeNil)
				So(d, ShouldResemble, simulation.Distribution{0, 0, 0, 0, 100})
				So(d.Expected(), ShouldEqual, 20.0)
			})
		})

		Convey("When the player never wins a 2-2 race", func() {
			d, err := sim.Simulate(0, model.Race{Ours: 2, Theirs: 2})

			Convey("Then every race is a shutout loss", func() {
				So(err, ShouldBeNil)
				So(d, ShouldResemble, simulation.Distribution{100, 0, 0, 0, 0})
				So(d.Expected(), ShouldEqual, 1.0)
			})
		})

		Convey("When a single-game race is lost", func() {
			d, err := sim.Simulate(0, model.Race{Ours: 1, Theirs: 1})

			Convey("Then the loss counts as a shutout, not a hill loss", func() {
				So(err, ShouldBeNil)
				So(d[simulation.ShutoutLoss], ShouldEqual, 100)
			})
		})

		Convey("When the race target is not positive", func() {
			_, err := sim.Simulate(50, model.Race{Ours: 0, Theirs: 3})

			Convey("Then an invalid race error is returned", func() {
				So(errors.Is(err, simulation.ErrInvalidRace), ShouldBeTrue)
				var raceErr *simulation.InvalidRaceError
				So(errors.As(err, &raceErr), ShouldBeTrue)
				So(raceErr.Race.Theirs, ShouldEqual, 3)
			})
		})

		Convey("When the win percentage is out of range", func() {
			for _, pct := range []float64{-0.1, 100.5, math.NaN()} {
				_, err := sim.Simulate(pct, model.Race{Ours: 3, Theirs: 3})
				So(errors.Is(err, simulation.ErrInvalidProbability), ShouldBeTrue)
			}
		})
	})
}

func TestSimulator_SumsToHundred(t *testing.T) {
	Convey("Given simulators with awkward trial counts", t, func() {
		races := []model.Race{{Ours: 2, Theirs: 2}, {Ours: 3, Theirs: 7}, {Ours: 10, Theirs: 2}, {Ours: 1, Theirs: 4}}
		pcts := []float64{0, 12.5, 33.3, 50, 61.9, 99, 100}

		Convey("Then every distribution sums to exactly 100 with no negative bucket", func() {
			for _, trials := range []int{3, 7, 11, 997} {
				sim := simulation.New(simulation.WithTrials(trials), simulation.WithSeed(int64(trials)))
				for _, race := range races {
					for _, pct := range pcts {
						d, err := sim.Simulate(pct, race)
						So(err, ShouldBeNil)
						So(d.Sum(), ShouldEqual, 100)
						for _, p := range d {
							So(p, ShouldBeGreaterThanOrEqualTo, 0)
						}
					}
				}
			}
		})
	})
}

func TestSimulator_ClosedForm(t *testing.T) {
	Convey("Given 100,000 trials at an even win percentage", t, func() {
		sim := simulation.New(simulation.WithTrials(100_000), simulation.WithSeed(42))

		for _, race := range []model.Race{{Ours: 10, Theirs: 2}, {Ours: 5, Theirs: 5}, {Ours: 4, Theirs: 2}} {
			Convey("When racing "+race.String(), func() {
				d, err := sim.Simulate(50, race)
				So(err, ShouldBeNil)

				Convey("Then the win share is within two points of the closed form", func() {
					want := raceWinProbability(0.5, race) * 100
					So(float64(d.WinShare()), ShouldAlmostEqual, want, 2)
				})
			})
		}
	})
}

func TestNormalize(t *testing.T) {
	Convey("Given counts that round short of 100", t, func() {
		d := simulation.Normalize(simulation.Counts{1, 1, 1, 0, 0})

		Convey("Then the win bucket absorbs the slack", func() {
			So(d, ShouldResemble, simulation.Distribution{33, 33, 33, 1, 0})
		})
	})

	Convey("Given counts that round past 100", t, func() {
		d := simulation.Normalize(simulation.Counts{1, 1, 1, 1, 2})

		Convey("Then the win bucket gives up the excess", func() {
			So(d, ShouldResemble, simulation.Distribution{17, 17, 17, 16, 33})
		})
	})

	Convey("Given counts that round past 100 with an empty win bucket", t, func() {
		d := simulation.Normalize(simulation.Counts{1, 1, 1, 0, 5})

		Convey("Then the largest bucket gives up what win cannot", func() {
			So(d, ShouldResemble, simulation.Distribution{13, 13, 13, 0, 61})
		})
	})

	Convey("Given no counts", t, func() {
		Convey("Then the distribution is empty", func() {
			So(simulation.Normalize(simulation.Counts{}).Sum(), ShouldEqual, 0)
		})
	})
}

func TestOutcome(t *testing.T) {
	Convey("Given the outcome categories", t, func() {
		Convey("Then points follow the league scale", func() {
			got := make([]int, 0, simulation.OutcomeCount)
			for _, o := range simulation.Outcomes {
				got = append(got, o.Points())
			}
			So(got, ShouldResemble, []int{1, 3, 6, 14, 20})
			So(simulation.HillLoss.String(), ShouldEqual, "hill_loss")
		})
	})
}
