package history_test

import (
	"errors"
	"testing"

	"github.com/okian/racepick/internal/domain/history"
	"github.com/okian/racepick/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestAggregator_Aggregate(t *testing.T) {
	Convey("Given a default aggregator", t, func() {
		agg := history.New()

		Convey("When the exact differential already holds enough games", func() {
			mine := model.History{2: {Won: 7, Lost: 3}, 1: {Won: 50, Lost: 50}}
			s := agg.Aggregate(mine, nil, 2)

			Convey("Then it stops at radius 0", func() {
				So(s, ShouldResemble, history.Sample{Wins: 7, Losses: 3, Radius: 0})
			})
		})

		Convey("When the opponent's history is folded in", func() {
			mine := model.History{2: {Won: 2, Lost: 1}}
			// Opponent sees the same match-up at the negated differential.
			theirs := model.History{-2: {Won: 3, Lost: 4}, 2: {Won: 100, Lost: 100}}
			s := agg.Aggregate(mine, theirs, 2)

			Convey("Then their wins count as our losses and vice versa", func() {
				So(s.Wins, ShouldEqual, 2+4)
				So(s.Losses, ShouldEqual, 1+3)
				So(s.Radius, ShouldEqual, 0)
			})
		})

		Convey("When samples are spread around the differential", func() {
			mine := model.History{
				0:  {Won: 1, Lost: 1},
				-1: {Won: 2, Lost: 1},
				1:  {Won: 2, Lost: 1},
				-2: {Won: 5, Lost: 5},
			}
			s := agg.Aggregate(mine, model.History{}, 0)

			Convey("Then it widens offset by offset until the threshold", func() {
				// 0 -> 2 games, -1 -> 5, +1 -> 8, -2 -> 18
				So(s.Games(), ShouldEqual, 18)
				So(s.Radius, ShouldEqual, 2)
			})
		})

		Convey("When the threshold is never reached", func() {
			mine := model.History{
				0:  {Won: 1},
				4:  {Lost: 1},
				-4: {Won: 1},
				5:  {Won: 100, Lost: 100},
				-5: {Won: 100, Lost: 100},
			}
			s := agg.Aggregate(mine, nil, 0)

			Convey("Then it returns the partial total at radius 4", func() {
				So(s, ShouldResemble, history.Sample{Wins: 2, Losses: 1, Radius: 4})
			})
		})

		Convey("When neither player has any games", func() {
			s := agg.Aggregate(nil, nil, 3)

			Convey("Then the sample is empty and has no win percentage", func() {
				So(s.Games(), ShouldEqual, 0)
				So(s.Radius, ShouldEqual, 4)
				_, err := s.WinPercentage()
				So(errors.Is(err, history.ErrMissingHistory), ShouldBeTrue)
			})
		})
	})

	Convey("Given an aggregator with custom bounds", t, func() {
		agg := history.New(history.WithMinSamples(3), history.WithMaxRadius(1))

		Convey("When games sit outside the radius", func() {
			mine := model.History{2: {Won: 10, Lost: 10}, 1: {Won: 1}}
			s := agg.Aggregate(mine, nil, 0)

			Convey("Then they are ignored", func() {
				So(s, ShouldResemble, history.Sample{Wins: 1, Losses: 0, Radius: 1})
			})
		})

		Convey("Then the threshold is reported", func() {
			So(agg.MinSamples(), ShouldEqual, 3)
		})
	})
}

func TestSample_WinPercentage(t *testing.T) {
	Convey("Given a sample of 3 wins and 1 loss", t, func() {
		s := history.Sample{Wins: 3, Losses: 1}

		Convey("Then the win percentage is 75", func() {
			pct, err := s.WinPercentage()
			So(err, ShouldBeNil)
			So(pct, ShouldEqual, 75.0)
		})
	})
}

func TestMissingHistoryError(t *testing.T) {
	Convey("Given a missing history error", t, func() {
		err := &history.MissingHistoryError{Player: "Dan", Opponent: "Ray", Discipline: "9ball"}

		Convey("Then it matches the sentinel and names the pairing", func() {
			So(errors.Is(err, history.ErrMissingHistory), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Dan vs Ray")
			So(err.Error(), ShouldContainSubstring, "9ball")
		})
	})
}
