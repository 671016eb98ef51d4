package models

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func intPtr(n int) *int { return &n }

func TestCanonicalID(t *testing.T) {
	Convey("Given identifiers in the shapes the feed and pick documents use", t, func() {
		cases := []struct {
			in   interface{}
			want string
		}{
			{"401547", "401547"},
			{" 401547 ", "401547"},
			{"401547.0", "401547"},
			{401547, "401547"},
			{int32(401547), "401547"},
			{int64(401547), "401547"},
			{float64(401547), "401547"},
			{"abc-1", "abc-1"},
		}
		for _, c := range cases {
			got, ok := CanonicalID(c.in)
			So(ok, ShouldBeTrue)
			So(got, ShouldEqual, c.want)
		}

		Convey("Long numeric ids keep every digit", func() {
			a, _ := CanonicalID("9007199254740993")
			b, _ := CanonicalID("9007199254740992")
			So(a, ShouldEqual, "9007199254740993")
			So(a, ShouldNotEqual, b)

			c, _ := CanonicalID("100000000000000000001")
			d, _ := CanonicalID("100000000000000000002")
			So(c, ShouldEqual, "100000000000000000001")
			So(d, ShouldEqual, "100000000000000000002")

			e, _ := CanonicalID("100000000000000000001.0")
			So(e, ShouldEqual, "100000000000000000001")
		})

		Convey("Integral exponent forms normalize like their float values", func() {
			s, ok := CanonicalID("4.01547417e8")
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, "401547417")
			f, _ := CanonicalID(4.01547417e8)
			So(f, ShouldEqual, s)

			big, _ := CanonicalID("1e300")
			So(big, ShouldEqual, "1e300")
		})

		Convey("Unusable identifiers are rejected", func() {
			for _, in := range []interface{}{"", "  ", 1.5, nil, true} {
				_, ok := CanonicalID(in)
				So(ok, ShouldBeFalse)
			}
		})
	})
}

func TestContestOutcome(t *testing.T) {
	Convey("Given contests", t, func() {
		final := func(a, b *int) Contest {
			return Contest{ID: "1", Status: ContestFinal, ScoreA: a, ScoreB: b}
		}

		Convey("Only final contests with both scores are countable", func() {
			c := final(intPtr(21), intPtr(17))
			So(c.IsCountable(), ShouldBeTrue)

			missing := final(intPtr(21), nil)
			So(missing.IsCountable(), ShouldBeFalse)

			live := Contest{Status: ContestLive, ScoreA: intPtr(7), ScoreB: intPtr(0)}
			So(live.IsCountable(), ShouldBeFalse)

			So(CountableContests([]Contest{c, missing, live}), ShouldHaveLength, 1)
		})

		Convey("The higher score wins", func() {
			a := final(intPtr(21), intPtr(17))
			So(a.Outcome(false), ShouldEqual, OutcomeA)
			b := final(intPtr(10), intPtr(17))
			So(b.Outcome(false), ShouldEqual, OutcomeB)
		})

		Convey("Equal scores draw unless the legacy tie break is on", func() {
			tie := final(intPtr(20), intPtr(20))
			So(tie.Outcome(false), ShouldEqual, OutcomeDraw)
			So(tie.Outcome(true), ShouldEqual, OutcomeB)
		})

		Convey("Scores parse leniently", func() {
			So(*ParseScore(" 24 "), ShouldEqual, 24)
			So(ParseScore(""), ShouldBeNil)
			So(ParseScore("--"), ShouldBeNil)
		})

		Convey("Sides parse from their document spellings", func() {
			s, ok := ParseSide("Home")
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, SideA)
			s, ok = ParseSide("b")
			So(ok, ShouldBeTrue)
			So(s, ShouldEqual, SideB)
			_, ok = ParseSide("over")
			So(ok, ShouldBeFalse)
		})
	})
}
