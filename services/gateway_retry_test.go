package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nfl-pool/models"

	. "github.com/smartystreets/goconvey/convey"
)

// flakyGateway fails the first failures calls of every operation with err
type flakyGateway struct {
	*fakeGateway
	failures int
	err      error
	attempts int
}

func (g *flakyGateway) fail() error {
	g.attempts++
	if g.attempts <= g.failures {
		return g.err
	}
	return nil
}

func (g *flakyGateway) ListContestsForDateRange(ctx context.Context, start, end time.Time) ([]models.Contest, error) {
	if err := g.fail(); err != nil {
		return nil, err
	}
	return g.fakeGateway.ListContestsForDateRange(ctx, start, end)
}

func (g *flakyGateway) ListWeeks(ctx context.Context, season int) ([]models.ScheduleWeek, error) {
	if err := g.fail(); err != nil {
		return nil, err
	}
	return g.fakeGateway.ListWeeks(ctx, season)
}

func TestRetryPolicy(t *testing.T) {
	Convey("Given the default retry policy", t, func() {
		p := DefaultRetryPolicy()

		Convey("Delays double from the base", func() {
			So(p.Delay(0), ShouldEqual, time.Second)
			So(p.Delay(1), ShouldEqual, 2*time.Second)
			So(p.Delay(2), ShouldEqual, 4*time.Second)
		})

		Convey("Delays never exceed the cap", func() {
			So(p.Delay(3), ShouldEqual, 5*time.Second)
			So(p.Delay(30), ShouldEqual, 5*time.Second)
		})
	})
}

func TestRetryingGateway(t *testing.T) {
	ctx := context.Background()

	Convey("Given a gateway that fails twice", t, func() {
		week := seasonWeeks(1)[0]
		inner := newFakeGateway()
		inner.setContests(week, finalContest("1", 1, 0, models.SideA))
		flaky := &flakyGateway{fakeGateway: inner, failures: 2, err: errBoom}

		var delays []time.Duration
		gw := NewRetryingGateway(flaky, DefaultRetryPolicy(), NewMetrics()).WithSleep(noSleep(&delays))

		contests, err := gw.ListContestsForDateRange(ctx, week.StartDate, week.EndDate)

		Convey("The third attempt succeeds after backing off", func() {
			So(err, ShouldBeNil)
			So(contests, ShouldHaveLength, 1)
			So(flaky.attempts, ShouldEqual, 3)
			So(delays, ShouldResemble, []time.Duration{time.Second, 2 * time.Second})
		})
	})

	Convey("Given a gateway that never recovers", t, func() {
		flaky := &flakyGateway{fakeGateway: newFakeGateway(), failures: 100, err: errBoom}
		var delays []time.Duration
		gw := NewRetryingGateway(flaky, DefaultRetryPolicy(), nil).WithSleep(noSleep(&delays))

		_, err := gw.ListWeeks(ctx, 2024)

		Convey("It gives up after four attempts", func() {
			So(flaky.attempts, ShouldEqual, 4)
			So(delays, ShouldResemble, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second})
			So(errors.Is(err, ErrUpstreamUnavailable), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "list_weeks")
			So(err.Error(), ShouldContainSubstring, "boom")
		})
	})

	Convey("Given the off-season", t, func() {
		inner := newFakeGateway()
		var delays []time.Duration
		gw := NewRetryingGateway(inner, DefaultRetryPolicy(), nil).WithSleep(noSleep(&delays))

		_, err := gw.CurrentWeek(ctx)

		Convey("The sentinel is returned without retrying", func() {
			So(err, ShouldEqual, ErrOffSeason)
			So(delays, ShouldBeEmpty)
		})
	})

	Convey("Given a cancelled caller", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		flaky := &flakyGateway{fakeGateway: newFakeGateway(), failures: 100, err: errBoom}
		gw := NewRetryingGateway(flaky, DefaultRetryPolicy(), nil).WithSleep(noSleep(nil))

		_, err := gw.ListWeeks(cctx, 2024)

		So(flaky.attempts, ShouldEqual, 1)
		So(errors.Is(err, ErrUpstreamUnavailable), ShouldBeFalse)
	})
}
