package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"nfl-pool/models"

	. "github.com/smartystreets/goconvey/convey"
)

type batchFixture struct {
	gateway *fakeGateway
	picks   *fakePickStore
	recaps  *fakeRecapStore
	clock   *fakeClock
	driver  *BatchDriver
	weeks   []models.ScheduleWeek
	delays  []time.Duration
}

// newBatchFixture builds a season of five weeks where the first four have
// finished, each with one contest player "p1" picked correctly
func newBatchFixture() *batchFixture {
	f := &batchFixture{
		gateway: newFakeGateway(),
		picks:   newFakePickStore(),
		recaps:  newFakeRecapStore(),
		weeks:   seasonWeeks(5),
	}
	f.clock = &fakeClock{now: f.weeks[4].StartDate.Add(24 * time.Hour)}

	preseason := models.ScheduleWeek{Season: 2024, Phase: models.PhasePreseason, Ordinal: 1,
		StartDate: seasonStart.Add(-14 * 24 * time.Hour), EndDate: seasonStart.Add(-7 * 24 * time.Hour)}
	f.gateway.weeks = append([]models.ScheduleWeek{preseason}, f.weeks...)
	current := f.weeks[4]
	f.gateway.current = &current
	f.gateway.currentErr = nil

	for i, w := range f.weeks {
		id, _ := w.ID()
		contestID := string(rune('a' + i))
		if i < 4 {
			f.gateway.setContests(w, finalContest(contestID, 10, 3, models.SideA))
		} else {
			f.gateway.setContests(w, models.Contest{ID: contestID, Status: models.ContestLive})
		}
		f.picks.set("p1", id, map[string]models.Side{contestID: models.SideA})
	}

	recaps := NewRecapService(f.gateway, f.picks, f.recaps, directoryOf("p1"), nil)
	recaps.now = f.clock.Now
	settings := &fakeSettings{settings: map[int]models.PoolSettings{
		2024: {Season: 2024, InterWeekDelay: 3 * time.Second},
	}}
	f.driver = NewBatchDriver(NewCalendar(f.gateway), recaps, settings, nil, 2024, time.Second)
	f.driver.now = f.clock.Now
	f.driver.sleep = noSleep(&f.delays)
	return f
}

func TestRunSeason(t *testing.T) {
	ctx := context.Background()

	Convey("Given a season in its fifth week", t, func() {
		f := newBatchFixture()

		summary, err := f.driver.RunSeason(ctx, 2024, ModeScheduled, false)

		Convey("Every started scorable week is visited in order", func() {
			So(err, ShouldBeNil)
			So(summary.RunID, ShouldNotBeEmpty)
			So(summary.ActiveWeekID, ShouldEqual, "2024_week-5")
			So(summary.Weeks, ShouldHaveLength, 5)
			So(summary.Weeks[0].WeekID, ShouldEqual, "2024_week-1")
			So(summary.Computed, ShouldEqual, 4)
			So(summary.NoFinishedGames, ShouldEqual, 1)
			So(summary.Weeks[4].Status, ShouldEqual, StatusNoFinishedGames)
		})

		Convey("The season's inter-week delay separates weeks", func() {
			So(f.delays, ShouldHaveLength, 4)
			for _, d := range f.delays {
				So(d, ShouldEqual, 3*time.Second)
			}
		})

		Convey("A second run skips what exists", func() {
			again, err := f.driver.RunSeason(ctx, 2024, ModeScheduled, false)
			So(err, ShouldBeNil)
			So(again.Skipped, ShouldEqual, 4)
			So(again.Computed, ShouldEqual, 0)
		})
	})

	Convey("Given one week whose contests cannot be fetched", t, func() {
		f := newBatchFixture()
		f.gateway.contestsErr[dateKey(f.weeks[1].StartDate)] = ErrUpstreamUnavailable

		summary, err := f.driver.RunSeason(ctx, 2024, ModeManual, false)

		Convey("Only that week fails", func() {
			So(err, ShouldBeNil)
			So(summary.Failed, ShouldEqual, 1)
			So(summary.Computed, ShouldEqual, 3)
			So(summary.Weeks[1].Status, ShouldEqual, StatusFailed)
			So(summary.Weeks[1].Error, ShouldNotBeEmpty)
		})
	})

	Convey("Given a finished week nobody filed picks for", t, func() {
		f := newBatchFixture()
		delete(f.picks.picks, "p1|2024_week-2")

		summary, err := f.driver.RunSeason(ctx, 2024, ModeManual, false)

		So(err, ShouldBeNil)
		So(summary.NoPicks, ShouldEqual, 1)
		So(summary.Computed, ShouldEqual, 3)
		So(summary.Weeks[1].Status, ShouldEqual, StatusNoPicks)
		So(f.recaps.recaps, ShouldNotContainKey, "2024_week-2")
	})

	Convey("Given a calendar that cannot be read", t, func() {
		f := newBatchFixture()
		f.gateway.weeksErr = ErrUpstreamUnavailable

		_, err := f.driver.RunSeason(ctx, 2024, ModeManual, false)

		So(errors.Is(err, ErrUpstreamUnavailable), ShouldBeTrue)
		So(f.recaps.puts, ShouldEqual, 0)
	})

	Convey("Given a current week that cannot be determined", t, func() {
		f := newBatchFixture()
		f.gateway.currentErr = ErrUpstreamUnavailable

		_, err := f.driver.RunSeason(ctx, 2024, ModeManual, false)

		So(err, ShouldNotBeNil)
		So(f.recaps.puts, ShouldEqual, 0)
	})

	Convey("Given a caller that gives up", t, func() {
		f := newBatchFixture()
		cctx, cancel := context.WithCancel(ctx)
		f.driver.sleep = func(ctx context.Context, d time.Duration) error {
			cancel()
			return ctx.Err()
		}

		summary, err := f.driver.RunSeason(cctx, 2024, ModeManual, false)

		Convey("Completed weeks stay done and the rest are abandoned", func() {
			So(err, ShouldBeNil)
			So(summary.Abandoned, ShouldBeTrue)
			So(summary.Weeks, ShouldHaveLength, 1)
			So(f.recaps.puts, ShouldEqual, 1)
		})
	})
}

func TestTrigger(t *testing.T) {
	ctx := context.Background()

	Convey("Given a trigger request", t, func() {
		f := newBatchFixture()

		Convey("Naming neither or both targets is rejected", func() {
			_, err := f.driver.Trigger(ctx, TriggerRequest{})
			So(errors.Is(err, ErrInvalidTrigger), ShouldBeTrue)

			id, offset := "2024_week-1", 0
			_, err = f.driver.Trigger(ctx, TriggerRequest{WeekID: &id, WeekOffset: &offset})
			So(errors.Is(err, ErrInvalidTrigger), ShouldBeTrue)
			So(IsClientError(err), ShouldBeTrue)
		})

		Convey("A week id recaps that week", func() {
			id := "2024_week-2"
			result, err := f.driver.Trigger(ctx, TriggerRequest{WeekID: &id})
			So(err, ShouldBeNil)
			So(result.WeekID, ShouldEqual, id)
			So(result.Status, ShouldEqual, StatusComputed)
			So(result.ParticipantCount, ShouldEqual, 1)
			So(result.TopScore, ShouldEqual, 1)
		})

		Convey("An unknown week id is not found", func() {
			id := "2024_week-9"
			_, err := f.driver.Trigger(ctx, TriggerRequest{WeekID: &id})
			So(errors.Is(err, ErrWeekNotFound), ShouldBeTrue)

			bad := "nonsense"
			_, err = f.driver.Trigger(ctx, TriggerRequest{WeekID: &bad})
			So(errors.Is(err, ErrWeekNotFound), ShouldBeTrue)
		})

		Convey("An offset counts back from the active week", func() {
			offset := -1
			result, err := f.driver.Trigger(ctx, TriggerRequest{WeekOffset: &offset})
			So(err, ShouldBeNil)
			So(result.WeekID, ShouldEqual, "2024_week-4")
		})

		Convey("An offset past the season is not found", func() {
			offset := 3
			_, err := f.driver.Trigger(ctx, TriggerRequest{WeekOffset: &offset})
			So(errors.Is(err, ErrWeekNotFound), ShouldBeTrue)
		})

		Convey("Manual triggers keep an existing recap unless forced", func() {
			id := "2024_week-1"
			_, err := f.driver.Trigger(ctx, TriggerRequest{WeekID: &id})
			So(err, ShouldBeNil)

			again, _ := f.driver.Trigger(ctx, TriggerRequest{WeekID: &id})
			So(again.Status, ShouldEqual, StatusAlreadyExists)

			forced, _ := f.driver.Trigger(ctx, TriggerRequest{WeekID: &id, Force: true})
			So(forced.Status, ShouldEqual, StatusRecomputed)
		})
	})
}

func TestActiveWeek(t *testing.T) {
	ctx := context.Background()

	Convey("Given the pro bowl is the current week", t, func() {
		gw := newFakeGateway()
		start := time.Date(2025, 1, 20, 7, 0, 0, 0, time.UTC)
		conf := models.ScheduleWeek{Season: 2024, Phase: models.PhasePostseason, Ordinal: 3, RoundLabel: "Conference Championship", StartDate: start}
		pro := models.ScheduleWeek{Season: 2024, Phase: models.PhaseExhibition, Ordinal: 4, StartDate: start.Add(7 * 24 * time.Hour)}
		sb := models.ScheduleWeek{Season: 2024, Phase: models.PhasePostseason, Ordinal: 5, RoundLabel: "Super Bowl", StartDate: start.Add(14 * 24 * time.Hour)}
		gw.weeks = []models.ScheduleWeek{sb, pro, conf}
		gw.current, gw.currentErr = &pro, nil

		active, err := NewCalendar(gw).Resolve(ctx, 2024)

		Convey("The following week is active", func() {
			So(err, ShouldBeNil)
			So(active.WeekID, ShouldEqual, "2024_super-bowl")
		})

		Convey("The calendar is sorted into playing order", func() {
			So(active.Weeks[0].Phase, ShouldEqual, models.PhasePostseason)
			So(active.Weeks[0].Ordinal, ShouldEqual, 3)
			So(active.Weeks[1].Phase, ShouldEqual, models.PhaseExhibition)
		})
	})

	Convey("Given the off-season", t, func() {
		gw := newFakeGateway()
		gw.weeks = seasonWeeks(3)

		active, err := NewCalendar(gw).Resolve(ctx, 2024)

		So(err, ShouldBeNil)
		So(active.Week, ShouldBeNil)
		So(active.WeekID, ShouldBeEmpty)

		Convey("Offsets count from the last started week", func() {
			week, err := active.Offset(0, seasonStart.Add(365*24*time.Hour))
			So(err, ShouldBeNil)
			So(week.Ordinal, ShouldEqual, 3)

			week, err = active.Offset(-2, seasonStart.Add(365*24*time.Hour))
			So(err, ShouldBeNil)
			So(week.Ordinal, ShouldEqual, 1)
		})

		Convey("Before the season starts there is nothing to offset from", func() {
			_, err := active.Offset(0, seasonStart.Add(-time.Hour))
			So(errors.Is(err, ErrWeekNotFound), ShouldBeTrue)
		})
	})

	Convey("Given the current week belongs to another season", t, func() {
		gw := newFakeGateway()
		gw.weeks = seasonWeeks(2)
		other := regularWeek(2025, 1, seasonStart.Add(365*24*time.Hour))
		gw.current, gw.currentErr = &other, nil

		active, err := NewCalendar(gw).Resolve(ctx, 2024)

		So(err, ShouldBeNil)
		So(active.Week, ShouldBeNil)
	})
}
