package services

import (
	"context"
	"testing"

	"nfl-pool/models"

	. "github.com/smartystreets/goconvey/convey"
)

func entry(id string, correct, total int, top bool) models.ParticipantRecap {
	return models.ParticipantRecap{
		ParticipantID: id,
		Correct:       correct,
		Total:         total,
		Percentage:    models.Percent(correct, total),
		IsTopScore:    top,
	}
}

func recapFor(key string, entries ...models.ParticipantRecap) *models.WeekRecap {
	return &models.WeekRecap{
		WeekID:         models.WeekID(2024, key),
		Season:         2024,
		WeekKey:        key,
		PerParticipant: entries,
	}
}

func TestFoldStandings(t *testing.T) {
	Convey("Given five scored weeks", t, func() {
		recaps := []*models.WeekRecap{
			recapFor("week-1", entry("ann", 10, 16, true), entry("bob", 8, 16, false), entry("cat", 10, 16, true)),
			recapFor("week-2", entry("ann", 9, 16, false), entry("bob", 12, 16, true), entry("cat", 9, 16, false)),
			recapFor("week-3", entry("ann", 11, 16, true), entry("bob", 10, 16, false)),
			recapFor("week-4", entry("ann", 8, 14, false), entry("bob", 9, 14, true)),
			recapFor("week-5", entry("ann", 7, 15, false), entry("bob", 10, 15, true), entry("cat", 9, 15, false)),
		}

		standings, included := FoldStandings(recaps, "")

		Convey("Every week is included in playing order", func() {
			So(included, ShouldResemble, []string{"2024_week-1", "2024_week-2", "2024_week-3", "2024_week-4", "2024_week-5"})
		})

		Convey("Totals, wins and played weeks are summed", func() {
			So(standings, ShouldHaveLength, 3)
			bob := standings[0]
			So(bob.ParticipantID, ShouldEqual, "bob")
			So(bob.TotalCorrect, ShouldEqual, 49)
			So(bob.TotalContests, ShouldEqual, 77)
			So(bob.OverallPercentage, ShouldEqual, 64)
			So(bob.WeeksWon, ShouldEqual, 3)
			So(bob.WeeksPlayed, ShouldEqual, 5)
			So(bob.Incomplete, ShouldBeFalse)
		})

		Convey("A player who played three of five weeks is flagged incomplete", func() {
			cat := standings[2]
			So(cat.ParticipantID, ShouldEqual, "cat")
			So(cat.WeeksPlayed, ShouldEqual, 3)
			So(cat.Incomplete, ShouldBeTrue)
		})

		Convey("The primary fold passes verification", func() {
			So(VerifyStandings(recaps, "", standings), ShouldBeEmpty)
		})
	})

	Convey("Given players with equal totals", t, func() {
		recaps := []*models.WeekRecap{
			recapFor("week-1", entry("a", 10, 16, true), entry("b", 10, 16, true), entry("c", 8, 16, false), entry("d", 2, 16, false)),
		}

		standings, _ := FoldStandings(recaps, "")

		Convey("Ranks are dense", func() {
			ranks := map[string]int{}
			for _, s := range standings {
				ranks[s.ParticipantID] = s.Rank
			}
			So(ranks["a"], ShouldEqual, 1)
			So(ranks["b"], ShouldEqual, 1)
			So(ranks["c"], ShouldEqual, 2)
			So(ranks["d"], ShouldEqual, 3)
		})
	})

	Convey("Given recaps outside the scored weeks", t, func() {
		recaps := []*models.WeekRecap{
			recapFor("preseason-2", entry("pre", 5, 5, true)),
			recapFor("pro-bowl-4", entry("pro", 1, 1, true)),
			recapFor("week-17", entry("ann", 10, 16, true)),
			recapFor("week-18", entry("ann", 3, 16, false), entry("late", 12, 16, true)),
		}

		standings, included := FoldStandings(recaps, "2024_week-18")

		Convey("Preseason, pro bowl and the active week are left out", func() {
			So(included, ShouldResemble, []string{"2024_week-17"})
			So(standings, ShouldHaveLength, 1)
			So(standings[0].ParticipantID, ShouldEqual, "ann")
			So(standings[0].TotalCorrect, ShouldEqual, 10)
		})

		Convey("Players who never played an included week are invisible", func() {
			for _, s := range standings {
				So(s.ParticipantID, ShouldNotBeIn, []string{"pre", "pro", "late"})
			}
		})
	})
}

func TestVerifyStandings(t *testing.T) {
	Convey("Given standings that disagree with the recaps", t, func() {
		recaps := []*models.WeekRecap{
			recapFor("week-1", entry("ann", 10, 16, true), entry("bob", 8, 16, false)),
		}
		standings, _ := FoldStandings(recaps, "")
		standings[1].TotalCorrect = 9
		standings[1].Incomplete = true

		mismatches := VerifyStandings(recaps, "", standings)

		So(mismatches, ShouldNotBeEmpty)
		So(mismatches[0], ShouldContainSubstring, "bob")
	})
}

func TestGetLeaderboard(t *testing.T) {
	ctx := context.Background()

	Convey("Given stored recaps and a participant directory", t, func() {
		store := newFakeRecapStore()
		for _, r := range []*models.WeekRecap{
			recapFor("week-1", entry("1", 10, 16, true), entry("2", 8, 16, false)),
			recapFor("week-2", entry("1", 9, 16, false), entry("2", 12, 16, true)),
		} {
			store.recaps[r.WeekID] = r
		}
		dir := &fakeDirectory{participants: []models.Participant{{ID: "1", Name: "Ann"}, {ID: "2"}}}
		service := NewLeaderboardService(store, dir, nil)

		active := &ActiveWeek{Season: 2024, WeekID: "2024_week-2"}
		board, err := service.GetLeaderboard(ctx, active)

		So(err, ShouldBeNil)
		So(board.Verified, ShouldBeTrue)
		So(board.ActiveWeekID, ShouldEqual, "2024_week-2")
		So(board.IncludedWeekIDs, ShouldResemble, []string{"2024_week-1"})
		So(board.Standings[0].Name, ShouldEqual, "Ann")
		So(board.Standings[1].Name, ShouldEqual, "2")

		Convey("A store failure is returned", func() {
			store.err = errBoom
			_, err := service.GetLeaderboard(ctx, active)
			So(err, ShouldNotBeNil)
		})
	})
}
