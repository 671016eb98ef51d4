package database

import (
	"testing"
	"time"

	"nfl-pool/models"

	. "github.com/smartystreets/goconvey/convey"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodePickDocument(t *testing.T) {
	submitted := time.Date(2024, 9, 8, 16, 0, 0, 0, time.UTC)

	Convey("Given a map-form pick document", t, func() {
		doc := bson.M{
			"participant_id": "7",
			"week_id":        "2024_week-1",
			"picks": bson.M{
				"401671789": bson.M{"chosen_side": "A", "submitted_at": primitive.NewDateTimeFromTime(submitted)},
				"401671790": bson.M{"chosen_side": "away"},
				"401671791": "home",
				"401671792": bson.M{"chosen_side": "sideline"},
			},
		}

		ps := DecodePickDocument("7", "2024_week-1", doc)

		Convey("Valid entries are keyed by canonical id", func() {
			So(ps.Len(), ShouldEqual, 3)
			So(ps.ByContest["401671789"].ChosenSide, ShouldEqual, models.SideA)
			So(ps.ByContest["401671789"].SubmittedAt.Equal(submitted), ShouldBeTrue)
			So(ps.ByContest["401671790"].ChosenSide, ShouldEqual, models.SideB)
			So(ps.ByContest["401671791"].ChosenSide, ShouldEqual, models.SideA)
		})

		Convey("Entries without a usable side are counted as malformed", func() {
			So(ps.Malformed, ShouldEqual, 1)
		})
	})

	Convey("Given a legacy array document with numeric game ids", t, func() {
		doc := bson.M{
			"user_id": int32(7),
			"season":  int32(2024),
			"week":    int32(1),
			"picks": bson.A{
				bson.M{"game_id": int32(401671789), "side": "home"},
				bson.M{"game_id": float64(401671790), "team_side": "B"},
				bson.M{"game_id": "401671791", "side": "A"},
				bson.M{"side": "A"},
				"junk",
			},
		}

		ps := DecodePickDocument("7", "2024_week-1", doc)

		Convey("Entries keep their raw key and still match contests", func() {
			So(ps.Len(), ShouldEqual, 3)
			So(ps.Malformed, ShouldEqual, 2)

			contest := &models.Contest{ID: "401671790", RawID: "401671790"}
			pick, ok := ps.Lookup(contest)
			So(ok, ShouldBeTrue)
			So(pick.ChosenSide, ShouldEqual, models.SideB)
		})
	})

	Convey("Given a document without picks", t, func() {
		ps := DecodePickDocument("7", "2024_week-1", bson.M{"participant_id": "7"})

		So(ps.Len(), ShouldEqual, 0)
		So(ps.Malformed, ShouldEqual, 0)
	})

	Convey("Given two map keys that normalize to the same id", t, func() {
		earlier := submitted.Add(-time.Hour)
		doc := bson.M{"picks": bson.D{
			{Key: "401671789", Value: bson.M{"chosen_side": "A", "submitted_at": submitted}},
			{Key: "401671789.0", Value: bson.M{"chosen_side": "B", "submitted_at": earlier}},
		}}

		ps := DecodePickDocument("7", "2024_week-1", doc)

		Convey("The later submission wins", func() {
			So(ps.Len(), ShouldEqual, 1)
			So(ps.ByContest["401671789"].ChosenSide, ShouldEqual, models.SideA)
		})
	})
}

func TestMergePickDocuments(t *testing.T) {
	submitted := time.Date(2024, 9, 8, 16, 0, 0, 0, time.UTC)

	Convey("Given a current and a legacy document for the same week", t, func() {
		current := bson.M{
			"participant_id": "7",
			"week_id":        "2024_week-1",
			"picks": bson.M{
				"401671789": bson.M{"chosen_side": "A", "submitted_at": submitted},
			},
		}
		legacy := bson.M{
			"user_id": int32(7),
			"season":  int32(2024),
			"week":    int32(1),
			"picks": bson.A{
				bson.M{"game_id": int32(401671790), "side": "B"},
			},
		}

		forward := MergePickDocuments("7", "2024_week-1", []bson.M{current, legacy})
		backward := MergePickDocuments("7", "2024_week-1", []bson.M{legacy, current})

		Convey("Picks from both are kept", func() {
			So(forward.Len(), ShouldEqual, 2)
			pick, ok := forward.Lookup(&models.Contest{ID: "401671790", RawID: "401671790"})
			So(ok, ShouldBeTrue)
			So(pick.ChosenSide, ShouldEqual, models.SideB)
			So(forward.ByContest["401671789"].ChosenSide, ShouldEqual, models.SideA)
		})

		Convey("Document order does not change the result", func() {
			So(backward.ByContest, ShouldResemble, forward.ByContest)
			So(backward.Legacy, ShouldResemble, forward.Legacy)
		})
	})

	Convey("Given two documents picking the same contest", t, func() {
		older := bson.M{"picks": bson.M{"401671789": bson.M{"chosen_side": "B", "submitted_at": submitted.Add(-time.Hour)}}}
		newer := bson.M{"picks": bson.M{"401671789": bson.M{"chosen_side": "A", "submitted_at": submitted}}}

		Convey("The latest submission wins either way round", func() {
			a := MergePickDocuments("7", "2024_week-1", []bson.M{older, newer})
			b := MergePickDocuments("7", "2024_week-1", []bson.M{newer, older})
			So(a.ByContest["401671789"].ChosenSide, ShouldEqual, models.SideA)
			So(b.ByContest["401671789"].ChosenSide, ShouldEqual, models.SideA)
		})
	})

	Convey("Given no documents", t, func() {
		ps := MergePickDocuments("7", "2024_week-1", nil)
		So(ps.Len(), ShouldEqual, 0)
	})
}

func TestPickFilter(t *testing.T) {
	Convey("Given a regular season week", t, func() {
		filter := pickFilter("12", "2024_week-3")
		clauses := filter["$or"].(bson.A)

		Convey("Both document shapes are matched", func() {
			So(clauses, ShouldHaveLength, 2)
			legacy := clauses[1].(bson.M)
			So(legacy["season"], ShouldEqual, 2024)
			So(legacy["week"], ShouldEqual, 3)
		})

		Convey("Integer participant ids are matched too", func() {
			ids := clauses[0].(bson.M)["participant_id"].(bson.M)["$in"].(bson.A)
			So(ids, ShouldContain, "12")
			So(ids, ShouldContain, 12)
		})
	})

	Convey("Postseason weeks have no legacy clause", t, func() {
		filter := pickFilter("abc", "2024_wild-card")
		So(filter["$or"].(bson.A), ShouldHaveLength, 1)
	})
}

func TestDecodeParticipant(t *testing.T) {
	Convey("Given participant documents", t, func() {
		Convey("Integer ids become strings and active defaults to true", func() {
			p, ok := DecodeParticipant(bson.M{"_id": int32(5), "name": "Pat"})
			So(ok, ShouldBeTrue)
			So(p.ID, ShouldEqual, "5")
			So(p.Name, ShouldEqual, "Pat")
			So(p.Active, ShouldBeTrue)
		})

		Convey("Flags are read when present", func() {
			p, ok := DecodeParticipant(bson.M{"_id": "favorites", "synthetic": true, "active": false})
			So(ok, ShouldBeTrue)
			So(p.Synthetic, ShouldBeTrue)
			So(p.Active, ShouldBeFalse)
		})

		Convey("Object ids are rejected", func() {
			_, ok := DecodeParticipant(bson.M{"_id": primitive.NewObjectID()})
			So(ok, ShouldBeFalse)
		})
	})
}
