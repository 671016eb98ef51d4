package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"nfl-pool/models"
)

var errBoom = errors.New("boom")

type fakeGateway struct {
	mu          sync.Mutex
	contests    map[string][]models.Contest // by week start date
	weeks       []models.ScheduleWeek
	current     *models.ScheduleWeek
	currentErr  error
	weeksErr    error
	contestsErr map[string]error
	calls       int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		contests:    make(map[string][]models.Contest),
		contestsErr: make(map[string]error),
		currentErr:  ErrOffSeason,
	}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func (g *fakeGateway) setContests(week models.ScheduleWeek, contests ...models.Contest) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.contests[dateKey(week.StartDate)] = contests
}

func (g *fakeGateway) ListContestsForDateRange(ctx context.Context, start, end time.Time) ([]models.Contest, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if err := g.contestsErr[dateKey(start)]; err != nil {
		return nil, err
	}
	return append([]models.Contest(nil), g.contests[dateKey(start)]...), nil
}

func (g *fakeGateway) ListWeeks(ctx context.Context, season int) ([]models.ScheduleWeek, error) {
	if g.weeksErr != nil {
		return nil, g.weeksErr
	}
	var weeks []models.ScheduleWeek
	for _, w := range g.weeks {
		if w.Season == season {
			weeks = append(weeks, w)
		}
	}
	return weeks, nil
}

func (g *fakeGateway) CurrentWeek(ctx context.Context) (*models.ScheduleWeek, error) {
	if g.currentErr != nil {
		return nil, g.currentErr
	}
	return g.current, nil
}

type fakePickStore struct {
	mu    sync.Mutex
	picks map[string]*models.PickSet // participant|week
	err   error
}

func newFakePickStore() *fakePickStore {
	return &fakePickStore{picks: make(map[string]*models.PickSet)}
}

func (s *fakePickStore) set(participantID, weekID string, sides map[string]models.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := models.NewPickSet(participantID, weekID)
	for id, side := range sides {
		ps.ByContest[id] = models.Pick{ContestID: id, ChosenSide: side}
	}
	s.picks[participantID+"|"+weekID] = ps
}

func (s *fakePickStore) GetPicks(ctx context.Context, participantID, weekID string) (*models.PickSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if ps, ok := s.picks[participantID+"|"+weekID]; ok {
		return ps, nil
	}
	return models.NewPickSet(participantID, weekID), nil
}

func (s *fakePickStore) ReplacePicks(ctx context.Context, participantID, weekID string, season int, picks []models.Pick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ps := models.NewPickSet(participantID, weekID)
	for _, p := range picks {
		ps.ByContest[p.ContestID] = p
	}
	s.picks[participantID+"|"+weekID] = ps
	return nil
}

type fakeRecapStore struct {
	mu     sync.Mutex
	recaps map[string]*models.WeekRecap
	puts   int
	err    error
}

func newFakeRecapStore() *fakeRecapStore {
	return &fakeRecapStore{recaps: make(map[string]*models.WeekRecap)}
}

func cloneRecap(r *models.WeekRecap) *models.WeekRecap {
	c := *r
	c.PerParticipant = append([]models.ParticipantRecap(nil), r.PerParticipant...)
	return &c
}

func (s *fakeRecapStore) GetRecap(ctx context.Context, weekID string) (*models.WeekRecap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	r, ok := s.recaps[weekID]
	if !ok {
		return nil, nil
	}
	return cloneRecap(r), nil
}

func (s *fakeRecapStore) PutRecap(ctx context.Context, weekID string, recap *models.WeekRecap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	s.recaps[weekID] = cloneRecap(recap)
	return nil
}

func (s *fakeRecapStore) ListRecapsBySeason(ctx context.Context, season int) ([]*models.WeekRecap, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var out []*models.WeekRecap
	for _, r := range s.recaps {
		if r.Season == season {
			out = append(out, cloneRecap(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekID < out[j].WeekID })
	return out, nil
}

type fakeDirectory struct {
	participants []models.Participant
	err          error
}

func (d *fakeDirectory) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	return d.participants, d.err
}

func directoryOf(ids ...string) *fakeDirectory {
	d := &fakeDirectory{}
	for _, id := range ids {
		d.participants = append(d.participants, models.Participant{ID: id, Name: "Player " + id, Active: true})
	}
	return d
}

type fakeSettings struct {
	settings map[int]models.PoolSettings
	err      error
}

func (s *fakeSettings) LoadSettings(ctx context.Context, season int) (models.PoolSettings, error) {
	if s.err != nil {
		return models.PoolSettings{}, s.err
	}
	if st, ok := s.settings[season]; ok {
		return st, nil
	}
	return models.DefaultPoolSettings(season), nil
}

func (s *fakeSettings) SaveSettings(ctx context.Context, settings models.PoolSettings) error {
	if s.settings == nil {
		s.settings = make(map[int]models.PoolSettings)
	}
	s.settings[settings.Season] = settings
	return nil
}

// fakeClock returns a time that tests can move forward
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func score(n int) *int { return &n }

func finalContest(id string, a, b int, favorite models.Side) models.Contest {
	return models.Contest{ID: id, RawID: id, Status: models.ContestFinal, ScoreA: score(a), ScoreB: score(b), FavoriteSide: favorite}
}

func regularWeek(season, n int, start time.Time) models.ScheduleWeek {
	return models.ScheduleWeek{
		Season:    season,
		Phase:     models.PhaseRegular,
		Ordinal:   n,
		StartDate: start,
		EndDate:   start.Add(7*24*time.Hour - time.Minute),
	}
}

var seasonStart = time.Date(2024, 9, 3, 7, 0, 0, 0, time.UTC)

// seasonWeeks returns n consecutive regular season weeks starting at seasonStart
func seasonWeeks(n int) []models.ScheduleWeek {
	weeks := make([]models.ScheduleWeek, n)
	for i := range weeks {
		weeks[i] = regularWeek(2024, i+1, seasonStart.Add(time.Duration(i)*7*24*time.Hour))
	}
	return weeks
}

func noSleep(calls *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		if calls != nil {
			*calls = append(*calls, d)
		}
		return ctx.Err()
	}
}
