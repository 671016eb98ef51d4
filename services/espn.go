package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nfl-pool/logging"
	"nfl-pool/models"

	"golang.org/x/sync/errgroup"
)

const (
	defaultScoreboardURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard"
	defaultOddsURL       = "https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"

	// ESPN season types
	espnPreseason  = 1
	espnRegular    = 2
	espnPostseason = 3
	espnOffSeason  = 4

	oddsFetchConcurrency = 4
)

// GatewayConfig configures the ESPN results provider
type GatewayConfig struct {
	BaseURL     string
	OddsBaseURL string
	Timeout     time.Duration
	Retry       RetryPolicy
}

// ESPNService handles ESPN API interactions
type ESPNService struct {
	client  *http.Client
	baseURL string
	oddsURL string
	logger  *logging.Logger
}

// NewESPNService creates a new ESPN service
func NewESPNService(cfg GatewayConfig) *ESPNService {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultScoreboardURL
	}
	if cfg.OddsBaseURL == "" {
		cfg.OddsBaseURL = defaultOddsURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &ESPNService{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		oddsURL: strings.TrimRight(cfg.OddsBaseURL, "/"),
		logger:  logging.WithPrefix("ESPN"),
	}
}

// flexString decodes a JSON string or number into its text form.
// The feed emits event ids and scores as either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// ESPN API response structures
type ESPNResponse struct {
	Leagues []ESPNLeague `json:"leagues"`
	Season  ESPNSeason   `json:"season"`
	Week    ESPNWeek     `json:"week"`
	Events  []ESPNEvent  `json:"events"`
}

type ESPNLeague struct {
	Calendar []ESPNCalendarSeason `json:"calendar"`
}

type ESPNCalendarSeason struct {
	Label     string              `json:"label"`
	Value     flexString          `json:"value"`
	StartDate string              `json:"startDate"`
	EndDate   string              `json:"endDate"`
	Entries   []ESPNCalendarEntry `json:"entries"`
}

type ESPNCalendarEntry struct {
	Label          string     `json:"label"`
	AlternateLabel string     `json:"alternateLabel"`
	Detail         string     `json:"detail"`
	Value          flexString `json:"value"`
	StartDate      string     `json:"startDate"`
	EndDate        string     `json:"endDate"`
}

type ESPNEvent struct {
	ID           flexString        `json:"id"`
	Date         string            `json:"date"`
	Week         ESPNWeek          `json:"week"`
	Season       ESPNSeason        `json:"season"`
	Status       ESPNStatus        `json:"status"`
	Competitions []ESPNCompetition `json:"competitions"`
}

type ESPNSeason struct {
	Year int `json:"year"`
	Type int `json:"type"`
}

type ESPNWeek struct {
	Number int `json:"number"`
}

type ESPNStatus struct {
	Type ESPNStatusType `json:"type"`
}

type ESPNStatusType struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	Completed bool   `json:"completed"`
}

type ESPNCompetition struct {
	Competitors []ESPNCompetitor `json:"competitors"`
	Odds        []ESPNOddsItem   `json:"odds"`
}

type ESPNCompetitor struct {
	HomeAway string     `json:"homeAway"`
	Score    flexString `json:"score"`
	Team     ESPNTeam   `json:"team"`
}

type ESPNTeam struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
}

// ESPN Odds API response structures
type ESPNOddsResponse struct {
	Items []ESPNOddsItem `json:"items"`
}

type ESPNOddsItem struct {
	Details      string       `json:"details"`
	HomeTeamOdds ESPNTeamOdds `json:"homeTeamOdds"`
	AwayTeamOdds ESPNTeamOdds `json:"awayTeamOdds"`
}

type ESPNTeamOdds struct {
	Favorite bool `json:"favorite"`
}

func (e *ESPNService) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	e.logger.Debugf("GET %s", url)
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch ESPN data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ESPN API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode ESPN response: %w", err)
	}
	return nil
}

// ListContestsForDateRange fetches every contest scheduled between start and end
func (e *ESPNService) ListContestsForDateRange(ctx context.Context, start, end time.Time) ([]models.Contest, error) {
	url := fmt.Sprintf("%s?dates=%s-%s&limit=1000", e.baseURL, start.Format("20060102"), end.Format("20060102"))

	var resp ESPNResponse
	if err := e.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	contests := make([]models.Contest, 0, len(resp.Events))
	for _, event := range resp.Events {
		contest, ok := e.convertEvent(event)
		if !ok {
			continue
		}
		if !contest.Date.IsZero() && (contest.Date.Before(start) || contest.Date.After(end)) {
			continue
		}
		contests = append(contests, contest)
	}

	if err := e.fillMissingFavorites(ctx, contests); err != nil {
		return nil, err
	}

	e.logger.Infof("Fetched %d contests between %s and %s",
		len(contests), start.Format("2006-01-02"), end.Format("2006-01-02"))
	return contests, nil
}

// convertEvent converts a single ESPN event to a Contest
func (e *ESPNService) convertEvent(event ESPNEvent) (models.Contest, bool) {
	if len(event.Competitions) == 0 || len(event.Competitions[0].Competitors) < 2 {
		return models.Contest{}, false
	}

	raw := string(event.ID)
	id, ok := models.CanonicalID(raw)
	if !ok {
		e.logger.Warnf("Skipping event with unusable id %q", raw)
		return models.Contest{}, false
	}

	competition := event.Competitions[0]
	contest := models.Contest{
		ID:     id,
		RawID:  raw,
		Date:   parseESPNTime(event.Date),
		Status: convertStatus(event.Status),
	}

	var homeAbbr, awayAbbr string
	for _, competitor := range competition.Competitors {
		if competitor.HomeAway == "home" {
			contest.SideA = competitor.Team.Abbreviation
			contest.ScoreA = models.ParseScore(string(competitor.Score))
			homeAbbr = competitor.Team.Abbreviation
		} else {
			contest.SideB = competitor.Team.Abbreviation
			contest.ScoreB = models.ParseScore(string(competitor.Score))
			awayAbbr = competitor.Team.Abbreviation
		}
	}

	if len(competition.Odds) > 0 {
		contest.FavoriteSide = favoriteFromOdds(competition.Odds[0], homeAbbr, awayAbbr)
	}
	return contest, true
}

// convertStatus maps the feed's state to a ContestStatus. Postponed and
// cancelled games report state "post" without completion and stay scheduled.
func convertStatus(status ESPNStatus) models.ContestStatus {
	switch strings.ToLower(status.Type.State) {
	case "in":
		return models.ContestLive
	case "post":
		if status.Type.Completed {
			return models.ContestFinal
		}
	}
	return models.ContestScheduled
}

// favoriteFromOdds reads the favorite flags, falling back to the team
// abbreviation leading the details line ("KC -3.5")
func favoriteFromOdds(odds ESPNOddsItem, homeAbbr, awayAbbr string) models.Side {
	switch {
	case odds.HomeTeamOdds.Favorite && !odds.AwayTeamOdds.Favorite:
		return models.SideA
	case odds.AwayTeamOdds.Favorite && !odds.HomeTeamOdds.Favorite:
		return models.SideB
	}

	fields := strings.Fields(odds.Details)
	if len(fields) == 0 {
		return models.SideNone
	}
	switch strings.ToUpper(fields[0]) {
	case strings.ToUpper(homeAbbr):
		return models.SideA
	case strings.ToUpper(awayAbbr):
		return models.SideB
	}
	return models.SideNone
}

// fillMissingFavorites looks up odds for final contests the scoreboard
// carried no favorite for. Lookup failures leave the favorite unset.
func (e *ESPNService) fillMissingFavorites(ctx context.Context, contests []models.Contest) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(oddsFetchConcurrency)

	for i := range contests {
		c := &contests[i]
		if c.FavoriteSide != models.SideNone || !c.IsCountable() {
			continue
		}
		g.Go(func() error {
			side, err := e.fetchFavorite(gctx, c)
			if err != nil {
				e.logger.Debugf("No odds for contest %s: %v", c.ID, err)
				return nil
			}
			c.FavoriteSide = side
			return nil
		})
	}
	return g.Wait()
}

func (e *ESPNService) fetchFavorite(ctx context.Context, c *models.Contest) (models.Side, error) {
	url := fmt.Sprintf("%s/events/%s/competitions/%s/odds", e.oddsURL, c.ID, c.ID)

	var resp ESPNOddsResponse
	if err := e.getJSON(ctx, url, &resp); err != nil {
		return models.SideNone, err
	}
	if len(resp.Items) == 0 {
		return models.SideNone, fmt.Errorf("no odds available for contest %s", c.ID)
	}
	return favoriteFromOdds(resp.Items[0], c.SideA, c.SideB), nil
}

// ListWeeks returns the season calendar in the order the feed lists it
func (e *ESPNService) ListWeeks(ctx context.Context, season int) ([]models.ScheduleWeek, error) {
	url := fmt.Sprintf("%s?dates=%d&limit=1", e.baseURL, season)

	var resp ESPNResponse
	if err := e.getJSON(ctx, url, &resp); err != nil {
		return nil, err
	}
	if len(resp.Leagues) == 0 {
		return nil, fmt.Errorf("ESPN calendar for season %d is empty", season)
	}

	var weeks []models.ScheduleWeek
	for _, block := range resp.Leagues[0].Calendar {
		seasonType, err := strconv.Atoi(string(block.Value))
		if err != nil {
			continue
		}
		for _, entry := range block.Entries {
			week, ok := e.convertCalendarEntry(season, seasonType, entry)
			if ok {
				weeks = append(weeks, week)
			}
		}
	}

	e.logger.Debugf("Season %d calendar has %d weeks", season, len(weeks))
	return weeks, nil
}

func (e *ESPNService) convertCalendarEntry(season, seasonType int, entry ESPNCalendarEntry) (models.ScheduleWeek, bool) {
	ordinal, err := strconv.Atoi(string(entry.Value))
	if err != nil {
		e.logger.Warnf("Skipping calendar entry %q with ordinal %q", entry.Label, entry.Value)
		return models.ScheduleWeek{}, false
	}

	week := models.ScheduleWeek{
		Season:    season,
		Ordinal:   ordinal,
		StartDate: parseESPNTime(entry.StartDate),
		EndDate:   parseESPNTime(entry.EndDate),
	}

	switch seasonType {
	case espnPreseason:
		week.Phase = models.PhasePreseason
	case espnRegular:
		week.Phase = models.PhaseRegular
	case espnPostseason:
		if isProBowl(entry.Label) {
			week.Phase = models.PhaseExhibition
			break
		}
		week.Phase = models.PhasePostseason
		week.RoundLabel = entry.Label
	default:
		return models.ScheduleWeek{}, false
	}

	if _, err := week.Key(); err != nil {
		e.logger.Warnf("Skipping calendar entry %q: %v", entry.Label, err)
		return models.ScheduleWeek{}, false
	}
	return week, true
}

// CurrentWeek returns the week the feed reports as in progress
func (e *ESPNService) CurrentWeek(ctx context.Context) (*models.ScheduleWeek, error) {
	var resp ESPNResponse
	if err := e.getJSON(ctx, e.baseURL, &resp); err != nil {
		return nil, err
	}

	if resp.Season.Type == espnOffSeason || resp.Season.Type == 0 || resp.Week.Number == 0 {
		return nil, ErrOffSeason
	}

	if len(resp.Leagues) > 0 {
		for _, block := range resp.Leagues[0].Calendar {
			if string(block.Value) != strconv.Itoa(resp.Season.Type) {
				continue
			}
			for _, entry := range block.Entries {
				if string(entry.Value) != strconv.Itoa(resp.Week.Number) {
					continue
				}
				if week, ok := e.convertCalendarEntry(resp.Season.Year, resp.Season.Type, entry); ok {
					return &week, nil
				}
			}
		}
	}

	// Calendar missing from the response: the week is known by number only
	week := models.ScheduleWeek{Season: resp.Season.Year, Ordinal: resp.Week.Number}
	switch resp.Season.Type {
	case espnPreseason:
		week.Phase = models.PhasePreseason
	case espnRegular:
		week.Phase = models.PhaseRegular
	default:
		return nil, fmt.Errorf("postseason week %d not found on the calendar", resp.Week.Number)
	}
	return &week, nil
}

// HealthCheck verifies ESPN API is accessible
func (e *ESPNService) HealthCheck(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, e.baseURL, nil)
	if err != nil {
		return false
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

func isProBowl(label string) bool {
	compact := strings.ReplaceAll(strings.ToLower(label), " ", "")
	return strings.Contains(compact, "probowl")
}

// parseESPNTime parses the feed's timestamps ("2024-09-08T00:20Z"); unparseable values yield zero
func parseESPNTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04Z", "2006-01-02T15:04:05Z", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
