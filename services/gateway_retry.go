package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nfl-pool/logging"
	"nfl-pool/models"
)

// RetryPolicy bounds how a failed gateway call is repeated.
// Delays grow as BaseDelay * 2^n and never exceed MaxDelay.
type RetryPolicy struct {
	MaxRetries int // retries after the first attempt; total attempts are MaxRetries+1
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy is one initial attempt plus three retries at 1s, 2s and 4s
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second}
}

// Delay returns the wait before retry number n (0-based)
func (p RetryPolicy) Delay(n int) time.Duration {
	d := p.BaseDelay
	for i := 0; i < n; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryingGateway decorates a GameResultsGateway with bounded exponential backoff.
// ErrOffSeason and context cancellation are returned without retrying.
type RetryingGateway struct {
	next    GameResultsGateway
	policy  RetryPolicy
	sleep   SleepFunc
	metrics *Metrics
	logger  *logging.Logger
}

// NewRetryingGateway wraps next with the given policy
func NewRetryingGateway(next GameResultsGateway, policy RetryPolicy, metrics *Metrics) *RetryingGateway {
	return &RetryingGateway{
		next:    next,
		policy:  policy,
		sleep:   sleepContext,
		metrics: metrics,
		logger:  logging.WithPrefix("GatewayRetry"),
	}
}

// WithSleep replaces the wait function, used by tests to avoid real delays
func (g *RetryingGateway) WithSleep(sleep SleepFunc) *RetryingGateway {
	g.sleep = sleep
	return g
}

func (g *RetryingGateway) do(ctx context.Context, operation string, call func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = call()
		g.metrics.gatewayCall(operation, err)
		if err == nil || errors.Is(err, ErrOffSeason) || ctx.Err() != nil {
			return err
		}
		if attempt >= g.policy.MaxRetries {
			break
		}

		delay := g.policy.Delay(attempt)
		g.logger.Warnf("%s failed (attempt %d/%d), retrying in %s: %v",
			operation, attempt+1, g.policy.MaxRetries+1, delay, err)
		g.metrics.gatewayRetry()
		if serr := g.sleep(ctx, delay); serr != nil {
			return serr
		}
	}

	g.logger.Errorf("%s failed after %d attempts: %v", operation, g.policy.MaxRetries+1, err)
	return fmt.Errorf("%w: %s: %v", ErrUpstreamUnavailable, operation, err)
}

// ListContestsForDateRange fetches contests with retries
func (g *RetryingGateway) ListContestsForDateRange(ctx context.Context, start, end time.Time) ([]models.Contest, error) {
	var contests []models.Contest
	err := g.do(ctx, "list_contests", func() error {
		var err error
		contests, err = g.next.ListContestsForDateRange(ctx, start, end)
		return err
	})
	return contests, err
}

// ListWeeks fetches the season calendar with retries
func (g *RetryingGateway) ListWeeks(ctx context.Context, season int) ([]models.ScheduleWeek, error) {
	var weeks []models.ScheduleWeek
	err := g.do(ctx, "list_weeks", func() error {
		var err error
		weeks, err = g.next.ListWeeks(ctx, season)
		return err
	})
	return weeks, err
}

// CurrentWeek fetches the in-progress week with retries
func (g *RetryingGateway) CurrentWeek(ctx context.Context) (*models.ScheduleWeek, error) {
	var week *models.ScheduleWeek
	err := g.do(ctx, "current_week", func() error {
		var err error
		week, err = g.next.CurrentWeek(ctx)
		return err
	})
	return week, err
}
