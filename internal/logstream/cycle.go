package logstream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"awstail/internal/api"
	"awstail/internal/logging"
	"awstail/internal/query"
	"awstail/internal/services"
)

const maxBackoff = time.Minute

// Fetcher issues one bounded query and reports how the result continues.
type Fetcher interface {
	Fetch(ctx context.Context, req api.FilterRequest) (query.Outcome, error)
}

// AnchorStore persists the watch anchor so a later session can resume.
type AnchorStore interface {
	Save(ctx context.Context, group, filter string, startMs int64) error
}

// RetryPolicy bounds how often a failed fetch is re-issued. Zero attempts
// aborts on the first failure.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// Options configures a Cycle.
type Options struct {
	Params query.Params
	// Watch is the idle interval between exhausted chains. Zero means
	// one-shot.
	Watch time.Duration
	Retry RetryPolicy
	// Resume, when set, replaces the lookback window of the first request.
	Resume *int64
}

// CycleOption customizes a Cycle.
type CycleOption func(*Cycle)

// WithClock overrides the instant source used for the first window.
func WithClock(now func() time.Time) CycleOption {
	return func(c *Cycle) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSleeper overrides the idle and backoff wait.
func WithSleeper(sleep func(context.Context, time.Duration) error) CycleOption {
	return func(c *Cycle) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// WithAnchors saves every watch anchor to store.
func WithAnchors(store AnchorStore) CycleOption {
	return func(c *Cycle) {
		c.anchors = store
	}
}

type state int

const (
	stateFetching state = iota
	stateIdle
	stateDone
)

func (s state) String() string {
	switch s {
	case stateFetching:
		return "fetching"
	case stateIdle:
		return "idle"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Cycle is the fetch/sleep state machine of a tail session.
type Cycle struct {
	fetcher Fetcher
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
	anchors AnchorStore
}

// NewCycle builds a cycle around fetcher.
func NewCycle(fetcher Fetcher, opts Options, logger *slog.Logger, options ...CycleOption) *Cycle {
	c := &Cycle{
		fetcher: fetcher,
		opts:    opts,
		logger:  logging.NewComponentLogger(logger, "poll"),
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Run drives the cycle until the chain is exhausted in one-shot mode (nil),
// a fetch fails beyond the retry policy, or ctx is cancelled (ctx.Err()).
func (c *Cycle) Run(ctx context.Context) error {
	req, err := c.firstRequest()
	if err != nil {
		return err
	}

	current := stateFetching
	var anchor query.Timestamp
	for {
		switch current {
		case stateFetching:
			outcome, err := c.fetch(ctx, req)
			if err != nil {
				return err
			}
			switch cursor := query.Advance(req, outcome).(type) {
			case query.Token:
				req = query.Follow(c.opts.Params, req, cursor)
			case query.Timestamp:
				if c.opts.Watch <= 0 {
					current = c.transition(current, stateDone, cursor)
					continue
				}
				anchor = cursor
				c.saveAnchor(ctx, cursor)
				current = c.transition(current, stateIdle, cursor)
			default:
				panic(fmt.Sprintf("logstream: unhandled cursor %T", cursor))
			}
		case stateIdle:
			if err := c.sleep(ctx, c.opts.Watch); err != nil {
				return err
			}
			req = query.Follow(c.opts.Params, req, anchor)
			current = c.transition(current, stateFetching, anchor)
		case stateDone:
			return nil
		}
	}
}

func (c *Cycle) firstRequest() (api.FilterRequest, error) {
	if c.opts.Resume != nil {
		c.logger.Info("resuming from checkpoint", logging.Int64("start_ms", *c.opts.Resume))
		return query.Resume(c.opts.Params, c.opts.Resume, nil), nil
	}
	return query.Fresh(c.opts.Params, c.now())
}

func (c *Cycle) transition(from, to state, cursor query.Cursor) state {
	c.logger.Debug("poll state changed",
		logging.String("from", from.String()),
		logging.String("to", to.String()),
		logging.String("cursor", cursor.String()),
	)
	return to
}

func (c *Cycle) fetch(ctx context.Context, req api.FilterRequest) (query.Outcome, error) {
	delay := c.opts.Retry.Backoff
	for attempt := 1; ; attempt++ {
		outcome, err := c.fetcher.Fetch(ctx, req)
		if err == nil {
			return outcome, nil
		}
		if attempt > c.opts.Retry.Attempts || !services.Retryable(err) {
			return nil, err
		}
		logging.WarnWithContext(c.logger, "fetch failed; retrying", "fetch_retry",
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", c.opts.Retry.Attempts),
			logging.Duration("backoff", delay),
			logging.String(logging.FieldErrorHint, "check network connectivity and AWS credentials"),
			logging.Error(err),
		)
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay = nextBackoff(delay)
	}
}

func (c *Cycle) saveAnchor(ctx context.Context, anchor query.Timestamp) {
	if c.anchors == nil || anchor.Millis == nil {
		return
	}
	if err := c.anchors.Save(ctx, c.opts.Params.Group, c.opts.Params.Filter, *anchor.Millis); err != nil {
		logging.WarnWithContext(c.logger, "checkpoint save failed", "checkpoint_save",
			logging.Int64("start_ms", *anchor.Millis),
			logging.String(logging.FieldErrorHint, "check the checkpoint directory is writable"),
			logging.String(logging.FieldImpact, "a restart resumes from an older anchor"),
			logging.Error(err),
		)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	d *= 2
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
