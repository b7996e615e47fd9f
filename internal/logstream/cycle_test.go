package logstream_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"awstail/internal/api"
	"awstail/internal/logging"
	"awstail/internal/logstream"
	"awstail/internal/query"
	"awstail/internal/services"
)

type fetchResult struct {
	outcome query.Outcome
	err     error
}

type scriptedFetcher struct {
	results  []fetchResult
	requests []api.FilterRequest
	// onExhausted runs when the script runs out; it defaults to failing the test.
	onExhausted func() (query.Outcome, error)
}

func (f *scriptedFetcher) Fetch(_ context.Context, req api.FilterRequest) (query.Outcome, error) {
	f.requests = append(f.requests, req)
	if len(f.results) == 0 {
		if f.onExhausted != nil {
			return f.onExhausted()
		}
		return nil, errors.New("unexpected fetch")
	}
	next := f.results[0]
	f.results = f.results[1:]
	return next.outcome, next.err
}

type recordingSleeper struct {
	calls []time.Duration
	// stopAfter cancels once this many sleeps have happened; zero never cancels.
	stopAfter int
	cancel    context.CancelFunc
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	if s.stopAfter > 0 && len(s.calls) >= s.stopAfter {
		s.cancel()
	}
	return ctx.Err()
}

type memoryAnchors struct {
	saved []int64
	err   error
}

func (m *memoryAnchors) Save(_ context.Context, group, filter string, startMs int64) error {
	m.saved = append(m.saved, startMs)
	return m.err
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ms(v int64) *int64 { return &v }

func baseParams() query.Params {
	return query.Params{Group: "/app/api", Filter: "ERROR", Lookback: 5 * time.Minute}
}

func TestRunOneShotDrainsTokenChainWithoutSleeping(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{outcome: query.Continuation{Token: "abc"}},
		{outcome: query.Continuation{Token: "def"}},
		{outcome: query.Exhausted{LastTimestamp: ms(100)}},
	}}
	sleeper := &recordingSleeper{}
	cycle := logstream.NewCycle(fetcher, logstream.Options{Params: baseParams()}, logging.NewNop(),
		logstream.WithClock(func() time.Time { return fixedNow }),
		logstream.WithSleeper(sleeper.Sleep),
	)

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(sleeper.calls) != 0 {
		t.Fatalf("one-shot mode must not sleep, got %v", sleeper.calls)
	}
	if len(fetcher.requests) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(fetcher.requests))
	}

	start := fixedNow.Add(-5 * time.Minute).UnixMilli()
	first := fetcher.requests[0]
	if first.StartTime == nil || *first.StartTime != start || first.NextToken != nil {
		t.Fatalf("unexpected first request %+v", first)
	}
	for i, token := range []string{"abc", "def"} {
		req := fetcher.requests[i+1]
		if req.NextToken == nil || *req.NextToken != token {
			t.Fatalf("request %d: expected token %q, got %v", i+1, token, req.NextToken)
		}
		if req.StartTime == nil || *req.StartTime != start {
			t.Fatalf("request %d: token chain must keep window start", i+1)
		}
		if req.FilterPattern == nil || *req.FilterPattern != "ERROR" {
			t.Fatalf("request %d: filter lost", i+1)
		}
	}
}

func TestRunOneShotStopsOnEmptyBatch(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{outcome: query.Exhausted{}}}}
	cycle := logstream.NewCycle(fetcher, logstream.Options{Params: baseParams()}, nil,
		logstream.WithClock(func() time.Time { return fixedNow }),
	)
	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("expected a single request, got %d", len(fetcher.requests))
	}
}

func TestRunWatchSleepsThenResumesAtAnchor(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const anchor int64 = 1_709_294_000_000
	fetcher := &scriptedFetcher{results: []fetchResult{
		{outcome: query.Exhausted{LastTimestamp: ms(anchor)}},
		{outcome: query.Exhausted{}},
	}}
	sleeper := &recordingSleeper{stopAfter: 2, cancel: cancel}
	store := &memoryAnchors{}
	cycle := logstream.NewCycle(fetcher, logstream.Options{
		Params: baseParams(),
		Watch:  10 * time.Second,
	}, logging.NewNop(),
		logstream.WithClock(func() time.Time { return fixedNow }),
		logstream.WithSleeper(sleeper.Sleep),
		logstream.WithAnchors(store),
	)

	err := cycle.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(sleeper.calls) != 2 || sleeper.calls[0] != 10*time.Second {
		t.Fatalf("expected two 10s sleeps, got %v", sleeper.calls)
	}
	if len(fetcher.requests) != 2 {
		t.Fatalf("expected exactly one resume request after the first sleep, got %d requests", len(fetcher.requests))
	}
	resume := fetcher.requests[1]
	if resume.StartTime == nil || *resume.StartTime != anchor {
		t.Fatalf("resume must start at anchor %d, got %v", anchor, resume.StartTime)
	}
	if resume.NextToken != nil {
		t.Fatalf("resume must not carry a token, got %q", *resume.NextToken)
	}
	// The empty second batch falls back to the resume request's own start.
	if len(store.saved) != 2 || store.saved[0] != anchor || store.saved[1] != anchor {
		t.Fatalf("unexpected saved anchors %v", store.saved)
	}
}

func TestRunStartsFromCheckpoint(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{{outcome: query.Exhausted{}}}}
	cycle := logstream.NewCycle(fetcher, logstream.Options{Params: baseParams(), Resume: ms(42)}, nil)
	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := fetcher.requests[0].StartTime; got == nil || *got != 42 {
		t.Fatalf("expected checkpoint start 42, got %v", got)
	}
}

func TestRunAbortsOnFetchErrorByDefault(t *testing.T) {
	failure := services.Wrap(services.ErrBackend, "fetcher", "filter events", "", errors.New("throttled"))
	fetcher := &scriptedFetcher{results: []fetchResult{{err: failure}}}
	sleeper := &recordingSleeper{}
	cycle := logstream.NewCycle(fetcher, logstream.Options{Params: baseParams(), Watch: time.Second}, nil,
		logstream.WithSleeper(sleeper.Sleep),
	)
	err := cycle.Run(context.Background())
	if !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(fetcher.requests) != 1 || len(sleeper.calls) != 0 {
		t.Fatalf("expected no retry, got %d requests and %v sleeps", len(fetcher.requests), sleeper.calls)
	}
}

func TestRunRetriesWithBackoff(t *testing.T) {
	timeout := services.Wrap(services.ErrTimeout, "fetcher", "filter events", "", nil)
	fetcher := &scriptedFetcher{results: []fetchResult{
		{outcome: query.Continuation{Token: "abc"}},
		{err: timeout},
		{err: timeout},
		{outcome: query.Exhausted{LastTimestamp: ms(7)}},
	}}
	sleeper := &recordingSleeper{}
	cycle := logstream.NewCycle(fetcher, logstream.Options{
		Params: baseParams(),
		Retry:  logstream.RetryPolicy{Attempts: 3, Backoff: 40 * time.Second},
	}, nil, logstream.WithSleeper(sleeper.Sleep))

	if err := cycle.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	want := []time.Duration{40 * time.Second, time.Minute}
	if len(sleeper.calls) != len(want) {
		t.Fatalf("expected backoff sleeps %v, got %v", want, sleeper.calls)
	}
	for i := range want {
		if sleeper.calls[i] != want[i] {
			t.Fatalf("backoff %d: expected %s, got %s", i, want[i], sleeper.calls[i])
		}
	}
	for i := 1; i < len(fetcher.requests); i++ {
		req := fetcher.requests[i]
		if req.NextToken == nil || *req.NextToken != "abc" {
			t.Fatalf("retry %d must re-issue the same request, got %+v", i, req)
		}
	}
}

func TestRunGivesUpAfterRetryBudget(t *testing.T) {
	failure := services.Wrap(services.ErrBackend, "fetcher", "filter events", "", errors.New("boom"))
	fetcher := &scriptedFetcher{onExhausted: func() (query.Outcome, error) { return nil, failure }}
	sleeper := &recordingSleeper{}
	cycle := logstream.NewCycle(fetcher, logstream.Options{
		Params: baseParams(),
		Retry:  logstream.RetryPolicy{Attempts: 2, Backoff: time.Second},
	}, nil, logstream.WithSleeper(sleeper.Sleep))

	if err := cycle.Run(context.Background()); !errors.Is(err, services.ErrBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if len(fetcher.requests) != 3 {
		t.Fatalf("expected 1 attempt plus 2 retries, got %d", len(fetcher.requests))
	}
}

func TestRunDoesNotRetryConfigurationErrors(t *testing.T) {
	failure := services.Wrap(services.ErrConfiguration, "fetcher", "filter events", "bad group", nil)
	fetcher := &scriptedFetcher{results: []fetchResult{{err: failure}}}
	cycle := logstream.NewCycle(fetcher, logstream.Options{
		Params: baseParams(),
		Retry:  logstream.RetryPolicy{Attempts: 5, Backoff: time.Second},
	}, nil)
	if err := cycle.Run(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(fetcher.requests) != 1 {
		t.Fatalf("expected no retries, got %d requests", len(fetcher.requests))
	}
}

func TestRunRejectsNegativeLookback(t *testing.T) {
	params := baseParams()
	params.Lookback = -time.Minute
	fetcher := &scriptedFetcher{}
	cycle := logstream.NewCycle(fetcher, logstream.Options{Params: params}, nil)
	if err := cycle.Run(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if len(fetcher.requests) != 0 {
		t.Fatal("no request may be sent for an invalid window")
	}
}

func TestRunKeepsTailingWhenCheckpointSaveFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher := &scriptedFetcher{results: []fetchResult{{outcome: query.Exhausted{LastTimestamp: ms(5)}}}}
	sleeper := &recordingSleeper{stopAfter: 1, cancel: cancel}
	store := &memoryAnchors{err: errors.New("disk full")}
	cycle := logstream.NewCycle(fetcher, logstream.Options{Params: baseParams(), Watch: time.Second}, nil,
		logstream.WithSleeper(sleeper.Sleep),
		logstream.WithAnchors(store),
	)
	if err := cycle.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one save attempt, got %d", len(store.saved))
	}
}

func TestRunIdleSleepObservesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &scriptedFetcher{results: []fetchResult{{outcome: query.Exhausted{LastTimestamp: ms(5)}}}}
	cycle := logstream.NewCycle(fetcher, logstream.Options{Params: baseParams(), Watch: time.Hour}, nil)

	done := make(chan error, 1)
	go func() { done <- cycle.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
