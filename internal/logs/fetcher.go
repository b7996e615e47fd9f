package logs

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"awstail/internal/api"
	"awstail/internal/logging"
	"awstail/internal/query"
	"awstail/internal/services"
)

// Backend is the query half of a log backend client.
type Backend interface {
	FilterEvents(ctx context.Context, req api.FilterRequest) (api.FilterPage, error)
}

// Fetcher runs one backend query per call.
type Fetcher struct {
	backend Backend
	emitter *Emitter
	timeout time.Duration
	logger  *slog.Logger
}

// NewFetcher wires a backend to an emitter. A non-positive timeout leaves the
// call bounded only by the caller's context.
func NewFetcher(backend Backend, emitter *Emitter, timeout time.Duration, logger *slog.Logger) *Fetcher {
	return &Fetcher{
		backend: backend,
		emitter: emitter,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "fetcher"),
	}
}

// Fetch sends req, emits the sorted batch, and returns the continuation
// signal for the cursor tracker.
func (f *Fetcher) Fetch(ctx context.Context, req api.FilterRequest) (query.Outcome, error) {
	callCtx := ctx
	cancel := context.CancelFunc(func() {})
	if f.timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
	}
	defer cancel()

	f.logger.Debug("sending log request", requestAttrs(req)...)
	page, err := f.backend.FilterEvents(callCtx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "fetcher", "filter events",
				fmt.Sprintf("%s: no response within %s", req.LogGroup, f.timeout), err)
		}
		return nil, services.Wrap(services.ErrBackend, "fetcher", "filter events", req.LogGroup, err)
	}

	events := SortEvents(page.Events)
	f.logger.Debug("received log response",
		logging.Int("events", len(events)),
		logging.Bool("has_token", hasToken(page.NextToken)),
	)
	if f.emitter != nil {
		if err := f.emitter.Emit(events); err != nil {
			return nil, fmt.Errorf("emit events: %w", err)
		}
	}

	if hasToken(page.NextToken) {
		return query.Continuation{Token: *page.NextToken}, nil
	}
	return query.Exhausted{LastTimestamp: lastTimestamp(events)}, nil
}

// SortEvents returns a copy of events ordered by ascending timestamp. Events
// without a timestamp come first; ties keep arrival order.
func SortEvents(events []api.LogEvent) []api.LogEvent {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b api.LogEvent) int {
		return cmp.Compare(a.Millis(), b.Millis())
	})
	return sorted
}

func lastTimestamp(sorted []api.LogEvent) *int64 {
	if len(sorted) == 0 {
		return nil
	}
	last := sorted[len(sorted)-1].Timestamp
	if last == nil {
		return nil
	}
	ts := *last
	return &ts
}

func hasToken(token *string) bool {
	return token != nil && *token != ""
}

func requestAttrs(req api.FilterRequest) []any {
	attrs := []logging.Attr{
		logging.String("group", req.LogGroup),
		logging.Int("limit", int(req.Limit)),
	}
	if req.StartTime != nil {
		attrs = append(attrs, logging.Int64("start_ms", *req.StartTime))
	}
	if req.NextToken != nil {
		attrs = append(attrs, logging.Bool("paginated", true))
	}
	if req.FilterPattern != nil {
		attrs = append(attrs, logging.String("filter", *req.FilterPattern))
	}
	return logging.Args(attrs...)
}
