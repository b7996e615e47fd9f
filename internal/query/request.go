package query

import (
	"fmt"
	"strings"
	"time"

	"awstail/internal/api"
)

const (
	// PageSize caps the number of events a single response may carry.
	PageSize int32 = 100
	// MaxPageSize is the largest limit the backend accepts.
	MaxPageSize int32 = 10000
)

// Params are the fixed parameters shared by every request of a tail session.
type Params struct {
	Group    string
	Filter   string
	Lookback time.Duration
	PageSize int32
}

func (p Params) limit() int32 {
	switch {
	case p.PageSize <= 0:
		return PageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

func (p Params) filterPattern() *string {
	filter := strings.TrimSpace(p.Filter)
	if filter == "" {
		return nil
	}
	return &filter
}

// Fresh builds the first request of a session, anchored at now - Lookback.
func Fresh(p Params, now time.Time) (api.FilterRequest, error) {
	start, err := StartTime(now, p.Lookback)
	if err != nil {
		return api.FilterRequest{}, err
	}
	return api.FilterRequest{
		LogGroup:      p.Group,
		StartTime:     &start,
		FilterPattern: p.filterPattern(),
		Limit:         p.limit(),
	}, nil
}

// Resume builds a request from an absolute start time and an optional token
// without recomputing the window.
func Resume(p Params, startTime *int64, token *string) api.FilterRequest {
	return api.FilterRequest{
		LogGroup:      p.Group,
		StartTime:     cloneInt64(startTime),
		NextToken:     cloneString(token),
		FilterPattern: p.filterPattern(),
		Limit:         p.limit(),
	}
}

// Follow builds the request that continues prev at cursor. A Token keeps the
// window start of prev; a Timestamp starts a new chain at the anchor.
func Follow(p Params, prev api.FilterRequest, cursor Cursor) api.FilterRequest {
	switch c := cursor.(type) {
	case Token:
		return Resume(p, prev.StartTime, &c.Value)
	case Timestamp:
		return Resume(p, c.Millis, nil)
	default:
		panic(fmt.Sprintf("query: unhandled cursor %T", cursor))
	}
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
