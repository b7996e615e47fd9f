package query

import (
	"fmt"
	"strconv"

	"awstail/internal/api"
)

// Cursor is the position the next request starts from. Its only variants are
// Token and Timestamp.
type Cursor interface {
	fmt.Stringer
	isCursor()
}

// Token continues a pagination chain inside the same logical window.
type Token struct {
	Value string
}

// Timestamp anchors a new query at an absolute start time. Millis is nil only
// when the request it was derived from carried no start time.
type Timestamp struct {
	Millis *int64
}

func (Token) isCursor()     {}
func (Timestamp) isCursor() {}

func (t Token) String() string { return "token(" + t.Value + ")" }

func (t Timestamp) String() string {
	if t.Millis == nil {
		return "timestamp(none)"
	}
	return "timestamp(" + strconv.FormatInt(*t.Millis, 10) + ")"
}

// Outcome is the continuation signal of a single fetch: Continuation or
// Exhausted.
type Outcome interface {
	isOutcome()
}

// Continuation means the backend returned a token for the current query.
type Continuation struct {
	Token string
}

// Exhausted means the backend returned no token. LastTimestamp is the time of
// the chronologically last event in the batch, nil when there was none.
type Exhausted struct {
	LastTimestamp *int64
}

func (Continuation) isOutcome() {}
func (Exhausted) isOutcome()    {}

// Advance derives the next cursor from the request that was sent and what the
// backend answered:
//
//   - a token always wins, even when the batch was empty;
//   - otherwise the last event's timestamp becomes the anchor;
//   - an empty batch falls back to the request's own start time, never to the
//     current time, so the interval since the last window is not skipped.
func Advance(req api.FilterRequest, outcome Outcome) Cursor {
	switch o := outcome.(type) {
	case Continuation:
		return Token{Value: o.Token}
	case Exhausted:
		if o.LastTimestamp != nil {
			return Timestamp{Millis: cloneInt64(o.LastTimestamp)}
		}
		return Timestamp{Millis: cloneInt64(req.StartTime)}
	default:
		panic(fmt.Sprintf("query: unhandled outcome %T", outcome))
	}
}
