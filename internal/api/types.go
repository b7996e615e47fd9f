package api

// LogEvent is a single event returned by the log backend. Timestamp is the
// event time in epoch milliseconds (UTC) and may be absent.
type LogEvent struct {
	Timestamp *int64 `json:"timestamp,omitempty"`
	Message   string `json:"message"`
	Stream    string `json:"stream,omitempty"`
}

// Millis returns the event timestamp, or -1 when absent so that events
// without a timestamp order before every timestamped event.
func (e LogEvent) Millis() int64 {
	if e.Timestamp == nil {
		return -1
	}
	return *e.Timestamp
}

// FilterRequest describes one bounded query against a log group.
//
// StartTime and NextToken are conceptually exclusive: the backend ignores
// StartTime while a token is present. StartTime is still carried through a
// token chain so it can serve as the resume point once the chain ends.
type FilterRequest struct {
	LogGroup      string  `json:"logGroup"`
	StartTime     *int64  `json:"startTime,omitempty"`
	NextToken     *string `json:"nextToken,omitempty"`
	FilterPattern *string `json:"filterPattern,omitempty"`
	Limit         int32   `json:"limit"`
}

// FilterPage is one backend response: events in arrival order plus an
// optional continuation token.
type FilterPage struct {
	Events    []LogEvent `json:"events"`
	NextToken *string    `json:"nextToken,omitempty"`
}

// GroupsPage is one page of log group names.
type GroupsPage struct {
	Names     []string `json:"names"`
	NextToken *string  `json:"nextToken,omitempty"`
}
