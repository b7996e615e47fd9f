package query

import (
	"fmt"
	"time"

	"awstail/internal/services"
)

// StartTime returns now - lookback as UTC epoch milliseconds. The reference
// instant is supplied by the caller; the backend only understands UTC, so now
// is converted before the subtraction.
func StartTime(now time.Time, lookback time.Duration) (int64, error) {
	if lookback < 0 {
		return 0, services.Wrap(services.ErrConfiguration, "query", "start time",
			fmt.Sprintf("lookback %s is negative", lookback), nil)
	}
	start := now.UTC().Add(-lookback)
	if start.Before(time.UnixMilli(0)) {
		return 0, services.Wrap(services.ErrConfiguration, "query", "start time",
			fmt.Sprintf("lookback %s reaches before the Unix epoch", lookback), nil)
	}
	return start.UnixMilli(), nil
}
