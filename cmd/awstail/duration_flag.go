package main

import (
	"time"

	"github.com/spf13/pflag"

	"awstail/internal/duration"
)

// durationValue is a pflag.Value that accepts day and week units.
type durationValue struct {
	target *time.Duration
}

var _ pflag.Value = durationValue{}

func newDurationValue(target *time.Duration, def time.Duration) durationValue {
	*target = def
	return durationValue{target: target}
}

func (d durationValue) String() string {
	if d.target == nil {
		return ""
	}
	return duration.Format(*d.target)
}

func (d durationValue) Set(text string) error {
	parsed, err := duration.Parse(text)
	if err != nil {
		return err
	}
	*d.target = parsed
	return nil
}

func (durationValue) Type() string { return "duration" }
