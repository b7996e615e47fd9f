package logs_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"awstail/internal/api"
	"awstail/internal/logs"
)

func ts(v int64) *int64 { return &v }

type containsPredicate string

func (p containsPredicate) Match(evt api.LogEvent) bool {
	return strings.Contains(evt.Message, string(p))
}

func TestEmitFormatsLocalTimestampAndTrimmedMessage(t *testing.T) {
	var buf bytes.Buffer
	zone := time.FixedZone("UTC+2", 2*60*60)
	emitter := logs.NewEmitter(&buf, logs.WithLocation(zone))

	millis := time.Date(2024, 5, 1, 10, 0, 3, 900*int(time.Millisecond), time.UTC).UnixMilli()
	err := emitter.Emit([]api.LogEvent{{Timestamp: ts(millis), Message: "  hello world \n"}})
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if got, want := buf.String(), "2024-05-01 12:00:03 hello world\n"; got != want {
		t.Fatalf("unexpected output:\n got %q\nwant %q", got, want)
	}
}

func TestEmitWithoutTimestampLeavesColumnEmpty(t *testing.T) {
	var buf bytes.Buffer
	emitter := logs.NewEmitter(&buf, logs.WithLocation(time.UTC))
	if err := emitter.Emit([]api.LogEvent{{Message: "bare"}}); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if got := buf.String(); got != " bare\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestEmitColorizesTimestampWhenRequested(t *testing.T) {
	var buf bytes.Buffer
	emitter := logs.NewEmitter(&buf, logs.WithLocation(time.UTC), logs.WithColor(true))
	if err := emitter.Emit([]api.LogEvent{{Timestamp: ts(0), Message: "m"}}); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if got, want := buf.String(), "\x1b[32m1970-01-01 00:00:00\x1b[0m m\n"; got != want {
		t.Fatalf("unexpected output %q, want %q", got, want)
	}
}

func TestEmitterDefaultsToPlainOutputForBuffers(t *testing.T) {
	var buf bytes.Buffer
	emitter := logs.NewEmitter(&buf, logs.WithLocation(time.UTC))
	if err := emitter.Emit([]api.LogEvent{{Timestamp: ts(0), Message: "m"}}); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected no ANSI codes, got %q", buf.String())
	}
}

func TestEmitPredicateSuppressesEvents(t *testing.T) {
	var buf bytes.Buffer
	emitter := logs.NewEmitter(&buf, logs.WithLocation(time.UTC), logs.WithPredicate(containsPredicate("ERROR")))
	err := emitter.Emit([]api.LogEvent{
		{Timestamp: ts(1000), Message: "INFO ok"},
		{Timestamp: ts(2000), Message: "ERROR bad"},
	})
	if err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	if got := buf.String(); got != "1970-01-01 00:00:02 ERROR bad\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestSortedBatchEmitsInTimestampOrder(t *testing.T) {
	var buf bytes.Buffer
	emitter := logs.NewEmitter(&buf, logs.WithLocation(time.UTC))
	batch := []api.LogEvent{
		{Timestamp: ts(30_000), Message: "c"},
		{Timestamp: ts(10_000), Message: "a"},
		{Timestamp: ts(20_000), Message: "b"},
	}
	if err := emitter.Emit(logs.SortEvents(batch)); err != nil {
		t.Fatalf("Emit error: %v", err)
	}
	var messages []string
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		fields := strings.Fields(line)
		messages = append(messages, fields[len(fields)-1])
	}
	if strings.Join(messages, ",") != "a,b,c" {
		t.Fatalf("unexpected emission order %v", messages)
	}
}
