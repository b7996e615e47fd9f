package logs

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"awstail/internal/api"
)

const timestampLayout = "2006-01-02 15:04:05"

var timestampColor = text.Colors{text.FgGreen}

// Predicate decides whether an event is printed. It never influences cursor
// advancement: filtered events still count as seen.
type Predicate interface {
	Match(evt api.LogEvent) bool
}

// Emitter writes one line per event: local timestamp, then trimmed message.
type Emitter struct {
	out       io.Writer
	colorize  bool
	location  *time.Location
	predicate Predicate
}

// EmitterOption customizes an Emitter.
type EmitterOption func(*Emitter)

// WithColor forces timestamp coloring on or off.
func WithColor(enabled bool) EmitterOption {
	return func(e *Emitter) { e.colorize = enabled }
}

// WithLocation renders timestamps in loc instead of the local zone.
func WithLocation(loc *time.Location) EmitterOption {
	return func(e *Emitter) {
		if loc != nil {
			e.location = loc
		}
	}
}

// WithPredicate suppresses events that do not match p.
func WithPredicate(p Predicate) EmitterOption {
	return func(e *Emitter) { e.predicate = p }
}

// NewEmitter builds an emitter writing to out. Coloring defaults to on when
// out is a terminal.
func NewEmitter(out io.Writer, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		out:      out,
		colorize: shouldColorize(out),
		location: time.Local,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit prints events in the order given.
func (e *Emitter) Emit(events []api.LogEvent) error {
	if len(events) == 0 {
		return nil
	}
	w := bufio.NewWriter(e.out)
	for _, evt := range events {
		if e.predicate != nil && !e.predicate.Match(evt) {
			continue
		}
		if _, err := w.WriteString(e.Format(evt)); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.Flush()
}

// Format renders a single event without the trailing newline.
func (e *Emitter) Format(evt api.LogEvent) string {
	ts := ""
	if evt.Timestamp != nil {
		// The display has second precision.
		ts = time.Unix(*evt.Timestamp/1000, 0).In(e.location).Format(timestampLayout)
	}
	if e.colorize && ts != "" {
		ts = timestampColor.Sprint(ts)
	}
	return ts + " " + strings.TrimSpace(evt.Message)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
