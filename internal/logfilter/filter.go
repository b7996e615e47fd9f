package logfilter

import (
	"encoding/json"
	"strings"

	"github.com/google/cel-go/cel"

	"awstail/internal/api"
	"awstail/internal/services"
)

// Filter is a compiled predicate. A nil *Filter matches everything.
type Filter struct {
	expr string
	prog cel.Program
}

// Compile parses and type-checks expr. An empty expression yields a nil
// filter and no error.
func Compile(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("message", cel.StringType),
		cel.Variable("stream", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("has_ts", cel.BoolType),
		cel.Variable("json", cel.DynType),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "logfilter", "build environment", "", err)
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, services.Wrap(services.ErrConfiguration, "logfilter", "parse", expr, iss.Err())
	}
	checked, iss := env.Check(ast)
	if iss != nil && iss.Err() != nil {
		return nil, services.Wrap(services.ErrConfiguration, "logfilter", "check", expr, iss.Err())
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, services.Wrap(services.ErrConfiguration, "logfilter", "check", expr+" must evaluate to bool", nil)
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "logfilter", "program", expr, err)
	}
	return &Filter{expr: expr, prog: prog}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the predicate against evt. Evaluation errors, such as a
// missing JSON field, count as no match.
func (f *Filter) Match(evt api.LogEvent) bool {
	if f == nil {
		return true
	}
	var ts int64
	if evt.Timestamp != nil {
		ts = *evt.Timestamp
	}
	out, _, err := f.prog.Eval(map[string]any{
		"message": evt.Message,
		"stream":  evt.Stream,
		"ts_ms":   ts,
		"has_ts":  evt.Timestamp != nil,
		"json":    decodeJSON(evt.Message),
	})
	if err != nil {
		return false
	}
	matched, ok := out.Value().(bool)
	return ok && matched
}

func decodeJSON(message string) any {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil
	}
	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return nil
	}
	return value
}
