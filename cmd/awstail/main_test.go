package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"awstail/internal/api"
	"awstail/internal/cloudwatch"
	"awstail/internal/testsupport"
)

type fakeRemote struct {
	mu       sync.Mutex
	pages    []api.FilterPage
	errs     []error
	groups   []api.GroupsPage
	requests []api.FilterRequest
	dialed   []cloudwatch.Options
	// drained runs once the scripted pages are used up.
	drained func()
}

func (f *fakeRemote) FilterEvents(ctx context.Context, req api.FilterRequest) (api.FilterPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return api.FilterPage{}, err
	}
	if len(f.pages) == 0 {
		if f.drained != nil {
			f.drained()
		}
		return api.FilterPage{}, ctx.Err()
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeRemote) DescribeGroups(_ context.Context, token *string) (api.GroupsPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.groups) == 0 {
		return api.GroupsPage{}, nil
	}
	page := f.groups[0]
	f.groups = f.groups[1:]
	return page, nil
}

func (f *fakeRemote) dial(_ context.Context, opts cloudwatch.Options) (remoteClient, error) {
	f.dialed = append(f.dialed, opts)
	return f, nil
}

type cliResult struct {
	code   int
	stdout string
	stderr string
}

func setupEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"AWS_REGION", "AWS_DEFAULT_REGION", "AWS_PROFILE"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return home
}

func runCLI(ctx context.Context, remote *fakeRemote, args ...string) cliResult {
	var stdout, stderr bytes.Buffer
	code := execute(ctx, newCommandContext(remote.dial), args, &stdout, &stderr)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func ts(v int64) *int64 { return &v }

func str(v string) *string { return &v }

func outputLines(out string) []string {
	return strings.Split(strings.TrimRight(out, "\n"), "\n")
}

func TestLogsOneShotFollowsTokensAndSortsBatch(t *testing.T) {
	setupEnv(t)
	remote := &fakeRemote{pages: []api.FilterPage{
		{NextToken: str("abc")},
		{Events: []api.LogEvent{
			{Timestamp: ts(30_000), Message: "c\n"},
			{Timestamp: ts(10_000), Message: "  a"},
			{Timestamp: ts(20_000), Message: "b"},
		}},
	}}

	res := runCLI(context.Background(), remote, "logs", "-g", "/app/api", "-s", "1h", "-f", "ERROR")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}
	lines := outputLines(res.stdout)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", res.stdout)
	}
	for i, want := range []string{"a", "b", "c"} {
		if !strings.HasSuffix(lines[i], " "+want) {
			t.Fatalf("line %d: expected message %q, got %q", i, want, lines[i])
		}
	}
	if len(remote.requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(remote.requests))
	}
	first, second := remote.requests[0], remote.requests[1]
	if first.NextToken != nil || first.Limit != 100 || first.LogGroup != "/app/api" {
		t.Fatalf("unexpected first request %+v", first)
	}
	if second.NextToken == nil || *second.NextToken != "abc" {
		t.Fatalf("expected token abc on second request, got %+v", second)
	}
	if *second.StartTime != *first.StartTime {
		t.Fatal("token chain must keep the window start")
	}
	if second.FilterPattern == nil || *second.FilterPattern != "ERROR" {
		t.Fatalf("filter pattern lost: %+v", second)
	}
	if remote.dialed[0].Region != "us-east-1" {
		t.Fatalf("expected default region, got %+v", remote.dialed[0])
	}
}

func TestLogsConfigurationErrorsFailBeforeDialing(t *testing.T) {
	setupEnv(t)
	cases := map[string][]string{
		"missing group": {"logs"},
		"blank group":   {"logs", "-g", "  "},
		"bad region":    {"logs", "-g", "/g", "-r", "mars-1"},
		"bad since":     {"logs", "-g", "/g", "-s", "5 parsecs"},
		"zero timeout":  {"logs", "-g", "/g", "-t", "0"},
		"bad predicate": {"logs", "-g", "/g", "--where", "message =="},
		"bad log level": {"--log-level", "loud", "logs", "-g", "/g"},
		"huge lookback": {"logs", "-g", "/g", "-s", "3000w"},
	}
	for name, args := range cases {
		remote := &fakeRemote{}
		res := runCLI(context.Background(), remote, args...)
		if res.code != 1 {
			t.Fatalf("%s: expected exit 1, got %d", name, res.code)
		}
		if len(remote.dialed) != 0 {
			t.Fatalf("%s: client must not be built", name)
		}
		if res.stderr == "" {
			t.Fatalf("%s: expected error on stderr", name)
		}
	}
}

func TestLogsWatchResumesAtLastTimestampAndExitsZeroOnInterrupt(t *testing.T) {
	setupEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	remote := &fakeRemote{
		pages:   []api.FilterPage{{Events: []api.LogEvent{{Timestamp: ts(1_000), Message: "tick"}}}},
		drained: cancel,
	}

	res := runCLI(ctx, remote, "logs", "-g", "/app/api", "-w", "1ms")
	if res.code != 0 {
		t.Fatalf("interrupt must exit 0, got %d (stderr: %s)", res.code, res.stderr)
	}
	if len(remote.requests) != 2 {
		t.Fatalf("expected fresh request then one resume, got %d", len(remote.requests))
	}
	resume := remote.requests[1]
	if resume.StartTime == nil || *resume.StartTime != 1_000 || resume.NextToken != nil {
		t.Fatalf("unexpected resume request %+v", resume)
	}
}

func TestLogsWherePredicateSuppressesEvents(t *testing.T) {
	setupEnv(t)
	remote := &fakeRemote{pages: []api.FilterPage{{Events: []api.LogEvent{
		{Timestamp: ts(1), Message: `{"level":"info"}`},
		{Timestamp: ts(2), Message: `{"level":"error"}`},
	}}}}
	res := runCLI(context.Background(), remote, "logs", "-g", "/g", "--where", `json.level == "error"`)
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}
	lines := outputLines(res.stdout)
	if len(lines) != 1 || !strings.Contains(lines[0], `"error"`) {
		t.Fatalf("unexpected output %q", res.stdout)
	}
}

func TestLogsCheckpointRoundTrip(t *testing.T) {
	home := setupEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	remote := &fakeRemote{
		pages:   []api.FilterPage{{Events: []api.LogEvent{{Timestamp: ts(5_000), Message: "saved"}}}},
		drained: cancel,
	}
	res := runCLI(ctx, remote, "logs", "-g", "/app/api", "-w", "1ms", "--checkpoint")
	cancel()
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}
	if _, err := os.Stat(filepath.Join(home, ".local", "share", "awstail", "checkpoints.db")); err != nil {
		t.Fatalf("checkpoint database missing: %v", err)
	}

	listed := runCLI(context.Background(), &fakeRemote{}, "checkpoint", "list")
	if listed.code != 0 || !strings.Contains(listed.stdout, "/app/api") || !strings.Contains(listed.stdout, "5000") {
		t.Fatalf("checkpoint list output: %q (stderr %q)", listed.stdout, listed.stderr)
	}

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	resumed := &fakeRemote{drained: cancel2}
	res = runCLI(ctx2, resumed, "logs", "-g", "/app/api", "-w", "1ms", "--checkpoint")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}
	if got := resumed.requests[0].StartTime; got == nil || *got != 5_000 {
		t.Fatalf("expected resume from checkpoint 5000, got %v", got)
	}

	cleared := runCLI(context.Background(), &fakeRemote{}, "checkpoint", "clear", "--all")
	if cleared.code != 0 || !strings.Contains(cleared.stdout, "Removed 1") {
		t.Fatalf("checkpoint clear output: %q (stderr %q)", cleared.stdout, cleared.stderr)
	}
}

func TestListPrintsGroupNames(t *testing.T) {
	setupEnv(t)
	remote := &fakeRemote{groups: []api.GroupsPage{
		{Names: []string{"/a", "/b"}, NextToken: str("more")},
		{Names: []string{"/c"}},
	}}
	res := runCLI(context.Background(), remote, "list", "--region", "eu-west-1", "--profile", "ops")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}
	if res.stdout != "/a\n/b\n/c\n" {
		t.Fatalf("unexpected output %q", res.stdout)
	}
	if remote.dialed[0].Region != "eu-west-1" || remote.dialed[0].Profile != "ops" {
		t.Fatalf("flags not applied: %+v", remote.dialed[0])
	}
}

func TestConfigCommands(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "awstail.toml")

	res := runCLI(context.Background(), &fakeRemote{}, "config", "init", "--path", path)
	if res.code != 0 {
		t.Fatalf("config init exit %d: %s", res.code, res.stderr)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}
	if again := runCLI(context.Background(), &fakeRemote{}, "config", "init", "--path", path); again.code != 1 {
		t.Fatal("config init must refuse to overwrite without --overwrite")
	}

	res = runCLI(context.Background(), &fakeRemote{}, "-c", path, "config", "validate")
	if res.code != 0 || !strings.Contains(res.stdout, "Configuration valid") {
		t.Fatalf("config validate output %q (stderr %q)", res.stdout, res.stderr)
	}

	res = runCLI(context.Background(), &fakeRemote{}, "-c", path, "config", "show")
	if res.code != 0 || !strings.Contains(res.stdout, "aws.region") || !strings.Contains(res.stdout, "us-east-1") {
		t.Fatalf("config show output %q (stderr %q)", res.stdout, res.stderr)
	}
}

func TestLogsAppliesConfigFileRetryAndCheckpoints(t *testing.T) {
	setupEnv(t)
	cfg := testsupport.NewConfig(t, testsupport.WithRetry(2, "1ms"), testsupport.WithCheckpoints())
	path := testsupport.WriteConfig(t, filepath.Join(t.TempDir(), "config.toml"), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	remote := &fakeRemote{
		errs:    []error{errors.New("connection reset")},
		pages:   []api.FilterPage{{Events: []api.LogEvent{{Timestamp: ts(7_000), Message: "after retry"}}}},
		drained: cancel,
	}
	res := runCLI(ctx, remote, "-c", path, "logs", "-g", "/app/worker", "-w", "1ms")
	if res.code != 0 {
		t.Fatalf("exit code %d, stderr: %s", res.code, res.stderr)
	}
	if !strings.Contains(res.stderr, "fetch failed; retrying") {
		t.Fatalf("expected retry warning on stderr, got %q", res.stderr)
	}
	if len(remote.requests) != 3 {
		t.Fatalf("expected failed, retried and resumed requests, got %d", len(remote.requests))
	}
	if *remote.requests[1].StartTime != *remote.requests[0].StartTime {
		t.Fatal("retry must re-issue the same request")
	}

	store := testsupport.MustOpenCheckpoints(t, cfg)
	anchor, found, err := store.Load(context.Background(), "/app/worker", "")
	if err != nil || !found || anchor.StartMs != 7_000 {
		t.Fatalf("expected saved anchor 7000, got %+v found=%v err=%v", anchor, found, err)
	}
}
