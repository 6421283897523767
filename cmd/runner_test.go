package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/karaoke/internal/formatter"
	"github.com/desertthunder/karaoke/internal/shared"
	"github.com/desertthunder/karaoke/internal/tasks"
	tu "github.com/desertthunder/karaoke/internal/testing"
)

func newTestRunner(t *testing.T) (*Runner, *bytes.Buffer) {
	t.Helper()

	cfg := shared.DefaultConfig()
	cfg.Database.Path = ":memory:"
	cfg.Session.Name = "Test Night"
	cfg.Session.FairPlay = false
	cfg.Session.AutoRotate = true

	s, err := tasks.Open(context.Background(), tasks.Options{
		Config: cfg,
		Clock:  shared.NewStepClock(time.Now().Add(-time.Hour), time.Second),
	})
	if err != nil {
		t.Fatalf("failed to open session: %v", err)
	}

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{Config: cfg, Output: output, Session: s})
	t.Cleanup(func() { runner.Close() })
	return runner, output
}

// run executes one command line against the runner and returns what it printed.
func run(t *testing.T, r *Runner, out *bytes.Buffer, args ...string) (string, error) {
	t.Helper()
	out.Reset()
	err := newApp(r).Run(context.Background(), append([]string{"karaoke"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, r *Runner, out *bytes.Buffer, args ...string) string {
	t.Helper()
	text, err := run(t, r, out, args...)
	if err != nil {
		t.Fatalf("karaoke %s: %v", strings.Join(args, " "), err)
	}
	return text
}

// jsonLen decodes a JSON array and returns its length; null counts as empty.
func jsonLen(t *testing.T, text string) int {
	t.Helper()
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		t.Fatalf("invalid JSON array %q: %v", text, err)
	}
	return len(items)
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.session != nil {
				t.Error("expected session to be opened lazily")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON without escaping", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"singers": "Amy & Bo"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"singers":"Amy & Bo"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("fails once the writer is exhausted", func(t *testing.T) {
			target := &bytes.Buffer{}
			limited := tu.NewLimitedWriter(1, 0, target)
			runner := NewRunner(RunnerOpts{Output: &limited})

			if err := runner.writePlain("first"); err != nil {
				t.Fatalf("expected first write to succeed, got %v", err)
			}
			err := runner.writePlainln("second")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
			if target.String() != "first" {
				t.Errorf("expected only the first write, got %q", target.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "singer", "song", "perf", "board", "session", "serve", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("parseID", func(t *testing.T) {
		if id, err := parseID("42", "song"); err != nil || id != 42 {
			t.Errorf("expected 42, got %d (%v)", id, err)
		}
		if _, err := parseID("", "song"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected missing argument, got %v", err)
		}
		for _, bad := range []string{"abc", "0", "-3"} {
			if _, err := parseID(bad, "song"); !errors.Is(err, shared.ErrInvalidArgument) {
				t.Errorf("parseID(%q): expected invalid argument, got %v", bad, err)
			}
		}
	})
}

func TestCommands(t *testing.T) {
	t.Run("runs a night from the command line", func(t *testing.T) {
		r, out := newTestRunner(t)

		if text := mustRun(t, r, out, "singer", "add", "Amy"); !strings.Contains(text, "✓ Added singer #1 Amy") {
			t.Errorf("unexpected output: %q", text)
		}
		mustRun(t, r, out, "singer", "add", "Bo")
		mustRun(t, r, out, "singer", "add", "Cy")

		text := mustRun(t, r, out, "song", "add", "--author", "Toto", "--singer", "Amy", "--key", "+2", "Africa")
		if !strings.Contains(text, "at position 1 (append)") {
			t.Errorf("unexpected output: %q", text)
		}
		mustRun(t, r, out, "song", "add", "-s", "amy", "Imagine")
		text = mustRun(t, r, out, "song", "add", "-s", "bo", "-s", "3", "--mode", "fair-play", "Shallow")
		if !strings.Contains(text, "at position 1 (fair-play)") {
			t.Errorf("expected fair play to put singers without turns first, got %q", text)
		}

		text = mustRun(t, r, out, "song", "list")
		for _, want := range []string{"Queue · Test Night", "Africa - Toto [+2]", "Bo & Cy", "Estimated time remaining"} {
			if !strings.Contains(text, want) {
				t.Errorf("expected %q in queue listing:\n%s", want, text)
			}
		}

		text = mustRun(t, r, out, "song", "complete", "--rating", "4.5", "1")
		if !strings.Contains(text, "✓ Completed Africa - Toto [+2]") || !strings.Contains(text, "Amy: 4.5") {
			t.Errorf("unexpected complete output: %q", text)
		}
		if !strings.Contains(text, "✓ Rotated 1 singer to the back") {
			t.Errorf("expected rotation from the session default, got %q", text)
		}

		var singers []struct{ Name string }
		if err := json.Unmarshal([]byte(mustRun(t, r, out, "singer", "list", "--json")), &singers); err != nil {
			t.Fatalf("invalid singer JSON: %v", err)
		}
		if len(singers) != 3 || singers[2].Name != "Amy" {
			t.Errorf("expected Amy rotated to the back, got %+v", singers)
		}

		text = mustRun(t, r, out, "board", "leaderboard")
		if !strings.Contains(text, "1st") || !strings.Contains(text, "Amy") || !strings.Contains(text, "(1 rated)") {
			t.Errorf("unexpected leaderboard: %q", text)
		}

		text = mustRun(t, r, out, "song", "check", "--author", "TOTO", "  africa ")
		if !strings.HasPrefix(text, "Already performed: Africa - Toto") {
			t.Errorf("expected a duplicate match, got %q", text)
		}
		text = mustRun(t, r, out, "song", "add", "--author", "Toto", "-s", "Bo", "Africa")
		if !strings.Contains(text, "already performed") {
			t.Errorf("expected a duplicate note when queueing again, got %q", text)
		}

		text = mustRun(t, r, out, "singer", "stats", "amy")
		if !strings.Contains(text, "Songs performed: 1") || !strings.Contains(text, "Best rating:     4.5") {
			t.Errorf("unexpected singer stats: %q", text)
		}

		mustRun(t, r, out, "singer", "rename", "1", "Amelia")
		text = mustRun(t, r, out, "perf", "list")
		if !strings.Contains(text, "Amy") {
			t.Errorf("expected the logged name to survive a rename, got %q", text)
		}
	})

	t.Run("edits and moves songs", func(t *testing.T) {
		r, out := newTestRunner(t)
		mustRun(t, r, out, "singer", "add", "Amy")
		mustRun(t, r, out, "song", "add", "-s", "Amy", "One")
		mustRun(t, r, out, "song", "add", "-s", "Amy", "Two")
		mustRun(t, r, out, "song", "add", "-s", "Amy", "Three")

		if text := mustRun(t, r, out, "song", "move", "--to", "1", "3"); !strings.Contains(text, "now at position 1") {
			t.Errorf("unexpected move output: %q", text)
		}
		if text := mustRun(t, r, out, "song", "move", "--by", "5", "1"); !strings.Contains(text, "now at position 3") {
			t.Errorf("expected the move to clamp, got %q", text)
		}

		text := mustRun(t, r, out, "song", "edit", "--title", "Deux", "--key=-1", "2")
		if !strings.Contains(text, "Deux [-1]") {
			t.Errorf("unexpected edit output: %q", text)
		}
		if text = mustRun(t, r, out, "song", "edit", "--clear-key", "2"); strings.Contains(text, "[-1]") {
			t.Errorf("expected key to be cleared, got %q", text)
		}

		var rows []formatter.QueueRow
		if err := json.Unmarshal([]byte(mustRun(t, r, out, "song", "list", "--json")), &rows); err != nil {
			t.Fatalf("invalid queue JSON: %v", err)
		}
		var titles []string
		for _, row := range rows {
			titles = append(titles, row.Song.Title)
		}
		if strings.Join(titles, ",") != "Three,Deux,One" {
			t.Errorf("unexpected queue order: %v", titles)
		}

		mustRun(t, r, out, "song", "archive", "3")
		text = mustRun(t, r, out, "song", "archived")
		if !strings.Contains(text, "Performed (1)") || !strings.Contains(text, "Three") {
			t.Errorf("unexpected archive listing: %q", text)
		}
		if n := jsonLen(t, mustRun(t, r, out, "perf", "list", "--json")); n != 0 {
			t.Errorf("expected archiving to log nothing, got %d performances", n)
		}
	})

	t.Run("logs performances by hand", func(t *testing.T) {
		r, out := newTestRunner(t)
		mustRun(t, r, out, "singer", "add", "Amy")
		mustRun(t, r, out, "song", "add", "-s", "Amy", "Africa")

		text := mustRun(t, r, out, "perf", "add", "--singer", "Amy", "--song", "1", "--rating", "3")
		if !strings.Contains(text, "✓ Logged Amy singing Africa (3.0)") {
			t.Errorf("unexpected output: %q", text)
		}

		text = mustRun(t, r, out, "board", "counts", "--json")
		if !strings.Contains(text, `"1": 1`) {
			t.Errorf("unexpected counts: %q", text)
		}

		mustRun(t, r, out, "perf", "clear")
		if text = mustRun(t, r, out, "board", "leaderboard"); !strings.Contains(text, "No rated performances yet.") {
			t.Errorf("expected an empty leaderboard, got %q", text)
		}
	})

	t.Run("reports errors", func(t *testing.T) {
		r, out := newTestRunner(t)
		mustRun(t, r, out, "singer", "add", "Amy")

		cases := []struct {
			args []string
			want error
		}{
			{[]string{"singer", "add"}, shared.ErrMissingArgument},
			{[]string{"singer", "add", "amy"}, shared.ErrValidation},
			{[]string{"singer", "delete", "Nobody"}, shared.ErrNotFound},
			{[]string{"song", "add", "-s", "Nobody", "Africa"}, shared.ErrNotFound},
			{[]string{"song", "add", "--key", "13", "Africa"}, shared.ErrValidation},
			{[]string{"song", "add", "--mode", "shuffle", "Africa"}, shared.ErrInvalidArgument},
			{[]string{"song", "add", "-s", "Amy", "--url", "javascript:alert(1)", "Africa"}, shared.ErrValidation},
			{[]string{"song", "complete", "abc"}, shared.ErrInvalidArgument},
			{[]string{"song", "complete", "99"}, shared.ErrNotFound},
			{[]string{"song", "complete", "--rating", "4.2", "1"}, shared.ErrValidation},
			{[]string{"song", "move", "1"}, shared.ErrInvalidArgument},
			{[]string{"song", "open", "99"}, shared.ErrNotFound},
			{[]string{"session", "export", "--format", "pdf"}, shared.ErrInvalidArgument},
		}
		for _, tc := range cases {
			if _, err := run(t, r, out, tc.args...); !errors.Is(err, tc.want) {
				t.Errorf("karaoke %s: expected %v, got %v", strings.Join(tc.args, " "), tc.want, err)
			}
		}
	})

	t.Run("seeds, exports and resets the session", func(t *testing.T) {
		r, out := newTestRunner(t)

		text := mustRun(t, r, out, "session", "seed", "--seed", "7")
		if !strings.Contains(text, "✓ Loaded example data into Test Night") || !strings.Contains(text, "Singers: 10") {
			t.Errorf("unexpected seed output: %q", text)
		}

		var rows []formatter.QueueRow
		if err := json.Unmarshal([]byte(mustRun(t, r, out, "song", "list", "--json")), &rows); err != nil {
			t.Fatalf("invalid queue JSON: %v", err)
		}
		if len(rows) != tasks.QueuedExamples {
			t.Errorf("expected %d queued songs, got %d", tasks.QueuedExamples, len(rows))
		}

		dir := filepath.Join(t.TempDir(), "export")
		text = mustRun(t, r, out, "session", "export", "-f", "csv", "-f", "md", "--output", dir)
		if !strings.Contains(text, "Written: 2/2") {
			t.Errorf("unexpected export output: %q", text)
		}
		tu.AssertDirExists(t, dir)
		tu.AssertFileExists(t, filepath.Join(dir, formatter.Filename(formatter.CSV)))
		tu.AssertFileExists(t, filepath.Join(dir, tasks.ManifestFile))

		text = mustRun(t, r, out, "board", "stats")
		if !strings.Contains(text, "Test Night") {
			t.Errorf("expected the session report, got %q", text)
		}

		mustRun(t, r, out, "session", "rename", "Late Show")
		text = mustRun(t, r, out, "session", "reset")
		if !strings.Contains(text, "✓ Started a new session: Late Show") {
			t.Errorf("unexpected reset output: %q", text)
		}
		if n := jsonLen(t, mustRun(t, r, out, "singer", "list", "--json")); n != 0 {
			t.Errorf("expected no singers after reset, got %d", n)
		}

		var info struct {
			Name          string `json:"name"`
			SchemaVersion int    `json:"schema_version"`
		}
		if err := json.Unmarshal([]byte(mustRun(t, r, out, "session", "info", "--json")), &info); err != nil {
			t.Fatalf("invalid session JSON: %v", err)
		}
		if info.Name != "Late Show" || info.SchemaVersion != 1 {
			t.Errorf("unexpected session info: %+v", info)
		}
	})
}
