package session

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sadopc/tasklog/internal/store"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// stepClock returns a clock that advances one minute per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 3, 5, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newTestSession(t *testing.T) (*Session, *store.Store, *bytes.Buffer) {
	t.Helper()
	st := store.New()
	var out bytes.Buffer
	s := New(st, &out, WithClock(stepClock()), WithOutputPath("out.csv"))
	return s, st, &out
}

func feed(s *Session, lines ...string) {
	for _, l := range lines {
		s.Feed(l)
	}
}

func descriptions(tasks []store.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Description
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================
// Startup / shutdown
// ============================================================

func TestStartRecordsStartupTask(t *testing.T) {
	s, st, _ := newTestSession(t)
	s.Start()
	s.Start()

	closed := st.Closed()
	if len(closed) != 1 || closed[0].Description != StartupDescription {
		t.Fatalf("closed = %+v", closed)
	}
	if st.HasOpen() {
		t.Fatal("no task should be open after startup")
	}
	if s.Mode() != ModeCommand {
		t.Fatalf("mode = %s, want command", s.Mode())
	}
}

func TestQuitClosesAndRecordsShutdown(t *testing.T) {
	s, st, _ := newTestSession(t)
	s.Start()
	feed(s, "n", "Write report", "quit")

	if !s.Done() {
		t.Fatal("session should be done after quit")
	}
	want := []string{StartupDescription, "Write report", ShutdownDescription}
	if got := descriptions(st.Snapshot()); !equalStrings(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	if st.HasOpen() {
		t.Fatal("quit should close the open task")
	}
}

func TestFeedAfterFinishIsIgnored(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "quit", "lunch")
	if st.HasOpen() {
		t.Fatal("commands after quit must be ignored")
	}
}

func TestQuitDuringPrompt(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "lunch", "nc")
	if s.Mode() != ModeCopyNew {
		t.Fatalf("mode = %s", s.Mode())
	}
	s.Quit()
	if !s.Done() {
		t.Fatal("Quit should finish the session")
	}
	want := []string{LunchDescription, ShutdownDescription}
	if got := descriptions(st.Snapshot()); !equalStrings(got, want) {
		t.Fatalf("snapshot = %v, want %v", got, want)
	}
	s.Quit()
	if len(st.Snapshot()) != 2 {
		t.Fatal("second Quit should be a no-op")
	}
}

// ============================================================
// New tasks
// ============================================================

func TestNewTaskUsesTimeBeforeDescription(t *testing.T) {
	s, st, _ := newTestSession(t)
	s.Feed("n")
	if s.Mode() != ModeDescription {
		t.Fatalf("mode = %s, want description", s.Mode())
	}
	// Clock ticks while the user is typing.
	s.now()
	s.Feed("  Write report  ")

	open, ok := st.Open()
	if !ok {
		t.Fatal("expected an open task")
	}
	if open.Description != "Write report" {
		t.Fatalf("description = %q", open.Description)
	}
	if want := time.Date(2024, 3, 5, 9, 1, 0, 0, time.Local); !open.Start.Equal(want) {
		t.Fatalf("start = %v, want %v", open.Start, want)
	}
	if !open.End.Equal(open.Start) {
		t.Fatal("open task should have end == start")
	}
}

func TestNewClosesPreviousTask(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "s", "first", "s", "second")

	closed := st.Closed()
	if len(closed) != 1 || closed[0].Description != "first" {
		t.Fatalf("closed = %+v", closed)
	}
	if closed[0].End.Before(closed[0].Start) {
		t.Fatal("end before start")
	}
	open, _ := st.Open()
	if open.Description != "second" || open.ID != 1 {
		t.Fatalf("open = %+v", open)
	}
}

func TestNewWithEmptyDescription(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "n", "")
	open, ok := st.Open()
	if !ok || open.Description != "" {
		t.Fatalf("open = %+v, %v", open, ok)
	}
}

func TestFixedDescriptionCommands(t *testing.T) {
	tests := []struct {
		cmd, want string
	}{
		{"lunch", LunchDescription},
		{"bio", BiobreakDescription},
	}
	for _, tt := range tests {
		s, st, _ := newTestSession(t)
		feed(s, "n", "work", tt.cmd)
		open, _ := st.Open()
		if open.Description != tt.want {
			t.Errorf("%s: open = %q, want %q", tt.cmd, open.Description, tt.want)
		}
		if len(st.Closed()) != 1 {
			t.Errorf("%s: previous task should be closed", tt.cmd)
		}
		if s.Mode() != ModeCommand {
			t.Errorf("%s: mode = %s", tt.cmd, s.Mode())
		}
	}
}

// ============================================================
// Copying descriptions
// ============================================================

func TestNewCopy(t *testing.T) {
	s, st, _ := newTestSession(t)
	s.Start()
	feed(s, "n", "Write report", "lunch", "nc")
	if s.Mode() != ModeCopyNew {
		t.Fatalf("mode = %s, want copy-new", s.Mode())
	}
	if open, _ := st.Open(); open.Description != LunchDescription {
		t.Fatal("the open task stays open until an id is chosen")
	}
	s.Feed("1")

	open, ok := st.Open()
	if !ok || open.Description != "Write report" {
		t.Fatalf("open = %+v", open)
	}
	if open.ID != 3 {
		t.Fatalf("open id = %d, want 3", open.ID)
	}
	want := []string{StartupDescription, "Write report", LunchDescription}
	if got := descriptions(st.Closed()); !equalStrings(got, want) {
		t.Fatalf("closed = %v, want %v", got, want)
	}

	// Copies are by value.
	s.Feed("a")
	s.Feed(" again")
	if got, _ := st.DescriptionOf(1); got != "Write report" {
		t.Fatalf("source description mutated: %q", got)
	}
}

func TestNewCopyAbortKeepsOpenTask(t *testing.T) {
	s, st, _ := newTestSession(t)
	s.Start()
	feed(s, "n", "Write report")
	before := st.Snapshot()

	feed(s, "nc", "q")

	if s.Mode() != ModeCommand {
		t.Fatalf("mode = %s", s.Mode())
	}
	open, ok := st.Open()
	if !ok || open.Description != "Write report" {
		t.Fatalf("open = %+v, %v; want the original task still open", open, ok)
	}
	after := st.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("snapshot grew from %d to %d", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("task %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestIDPromptRetriesUntilValid(t *testing.T) {
	s, st, out := newTestSession(t)
	s.Start()
	feed(s, "n", "Write report", "nc")

	for _, bad := range []string{"", "x", "-1", "2", "99", "1.5", "Q", "quit"} {
		s.Feed(bad)
		if s.Mode() != ModeCopyNew {
			t.Fatalf("input %q left the id prompt (mode %s)", bad, s.Mode())
		}
	}
	if st.NextID() != 2 {
		t.Fatal("invalid ids must not create a task")
	}
	if open, _ := st.Open(); open.Description != "Write report" {
		t.Fatal("invalid ids must not close the open task")
	}
	if s.Done() {
		t.Fatal("quit inside the id prompt is not a command")
	}

	out.Reset()
	s.Feed(" 0 ")
	open, ok := st.Open()
	if !ok || open.Description != StartupDescription {
		t.Fatalf("open = %+v, %v", open, ok)
	}
}

func TestCopyInto(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "n", "first", "n", "second", "dc")
	if s.Mode() != ModeCopyInto {
		t.Fatalf("mode = %s, want copy-into", s.Mode())
	}
	s.Feed("0")

	open, _ := st.Open()
	if open.Description != "first" {
		t.Fatalf("description = %q, want first", open.Description)
	}
	if open.ID != 1 {
		t.Fatalf("dc must not create a task, open id = %d", open.ID)
	}
}

func TestCopyIntoAbort(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "n", "first", "n", "second", "dc", "q")
	open, _ := st.Open()
	if open.Description != "second" {
		t.Fatalf("description changed on abort: %q", open.Description)
	}
}

func TestCopyIntoWithoutOpenTask(t *testing.T) {
	s, st, out := newTestSession(t)
	s.Start()
	before := st.Snapshot()

	out.Reset()
	s.Feed("dc")

	if s.Mode() != ModeCommand {
		t.Fatalf("dc without open task should not prompt, mode = %s", s.Mode())
	}
	if !strings.Contains(out.String(), "There is currently no open item") {
		t.Fatalf("expected informational message, got %q", out.String())
	}
	if len(st.Snapshot()) != len(before) {
		t.Fatal("dc without open task must not mutate")
	}
}

// ============================================================
// Editing the open task
// ============================================================

func TestReplaceDescription(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "n", "old", "d")
	if s.Mode() != ModeReplace {
		t.Fatalf("mode = %s, want replace", s.Mode())
	}
	s.Feed("  new text ")
	open, _ := st.Open()
	if open.Description != "new text" {
		t.Fatalf("description = %q", open.Description)
	}
}

func TestAppendDescription(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "n", "Write report", "a", " and  tests \n")
	open, _ := st.Open()
	if open.Description != "Write report and  tests" {
		t.Fatalf("description = %q", open.Description)
	}
}

func TestEditWithoutOpenTask(t *testing.T) {
	for _, cmd := range []string{"d", "a"} {
		s, st, out := newTestSession(t)
		s.Feed(cmd)
		if s.Mode() != ModeCommand {
			t.Errorf("%s without open task should not prompt", cmd)
		}
		if !strings.Contains(out.String(), "There is currently no open item") {
			t.Errorf("%s: missing informational message", cmd)
		}
		if len(st.Snapshot()) != 0 {
			t.Errorf("%s: store mutated", cmd)
		}
	}
}

// ============================================================
// Read-only and unknown commands
// ============================================================

func TestReadOnlyCommandsKeepSnapshot(t *testing.T) {
	for _, cmd := range []string{"h", "show", "", "x", "N", "help", "shows", " "} {
		s, st, _ := newTestSession(t)
		s.Start()
		feed(s, "n", "Write report")
		before := st.Snapshot()

		s.Feed(cmd)

		after := st.Snapshot()
		if len(before) != len(after) {
			t.Fatalf("%q changed the snapshot length", cmd)
		}
		for i := range before {
			if before[i] != after[i] {
				t.Fatalf("%q changed task %d: %+v -> %+v", cmd, i, before[i], after[i])
			}
		}
		if s.Mode() != ModeCommand {
			t.Fatalf("%q changed mode to %s", cmd, s.Mode())
		}
	}
}

func TestShowListsTasks(t *testing.T) {
	s, _, out := newTestSession(t)
	feed(s, "n", "Write report")
	out.Reset()
	s.Feed("show")

	got := out.String()
	if !strings.Contains(got, "The current open task is:") || !strings.Contains(got, "Write report") {
		t.Fatalf("show output = %q", got)
	}
	if strings.Count(got, "Write report") != 1 {
		t.Fatalf("open task should be listed once: %q", got)
	}
}

func TestHelpShowsOutputPath(t *testing.T) {
	s, _, out := newTestSession(t)
	s.Feed("h")
	if !strings.Contains(out.String(), "The current file path to save is out.csv") {
		t.Fatalf("help output = %q", out.String())
	}
	for _, cmd := range Commands {
		if !strings.Contains(helpText, "'"+cmd+"'") {
			t.Errorf("help text does not mention %q", cmd)
		}
	}
}

func TestCommandsAreCaseSensitive(t *testing.T) {
	s, st, _ := newTestSession(t)
	feed(s, "LUNCH", "Bio", "Quit")
	if st.HasOpen() || s.Done() {
		t.Fatal("commands must match exactly")
	}
}

// ============================================================
// Prompts and validation
// ============================================================

func TestPromptPerMode(t *testing.T) {
	s, _, _ := newTestSession(t)
	if s.Prompt() != bannerText {
		t.Fatalf("command prompt = %q", s.Prompt())
	}
	s.Feed("n")
	if !strings.Contains(s.Prompt(), "description") {
		t.Fatalf("description prompt = %q", s.Prompt())
	}
	s.Feed("x")
	s.Feed("nc")
	if !strings.Contains(s.Prompt(), "'q'") {
		t.Fatalf("id prompt = %q", s.Prompt())
	}
	s.Feed("q")
	s.Feed("quit")
	if s.Prompt() != "" {
		t.Fatalf("finished prompt = %q", s.Prompt())
	}
}

func TestValidateID(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Start()

	if err := s.ValidateID("q"); err != nil {
		t.Fatalf("q should be accepted: %v", err)
	}
	if err := s.ValidateID(" 0 "); err != nil {
		t.Fatalf("0 should be accepted: %v", err)
	}
	for _, bad := range []string{"1", "abc", ""} {
		if err := s.ValidateID(bad); !errors.Is(err, store.ErrInvalidID) {
			t.Errorf("ValidateID(%q) = %v, want ErrInvalidID", bad, err)
		}
	}
}

func TestModeString(t *testing.T) {
	if ModeCopyInto.String() != "copy-into" {
		t.Fatalf("String = %q", ModeCopyInto.String())
	}
	if Mode(42).String() != "mode(42)" {
		t.Fatalf("unknown mode String = %q", Mode(42).String())
	}
	if !ModeCopyNew.IDPrompt() || ModeAppend.IDPrompt() {
		t.Fatal("IDPrompt mismatch")
	}
}

// ============================================================
// Invariants over a long command sequence
// ============================================================

func TestIDsAreDenseAcrossCommands(t *testing.T) {
	s, st, _ := newTestSession(t)
	s.Start()
	feed(s,
		"n", "a",
		"lunch",
		"bio",
		"nc", "zz", "1",
		"d", "renamed",
		"dc", "0",
		"show", "h",
		"s", "b",
		"a", "!",
		"quit",
	)

	snap := st.Snapshot()
	if st.NextID() != len(snap) {
		t.Fatalf("NextID = %d, tasks = %d", st.NextID(), len(snap))
	}
	for i, task := range snap {
		if task.ID != i {
			t.Fatalf("task %d has id %d", i, task.ID)
		}
		if task.End.Before(task.Start) {
			t.Fatalf("task %d ends before it starts", i)
		}
	}
}
