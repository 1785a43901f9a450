package commands_test

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"strings"
	"testing"

	"tasktracker/internal/commands"
	"tasktracker/internal/config"
	"tasktracker/internal/exitcode"
	"tasktracker/internal/logging"
	"tasktracker/internal/service"
	"tasktracker/internal/session"
	"tasktracker/internal/testutil"
	"tasktracker/internal/transport"
)

// newEnv wires a command environment to fb with an in-memory session.
func newEnv(fb *testutil.FakeBackend) *commands.Env {
	env := &commands.Env{
		Session: session.NewManager(&session.MemoryStorage{}),
		Logger:  logging.Discard(),
	}
	if fb != nil {
		env.Service = fb.Service()
	}
	return env
}

func testConfig(t *testing.T, quiet bool) *config.Config {
	return &config.Config{
		Dir:        t.TempDir(),
		Backend:    config.BackendREST,
		DateFormat: config.DefaultDateFormat,
		Quiet:      quiet,
	}
}

// runCommand parses args with the command's own flags, then runs it.
func runCommand(t *testing.T, cmd commands.Command, env *commands.Env, args []string, quiet bool) (stdout, stderr string, code int) {
	t.Helper()
	return runWithConfig(t, cmd, testConfig(t, quiet), env, args)
}

func runWithConfig(t *testing.T, cmd commands.Command, cfg *config.Config, env *commands.Env, args []string) (stdout, stderr string, code int) {
	t.Helper()

	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cmd.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), cfg, env, fs.Args(), &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

// seed creates "Home" (id 1) with tasks 2 (open) and 3 (closed), and an
// empty "Work" list (id 4).
func seed() *testutil.FakeBackend {
	fb := testutil.NewFakeBackend()
	home := fb.AddList("Home", "chores")
	fb.AddTask(home, "Dishes", service.StatusOpen)
	fb.AddTask(home, "Laundry", service.StatusClosed)
	fb.AddList("Work", "")
	return fb
}

func taskByID(t *testing.T, fb *testutil.FakeBackend, listID, taskID service.ID) service.Task {
	t.Helper()
	task, err := fb.GetTask(context.Background(), listID, taskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	return task
}

func TestVersionCommand(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "tasktracker 0.1.0\n" {
		t.Errorf("expected version output, got %q", stdout)
	}
}

func TestHelpCommand_ListsEveryCommand(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.HelpCmd{}, nil, nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, cmd := range commands.DefaultRegistry.All() {
		if !strings.Contains(stdout, "tasktracker "+cmd.Name()) {
			t.Errorf("help output should mention %q", cmd.Name())
		}
	}
}

func TestListsCommand(t *testing.T) {
	fb := seed()

	stdout, stderr, code := runCommand(t, &commands.ListsCmd{}, newEnv(fb), nil, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	for _, want := range []string{"[1] Home", "chores", "2 tasks / 50% complete", "[x] Laundry", "[4] Work", "0 tasks / 0% complete"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output:\n%s", want, stdout)
		}
	}
}

func TestListsCommand_Empty(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.ListsCmd{}, newEnv(testutil.NewFakeBackend()), nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "No task lists yet\n" {
		t.Errorf("expected %q, got %q", "No task lists yet\n", stdout)
	}
}

func TestListsCommand_BackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   int
		stderr string
	}{
		{"unauthorized", &transport.StatusError{Status: 401}, exitcode.AuthError, "error: session expired (run: tasktracker login)\n"},
		{"server", &transport.StatusError{Status: 500, Body: "boom"}, exitcode.BackendError, "error: backend error: "},
		{"network", errors.New("connection refused"), exitcode.BackendError, "error: backend error: connection refused\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := seed()
			fb.ListListsErr = tt.err

			stdout, stderr, code := runCommand(t, &commands.ListsCmd{}, newEnv(fb), nil, false)
			if code != tt.code {
				t.Errorf("expected exit code %d, got %d", tt.code, code)
			}
			if stdout != "" {
				t.Errorf("expected no stdout, got %q", stdout)
			}
			if !strings.HasPrefix(stderr, tt.stderr) {
				t.Errorf("expected stderr to start with %q, got %q", tt.stderr, stderr)
			}
		})
	}
}

func TestShowCommand_ByTitleWithFilter(t *testing.T) {
	fb := seed()

	stdout, stderr, code := runCommand(t, &commands.ShowCmd{}, newEnv(fb), []string{"--filter", "open", "home"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	expected := "[1] Home\nchores\n1 of 2 tasks (open)\n\n[ ]  Dishes  MEDIUM  #2\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestShowCommand_EmptyFilterMessage(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.ShowCmd{}, newEnv(seed()), []string{"-f", "closed", "4"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.HasSuffix(stdout, "No closed tasks\n") {
		t.Errorf("expected empty message, got %q", stdout)
	}
}

func TestShowCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"unknown list", []string{"Garden"}, "error: list not found: Garden\n"},
		{"no list with several", nil, "error: list required (use --list)\n"},
		{"bad filter", []string{"--filter", "done", "Home"}, "error: invalid filter \"done\": must be one of all, open, closed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCommand(t, &commands.ShowCmd{}, newEnv(seed()), tt.args, false)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
		})
	}
}

func TestShowCommand_AmbiguousTitle(t *testing.T) {
	fb := seed()
	fb.AddList("home", "")

	_, stderr, code := runCommand(t, &commands.ShowCmd{}, newEnv(fb), []string{"HOME"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: ambiguous list name: HOME\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestShowCommand_SingleListNeedsNoRef(t *testing.T) {
	fb := testutil.NewFakeBackend()
	id := fb.AddList("Only", "")
	fb.AddTask(id, "One", service.StatusOpen)

	stdout, _, code := runCommand(t, &commands.ShowCmd{}, newEnv(fb), nil, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, "One") {
		t.Errorf("expected task in output, got %q", stdout)
	}
}

func TestCreateListCommand(t *testing.T) {
	fb := seed()

	stdout, stderr, code := runCommand(t, &commands.CreateListCmd{}, newEnv(fb), []string{"--description", "weekend", "Garden", "jobs"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected %q, got %q", "ok\n", stdout)
	}
	lists, _ := fb.ListLists(context.Background())
	last := lists[len(lists)-1]
	if last.Title != "Garden jobs" || last.Description != "weekend" {
		t.Errorf("unexpected list %+v", last)
	}
}

func TestCreateListCommand_EmptyTitleSendsNothing(t *testing.T) {
	fb := seed()

	_, stderr, code := runCommand(t, &commands.CreateListCmd{}, newEnv(fb), []string{"  "}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: title is required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if n := fb.Calls(testutil.OpCreateList); n != 0 {
		t.Errorf("expected no create request, got %d", n)
	}
}

func TestCreateListCommand_Quiet(t *testing.T) {
	stdout, _, code := runCommand(t, &commands.CreateListCmd{}, newEnv(seed()), []string{"Garden"}, true)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
}

func TestEditListCommand(t *testing.T) {
	fb := seed()

	_, stderr, code := runCommand(t, &commands.EditListCmd{}, newEnv(fb), []string{"--title", "House", "Home"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	l, _ := fb.GetList(context.Background(), "1")
	if l.Title != "House" {
		t.Errorf("expected %q, got %q", "House", l.Title)
	}
	if l.Description != "chores" {
		t.Errorf("expected description to be kept, got %q", l.Description)
	}
}

func TestEditListCommand_NothingToChange(t *testing.T) {
	fb := seed()

	_, stderr, code := runCommand(t, &commands.EditListCmd{}, newEnv(fb), []string{"Home"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: nothing to change (use --title or --description)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if fb.Calls(testutil.OpListLists) != 0 {
		t.Error("expected no request")
	}
}

func TestRmListCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		in      string
		code    int
		stdout  string
		stderr  string
		deletes int
	}{
		{"empty list with yes", []string{"--yes", "Work"}, "", exitcode.Success, "ok\n", "", 1},
		{"open tasks need force", []string{"--yes", "Home"}, "", exitcode.UserError, "", "error: list not empty (use --force)\n", 0},
		{"force", []string{"--force", "-y", "Home"}, "", exitcode.Success, "ok\n", "", 1},
		{"prompt accepted", []string{"Work"}, "y\n", exitcode.Success, "ok\n", "Are you sure you want to delete this task list? [y/N] ", 1},
		{"prompt declined", []string{"Work"}, "\n", exitcode.Success, "cancelled\n", "Are you sure you want to delete this task list? [y/N] ", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := seed()
			env := newEnv(fb)
			env.In = strings.NewReader(tt.in)

			stdout, stderr, code := runCommand(t, &commands.RmListCmd{}, env, tt.args, false)
			if code != tt.code {
				t.Errorf("expected exit code %d, got %d", tt.code, code)
			}
			if stdout != tt.stdout {
				t.Errorf("expected stdout %q, got %q", tt.stdout, stdout)
			}
			if stderr != tt.stderr {
				t.Errorf("expected stderr %q, got %q", tt.stderr, stderr)
			}
			if n := fb.Calls(testutil.OpDeleteList); n != tt.deletes {
				t.Errorf("expected %d delete requests, got %d", tt.deletes, n)
			}
		})
	}
}

func TestAddCommand(t *testing.T) {
	fb := seed()

	args := []string{"--list", "Home", "--due", "2030-01-15", "-p", "high", "Buy", "milk"}
	stdout, stderr, code := runCommand(t, &commands.AddCmd{}, newEnv(fb), args, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected %q, got %q", "ok\n", stdout)
	}
	tasks, _ := fb.ListTasks(context.Background(), "1")
	got := tasks[len(tasks)-1]
	if got.Title != "Buy milk" {
		t.Errorf("expected %q, got %q", "Buy milk", got.Title)
	}
	if got.Priority != service.PriorityHigh {
		t.Errorf("expected %s, got %s", service.PriorityHigh, got.Priority)
	}
	if got.Status != service.StatusOpen {
		t.Errorf("expected %s, got %s", service.StatusOpen, got.Status)
	}
	if got.DueDate == nil || got.DueDate.Format("2006-01-02") != "2030-01-15" {
		t.Errorf("unexpected due date %v", got.DueDate)
	}
}

func TestAddCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"no title", []string{"--list", "Home"}, "error: title required\n"},
		{"bad priority", []string{"--list", "Home", "--priority", "urgent", "x"}, "error: invalid priority: urgent (use LOW, MEDIUM or HIGH)\n"},
		{"bad status", []string{"--list", "Home", "--status", "done", "x"}, "error: invalid status: done (use OPEN or CLOSED)\n"},
		{"no list", []string{"x"}, "error: list required (use --list)\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := seed()
			_, stderr, code := runCommand(t, &commands.AddCmd{}, newEnv(fb), tt.args, false)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
			if n := fb.Calls(testutil.OpCreateTask); n != 0 {
				t.Errorf("expected no create request, got %d", n)
			}
		})
	}
}

func TestAddCommand_RejectedByServer(t *testing.T) {
	fb := seed()
	fb.CreateTaskErr = &transport.StatusError{Status: 422, Body: "title too long"}

	_, stderr, code := runCommand(t, &commands.AddCmd{}, newEnv(fb), []string{"-l", "Home", "x"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: rejected by server: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestEditCommand_SendsFullResource(t *testing.T) {
	fb := seed()

	_, stderr, code := runCommand(t, &commands.EditCmd{}, newEnv(fb), []string{"--priority", "LOW", "Home/2"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	got := taskByID(t, fb, "1", "2")
	if got.Priority != service.PriorityLow {
		t.Errorf("expected %s, got %s", service.PriorityLow, got.Priority)
	}
	if got.Title != "Dishes" || got.Status != service.StatusOpen {
		t.Errorf("expected untouched fields to be kept, got %+v", got)
	}
}

func TestEditCommand_ClearDue(t *testing.T) {
	fb := seed()
	runCommand(t, &commands.EditCmd{}, newEnv(fb), []string{"--due", "2030-01-15", "Home", "2"}, false)

	_, stderr, code := runCommand(t, &commands.EditCmd{}, newEnv(fb), []string{"--due=", "--list", "Home", "2"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if got := taskByID(t, fb, "1", "2"); got.DueDate != nil {
		t.Errorf("expected due date to be cleared, got %v", got.DueDate)
	}
}

func TestEditCommand_Errors(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		stderr string
	}{
		{"missing ref", nil, "error: task reference required\n"},
		{"unknown task", []string{"Home/99"}, "error: task not found: 99\n"},
		{"empty title", []string{"--title", "", "Home/2"}, "error: title is required\n"},
		{"both list forms", []string{"--list", "Home", "Home/2"}, "error: cannot use both --list and list/task\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := seed()
			_, stderr, code := runCommand(t, &commands.EditCmd{}, newEnv(fb), tt.args, false)
			if code != exitcode.UserError {
				t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
			}
			if stderr != tt.stderr {
				t.Errorf("expected %q, got %q", tt.stderr, stderr)
			}
			if n := fb.Calls(testutil.OpUpdateTask); n != 0 {
				t.Errorf("expected no update request, got %d", n)
			}
		})
	}
}

func TestDoneCommand(t *testing.T) {
	fb := seed()

	stdout, stderr, code := runCommand(t, &commands.DoneCmd{}, newEnv(fb), []string{"Home/2"}, false)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected %q, got %q", "ok\n", stdout)
	}
	if got := taskByID(t, fb, "1", "2"); got.Status != service.StatusClosed {
		t.Errorf("expected %s, got %s", service.StatusClosed, got.Status)
	}
}

func TestDoneCommand_AlreadyClosedIsNoop(t *testing.T) {
	fb := seed()

	_, _, code := runCommand(t, &commands.DoneCmd{}, newEnv(fb), []string{"--list", "Home", "3"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if n := fb.Calls(testutil.OpUpdateTask); n != 0 {
		t.Errorf("expected no update request, got %d", n)
	}
}

func TestToggleCommand_Reopens(t *testing.T) {
	fb := seed()

	_, _, code := runCommand(t, &commands.ToggleCmd{}, newEnv(fb), []string{"1/3"}, false)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if got := taskByID(t, fb, "1", "3"); got.Status != service.StatusOpen {
		t.Errorf("expected %s, got %s", service.StatusOpen, got.Status)
	}
}

func TestToggleCommand_FailureKeepsStatus(t *testing.T) {
	fb := seed()
	fb.UpdateTaskErr = &transport.StatusError{Status: 500}

	_, stderr, code := runCommand(t, &commands.ToggleCmd{}, newEnv(fb), []string{"1/2"}, false)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if !strings.HasPrefix(stderr, "error: backend error: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if got := taskByID(t, fb, "1", "2"); got.Status != service.StatusOpen {
		t.Errorf("expected %s, got %s", service.StatusOpen, got.Status)
	}
}

func TestRmCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		in      string
		stdout  string
		deletes int
	}{
		{"yes", []string{"--yes", "Home/2"}, "", "ok\n", 1},
		{"accepted", []string{"Home/2"}, "yes\n", "ok\n", 1},
		{"declined", []string{"Home/2"}, "n\n", "cancelled\n", 0},
		{"no input", []string{"Home/2"}, "", "cancelled\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := seed()
			env := newEnv(fb)
			env.In = strings.NewReader(tt.in)

			stdout, _, code := runCommand(t, &commands.RmCmd{}, env, tt.args, false)
			if code != exitcode.Success {
				t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
			}
			if stdout != tt.stdout {
				t.Errorf("expected %q, got %q", tt.stdout, stdout)
			}
			if n := fb.Calls(testutil.OpDeleteTask); n != tt.deletes {
				t.Errorf("expected %d delete requests, got %d", tt.deletes, n)
			}
		})
	}
}

func TestRmCommand_NotFoundOnServer(t *testing.T) {
	fb := seed()
	fb.DeleteTaskErr = &transport.StatusError{Status: 404}

	_, stderr, code := runCommand(t, &commands.RmCmd{}, newEnv(fb), []string{"-y", "Home/2"}, false)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: not found: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestNeedsBackend(t *testing.T) {
	rest := &config.Config{Backend: config.BackendREST}
	google := &config.Config{Backend: config.BackendGoogle}

	tests := []struct {
		cmd    commands.Command
		cfg    *config.Config
		expect bool
	}{
		{&commands.ListsCmd{}, rest, true},
		{&commands.ListsCmd{}, google, true},
		{&commands.LoginCmd{}, rest, true},
		{&commands.LoginCmd{}, google, false},
		{&commands.RegisterCmd{}, rest, true},
		{&commands.LogoutCmd{}, rest, false},
		{&commands.VersionCmd{}, rest, false},
	}
	for _, tt := range tests {
		if got := commands.NeedsBackend(tt.cmd, tt.cfg); got != tt.expect {
			t.Errorf("NeedsBackend(%s, %s) = %v, want %v", tt.cmd.Name(), tt.cfg.Backend, got, tt.expect)
		}
	}
}

func TestLogPath(t *testing.T) {
	cfg := &config.Config{Dir: "/tmp/tt"}

	if got := commands.LogPath(&commands.UICmd{}, cfg); got != cfg.TUILogPath() {
		t.Errorf("expected %q, got %q", cfg.TUILogPath(), got)
	}
	if got := commands.LogPath(&commands.ListsCmd{}, cfg); got != "" {
		t.Errorf("expected stderr logging, got %q", got)
	}
}
