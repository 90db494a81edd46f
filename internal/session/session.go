package session

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/sadopc/tasklog/internal/store"
)

// Mode is the kind of line the session expects next.
type Mode int

const (
	ModeCommand Mode = iota
	ModeDescription
	ModeReplace
	ModeAppend
	ModeCopyNew
	ModeCopyInto
	ModeFinished
)

var modeNames = map[Mode]string{
	ModeCommand:     "command",
	ModeDescription: "description",
	ModeReplace:     "replace",
	ModeAppend:      "append",
	ModeCopyNew:     "copy-new",
	ModeCopyInto:    "copy-into",
	ModeFinished:    "finished",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// IDPrompt reports whether the mode reads a closed task id.
func (m Mode) IDPrompt() bool {
	return m == ModeCopyNew || m == ModeCopyInto
}

const (
	StartupDescription  = "Start up of time tracking cli"
	ShutdownDescription = "Shut down of time tracking cli"
	LunchDescription    = "Lunch"
	BiobreakDescription = "Biobreak"

	// AbortInput cancels an id prompt.
	AbortInput = "q"
)

// Session interprets lines of user input against a task store. It is
// driven by a single loop: Feed one line, then read Mode and Prompt to
// decide what to ask for next.
type Session struct {
	store      *store.Store
	out        io.Writer
	now        func() time.Time
	outputPath string

	mode         Mode
	started      bool
	pendingStart time.Time
}

type Option func(*Session)

// WithClock replaces time.Now as the source of task timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithOutputPath sets the export path shown by the help command.
func WithOutputPath(path string) Option {
	return func(s *Session) { s.outputPath = path }
}

func New(st *store.Store, out io.Writer, opts ...Option) *Session {
	s := &Session{
		store: st,
		out:   out,
		now:   time.Now,
		mode:  ModeCommand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start records the startup audit entry. Later calls do nothing.
func (s *Session) Start() {
	if s.started {
		return
	}
	s.started = true
	t := s.store.Record(StartupDescription, s.now())
	log.Printf("session: recorded startup task %d", t.ID)
}

func (s *Session) Mode() Mode { return s.mode }

func (s *Session) Done() bool { return s.mode == ModeFinished }

func (s *Session) Snapshot() []store.Task { return s.store.Snapshot() }

func (s *Session) Current() (store.Task, bool) { return s.store.Open() }

func (s *Session) OutputPath() string { return s.outputPath }

// Prompt returns the text to show before reading the next line.
func (s *Session) Prompt() string {
	switch s.mode {
	case ModeCommand:
		return bannerText
	case ModeDescription:
		return "A new task will be created. Please write the description:"
	case ModeReplace:
		return "Write the new description: "
	case ModeAppend:
		return "Write what you would like to append: "
	case ModeCopyNew, ModeCopyInto:
		return "Please write a valid id to copy the description from or 'q' exit: "
	}
	return ""
}

// ValidateID accepts the abort input or the id of a closed task.
func (s *Session) ValidateID(input string) error {
	input = strings.TrimSpace(input)
	if input == AbortInput {
		return nil
	}
	_, err := s.store.ParseID(input)
	return err
}

// Feed processes one line of input in the current mode.
func (s *Session) Feed(line string) {
	switch s.mode {
	case ModeFinished:
		return
	case ModeCommand:
		s.dispatch(strings.TrimSpace(line))
	case ModeDescription:
		s.mode = ModeCommand
		s.open(strings.TrimSpace(line), s.pendingStart)
	case ModeReplace:
		s.mode = ModeCommand
		if !s.store.ReplaceOpenDescription(strings.TrimSpace(line)) {
			s.printOpen()
		}
	case ModeAppend:
		s.mode = ModeCommand
		if !s.store.AppendToOpenDescription(strings.TrimRightFunc(line, unicode.IsSpace)) {
			s.printOpen()
		}
	case ModeCopyNew, ModeCopyInto:
		s.selectID(strings.TrimSpace(line))
	}
}

// Quit abandons any pending prompt and ends the session as the quit
// command does. Used when input ends or the user interrupts.
func (s *Session) Quit() {
	if s.mode == ModeFinished {
		return
	}
	s.mode = ModeCommand
	s.finish()
}

func (s *Session) dispatch(cmd string) {
	switch cmd {
	case "h":
		fmt.Fprint(s.out, helpText)
		fmt.Fprintln(s.out)
		fmt.Fprintf(s.out, "The current file path to save is %s\n\n", s.outputPath)
		s.printOpen()

	case "n", "s":
		// Taken before the description is typed, which can take a while.
		s.pendingStart = s.now()
		s.closeIfOpen()
		s.mode = ModeDescription

	case "nc":
		fmt.Fprintln(s.out, "This will create a new task with a previous description")
		fmt.Fprintln(s.out)
		// The open task is closed only once an id is accepted, so q leaves it open.
		s.printAll()
		s.printOpen()
		s.mode = ModeCopyNew

	case "lunch":
		s.closeIfOpen()
		s.open(LunchDescription, s.now())

	case "bio":
		s.closeIfOpen()
		s.open(BiobreakDescription, s.now())

	case "d":
		s.printOpen()
		if s.store.HasOpen() {
			s.mode = ModeReplace
		}

	case "dc":
		if !s.store.HasOpen() {
			s.printOpen()
			return
		}
		fmt.Fprintln(s.out, "This will copy a previous description to a currently open task")
		s.printAll()
		s.printOpen()
		s.mode = ModeCopyInto

	case "a":
		s.printOpen()
		if s.store.HasOpen() {
			s.mode = ModeAppend
		}

	case "show":
		s.printAll()
		s.printOpen()

	case "quit":
		s.finish()
	}
}

func (s *Session) selectID(input string) {
	if input == AbortInput {
		log.Printf("session: id selection aborted in %s mode", s.mode)
		s.mode = ModeCommand
		return
	}
	id, err := s.store.ParseID(input)
	if err != nil {
		// Stay in the same mode; the caller prompts again.
		return
	}
	desc, err := s.store.DescriptionOf(id)
	if err != nil {
		return
	}

	switch s.mode {
	case ModeCopyNew:
		s.mode = ModeCommand
		s.closeIfOpen()
		s.open(desc, s.now())
	case ModeCopyInto:
		s.mode = ModeCommand
		if !s.store.ReplaceOpenDescription(desc) {
			s.printOpen()
		}
	}
}

func (s *Session) open(description string, start time.Time) {
	t, err := s.store.OpenNew(description, start)
	if err != nil {
		// Every caller closes first, so this only happens on a logic error.
		log.Printf("session: open %q: %v", description, err)
		fmt.Fprintf(s.out, "Could not start a new task: %v\n\n", err)
		return
	}
	log.Printf("session: opened task %d", t.ID)
	fmt.Fprintln(s.out)
	fmt.Fprintln(s.out, "Started a new task with description:")
	fmt.Fprintln(s.out, t.Description)
	fmt.Fprintln(s.out)
}

func (s *Session) closeIfOpen() {
	open, ok := s.store.Open()
	if !ok {
		fmt.Fprintln(s.out, "There is currently no open item to close")
		fmt.Fprintln(s.out)
		return
	}
	fmt.Fprintln(s.out, "The current open item is")
	fmt.Fprintln(s.out, open)
	closed, _ := s.store.CloseOpen(s.now())
	log.Printf("session: closed task %d", closed.ID)
	fmt.Fprintln(s.out, "The task was closed")
	fmt.Fprintln(s.out)
}

func (s *Session) finish() {
	s.closeIfOpen()
	t := s.store.Record(ShutdownDescription, s.now())
	log.Printf("session: recorded shutdown task %d", t.ID)
	s.mode = ModeFinished
}

func (s *Session) printOpen() {
	if open, ok := s.store.Open(); ok {
		fmt.Fprintln(s.out, "The current open task is:")
		fmt.Fprintln(s.out, open)
	} else {
		fmt.Fprintln(s.out, "There is currently no open item")
	}
	fmt.Fprintln(s.out)
}

func (s *Session) printAll() {
	for _, t := range s.store.Closed() {
		fmt.Fprintln(s.out, t)
	}
	fmt.Fprintln(s.out)
}
