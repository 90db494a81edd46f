package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sadopc/tasklog/internal/store"
)

// Persister writes a complete replacement of the session record.
type Persister interface {
	Save(tasks []store.Task) error
}

// Run drives the session from in until quit or end of input. The snapshot
// is saved before every command prompt and once more after the shutdown
// entry. A save or read failure stops the loop and is returned.
func Run(s *Session, in io.Reader, p Persister) error {
	s.Start()

	r := bufio.NewReader(in)

	for !s.Done() {
		if s.Mode() == ModeCommand {
			if err := p.Save(s.Snapshot()); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
		}

		fmt.Fprintln(s.out, s.Prompt())

		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		if err != nil && line == "" {
			s.Quit()
			break
		}
		s.Feed(strings.TrimRight(line, "\r\n"))
	}

	if err := p.Save(s.Snapshot()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
