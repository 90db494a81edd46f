package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTaskOpen  = errors.New("a task is already open")
	ErrInvalidID = errors.New("invalid task id")
)

// Store holds the closed tasks of a session in closure order, the single
// open task slot and the id counter. It is owned by one control loop and
// is not safe for concurrent use.
type Store struct {
	closed []Task
	open   *Task
	nextID int
}

func New() *Store {
	return &Store{}
}

// OpenNew creates a task with the next id and makes it the open task.
// The caller must close any open task first.
func (s *Store) OpenNew(description string, start time.Time) (Task, error) {
	if s.open != nil {
		return Task{}, fmt.Errorf("open task %d: %w", s.open.ID, ErrTaskOpen)
	}
	t := NewTask(s.nextID, description, start)
	s.nextID++
	s.open = &t
	return t, nil
}

// CloseOpen stamps the open task with end, moves it to the closed list and
// returns it. The second result is false when there was nothing to close.
func (s *Store) CloseOpen(end time.Time) (Task, bool) {
	if s.open == nil {
		return Task{}, false
	}
	t := *s.open
	if end.Before(t.Start) {
		end = t.Start
	}
	t.End = end
	s.closed = append(s.closed, t)
	s.open = nil
	return t, true
}

// Record creates a task and closes it at once, leaving the open slot alone.
func (s *Store) Record(description string, at time.Time) Task {
	t := NewTask(s.nextID, description, at)
	s.nextID++
	s.closed = append(s.closed, t)
	return t
}

func (s *Store) ReplaceOpenDescription(text string) bool {
	if s.open == nil {
		return false
	}
	s.open.Description = text
	return true
}

func (s *Store) AppendToOpenDescription(extra string) bool {
	if s.open == nil {
		return false
	}
	s.open.Description += extra
	return true
}

// DescriptionOf returns the description of the closed task at position id.
func (s *Store) DescriptionOf(id int) (string, error) {
	if id < 0 || id >= len(s.closed) {
		return "", fmt.Errorf("task %d: %w", id, ErrInvalidID)
	}
	return s.closed[id].Description, nil
}

// ParseID turns user input into an index of the closed list.
func (s *Store) ParseID(input string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", input, ErrInvalidID)
	}
	if id < 0 || id >= len(s.closed) {
		return 0, fmt.Errorf("task %d: %w", id, ErrInvalidID)
	}
	return id, nil
}

func (s *Store) Open() (Task, bool) {
	if s.open == nil {
		return Task{}, false
	}
	return *s.open, true
}

func (s *Store) HasOpen() bool {
	return s.open != nil
}

func (s *Store) Closed() []Task {
	out := make([]Task, len(s.closed))
	copy(out, s.closed)
	return out
}

func (s *Store) NextID() int {
	return s.nextID
}

// Snapshot returns the closed tasks followed by the open task, if any.
// This is exactly what gets persisted.
func (s *Store) Snapshot() []Task {
	out := make([]Task, 0, len(s.closed)+1)
	out = append(out, s.closed...)
	if s.open != nil {
		out = append(out, *s.open)
	}
	return out
}
