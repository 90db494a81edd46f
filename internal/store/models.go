package store

import (
	"fmt"
	"strconv"
	"time"
)

// TimeLayout is the fixed layout used to display and export task timestamps.
// It is independent of the layout used for output file names.
const TimeLayout = "2006-01-02 15:04:05"

type Task struct {
	ID          int
	Start       time.Time
	End         time.Time
	Description string
}

// NewTask returns a task whose start and end are both set to start.
func NewTask(id int, description string, start time.Time) Task {
	return Task{
		ID:          id,
		Start:       start,
		End:         start,
		Description: description,
	}
}

func (t Task) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// Row returns the task as the four export fields: id, start, end, description.
func (t Task) Row() []string {
	return []string{
		strconv.Itoa(t.ID),
		t.Start.Format(TimeLayout),
		t.End.Format(TimeLayout),
		t.Description,
	}
}

func (t Task) String() string {
	return fmt.Sprintf("%d %s %s %s",
		t.ID,
		t.Start.Format(TimeLayout),
		t.End.Format(TimeLayout),
		t.Description,
	)
}
