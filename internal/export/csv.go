package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/sadopc/tasklog/internal/store"
)

var header = []string{"id", "start", "end", "description"}

// CSVFile rewrites the file at Path with the full task list on every Save.
type CSVFile struct {
	Path string
}

func (c CSVFile) Save(tasks []store.Task) error {
	return ToCSV(tasks, c.Path)
}

// ToCSV truncates path and writes a header followed by one row per task.
func ToCSV(tasks []store.Task, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv file: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)

	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range tasks {
		if err := w.Write(t.Row()); err != nil {
			return fmt.Errorf("write task %d: %w", t.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv file: %w", err)
	}
	return nil
}
