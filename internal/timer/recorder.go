package timer

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Store is where finished tasks are written.
type Store interface {
	WriteTask(name string, start, stop time.Time, tagList string) error
}

// Recorder writes finished sessions to the store. It does not check that
// start precedes stop; live sessions are ordered by construction and manual
// entries are validated before they get here.
type Recorder struct {
	store Store
	log   *log.Logger
}

func NewRecorder(store Store, logger *log.Logger) *Recorder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Recorder{store: store, log: logger}
}

// Record writes one task. An empty name is rejected without touching the store.
func (r *Recorder) Record(name string, start, stop time.Time, tagList string) error {
	if name == "" {
		return ErrEmptyTaskName
	}
	if err := r.store.WriteTask(name, start, stop, tagList); err != nil {
		r.log.Error("Failed to record task", "task", name, "error", err)
		return fmt.Errorf("record task: %w", err)
	}
	r.log.Info("Task recorded", "task", name, "tags", tagList, "duration", stop.Sub(start).Round(time.Second))
	return nil
}
