package timer

import (
	"errors"
	"testing"
	"time"
)

func TestRecorderRejectsEmptyName(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, nil)
	if err := r.Record("", t0, t0.Add(time.Minute), ""); !errors.Is(err, ErrEmptyTaskName) {
		t.Errorf("Record error = %v, want ErrEmptyTaskName", err)
	}
	if len(store.tasks) != 0 {
		t.Error("empty task reached the store")
	}
}

func TestRecorderWrapsStoreErrors(t *testing.T) {
	cause := errors.New("database is locked")
	r := NewRecorder(&memStore{err: cause}, nil)
	err := r.Record("Task", t0, t0.Add(time.Minute), "")
	if !errors.Is(err, cause) {
		t.Errorf("Record error = %v, want it to wrap %v", err, cause)
	}
}

func TestRecorderDoesNotReorderTimes(t *testing.T) {
	store := &memStore{}
	r := NewRecorder(store, nil)
	if err := r.Record("Backwards", t0, t0.Add(-time.Minute), "x"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if got := store.tasks[0]; !got.start.Equal(t0) || !got.stop.Equal(t0.Add(-time.Minute)) {
		t.Errorf("stored %v..%v", got.start, got.stop)
	}
}
