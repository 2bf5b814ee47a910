// Package idle watches how long the desktop has gone without input and
// tells the timer when the user comes back from a long idle stretch.
package idle

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Source reports the current system idle time.
type Source interface {
	IdleSeconds() (uint64, error)
}

// Phase is where the tracker sits in an idle episode.
type Phase int

const (
	Active        Phase = iota // user input seen recently
	IdleAccruing               // idle, but below the threshold
	IdleConfirmed              // idle past the threshold, user not back yet
)

func (p Phase) String() string {
	switch p {
	case IdleAccruing:
		return "accruing"
	case IdleConfirmed:
		return "confirmed"
	default:
		return "active"
	}
}

// Resumed describes a user returning from a confirmed idle episode.
type Resumed struct {
	IdleStart time.Time
	Duration  time.Duration
}

// Snapshot is a copy of the tracker's state.
type Snapshot struct {
	IdleSeconds     uint64
	IdleTimeReached bool
	IdleNotified    bool
	IdleStartTime   time.Time // zero unless IdleTimeReached
	SubtractIdle    bool
}

// Tracker is not safe for concurrent use; the timer owns it and calls it
// from its tick handler.
type Tracker struct {
	src Source
	log *log.Logger

	idleSeconds uint64
	reached     bool
	notified    bool
	startTime   time.Time
	subtract    bool

	failing bool
}

// NewTracker creates a tracker reading from src.
func NewTracker(src Source, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Tracker{src: src, log: logger}
}

// sample reads the idle source. A failing source reads as one second idle so
// a broken idle monitor never holds up timing.
func (t *Tracker) sample() uint64 {
	secs, err := t.src.IdleSeconds()
	if err != nil {
		if !t.failing {
			t.log.Debug("Idle source unavailable", "error", err)
			t.failing = true
		}
		return 1
	}
	t.failing = false
	return secs
}

// Check samples the idle source once. It returns a non-nil Resumed exactly
// once per confirmed idle episode, on the first sample that shows the user
// active again.
func (t *Tracker) Check(now time.Time, threshold time.Duration) *Resumed {
	limit := uint64(threshold / time.Second)
	secs := t.sample()

	var resumed *Resumed
	if secs < limit && t.reached && !t.notified {
		t.notified = true
		resumed = &Resumed{IdleStart: t.startTime, Duration: now.Sub(t.startTime)}
		t.log.Info("Resumed from idle", "idle", resumed.Duration.Round(time.Second))
	}
	t.idleSeconds = secs

	if secs >= limit && !t.reached {
		t.reached = true
		t.startTime = now.Add(-threshold)
		t.log.Info("Idle time reached", "since", t.startTime.Format(time.Kitchen))
	}
	return resumed
}

// Reset returns the tracker to the active baseline.
func (t *Tracker) Reset() {
	t.idleSeconds = 0
	t.reached = false
	t.notified = false
	t.startTime = time.Time{}
	t.subtract = false
}

// SetSubtract marks the current idle span to be cut from the session.
func (t *Tracker) SetSubtract(v bool) {
	t.subtract = v
}

// SubtractIdle reports whether the session should end at the idle start.
func (t *Tracker) SubtractIdle() bool {
	return t.subtract && t.reached
}

// StartTime returns when the current idle episode began.
func (t *Tracker) StartTime() (time.Time, bool) {
	return t.startTime, t.reached
}

func (t *Tracker) Phase() Phase {
	switch {
	case t.reached && !t.notified:
		return IdleConfirmed
	case !t.reached && t.idleSeconds > 1:
		return IdleAccruing
	default:
		return Active
	}
}

func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		IdleSeconds:     t.idleSeconds,
		IdleTimeReached: t.reached,
		IdleNotified:    t.notified,
		IdleStartTime:   t.startTime,
		SubtractIdle:    t.subtract,
	}
}
