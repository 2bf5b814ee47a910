package timer

import (
	"errors"
	"time"

	"github.com/r3pll/Furtherance/internal/autosave"
)

var (
	ErrEmptyTaskName = errors.New("task name is empty")
	ErrTimerRunning  = errors.New("timer is running")
	ErrNoPrompt      = errors.New("no matching prompt is pending")
)

// State is the engine's position in its lifecycle.
type State int

const (
	Stopped State = iota
	RunningStopwatch
	RunningPomodoro
	PomodoroExpired // countdown hit zero, waiting on a PomodoroChoice
)

func (s State) String() string {
	switch s {
	case RunningStopwatch:
		return "stopwatch"
	case RunningPomodoro:
		return "pomodoro"
	case PomodoroExpired:
		return "pomodoro expired"
	default:
		return "stopped"
	}
}

type Mode int

const (
	Stopwatch Mode = iota
	Pomodoro
)

// TimerState is a read-only view of the running session.
type TimerState struct {
	Mode     Mode
	Running  bool
	Counter  time.Duration // elapsed for a stopwatch, remaining for a Pomodoro
	Start    time.Time
	Continue bool // next start resumes an expired Pomodoro as a stopwatch
}

// PromptKind says which question the front end has to put to the user.
type PromptKind int

const (
	NoPrompt PromptKind = iota
	IdleResumed
	PomodoroOver
	AutosaveRestored
)

// Prompt is an event for the front end. IdleResumed wants an IdleChoice,
// PomodoroOver wants a PomodoroChoice, and AutosaveRestored is a notice
// that only needs dismissing.
type Prompt struct {
	Kind         PromptKind
	IdleDuration time.Duration
	IdleStart    time.Time
	Restored     autosave.Record
}

type IdleChoice int

const (
	IdleDiscard IdleChoice = iota // drop the idle span from the session
	IdleContinue
)

type PomodoroChoice int

const (
	PomodoroStop PomodoroChoice = iota
	PomodoroContinue
)
