// Package timer runs the tracking session: a one-second tick drives a
// stopwatch or Pomodoro countdown, samples idle time, writes autosaves and
// hands finished sessions to a Recorder.
//
// Engine is not safe for concurrent use. The front end owns it and calls it
// from its event loop, so ticks and user actions never overlap.
package timer

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/r3pll/Furtherance/internal/autosave"
	"github.com/r3pll/Furtherance/internal/config"
	"github.com/r3pll/Furtherance/internal/idle"
	"github.com/r3pll/Furtherance/internal/models"
	"github.com/r3pll/Furtherance/internal/tags"
)

// Settings is the read side of the settings store.
type Settings interface {
	GetBool(key string) bool
	GetInt(key string) int
}

type Options struct {
	Settings Settings
	Recorder *Recorder
	Idle     *idle.Tracker       // nil disables idle detection
	Autosave *autosave.Persister // nil disables autosave and restore
	Logger   *log.Logger
	Now      func() time.Time // defaults to time.Now
}

type Engine struct {
	settings Settings
	rec      *Recorder
	idle     *idle.Tracker
	autosave *autosave.Persister
	log      *log.Logger
	now      func() time.Time

	state State
	input string
	start time.Time

	elapsed      int // stopwatch seconds
	remaining    int // countdown seconds
	pomodoroSecs int

	pomodoroContinue bool
	expiredAt        time.Time

	// unsaved is a finished session the store refused. It is recorded
	// before the next session starts.
	unsaved *autosave.Record

	prompt *Prompt
}

func New(opts Options) *Engine {
	e := &Engine{
		settings: opts.Settings,
		rec:      opts.Recorder,
		idle:     opts.Idle,
		autosave: opts.Autosave,
		log:      opts.Logger,
		now:      opts.Now,
	}
	if e.log == nil {
		e.log = log.New(io.Discard)
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.idle == nil {
		e.idle = idle.NewTracker(idle.StubSource{}, e.log)
	}
	return e
}

// SetInput replaces the raw task text ("name #tag #tag"). The text is locked
// while a session is in progress.
func (e *Engine) SetInput(raw string) error {
	if e.state != Stopped {
		return ErrTimerRunning
	}
	e.input = raw
	return nil
}

func (e *Engine) Input() string {
	return e.input
}

// CanStart reports whether Start would succeed.
func (e *Engine) CanStart() bool {
	name, _ := tags.Normalize(e.input)
	return e.state == Stopped && name != ""
}

// Start begins a session from the current input. With Pomodoro enabled it
// counts down, unless it is resuming an expired Pomodoro, in which case it
// counts up from the original start time.
func (e *Engine) Start() error {
	if e.state != Stopped {
		return ErrTimerRunning
	}
	name, _ := tags.Normalize(e.input)
	if name == "" {
		return ErrEmptyTaskName
	}
	if err := e.flushUnsaved(); err != nil {
		return err
	}

	e.idle.Reset()
	e.prompt = nil
	now := e.now()

	mins := e.settings.GetInt(config.KeyPomodoroTime)
	if e.settings.GetBool(config.KeyPomodoro) && !e.pomodoroContinue && mins > 0 {
		e.state = RunningPomodoro
		e.start = now
		e.elapsed = 0
		e.pomodoroSecs = mins * 60
		e.remaining = e.pomodoroSecs
		e.log.Info("Timer started", "task", name, "mode", "pomodoro", "minutes", mins)
		return nil
	}

	e.state = RunningStopwatch
	if e.pomodoroContinue {
		// Whatever passed while the expiry prompt was open counts too.
		e.elapsed = int(now.Sub(e.start) / time.Second)
		e.pomodoroContinue = false
	} else {
		e.start = now
		e.elapsed = 0
	}
	e.log.Info("Timer started", "task", name, "mode", "stopwatch")
	return nil
}

// Stop ends the session and records it. Stopping a stopped timer does nothing.
func (e *Engine) Stop() error {
	switch e.state {
	case Stopped:
		return nil
	case PomodoroExpired:
		return e.finish(e.expiredAt)
	default:
		return e.finish(e.now())
	}
}

// Toggle starts a stopped timer and stops a running one.
func (e *Engine) Toggle() error {
	if e.state == Stopped {
		return e.Start()
	}
	return e.Stop()
}

// finish resets the engine and records the session ending at stop, or at
// the idle start if the user chose to discard idle time. The autosave file
// is only removed once the task is safely stored. When the store fails, the
// finished session goes to the autosave file whatever the autosave setting,
// and is held until flushUnsaved gets it stored.
func (e *Engine) finish(stop time.Time) error {
	name, tagList := tags.Normalize(e.input)
	start := e.start
	if e.idle.SubtractIdle() {
		if idleStart, ok := e.idle.StartTime(); ok {
			stop = idleStart
		}
	}
	if stop.Before(start) {
		stop = start
	}

	e.state = Stopped
	e.prompt = nil
	e.elapsed = 0
	e.remaining = 0
	e.pomodoroContinue = false
	e.idle.Reset()
	e.log.Info("Timer stopped", "task", name, "duration", stop.Sub(start).Round(time.Second))

	if err := e.rec.Record(name, start, stop, tagList); err != nil {
		e.keepUnsaved(autosave.Record{TaskName: name, StartTime: start, StopTime: stop, TagList: tagList})
		return err
	}
	e.input = ""
	e.removeAutosave()
	return nil
}

func (e *Engine) keepUnsaved(rec autosave.Record) {
	e.unsaved = &rec
	if e.autosave == nil {
		return
	}
	if err := e.autosave.Write(rec); err != nil {
		e.log.Warn("Could not save unrecorded task to autosave", "task", rec.TaskName, "error", err)
	}
}

// flushUnsaved records a session whose earlier record failed. Until that
// succeeds no new session may start, so its autosave copy is never
// overwritten.
func (e *Engine) flushUnsaved() error {
	if e.unsaved == nil {
		return nil
	}
	rec := *e.unsaved
	if err := e.rec.Record(rec.TaskName, rec.StartTime, rec.StopTime, rec.TagList); err != nil {
		return fmt.Errorf("record earlier session: %w", err)
	}
	e.unsaved = nil
	e.removeAutosave()
	e.log.Info("Earlier session recorded", "task", rec.TaskName)
	return nil
}

// Unsaved reports whether a finished session is still waiting to be stored.
func (e *Engine) Unsaved() bool {
	return e.unsaved != nil
}

func (e *Engine) removeAutosave() {
	if e.autosave == nil {
		return
	}
	if err := e.autosave.Delete(); err != nil {
		e.log.Warn("Could not remove autosave", "error", err)
	}
}

// Tick advances a running session by one second. It returns the prompt
// raised by this tick, if any. Ticks while stopped or expired are ignored.
func (e *Engine) Tick() *Prompt {
	if !e.Running() {
		return nil
	}
	now := e.now()

	if e.state == RunningPomodoro {
		e.remaining--
	} else {
		e.elapsed++
	}

	var raised *Prompt
	if r := e.checkIdle(now); r != nil {
		if e.prompt == nil || e.prompt.Kind == AutosaveRestored {
			e.prompt = &Prompt{Kind: IdleResumed, IdleDuration: r.Duration, IdleStart: r.IdleStart}
			raised = e.prompt
		}
	}

	e.checkAutosave(now)

	if e.state == RunningPomodoro && e.remaining <= 0 {
		e.remaining = 0
		e.state = PomodoroExpired
		e.expiredAt = now
		// Time's up outranks an unanswered idle question.
		e.prompt = &Prompt{Kind: PomodoroOver}
		raised = e.prompt
		e.log.Info("Pomodoro finished", "task", e.input)
	}
	return raised
}

func (e *Engine) checkIdle(now time.Time) *idle.Resumed {
	if !e.settings.GetBool(config.KeyNotifyOfIdle) {
		return nil
	}
	mins := e.settings.GetInt(config.KeyIdleTime)
	if mins <= 0 {
		return nil
	}
	return e.idle.Check(now, time.Duration(mins)*time.Minute)
}

// checkAutosave writes the recovery file every autosave-time minutes of
// session time. A failed write is logged and the session carries on.
func (e *Engine) checkAutosave(now time.Time) {
	if e.autosave == nil || !e.settings.GetBool(config.KeyAutosave) {
		return
	}
	mins := e.settings.GetInt(config.KeyAutosaveTime)
	secs := e.elapsedSeconds()
	if mins <= 0 || secs == 0 || secs%(mins*60) != 0 {
		return
	}

	name, tagList := tags.Normalize(e.input)
	err := e.autosave.Write(autosave.Record{
		TaskName:  name,
		StartTime: e.start,
		StopTime:  now,
		TagList:   tagList,
	})
	if err != nil {
		e.log.Warn("Autosave failed", "error", err)
	}
}

// Prompt returns the question waiting on the user, if any.
func (e *Engine) Prompt() (Prompt, bool) {
	if e.prompt == nil {
		return Prompt{}, false
	}
	return *e.prompt, true
}

// ResolveIdle answers an IdleResumed prompt. Discard ends the session at the
// moment idling began; Continue keeps the idle span as worked time.
func (e *Engine) ResolveIdle(choice IdleChoice) error {
	if e.prompt == nil || e.prompt.Kind != IdleResumed {
		return ErrNoPrompt
	}
	e.prompt = nil

	if choice == IdleDiscard {
		e.idle.SetSubtract(true)
		return e.Stop()
	}
	e.idle.Reset()
	return nil
}

// ResolvePomodoro answers a PomodoroOver prompt. Stop records the session
// up to expiry; Continue keeps the start time and switches to a stopwatch.
func (e *Engine) ResolvePomodoro(choice PomodoroChoice) error {
	if e.state != PomodoroExpired {
		return ErrNoPrompt
	}
	e.prompt = nil

	if choice == PomodoroStop {
		return e.finish(e.expiredAt)
	}
	e.idle.Reset()
	e.pomodoroContinue = true
	e.state = Stopped
	return e.Start()
}

func (e *Engine) DismissNotice() error {
	if e.prompt == nil || e.prompt.Kind != AutosaveRestored {
		return ErrNoPrompt
	}
	e.prompt = nil
	return nil
}

// RestoreAutosave records a session left behind by a previous run. It only
// runs with autosave enabled. On success the file is removed and an
// AutosaveRestored notice is raised; on failure the file stays for
// inspection.
func (e *Engine) RestoreAutosave() (bool, error) {
	if e.autosave == nil || !e.settings.GetBool(config.KeyAutosave) || !e.autosave.Exists() {
		return false, nil
	}

	rec, err := e.autosave.Read()
	if err != nil {
		e.log.Error("Could not read autosave", "path", e.autosave.Path(), "error", err)
		return false, fmt.Errorf("restore autosave: %w", err)
	}
	if err := e.rec.Record(rec.TaskName, rec.StartTime, rec.StopTime, rec.TagList); err != nil {
		return false, fmt.Errorf("restore autosave: %w", err)
	}
	if err := e.autosave.Delete(); err != nil {
		e.log.Warn("Could not remove restored autosave", "error", err)
	}

	e.log.Info("Autosave restored", "task", rec.TaskName)
	if e.prompt == nil {
		e.prompt = &Prompt{Kind: AutosaveRestored, Restored: rec}
	}
	return true, nil
}

// Duplicate starts a new session with the name and tags of an earlier task.
func (e *Engine) Duplicate(t models.Task) error {
	if e.state != Stopped {
		return ErrTimerRunning
	}
	e.input = tags.Join(t.Name, t.TagList())
	return e.Start()
}

func (e *Engine) State() State {
	return e.state
}

// Running reports whether ticks currently advance the session.
func (e *Engine) Running() bool {
	return e.state == RunningStopwatch || e.state == RunningPomodoro
}

func (e *Engine) StartTime() time.Time {
	return e.start
}

func (e *Engine) elapsedSeconds() int {
	switch e.state {
	case RunningStopwatch:
		return e.elapsed
	case RunningPomodoro, PomodoroExpired:
		return e.pomodoroSecs - e.remaining
	default:
		return 0
	}
}

// Elapsed is the session time counted so far.
func (e *Engine) Elapsed() time.Duration {
	return time.Duration(e.elapsedSeconds()) * time.Second
}

func (e *Engine) Snapshot() TimerState {
	ts := TimerState{
		Running:  e.Running(),
		Start:    e.start,
		Continue: e.pomodoroContinue,
		Counter:  time.Duration(e.elapsed) * time.Second,
	}
	if e.state == RunningPomodoro || e.state == PomodoroExpired {
		ts.Mode = Pomodoro
		ts.Counter = time.Duration(e.remaining) * time.Second
	}
	return ts
}

// Display is the clock text: elapsed time for a stopwatch, time left for a
// Pomodoro, and the full Pomodoro length or zero at rest.
func (e *Engine) Display() string {
	switch e.state {
	case RunningStopwatch:
		return FormatClock(e.elapsed)
	case RunningPomodoro, PomodoroExpired:
		return FormatClock(e.remaining)
	}
	if e.settings.GetBool(config.KeyPomodoro) {
		if mins := e.settings.GetInt(config.KeyPomodoroTime); mins > 0 {
			return FormatClock(mins * 60)
		}
	}
	return FormatClock(0)
}

// FormatClock renders seconds as HH:MM:SS.
func FormatClock(secs int) string {
	if secs < 0 {
		secs = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
