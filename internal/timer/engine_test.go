package timer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/r3pll/Furtherance/internal/autosave"
	"github.com/r3pll/Furtherance/internal/config"
	"github.com/r3pll/Furtherance/internal/idle"
	"github.com/r3pll/Furtherance/internal/models"
)

type fakeSettings map[string]any

func (f fakeSettings) GetBool(key string) bool {
	v, _ := f[key].(bool)
	return v
}

func (f fakeSettings) GetInt(key string) int {
	v, _ := f[key].(int)
	return v
}

type storedTask struct {
	name        string
	start, stop time.Time
	tagList     string
}

type memStore struct {
	tasks []storedTask
	err   error
}

func (m *memStore) WriteTask(name string, start, stop time.Time, tagList string) error {
	if m.err != nil {
		return m.err
	}
	m.tasks = append(m.tasks, storedTask{name, start, stop, tagList})
	return nil
}

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// idleValue reports whatever idle time the test last set.
type idleValue struct{ secs uint64 }

func (v *idleValue) IdleSeconds() (uint64, error) { return v.secs, nil }

var t0 = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

type harness struct {
	engine   *Engine
	store    *memStore
	clock    *fakeClock
	idle     *idleValue
	settings fakeSettings
	autosave *autosave.Persister
}

func newHarness(t *testing.T, settings fakeSettings) *harness {
	t.Helper()
	h := &harness{
		store:    &memStore{},
		clock:    &fakeClock{t: t0},
		idle:     &idleValue{},
		settings: settings,
		autosave: autosave.New(autosave.DefaultPath(t.TempDir()), nil),
	}
	h.engine = New(Options{
		Settings: settings,
		Recorder: NewRecorder(h.store, nil),
		Idle:     idle.NewTracker(h.idle, nil),
		Autosave: h.autosave,
		Now:      h.clock.Now,
	})
	return h
}

// tick advances the clock one second and ticks the engine.
func (h *harness) tick() *Prompt {
	h.clock.Advance(time.Second)
	return h.engine.Tick()
}

func (h *harness) start(t *testing.T, input string) {
	t.Helper()
	if err := h.engine.SetInput(input); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	if err := h.engine.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
}

func TestStopwatchRecordsTask(t *testing.T) {
	h := newHarness(t, fakeSettings{})
	h.start(t, "Write report #Work #work")

	for i := 0; i < 90; i++ {
		h.tick()
	}
	if got := h.engine.Display(); got != "00:01:30" {
		t.Errorf("Display() = %q, want 00:01:30", got)
	}

	if err := h.engine.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if len(h.store.tasks) != 1 {
		t.Fatalf("recorded %d tasks, want 1", len(h.store.tasks))
	}
	got := h.store.tasks[0]
	if got.name != "Write report" || got.tagList != "work" {
		t.Errorf("recorded %q %q", got.name, got.tagList)
	}
	if !got.start.Equal(t0) || !got.stop.Equal(t0.Add(90*time.Second)) {
		t.Errorf("recorded %v..%v", got.start, got.stop)
	}
	if h.engine.State() != Stopped || h.engine.Input() != "" {
		t.Errorf("engine not reset: state %v input %q", h.engine.State(), h.engine.Input())
	}
	if h.engine.Display() != "00:00:00" {
		t.Errorf("Display() at rest = %q", h.engine.Display())
	}
}

func TestStopIsIdempotent(t *testing.T) {
	h := newHarness(t, fakeSettings{})
	if err := h.engine.Stop(); err != nil {
		t.Fatalf("Stop while stopped: %v", err)
	}

	h.start(t, "Task")
	h.tick()
	h.engine.Stop()
	h.engine.Stop()
	if len(h.store.tasks) != 1 {
		t.Errorf("recorded %d tasks, want 1", len(h.store.tasks))
	}
}

func TestStartGating(t *testing.T) {
	h := newHarness(t, fakeSettings{})

	h.engine.SetInput("   #tag only")
	if h.engine.CanStart() {
		t.Error("CanStart() = true for an empty name")
	}
	if err := h.engine.Start(); !errors.Is(err, ErrEmptyTaskName) {
		t.Errorf("Start error = %v, want ErrEmptyTaskName", err)
	}

	h.start(t, "Task")
	if h.engine.CanStart() {
		t.Error("CanStart() = true while running")
	}
	if err := h.engine.SetInput("other"); !errors.Is(err, ErrTimerRunning) {
		t.Errorf("SetInput while running = %v", err)
	}
	if err := h.engine.Start(); !errors.Is(err, ErrTimerRunning) {
		t.Errorf("second Start = %v", err)
	}
}

func TestTicksIgnoredWhenStopped(t *testing.T) {
	h := newHarness(t, fakeSettings{})
	for i := 0; i < 5; i++ {
		if p := h.tick(); p != nil {
			t.Fatal("stopped engine raised a prompt")
		}
	}
	if h.engine.Elapsed() != 0 {
		t.Errorf("Elapsed() = %v while stopped", h.engine.Elapsed())
	}
}

func TestPomodoroExpiresOnce(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyPomodoro: true, config.KeyPomodoroTime: 25})
	if got := h.engine.Display(); got != "00:25:00" {
		t.Errorf("Display() at rest = %q, want 00:25:00", got)
	}
	h.start(t, "Focus")
	if h.engine.State() != RunningPomodoro {
		t.Fatalf("state = %v, want pomodoro", h.engine.State())
	}

	expired := 0
	for i := 1; i <= 1600; i++ {
		p := h.tick()
		if p != nil && p.Kind == PomodoroOver {
			expired++
			if i != 1500 {
				t.Fatalf("expired at tick %d, want 1500", i)
			}
		}
	}
	if expired != 1 {
		t.Fatalf("expired %d times, want 1", expired)
	}
	if h.engine.State() != PomodoroExpired || h.engine.Display() != "00:00:00" {
		t.Errorf("state = %v display = %q", h.engine.State(), h.engine.Display())
	}
	if p, ok := h.engine.Prompt(); !ok || p.Kind != PomodoroOver {
		t.Error("PomodoroOver prompt not pending")
	}

	if err := h.engine.ResolvePomodoro(PomodoroStop); err != nil {
		t.Fatalf("ResolvePomodoro: %v", err)
	}
	got := h.store.tasks[0]
	if got.stop.Sub(got.start) != 25*time.Minute {
		t.Errorf("recorded %v, want 25m", got.stop.Sub(got.start))
	}
}

func TestPomodoroContinueKeepsStart(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyPomodoro: true, config.KeyPomodoroTime: 1})
	h.start(t, "Focus #deep")
	for i := 0; i < 60; i++ {
		h.tick()
	}
	if h.engine.State() != PomodoroExpired {
		t.Fatalf("state = %v, want expired", h.engine.State())
	}

	// The user answers the prompt half a minute later.
	h.clock.Advance(30 * time.Second)
	if err := h.engine.ResolvePomodoro(PomodoroContinue); err != nil {
		t.Fatalf("ResolvePomodoro: %v", err)
	}
	if h.engine.State() != RunningStopwatch {
		t.Fatalf("state = %v, want stopwatch", h.engine.State())
	}
	if !h.engine.StartTime().Equal(t0) {
		t.Errorf("start moved to %v", h.engine.StartTime())
	}
	if got := h.engine.Display(); got != "00:01:30" {
		t.Errorf("Display() = %q, want 00:01:30", got)
	}

	h.tick()
	h.engine.Stop()
	got := h.store.tasks[0]
	if !got.start.Equal(t0) || got.stop.Sub(got.start) != 91*time.Second {
		t.Errorf("recorded %v..%v", got.start, got.stop)
	}
}

func TestIdleDiscardTruncatesStop(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyNotifyOfIdle: true, config.KeyIdleTime: 5})
	h.start(t, "Write report")

	// Active for 15 minutes, by which point the user has been idle for 5.
	for i := 0; i < 899; i++ {
		if p := h.tick(); p != nil {
			t.Fatalf("tick %d raised %v", i, p.Kind)
		}
	}
	h.idle.secs = 300
	h.tick()

	// Back at the keyboard ten minutes later.
	h.clock.Advance(10 * time.Minute)
	h.idle.secs = 0
	p := h.tick()
	if p == nil || p.Kind != IdleResumed {
		t.Fatalf("expected an idle prompt, got %v", p)
	}
	if !p.IdleStart.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("IdleStart = %v, want T0+10m", p.IdleStart)
	}

	if err := h.engine.ResolveIdle(IdleDiscard); err != nil {
		t.Fatalf("ResolveIdle: %v", err)
	}
	got := h.store.tasks[0]
	if !got.stop.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("recorded stop = %v, want T0+10m", got.stop)
	}
	if h.engine.State() != Stopped {
		t.Errorf("state = %v after discard", h.engine.State())
	}
}

func TestIdleContinueKeepsRunning(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyNotifyOfIdle: true, config.KeyIdleTime: 1})
	h.start(t, "Read")
	h.idle.secs = 60
	h.tick()
	h.idle.secs = 0
	if p := h.tick(); p == nil || p.Kind != IdleResumed {
		t.Fatal("expected an idle prompt")
	}

	if err := h.engine.ResolveIdle(IdleContinue); err != nil {
		t.Fatalf("ResolveIdle: %v", err)
	}
	if !h.engine.Running() {
		t.Fatal("timer stopped after Continue")
	}
	if _, ok := h.engine.Prompt(); ok {
		t.Error("prompt still pending")
	}
	if err := h.engine.ResolveIdle(IdleContinue); !errors.Is(err, ErrNoPrompt) {
		t.Errorf("second ResolveIdle = %v, want ErrNoPrompt", err)
	}

	h.engine.Stop()
	got := h.store.tasks[0]
	if got.stop.Sub(got.start) != 2*time.Second {
		t.Errorf("recorded %v, want the full 2s", got.stop.Sub(got.start))
	}
}

func TestIdleIgnoredWhenDisabled(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyNotifyOfIdle: false, config.KeyIdleTime: 1})
	h.start(t, "Read")
	h.idle.secs = 600
	h.tick()
	h.idle.secs = 0
	if p := h.tick(); p != nil {
		t.Errorf("raised %v with idle notifications off", p.Kind)
	}
}

func TestAutosaveAtInterval(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyAutosave: true, config.KeyAutosaveTime: 1})
	h.start(t, "Write report #docs")

	for i := 0; i < 59; i++ {
		h.tick()
	}
	if h.autosave.Exists() {
		t.Fatal("autosave written before the interval")
	}
	h.tick()
	if !h.autosave.Exists() {
		t.Fatal("autosave not written at the interval")
	}

	rec, err := h.autosave.Read()
	if err != nil {
		t.Fatal(err)
	}
	if rec.TaskName != "Write report" || rec.TagList != "docs" {
		t.Errorf("autosave = %+v", rec)
	}
	if !rec.StartTime.Equal(t0) || !rec.StopTime.Equal(t0.Add(time.Minute)) {
		t.Errorf("autosave times %v..%v", rec.StartTime, rec.StopTime)
	}

	h.engine.Stop()
	if h.autosave.Exists() {
		t.Error("autosave left behind after a normal stop")
	}
}

func TestStoreFailureKeepsAutosave(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyAutosave: true, config.KeyAutosaveTime: 1})
	h.start(t, "Write report")
	for i := 0; i < 60; i++ {
		h.tick()
	}

	h.store.err = errors.New("disk I/O error")
	err := h.engine.Stop()
	if err == nil {
		t.Fatal("Stop hid the storage failure")
	}
	if h.engine.State() != Stopped {
		t.Error("engine still running after a failed record")
	}
	if !h.autosave.Exists() {
		t.Error("autosave deleted although the task was not stored")
	}
	if h.engine.Input() != "Write report" {
		t.Errorf("input = %q, want it kept for another try", h.engine.Input())
	}
}

func TestFailedRecordIsStoredBeforeNextSession(t *testing.T) {
	for _, enabled := range []bool{true, false} {
		h := newHarness(t, fakeSettings{config.KeyAutosave: enabled, config.KeyAutosaveTime: 1})
		h.start(t, "First #a")
		for i := 0; i < 60; i++ {
			h.tick()
		}
		firstStop := h.clock.Now()

		h.store.err = errors.New("disk I/O error")
		if err := h.engine.Stop(); err == nil {
			t.Fatal("Stop hid the storage failure")
		}
		if !h.engine.Unsaved() {
			t.Errorf("autosave=%v: failed session not held", enabled)
		}
		rec, err := h.autosave.Read()
		if err != nil {
			t.Fatalf("autosave=%v: Read: %v", enabled, err)
		}
		if rec.TaskName != "First" || !rec.StopTime.Equal(firstStop) {
			t.Errorf("autosave=%v: file = %+v, want First stopped at %v", enabled, rec, firstStop)
		}

		h.store.err = nil
		h.start(t, "Second")
		if len(h.store.tasks) != 1 || h.store.tasks[0].name != "First" {
			t.Fatalf("autosave=%v: store = %+v, want First recorded on start", enabled, h.store.tasks)
		}
		for i := 0; i < 60; i++ {
			h.tick()
		}
		if err := h.engine.Stop(); err != nil {
			t.Fatalf("Stop: %v", err)
		}

		if len(h.store.tasks) != 2 {
			t.Fatalf("autosave=%v: recorded %d tasks, want 2", enabled, len(h.store.tasks))
		}
		first := h.store.tasks[0]
		if first.tagList != "a" || !first.start.Equal(t0) || !first.stop.Equal(firstStop) {
			t.Errorf("autosave=%v: first = %+v", enabled, first)
		}
		if h.store.tasks[1].name != "Second" {
			t.Errorf("autosave=%v: second = %+v", enabled, h.store.tasks[1])
		}
		if h.autosave.Exists() {
			t.Errorf("autosave=%v: file left behind after both tasks were stored", enabled)
		}
	}
}

func TestStartRefusedWhileEarlierSessionUnstored(t *testing.T) {
	h := newHarness(t, fakeSettings{})
	h.start(t, "First")
	h.tick()

	h.store.err = errors.New("disk I/O error")
	if err := h.engine.Stop(); err == nil {
		t.Fatal("Stop hid the storage failure")
	}
	if err := h.engine.SetInput("Second"); err != nil {
		t.Fatalf("SetInput: %v", err)
	}
	err := h.engine.Start()
	if !errors.Is(err, h.store.err) {
		t.Fatalf("Start error = %v, want the storage failure", err)
	}
	if h.engine.State() != Stopped {
		t.Errorf("state = %v, want stopped", h.engine.State())
	}
	if !h.autosave.Exists() {
		t.Error("unstored session dropped from the autosave file")
	}
}

func TestRestoreMalformedKeepsFile(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyAutosave: true})
	if err := os.MkdirAll(filepath.Dir(h.autosave.Path()), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(h.autosave.Path(), []byte("Half written\n2024-03-04T08:00:00Z"), 0644); err != nil {
		t.Fatal(err)
	}

	restored, err := h.engine.RestoreAutosave()
	if !errors.Is(err, autosave.ErrMalformed) {
		t.Fatalf("RestoreAutosave error = %v, want ErrMalformed", err)
	}
	if restored {
		t.Error("restored = true for a malformed file")
	}
	if len(h.store.tasks) != 0 {
		t.Errorf("recorded %d tasks, want 0", len(h.store.tasks))
	}
	if _, ok := h.engine.Prompt(); ok {
		t.Error("notice raised for a failed restore")
	}
	if !h.autosave.Exists() {
		t.Error("malformed autosave removed")
	}
}

func TestRestoreAutosave(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyAutosave: true})
	rec := autosave.Record{
		TaskName:  "Crashed task",
		StartTime: t0.Add(-time.Hour),
		StopTime:  t0.Add(-30 * time.Minute),
		TagList:   "work",
	}
	if err := h.autosave.Write(rec); err != nil {
		t.Fatal(err)
	}

	restored, err := h.engine.RestoreAutosave()
	if err != nil || !restored {
		t.Fatalf("RestoreAutosave = %v, %v", restored, err)
	}
	if len(h.store.tasks) != 1 || h.store.tasks[0].name != "Crashed task" {
		t.Fatalf("store = %+v", h.store.tasks)
	}
	if h.autosave.Exists() {
		t.Error("autosave not deleted after restore")
	}
	p, ok := h.engine.Prompt()
	if !ok || p.Kind != AutosaveRestored || p.Restored.TaskName != "Crashed task" {
		t.Errorf("prompt = %+v, %v", p, ok)
	}
	if err := h.engine.DismissNotice(); err != nil {
		t.Errorf("DismissNotice: %v", err)
	}
}

func TestRestoreSkippedWhenDisabled(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyAutosave: false})
	h.autosave.Write(autosave.Record{TaskName: "x", StartTime: t0, StopTime: t0})

	restored, err := h.engine.RestoreAutosave()
	if err != nil || restored {
		t.Errorf("RestoreAutosave = %v, %v", restored, err)
	}
	if !h.autosave.Exists() {
		t.Error("autosave removed while autosave is disabled")
	}
}

func TestDuplicate(t *testing.T) {
	h := newHarness(t, fakeSettings{})
	task := models.Task{Name: "Review PR", Tags: []string{"code", "review"}}

	if err := h.engine.Duplicate(task); err != nil {
		t.Fatalf("Duplicate: %v", err)
	}
	if h.engine.Input() != "Review PR #code #review" || !h.engine.Running() {
		t.Errorf("input = %q running = %v", h.engine.Input(), h.engine.Running())
	}
	if err := h.engine.Duplicate(task); !errors.Is(err, ErrTimerRunning) {
		t.Errorf("Duplicate while running = %v", err)
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[int]string{
		0:     "00:00:00",
		59:    "00:00:59",
		3661:  "01:01:01",
		36000: "10:00:00",
		-5:    "00:00:00",
	}
	for secs, want := range tests {
		if got := FormatClock(secs); got != want {
			t.Errorf("FormatClock(%d) = %q, want %q", secs, got, want)
		}
	}
}

func TestToggleAndSnapshot(t *testing.T) {
	h := newHarness(t, fakeSettings{config.KeyPomodoro: true, config.KeyPomodoroTime: 2})
	h.engine.SetInput("Plan")
	if err := h.engine.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	h.tick()

	snap := h.engine.Snapshot()
	if snap.Mode != Pomodoro || !snap.Running || snap.Counter != 119*time.Second || !snap.Start.Equal(t0) {
		t.Errorf("snapshot = %+v", snap)
	}
	if h.engine.Elapsed() != time.Second {
		t.Errorf("Elapsed() = %v, want 1s", h.engine.Elapsed())
	}

	if err := h.engine.Toggle(); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if h.engine.Running() || len(h.store.tasks) != 1 {
		t.Error("second Toggle did not stop and record")
	}
	if (h.engine.Snapshot() != TimerState{Start: t0}) {
		t.Errorf("snapshot at rest = %+v", h.engine.Snapshot())
	}
}
