package views

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/r3pll/Furtherance/internal/config"
	"github.com/r3pll/Furtherance/internal/db"
	"github.com/r3pll/Furtherance/internal/models"
	"github.com/r3pll/Furtherance/internal/timer"
	"github.com/r3pll/Furtherance/internal/ui/keys"
	"github.com/r3pll/Furtherance/internal/ui/styles"
)

// recentLimit is how many past tasks the timer view offers for repeating.
const recentLimit = 8

// OpenAddTask asks the app to show the manual entry form.
type OpenAddTask struct{}

// PromptRaised tells the app the engine wants an answer from the user.
type PromptRaised struct {
	Prompt timer.Prompt
}

// SettingsChanged is sent when the settings file changes on disk.
type SettingsChanged struct{}

type tickMsg struct {
	id int
}

type tasksLoadedMsg struct {
	tasks    []models.Task
	hasTasks bool
}

type TimerView struct {
	db       *db.DB
	engine   *timer.Engine
	settings timer.Settings
	log      *log.Logger
	styles   *styles.Styles
	keys     keys.KeyMap

	input  textinput.Model
	width  int
	height int

	tasks    []models.Task
	hasTasks bool
	loaded   bool
	selected int

	// tickID identifies the live tick chain; ticks from older chains are dropped.
	tickID int

	status    string
	statusErr bool
}

func NewTimerView(database *db.DB, engine *timer.Engine, settings timer.Settings, logger *log.Logger) *TimerView {
	input := textinput.New()
	input.Placeholder = "Task name #tag #tag"
	input.CharLimit = 200
	input.Focus()

	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TimerView{
		db:       database,
		engine:   engine,
		settings: settings,
		log:      logger,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		input:    input,
	}
}

func (v *TimerView) Init() tea.Cmd {
	if _, err := v.engine.RestoreAutosave(); err != nil {
		v.setError(err)
	}
	return tea.Batch(textinput.Blink, v.loadTasks)
}

func (v *TimerView) loadTasks() tea.Msg {
	tasks, err := v.db.ListTasks(recentLimit)
	if err != nil {
		return err
	}
	return tasksLoadedMsg{tasks: tasks, hasTasks: v.db.HasAnyTask()}
}

func (v *TimerView) tick() tea.Cmd {
	id := v.tickID
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{id: id}
	})
}

// startTicking begins a fresh tick chain, orphaning any earlier one.
func (v *TimerView) startTicking() tea.Cmd {
	v.tickID++
	return v.tick()
}

func (v *TimerView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.input.Width = max(styles.ContentWidth(msg.Width)-8, 10)
		return v, nil

	case tasksLoadedMsg:
		v.tasks = msg.tasks
		v.hasTasks = msg.hasTasks
		v.loaded = true
		if v.selected >= len(v.tasks) {
			v.selected = max(len(v.tasks)-1, 0)
		}
		return v, nil

	case TaskAdded:
		v.setStatus(fmt.Sprintf("Added %q", msg.Task.Name))
		return v, v.loadTasks

	case SettingsChanged:
		return v, nil

	case error:
		v.setError(msg)
		return v, nil

	case tickMsg:
		return v, v.handleTick(msg)

	case tea.KeyMsg:
		if key.Matches(msg, v.keys.Quit) {
			return v, v.quit()
		}
		if p, ok := v.engine.Prompt(); ok {
			return v, v.updatePrompt(p, msg)
		}
		return v, v.updateNormal(msg)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *TimerView) handleTick(msg tickMsg) tea.Cmd {
	if msg.id != v.tickID || !v.engine.Running() {
		return nil
	}

	var cmds []tea.Cmd
	if p := v.engine.Tick(); p != nil {
		prompt := *p
		cmds = append(cmds, func() tea.Msg { return PromptRaised{Prompt: prompt} })
	}
	if v.engine.Running() {
		cmds = append(cmds, v.tick())
	}
	return tea.Batch(cmds...)
}

func (v *TimerView) updateNormal(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Enter):
		return v.toggle()

	case key.Matches(msg, v.keys.New):
		if v.engine.State() != timer.Stopped {
			v.setStatus("Stop the timer to add a task.")
			return nil
		}
		return func() tea.Msg { return OpenAddTask{} }

	case key.Matches(msg, v.keys.Duplicate):
		return v.duplicate()

	case key.Matches(msg, v.keys.Up):
		if v.selected > 0 {
			v.selected--
		}
		return nil

	case key.Matches(msg, v.keys.Down):
		if v.selected < len(v.tasks)-1 {
			v.selected++
		}
		return nil
	}

	if v.engine.State() != timer.Stopped {
		return nil
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	v.engine.SetInput(v.input.Value())
	return cmd
}

func (v *TimerView) updatePrompt(p timer.Prompt, msg tea.KeyMsg) tea.Cmd {
	switch p.Kind {
	case timer.IdleResumed:
		switch {
		case key.Matches(msg, v.keys.Discard):
			return v.afterStop(v.engine.ResolveIdle(timer.IdleDiscard))
		case key.Matches(msg, v.keys.Continue):
			if err := v.engine.ResolveIdle(timer.IdleContinue); err != nil {
				v.setError(err)
			}
		}

	case timer.PomodoroOver:
		switch {
		case key.Matches(msg, v.keys.Stop):
			return v.afterStop(v.engine.ResolvePomodoro(timer.PomodoroStop))
		case key.Matches(msg, v.keys.Continue):
			if err := v.engine.ResolvePomodoro(timer.PomodoroContinue); err != nil {
				v.setError(err)
				return nil
			}
			return v.startTicking()
		}

	case timer.AutosaveRestored:
		v.engine.DismissNotice()
		return v.loadTasks
	}
	return nil
}

func (v *TimerView) toggle() tea.Cmd {
	if v.engine.State() != timer.Stopped {
		return v.afterStop(v.engine.Stop())
	}

	if err := v.engine.SetInput(v.input.Value()); err != nil {
		v.setError(err)
		return nil
	}
	if err := v.engine.Start(); err != nil {
		if errors.Is(err, timer.ErrEmptyTaskName) {
			v.setStatus("Type a task name first.")
		} else {
			v.setError(err)
		}
		return nil
	}
	v.input.Blur()
	v.status = ""
	return v.startTicking()
}

func (v *TimerView) duplicate() tea.Cmd {
	if v.selected >= len(v.tasks) {
		return nil
	}
	err := v.engine.Duplicate(v.tasks[v.selected])
	if errors.Is(err, timer.ErrTimerRunning) {
		v.setStatus("Stop the timer to duplicate a task.")
		return nil
	}
	if err != nil {
		v.setError(err)
		return nil
	}
	v.input.SetValue(v.engine.Input())
	v.input.Blur()
	v.status = ""
	return v.startTicking()
}

// afterStop refreshes the view once a session has ended, successfully or not.
// A failed save keeps the input so the user can try again.
func (v *TimerView) afterStop(err error) tea.Cmd {
	if err != nil {
		v.setError(fmt.Errorf("could not save task: %w", err))
	} else {
		v.setStatus("Task saved.")
	}
	v.input.SetValue(v.engine.Input())
	v.input.Focus()
	return tea.Batch(textinput.Blink, v.loadTasks)
}

// quit records a session in progress before leaving.
func (v *TimerView) quit() tea.Cmd {
	if v.engine.State() != timer.Stopped {
		if err := v.engine.Stop(); err != nil {
			v.log.Error("Could not save task on exit", "error", err)
		}
	}
	return tea.Quit
}

func (v *TimerView) setStatus(s string) {
	v.status = s
	v.statusErr = false
}

func (v *TimerView) setError(err error) {
	v.status = err.Error()
	v.statusErr = true
}

// View renders the view
func (v *TimerView) View() string {
	if p, ok := v.engine.Prompt(); ok {
		return v.renderPrompt(p)
	}

	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	inputStyle := s.Input
	if v.input.Focused() {
		inputStyle = s.InputFocused
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("Furtherance"),
		"",
		v.renderClock(),
		"",
		inputStyle.Width(max(contentWidth-4, 14)).Render(v.input.View()),
		v.renderStatus(),
		"",
		v.renderTasks(),
		v.renderHelp(),
	)

	return styles.CenterView(content, v.width, v.height)
}

func (v *TimerView) renderClock() string {
	s := v.styles
	text := v.engine.Display()
	switch v.engine.State() {
	case timer.RunningStopwatch, timer.RunningPomodoro:
		return s.ClockRunning.Render(text)
	case timer.PomodoroExpired:
		return s.ClockAlert.Render(text)
	}
	return s.Clock.Render(text)
}

func (v *TimerView) renderStatus() string {
	if v.status == "" {
		return ""
	}
	if v.statusErr {
		return v.styles.StatusError.Render(v.status)
	}
	return v.styles.Status.Render(v.status)
}

func (v *TimerView) renderTasks() string {
	s := v.styles
	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}
	if !v.hasTasks {
		return lipgloss.JoinVertical(lipgloss.Center,
			s.Title.Render("Track your time without being tracked"),
			s.TitleMuted.Render("Type a task and press enter to start"),
		)
	}

	showSeconds := v.settings.GetBool(config.KeyShowSeconds)
	width := max(styles.ContentWidth(v.width)-4, 20)
	lines := []string{s.TitleMuted.Render("Recent")}
	for i, t := range v.tasks {
		style := s.ListItem
		if i == v.selected {
			style = s.ListSelected
		}
		line := t.Name
		if len(t.Tags) > 0 {
			line += " " + s.Tag.Render("#"+strings.Join(t.Tags, " #"))
		}
		line += "  " + s.Duration.Render(formatDuration(t.Duration(), showSeconds))
		line += "  " + s.TitleMuted.Render(t.StartTime.Local().Format("Jan 02 15:04"))
		lines = append(lines, style.Width(width).Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TimerView) renderHelp() string {
	s := v.styles
	var bindings []key.Binding
	if v.engine.State() == timer.Stopped {
		bindings = []key.Binding{v.keys.Enter, v.keys.Duplicate, v.keys.New, v.keys.Quit}
	} else {
		bindings = []key.Binding{v.keys.Enter, v.keys.Quit}
	}

	items := make([]string, len(bindings))
	for i, b := range bindings {
		items[i] = s.HelpKey.Render(b.Help().Key) + " " + b.Help().Desc
	}
	return s.Help.Render(strings.Join(items, " • "))
}

func (v *TimerView) renderPrompt(p timer.Prompt) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	var content string
	switch p.Kind {
	case timer.IdleResumed:
		idle := timer.FormatClock(int(p.IdleDuration / time.Second))
		content = lipgloss.JoinVertical(lipgloss.Center,
			s.Title.Render("Idle"),
			"",
			fmt.Sprintf("You have been idle for %s.", idle),
			s.TitleMuted.Render("Discard that time, or continue the clock?"),
			"",
			lipgloss.JoinHorizontal(lipgloss.Center,
				s.ButtonPrimary.Render(" D - Discard "),
				"  ",
				s.Button.Render(" C - Continue "),
			),
		)

	case timer.PomodoroOver:
		content = lipgloss.JoinVertical(lipgloss.Center,
			s.Title.Foreground(styles.Current.Warning).Render("Time's up!"),
			"",
			s.TitleMuted.Render("Are you ready to take a break?"),
			"",
			lipgloss.JoinHorizontal(lipgloss.Center,
				s.ButtonPrimary.Render(" S - Stop "),
				"  ",
				s.Button.Render(" C - Continue "),
			),
		)

	case timer.AutosaveRestored:
		content = lipgloss.JoinVertical(lipgloss.Center,
			s.Title.Render("Autosave Restored"),
			"",
			fmt.Sprintf("Furtherance shut down improperly. %q was saved.", p.Restored.TaskName),
			"",
			s.TitleMuted.Render("Press any key to close"),
		)
	}

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func formatDuration(d time.Duration, showSeconds bool) string {
	secs := int(d / time.Second)
	if showSeconds {
		return timer.FormatClock(secs)
	}
	return fmt.Sprintf("%02d:%02d", secs/3600, secs%3600/60)
}
