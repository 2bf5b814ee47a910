package views

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/r3pll/Furtherance/internal/config"
	"github.com/r3pll/Furtherance/internal/db"
	"github.com/r3pll/Furtherance/internal/entry"
	"github.com/r3pll/Furtherance/internal/models"
	"github.com/r3pll/Furtherance/internal/timer"
	"github.com/r3pll/Furtherance/internal/ui/keys"
	"github.com/r3pll/Furtherance/internal/ui/styles"
)

// TaskAdded is sent after a manual entry has been stored.
type TaskAdded struct {
	Task models.Task
}

// BackToTimer closes the form without saving.
type BackToTimer struct{}

const (
	fieldName = iota
	fieldTags
	fieldStart
	fieldStop
	fieldSubmit
	fieldCount
)

// AddTaskView is the form for entering a finished task by hand.
type AddTaskView struct {
	db       *db.DB
	settings timer.Settings
	styles   *styles.Styles
	keys     keys.KeyMap
	now      func() time.Time

	fields   [fieldSubmit]textinput.Model
	focusIdx int
	errs     []string
	width    int
	height   int
}

func NewAddTaskView(database *db.DB, settings timer.Settings) *AddTaskView {
	v := &AddTaskView{
		db:       database,
		settings: settings,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		now:      time.Now,
	}

	layout := entry.Layout(settings.GetBool(config.KeyShowSeconds))
	now := v.now().Format(layout)

	placeholders := [fieldSubmit]string{"Task name", "#tags", layout, layout}
	for i := range v.fields {
		f := textinput.New()
		f.Placeholder = placeholders[i]
		f.CharLimit = 200
		v.fields[i] = f
	}
	v.fields[fieldStart].SetValue(now)
	v.fields[fieldStop].SetValue(now)
	v.fields[fieldName].Focus()
	return v
}

func (v *AddTaskView) Init() tea.Cmd {
	return textinput.Blink
}

func (v *AddTaskView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Back):
			return v, func() tea.Msg { return BackToTimer{} }

		case key.Matches(msg, v.keys.Save):
			return v, v.submit()

		case key.Matches(msg, v.keys.ShiftTab), key.Matches(msg, v.keys.Up):
			v.focusIdx = (v.focusIdx + fieldCount - 1) % fieldCount
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Down):
			v.focusIdx = (v.focusIdx + 1) % fieldCount
			v.updateFocus()
			return v, nil

		case key.Matches(msg, v.keys.Enter):
			if v.focusIdx == fieldSubmit {
				return v, v.submit()
			}
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
	}

	if v.focusIdx == fieldSubmit {
		return v, nil
	}
	var cmd tea.Cmd
	v.fields[v.focusIdx], cmd = v.fields[v.focusIdx].Update(msg)
	return v, cmd
}

// submit validates every field at once and shows all problems together.
func (v *AddTaskView) submit() tea.Cmd {
	in := entry.Input{
		Name:  v.fields[fieldName].Value(),
		Tags:  v.fields[fieldTags].Value(),
		Start: v.fields[fieldStart].Value(),
		Stop:  v.fields[fieldStop].Value(),
	}
	e, err := entry.Validate(in, v.now(), v.settings.GetBool(config.KeyShowSeconds))
	if err != nil {
		v.errs = entry.Messages(err)
		return nil
	}

	task, err := v.db.CreateTask(e.Name, e.Start, e.Stop, e.TagList)
	if err != nil {
		v.errs = []string{"Could not save task: " + err.Error()}
		return nil
	}
	v.errs = nil
	return func() tea.Msg { return TaskAdded{Task: *task} }
}

func (v *AddTaskView) updateFocus() {
	for i := range v.fields {
		v.fields[i].Blur()
	}
	if v.focusIdx < fieldSubmit {
		v.fields[v.focusIdx].Focus()
	}
}

// View renders the view
func (v *AddTaskView) View() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	labels := [fieldSubmit]string{"Name:", "Tags:", "Start:", "Stop:"}
	rows := []string{s.Title.Render("New Task"), ""}
	for i := range v.fields {
		style := s.Input
		if i == v.focusIdx {
			style = s.InputFocused
		}
		rows = append(rows,
			s.Label.Render(labels[i]),
			style.Width(inputWidth).Render(v.fields[i].View()),
		)
	}

	btnStyle := s.Button
	if v.focusIdx == fieldSubmit {
		btnStyle = s.ButtonFocused
	}
	rows = append(rows, "", btnStyle.Render(" Add "))

	for _, e := range v.errs {
		rows = append(rows, s.StatusError.Render(e))
	}
	rows = append(rows, "", s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"))

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
