package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/r3pll/Furtherance/internal/db"
	"github.com/r3pll/Furtherance/internal/timer"
	"github.com/r3pll/Furtherance/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewTimer View = iota
	ViewAddTask
)

type App struct {
	db          *db.DB
	settings    timer.Settings
	currentView View
	timerView   *views.TimerView
	addTask     *views.AddTaskView
	width       int
	height      int
}

// NewApp creates the application around an engine the caller has built.
func NewApp(database *db.DB, engine *timer.Engine, settings timer.Settings, logger *log.Logger) *App {
	return &App{
		db:          database,
		settings:    settings,
		currentView: ViewTimer,
		timerView:   views.NewTimerView(database, engine, settings, logger),
	}
}

func (a *App) Init() tea.Cmd {
	return a.timerView.Init()
}

func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// The timer view persists, keep its size current
		a.timerView.Update(msg)
		if a.addTask != nil {
			a.addTask.Update(msg)
		}
		return a, nil

	case views.OpenAddTask:
		a.currentView = ViewAddTask
		a.addTask = views.NewAddTaskView(a.db, a.settings)
		return a, tea.Batch(a.addTask.Init(), a.resize())

	case views.BackToTimer:
		a.currentView = ViewTimer
		a.addTask = nil
		return a, nil

	case views.TaskAdded:
		a.currentView = ViewTimer
		a.addTask = nil

	case views.PromptRaised:
		// Prompts are answered on the timer view
		a.currentView = ViewTimer
		a.addTask = nil
		return a, nil

	case tea.KeyMsg:
		if a.currentView == ViewAddTask && a.addTask != nil {
			_, cmd := a.addTask.Update(msg)
			return a, cmd
		}
		_, cmd := a.timerView.Update(msg)
		return a, cmd
	}

	// Ticks and loads belong to the timer view even while the form is open
	_, cmd := a.timerView.Update(msg)
	if a.currentView == ViewAddTask && a.addTask != nil {
		var formCmd tea.Cmd
		_, formCmd = a.addTask.Update(msg)
		cmd = tea.Batch(cmd, formCmd)
	}
	return a, cmd
}

func (a *App) View() string {
	if a.currentView == ViewAddTask && a.addTask != nil {
		return a.addTask.View()
	}
	return a.timerView.View()
}
