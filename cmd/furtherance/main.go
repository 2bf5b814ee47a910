package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/r3pll/Furtherance/internal/autosave"
	"github.com/r3pll/Furtherance/internal/config"
	"github.com/r3pll/Furtherance/internal/db"
	"github.com/r3pll/Furtherance/internal/idle"
	"github.com/r3pll/Furtherance/internal/timer"
	"github.com/r3pll/Furtherance/internal/ui"
	"github.com/r3pll/Furtherance/internal/ui/views"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "furtherance",
		Short:        "Track your time without being tracked",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE:         runTUI,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/furtherance/settings.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "log debug messages")

	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger writes to furtherance.log in the data directory, since the TUI
// owns the terminal.
func newLogger() (*log.Logger, func(), error) {
	dataDir, err := config.DataDir()
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "furtherance.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "furtherance",
	})
	logger.SetLevel(log.InfoLevel)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, func() { f.Close() }, nil
}

// app bundles what every command that touches tasks needs.
type app struct {
	log      *log.Logger
	settings *config.Settings
	db       *db.DB
	close    func()
}

func openApp() (*app, error) {
	logger, closeLog, err := newLogger()
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(configPath, logger)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("load settings: %w", err)
	}
	database, err := db.Open(settings.GetString(config.KeyDatabase))
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	return &app{
		log:      logger,
		settings: settings,
		db:       database,
		close: func() {
			database.Close()
			closeLog()
		},
	}, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	autosavePath, err := config.AutosavePath()
	if err != nil {
		return err
	}

	src := idle.NewDBusSource()
	defer src.Close()

	engine := timer.New(timer.Options{
		Settings: a.settings,
		Recorder: timer.NewRecorder(a.db, a.log),
		Idle:     idle.NewTracker(src, a.log.WithPrefix("idle")),
		Autosave: autosave.New(autosavePath, a.log.WithPrefix("autosave")),
		Logger:   a.log.WithPrefix("timer"),
	})

	p := tea.NewProgram(ui.NewApp(a.db, engine, a.settings, a.log), tea.WithAltScreen())
	a.settings.Watch(func() {
		p.Send(views.SettingsChanged{})
	})

	a.log.Info("Starting", "version", version)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run application: %w", err)
	}
	return nil
}
