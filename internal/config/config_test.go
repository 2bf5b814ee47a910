package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func loadTemp(t *testing.T) (*Settings, string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	path := filepath.Join(dir, "conf", "settings.yaml")
	s, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s, path
}

func TestLoadCreatesDefaults(t *testing.T) {
	s, path := loadTemp(t)

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}

	if s.GetBool(KeyPomodoro) {
		t.Error("pomodoro enabled by default")
	}
	if got := s.GetInt(KeyPomodoroTime); got != 25 {
		t.Errorf("pomodoro-time = %d, want 25", got)
	}
	if got := s.GetInt(KeyAutosaveTime); got != 5 {
		t.Errorf("autosave-time = %d, want 5", got)
	}
	if !s.GetBool(KeyNotifyOfIdle) || s.GetInt(KeyIdleTime) != 6 {
		t.Error("idle defaults wrong")
	}
	if !s.GetBool(KeyShowSeconds) {
		t.Error("show-seconds disabled by default")
	}
	if db := s.GetString(KeyDatabase); !strings.HasSuffix(db, filepath.Join("furtherance", "furtherance.db")) {
		t.Errorf("database = %q", db)
	}
}

func TestSetPersists(t *testing.T) {
	s, path := loadTemp(t)

	if err := s.Set(KeyPomodoro, "true"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(KeyPomodoroTime, "50"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !s.GetBool(KeyPomodoro) || s.GetInt(KeyPomodoroTime) != 50 {
		t.Error("Set not visible through getters")
	}

	reloaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.GetBool(KeyPomodoro) || reloaded.GetInt(KeyPomodoroTime) != 50 {
		t.Error("Set not persisted to the file")
	}
	if v, _ := reloaded.Get(KeyPomodoroTime); v != "50" {
		t.Errorf("Get = %q, want 50", v)
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	s, _ := loadTemp(t)

	if err := s.Set("colour", "blue"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
	if err := s.Set(KeyAutosave, "sometimes"); err == nil {
		t.Error("accepted a non-boolean")
	}
	if err := s.Set(KeyIdleTime, "ten"); err == nil {
		t.Error("accepted a non-integer")
	}
	if err := s.Set(KeyIdleTime, "-1"); err == nil {
		t.Error("accepted a negative duration")
	}
	if s.GetInt(KeyIdleTime) != 6 {
		t.Error("rejected value changed the setting")
	}
	if _, err := s.Get("colour"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Get unknown key error = %v", err)
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	dir, err := DataDir()
	if err != nil {
		t.Fatal(err)
	}
	if dir != filepath.Join("/tmp/xdg", "furtherance") {
		t.Errorf("DataDir() = %q", dir)
	}

	path, _ := AutosavePath()
	if path != filepath.Join("/tmp/xdg", "furtherance", "furtherance_autosave.txt") {
		t.Errorf("AutosavePath() = %q", path)
	}
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	if len(keys) != 8 || keys[0] != KeyAutosave {
		t.Errorf("Keys() = %v", keys)
	}
}
