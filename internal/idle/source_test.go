package idle

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/godbus/dbus/v5"
)

func TestIsServiceUnknown(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"value", dbus.Error{Name: serviceUnknown}, true},
		{"pointer", &dbus.Error{Name: serviceUnknown}, true},
		{"wrapped", fmt.Errorf("call: %w", dbus.Error{Name: serviceUnknown}), true},
		{"other bus error", dbus.Error{Name: "org.freedesktop.DBus.Error.NoReply"}, false},
		{"plain", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isServiceUnknown(tt.err); got != tt.want {
				t.Errorf("isServiceUnknown(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDBusSourceWaitsOutBackoff(t *testing.T) {
	now := t0
	s := NewDBusSource()
	s.now = func() time.Time { return now }
	s.retryAt = t0.Add(time.Minute)

	for i := 0; i < 3; i++ {
		now = now.Add(time.Second)
		if _, err := s.IdleSeconds(); !errors.Is(err, ErrNoIdleMonitor) {
			t.Fatalf("IdleSeconds error = %v, want ErrNoIdleMonitor", err)
		}
	}
	if s.conn != nil {
		t.Error("connected to the bus during backoff")
	}
}

func TestNewDBusSourceShortTimeout(t *testing.T) {
	s := NewDBusSource()
	if s.timeout > time.Second {
		t.Errorf("timeout = %v, want well under the one second tick", s.timeout)
	}
	if s.backoff <= 0 {
		t.Errorf("backoff = %v, want positive", s.backoff)
	}
}
