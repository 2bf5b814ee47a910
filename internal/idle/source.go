package idle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mutterService = "org.gnome.Mutter.IdleMonitor"
	mutterPath    = "/org/gnome/Mutter/IdleMonitor/Core"
	mutterMethod  = mutterService + ".GetIdletime"

	serviceUnknown = "org.freedesktop.DBus.Error.ServiceUnknown"
)

// ErrNoIdleMonitor is returned while the bus has no idle monitor and the
// source is waiting before it asks again.
var ErrNoIdleMonitor = errors.New("idle monitor not on session bus")

// DBusSource asks the GNOME Mutter idle monitor on the session bus.
// The connection is opened on first use and reopened after a failure. When
// the bus has no idle monitor, the connection is kept and the source stays
// quiet for a backoff period.
type DBusSource struct {
	conn    *dbus.Conn
	timeout time.Duration
	backoff time.Duration
	retryAt time.Time
	now     func() time.Time
}

func NewDBusSource() *DBusSource {
	return &DBusSource{
		timeout: 250 * time.Millisecond,
		backoff: time.Minute,
		now:     time.Now,
	}
}

func (s *DBusSource) IdleSeconds() (uint64, error) {
	if s.now().Before(s.retryAt) {
		return 0, ErrNoIdleMonitor
	}
	if s.conn == nil {
		conn, err := dbus.ConnectSessionBus()
		if err != nil {
			return 0, fmt.Errorf("connect session bus: %w", err)
		}
		s.conn = conn
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	var millis uint64
	obj := s.conn.Object(mutterService, dbus.ObjectPath(mutterPath))
	if err := obj.CallWithContext(ctx, mutterMethod, 0).Store(&millis); err != nil {
		if isServiceUnknown(err) {
			s.retryAt = s.now().Add(s.backoff)
			return 0, fmt.Errorf("%w: %w", ErrNoIdleMonitor, err)
		}
		s.conn.Close()
		s.conn = nil
		return 0, fmt.Errorf("query idle monitor: %w", err)
	}
	return millis / 1000, nil
}

// isServiceUnknown reports whether the bus answered that nothing owns the
// requested name.
func isServiceUnknown(err error) bool {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) {
		return dbusErr.Name == serviceUnknown
	}
	var dbusErrPtr *dbus.Error
	if errors.As(err, &dbusErrPtr) && dbusErrPtr != nil {
		return dbusErrPtr.Name == serviceUnknown
	}
	return false
}

// Close releases the bus connection, if any.
func (s *DBusSource) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// StubSource never reports idle time, for hosts without an idle monitor.
type StubSource struct{}

func (StubSource) IdleSeconds() (uint64, error) { return 0, nil }
