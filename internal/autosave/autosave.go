// Package autosave keeps a recovery copy of the running task on disk so a
// crash or forced shutdown loses at most one autosave interval of work.
//
// The file is plain text with four lines: task name, start time (RFC 3339),
// stop time (RFC 3339) and tag list. The last line has no trailing newline.
package autosave

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// FileName is the recovery file's name inside the data directory.
const FileName = "furtherance_autosave.txt"

// ErrMalformed is returned when the recovery file has fewer than three lines.
var ErrMalformed = errors.New("malformed autosave file")

// Record is the in-progress task as last saved.
type Record struct {
	TaskName  string
	StartTime time.Time
	StopTime  time.Time
	TagList   string
}

// DefaultPath returns the recovery file location inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// Persister reads and writes the recovery file.
type Persister struct {
	path string
	log  *log.Logger
}

func New(path string, logger *log.Logger) *Persister {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Persister{path: path, log: logger}
}

func (p *Persister) Path() string {
	return p.path
}

// Write replaces the recovery file with r. The content goes to a temporary
// file first and is renamed into place, so a crash mid-write leaves the
// previous autosave intact.
func (p *Persister) Write(r Record) error {
	dir := filepath.Dir(p.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create autosave directory: %w", err)
	}

	content := strings.Join([]string{
		r.TaskName,
		r.StartTime.Format(time.RFC3339Nano),
		r.StopTime.Format(time.RFC3339Nano),
		r.TagList,
	}, "\n")

	tmp, err := os.CreateTemp(dir, ".autosave-*")
	if err != nil {
		return fmt.Errorf("create autosave: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write autosave: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write autosave: %w", err)
	}
	if err := os.Rename(tmp.Name(), p.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace autosave: %w", err)
	}

	p.log.Debug("Autosave written", "task", r.TaskName, "stop", r.StopTime.Format(time.RFC3339))
	return nil
}

// Read loads the recovery file. A missing tag line reads as no tags; fewer
// than three lines is ErrMalformed.
func (p *Persister) Read() (Record, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return Record{}, fmt.Errorf("read autosave: %w", err)
	}

	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if text == "" {
		lines = nil
	}
	if len(lines) < 3 {
		return Record{}, fmt.Errorf("%w: %d of 4 fields", ErrMalformed, len(lines))
	}
	if len(lines) == 3 {
		lines = append(lines, "")
	}

	start, err := time.Parse(time.RFC3339, lines[1])
	if err != nil {
		return Record{}, fmt.Errorf("parse autosave start time: %w", err)
	}
	stop, err := time.Parse(time.RFC3339, lines[2])
	if err != nil {
		return Record{}, fmt.Errorf("parse autosave stop time: %w", err)
	}

	return Record{
		TaskName:  lines[0],
		StartTime: start,
		StopTime:  stop,
		TagList:   lines[3],
	}, nil
}

// Delete removes the recovery file. A missing file is not an error.
func (p *Persister) Delete() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete autosave: %w", err)
	}
	return nil
}

// Exists reports whether a recovery file is waiting to be restored.
func (p *Persister) Exists() bool {
	_, err := os.Stat(p.path)
	return err == nil
}
