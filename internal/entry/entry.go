// Package entry validates tasks typed in by hand, as opposed to ones
// produced by the running timer.
package entry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/r3pll/Furtherance/internal/tags"
)

var (
	ErrNameBlank      = errors.New("task name cannot be empty")
	ErrTimeFormat     = errors.New("time is not in the expected format")
	ErrStartAfterStop = errors.New("start time cannot be later than stop time")
	ErrFuture         = errors.New("times cannot be in the future")
)

const (
	LayoutSeconds = "Jan 02 2006 15:04:05"
	LayoutMinutes = "Jan 02 2006 15:04"
)

// Layout is the time format the user is asked to type.
func Layout(showSeconds bool) string {
	if showSeconds {
		return LayoutSeconds
	}
	return LayoutMinutes
}

// Input is the raw form as typed.
type Input struct {
	Name  string
	Tags  string // "#work #docs"
	Start string
	Stop  string
}

// Entry is a validated task ready for the recorder.
type Entry struct {
	Name    string
	TagList string
	Start   time.Time
	Stop    time.Time
}

// Validate checks every rule and reports all violations together, joined in
// a fixed order: blank name, bad format, start after stop, future time.
// Times are read in now's location.
func Validate(in Input, now time.Time, showSeconds bool) (Entry, error) {
	var errs []error
	layout := Layout(showSeconds)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		errs = append(errs, ErrNameBlank)
	}

	start, startErr := time.ParseInLocation(layout, strings.TrimSpace(in.Start), now.Location())
	stop, stopErr := time.ParseInLocation(layout, strings.TrimSpace(in.Stop), now.Location())
	if startErr != nil || stopErr != nil {
		errs = append(errs, fmt.Errorf("%w: use %s", ErrTimeFormat, layout))
	} else {
		if start.After(stop) {
			errs = append(errs, ErrStartAfterStop)
		}
		if start.After(now) || stop.After(now) {
			errs = append(errs, ErrFuture)
		}
	}

	if len(errs) > 0 {
		return Entry{}, errors.Join(errs...)
	}
	return Entry{
		Name:    name,
		TagList: tags.NormalizeTags(in.Tags),
		Start:   start,
		Stop:    stop,
	}, nil
}

// Messages flattens a Validate error into one line per violation.
func Messages(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, e.Error())
		}
		return out
	}
	return []string{err.Error()}
}
