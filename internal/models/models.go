package models

import (
	"strings"
	"time"
)

// Task is a finished, recorded stretch of work
type Task struct {
	ID        int64
	Name      string
	Tags      []string // lowercase, de-duplicated, in first-seen order
	StartTime time.Time
	StopTime  time.Time
}

// Duration returns the recorded length of the task
func (t Task) Duration() time.Duration {
	return t.StopTime.Sub(t.StartTime)
}

// TagList returns the tags in their stored form ("a #b #c")
func (t Task) TagList() string {
	return strings.Join(t.Tags, " #")
}
