package db

import (
	"time"

	"github.com/r3pll/Furtherance/internal/models"
	"github.com/r3pll/Furtherance/internal/tags"
)

const taskColumns = "id, task_name, start_time, stop_time, tags"

// WriteTask stores a finished task. Times are kept as UTC RFC 3339 text so
// they sort correctly.
func (db *DB) WriteTask(name string, start, stop time.Time, tagList string) error {
	_, err := db.CreateTask(name, start, stop, tagList)
	return err
}

// CreateTask stores a finished task and returns it with its new ID
func (db *DB) CreateTask(name string, start, stop time.Time, tagList string) (*models.Task, error) {
	result, err := db.Exec(`
		INSERT INTO tasks (task_name, start_time, stop_time, tags) VALUES (?, ?, ?, ?)
	`, name, start.UTC().Format(time.RFC3339), stop.UTC().Format(time.RFC3339), tagList)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetTask(id)
}

// GetTask retrieves a task by ID
func (db *DB) GetTask(id int64) (*models.Task, error) {
	row := db.QueryRow("SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	return scanTask(row)
}

// ListTasks returns the most recently started tasks first. A limit of zero
// or less returns every task.
func (db *DB) ListTasks(limit int) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks ORDER BY start_time DESC, id DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// HasAnyTask reports whether at least one task is stored. A failed query
// reads as an empty history.
func (db *DB) HasAnyTask() bool {
	var one int
	err := db.QueryRow("SELECT 1 FROM tasks LIMIT 1").Scan(&one)
	return err == nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(s scanner) (*models.Task, error) {
	var (
		t           models.Task
		start, stop string
		tagList     string
	)
	if err := s.Scan(&t.ID, &t.Name, &start, &stop, &tagList); err != nil {
		return nil, err
	}

	var err error
	if t.StartTime, err = time.Parse(time.RFC3339, start); err != nil {
		return nil, err
	}
	if t.StopTime, err = time.Parse(time.RFC3339, stop); err != nil {
		return nil, err
	}
	t.Tags = tags.Split(tagList)
	return &t, nil
}
