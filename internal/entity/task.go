package entity

import (
	"errors"
	"time"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskNotCompleted = errors.New("task is not completed yet")
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Task tracks a batch ZIP OCR job. Page text lives in separate content
// files next to the task metadata, the task itself stays small.
type Task struct {
	ID              string       `json:"id"`
	Filename        string       `json:"filename"`
	Status          TaskStatus   `json:"status"`
	TotalImages     int          `json:"total_images"`
	ProcessedImages int          `json:"processed_images"`
	Results         []PageResult `json:"results"`
	Errors          []PageError  `json:"errors"`
	Error           string       `json:"error,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	CompletedAt     *time.Time   `json:"completed_at"`
}

type PageResult struct {
	Filename    string    `json:"filename"`
	ContentFile string    `json:"content_file"`
	Timestamp   time.Time `json:"timestamp"`
}

type PageError struct {
	Filename  string    `json:"filename"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type TaskCreatedResponse struct {
	TaskID  string     `json:"task_id"`
	Status  TaskStatus `json:"status"`
	Message string     `json:"message"`
}
