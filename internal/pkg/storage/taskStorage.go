package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

// TaskStorage persists batch OCR task state and per-page text under the
// data directory: <base>/<task-id>/task.json plus <base>/<task-id>/NNNN.txt.
type TaskStorage interface {
	SaveTask(task *entity.Task) error
	LoadTask(id string) (*entity.Task, error)
	SavePage(taskID, name, content string) error
	ReadPage(taskID, name string) (string, error)
}

type taskStorage struct {
	basePath string
}

func NewTaskStorage(basePath string) TaskStorage {
	return &taskStorage{basePath: basePath}
}

func (s *taskStorage) taskDir(id string) string {
	return filepath.Join(s.basePath, id)
}

func (s *taskStorage) SaveTask(task *entity.Task) error {
	dir := s.taskDir(task.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, "task.json"), data, 0644)
}

func (s *taskStorage) LoadTask(id string) (*entity.Task, error) {
	data, err := os.ReadFile(filepath.Join(s.taskDir(id), "task.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var task entity.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}

	return &task, nil
}

func (s *taskStorage) SavePage(taskID, name, content string) error {
	dir := s.taskDir(taskID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+".txt"), []byte(content), 0644)
}

func (s *taskStorage) ReadPage(taskID, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.taskDir(taskID), name+".txt"))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
