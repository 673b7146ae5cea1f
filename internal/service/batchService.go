package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ocrhub/ocr-gateway/internal/entity"
	"github.com/ocrhub/ocr-gateway/internal/recognition"
)

var pageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// CreateTask registers a batch ZIP OCR task and kicks off background
// processing. The ZIP is validated up front, everything else happens
// asynchronously and is observable through GetTask.
func (s *batchService) CreateTask(zipData []byte, filename string) (*entity.TaskCreatedResponse, error) {
	zr, err := zip.NewReader(bytes.NewReader(zipData), int64(len(zipData)))
	if err != nil {
		return nil, entity.WrapError(entity.CodeDecodeError, "invalid ZIP archive", err)
	}

	task := &entity.Task{
		ID:        uuid.New().String(),
		Filename:  filename,
		Status:    entity.TaskPending,
		Results:   []entity.PageResult{},
		Errors:    []entity.PageError{},
		CreatedAt: time.Now(),
	}
	if err := s.store.SaveTask(task); err != nil {
		return nil, err
	}

	go s.process(task, zr)

	return &entity.TaskCreatedResponse{
		TaskID:  task.ID,
		Status:  task.Status,
		Message: "ZIP OCR task created",
	}, nil
}

func (s *batchService) GetTask(id string) (*entity.Task, error) {
	task, err := s.store.LoadTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, entity.ErrTaskNotFound
	}
	return task, nil
}

// TaskContent concatenates the page texts of a completed task in page order.
func (s *batchService) TaskContent(id string) (string, error) {
	task, err := s.GetTask(id)
	if err != nil {
		return "", err
	}
	if task.Status != entity.TaskCompleted {
		return "", entity.ErrTaskNotCompleted
	}

	results := make([]entity.PageResult, len(task.Results))
	copy(results, task.Results)
	sort.Slice(results, func(i, j int) bool {
		return results[i].ContentFile < results[j].ContentFile
	})

	parts := make([]string, 0, len(results))
	for _, res := range results {
		content, err := s.store.ReadPage(id, strings.TrimSuffix(res.ContentFile, ".txt"))
		if err != nil {
			logrus.Errorf("failed to read page %s of task %s: %s", res.ContentFile, id, err.Error())
			continue
		}
		parts = append(parts, content)
	}

	return strings.Join(parts, "\n\n"), nil
}

func (s *batchService) process(task *entity.Task, zr *zip.Reader) {
	var mu sync.Mutex

	files := pageEntries(zr)
	task.Status = entity.TaskProcessing
	task.TotalImages = len(files)
	if err := s.store.SaveTask(task); err != nil {
		logrus.Errorf("failed to persist task %s: %s", task.ID, err.Error())
	}

	if len(files) == 0 {
		s.finish(task, entity.TaskFailed, "no image files found in the archive")
		return
	}

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(index int, f *zip.File) {
			defer wg.Done()
			s.pool <- struct{}{}
			defer func() { <-s.pool }()

			s.processPage(task, &mu, index, f)
		}(i, f)
	}
	wg.Wait()

	s.finish(task, entity.TaskCompleted, "")
}

func (s *batchService) processPage(task *entity.Task, mu *sync.Mutex, index int, f *zip.File) {
	data, err := readEntry(f)
	if err == nil && len(data) == 0 {
		err = fmt.Errorf("empty archive entry")
	}

	var env *entity.Envelope
	if err == nil {
		env = s.ocr.Recognize(context.Background(),
			entity.UploadInput(data, f.Name, ""), recognition.Options{})
		if !env.Success {
			err = fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
	}

	prefix := fmt.Sprintf("%04d", index)
	if err == nil {
		if saveErr := s.store.SavePage(task.ID, prefix, env.Data.Text); saveErr != nil {
			err = saveErr
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if err != nil {
		logrus.Errorf("task %s: page %s failed: %s", task.ID, f.Name, err.Error())
		task.Errors = append(task.Errors, entity.PageError{
			Filename:  f.Name,
			Error:     err.Error(),
			Timestamp: time.Now(),
		})
	} else {
		task.Results = append(task.Results, entity.PageResult{
			Filename:    f.Name,
			ContentFile: prefix + ".txt",
			Timestamp:   time.Now(),
		})
		task.ProcessedImages++
	}
	if saveErr := s.store.SaveTask(task); saveErr != nil {
		logrus.Errorf("failed to persist task %s: %s", task.ID, saveErr.Error())
	}
}

func (s *batchService) finish(task *entity.Task, status entity.TaskStatus, errMsg string) {
	now := time.Now()
	task.Status = status
	task.Error = errMsg
	task.CompletedAt = &now
	if err := s.store.SaveTask(task); err != nil {
		logrus.Errorf("failed to persist task %s: %s", task.ID, err.Error())
	}
	logrus.Infof("task %s finished with status %s (%d/%d pages)",
		task.ID, status, task.ProcessedImages, task.TotalImages)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// pageEntries picks image entries in natural sort order, so "2.png"
// comes before "10.png".
func pageEntries(zr *zip.Reader) []*zip.File {
	var files []*zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if pageExtensions[strings.ToLower(filepath.Ext(f.Name))] {
			files = append(files, f)
		}
	}
	sort.Slice(files, func(i, j int) bool {
		return naturalLess(files[i].Name, files[j].Name)
	})
	return files
}

func naturalLess(a, b string) bool {
	ta, tb := naturalTokens(a), naturalTokens(b)
	for i := 0; i < len(ta) && i < len(tb); i++ {
		if ta[i] == tb[i] {
			continue
		}
		na, aErr := strconv.Atoi(ta[i])
		nb, bErr := strconv.Atoi(tb[i])
		if aErr == nil && bErr == nil {
			return na < nb
		}
		return ta[i] < tb[i]
	}
	return len(ta) < len(tb)
}

func naturalTokens(s string) []string {
	s = strings.ToLower(s)
	var tokens []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(rune(s[i])) != isDigit(rune(s[start])) {
			tokens = append(tokens, s[start:i])
			start = i
		}
	}
	return tokens
}

func isDigit(r rune) bool { return unicode.IsDigit(r) }
