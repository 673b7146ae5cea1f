package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrhub/ocr-gateway/config"
	"github.com/ocrhub/ocr-gateway/internal/entity"
	"github.com/ocrhub/ocr-gateway/internal/recognition"
)

// stubOCRService records the input it saw and returns a canned envelope.
type stubOCRService struct {
	lastKind entity.InputKind
	envelope *entity.Envelope
}

func (s *stubOCRService) Recognize(_ context.Context, input entity.ImageInput, _ recognition.Options) *entity.Envelope {
	s.lastKind = input.Kind()
	if s.envelope != nil {
		return s.envelope
	}
	return entity.OK(&entity.RecognitionResult{Text: "recognized", Type: "text"})
}

type stubBatchService struct {
	task *entity.Task
}

func (s *stubBatchService) CreateTask(zipData []byte, filename string) (*entity.TaskCreatedResponse, error) {
	return &entity.TaskCreatedResponse{TaskID: "task-1", Status: entity.TaskPending, Message: "ZIP OCR task created"}, nil
}

func (s *stubBatchService) GetTask(id string) (*entity.Task, error) {
	if s.task == nil {
		return nil, entity.ErrTaskNotFound
	}
	return s.task, nil
}

func (s *stubBatchService) TaskContent(id string) (string, error) {
	return "page one\n\npage two", nil
}

func newTestRouter(ocr *stubOCRService, batch *stubBatchService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	accounts := []config.AccountConfig{
		{Name: "default", Token: "secret-token", Enabled: true},
	}
	return InitRoutes(NewOCRHandler(ocr, accounts), NewBatchHandler(batch))
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) *entity.Envelope {
	t.Helper()
	var env entity.Envelope
	require.NoError(t, json.Unmarshal(body.Bytes(), &env))
	return &env
}

func TestRecognizeURLEndpoint(t *testing.T) {
	stub := &stubOCRService{}
	router := newTestRouter(stub, &stubBatchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/url",
		strings.NewReader(`{"url":"https://example.com/scan.png"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body)
	assert.True(t, env.Success)
	assert.Equal(t, "recognized", env.Data.Text)
	assert.Equal(t, entity.InputURL, stub.lastKind)
}

func TestRecognizeURLEndpointRejectsMalformedBody(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	tests := []struct {
		name string
		body string
	}{
		{name: "invalid json", body: `{"url":`},
		{name: "missing url field", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/ocr/url", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRecognizeBase64Endpoint(t *testing.T) {
	stub := &stubOCRService{}
	router := newTestRouter(stub, &stubBatchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/base64",
		strings.NewReader(`{"image":"aGVsbG8="}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.InputBase64, stub.lastKind)
}

func TestRecognizeDomainFailureStaysHTTP200(t *testing.T) {
	stub := &stubOCRService{
		envelope: entity.Fail(entity.NewError(entity.CodeDecodeError, "invalid base64 image data")),
	}
	router := newTestRouter(stub, &stubBatchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/base64",
		strings.NewReader(`{"image":"not-base64!!"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	// domain failures keep HTTP 200, the envelope carries the error
	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w.Body)
	assert.False(t, env.Success)
	assert.Equal(t, entity.CodeDecodeError, env.Error.Code)
}

func multipartBody(t *testing.T, field, filename string, data []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	for k, v := range extra {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestRecognizeUploadEndpoint(t *testing.T) {
	stub := &stubOCRService{}
	router := newTestRouter(stub, &stubBatchService{})

	body, contentType := multipartBody(t, "image", "scan.png", []byte{1, 2, 3}, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.InputUpload, stub.lastKind)
}

func TestRecognizeUploadEndpointWithoutFile(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/upload", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecognizeProxyUploadEndpoint(t *testing.T) {
	stub := &stubOCRService{}
	router := newTestRouter(stub, &stubBatchService{})

	body, contentType := multipartBody(t, "image", "scan.png", []byte{1, 2, 3},
		map[string]string{"proxyTarget": "https://proxy.example.com/upload"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/proxy-upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, entity.InputProxyUpload, stub.lastKind)
}

func TestRecognizeProxyUploadRequiresTarget(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	body, contentType := multipartBody(t, "image", "scan.png", []byte{1, 2, 3}, nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/proxy-upload", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAccountsEndpointHidesCredentials(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/accounts", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"default"`)
	assert.NotContains(t, w.Body.String(), "secret-token")
}

func TestCreateZipTaskEndpoint(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	body, contentType := multipartBody(t, "file", "pages.zip", []byte("PK"), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/zip/ocr", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), "task-1")
}

func TestCreateZipTaskRejectsNonZip(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	body, contentType := multipartBody(t, "file", "pages.rar", []byte("Rar!"), nil)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/zip/ocr", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTaskEndpoint(t *testing.T) {
	batch := &stubBatchService{task: &entity.Task{ID: "task-1", Status: entity.TaskCompleted}}
	router := newTestRouter(&stubOCRService{}, batch)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/zip/ocr/task-1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed"`)
}

func TestGetTaskEndpointNotFound(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/zip/ocr/missing", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTaskContentEndpoint(t *testing.T) {
	batch := &stubBatchService{task: &entity.Task{ID: "task-1", Status: entity.TaskCompleted}}
	router := newTestRouter(&stubOCRService{}, batch)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/zip/ocr/task-1/content", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "page one\n\npage two", w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(&stubOCRService{}, &stubBatchService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ok"`)
}
