package service

import (
	"context"

	"github.com/ocrhub/ocr-gateway/internal/database"
	"github.com/ocrhub/ocr-gateway/internal/entity"
	"github.com/ocrhub/ocr-gateway/internal/normalize"
	"github.com/ocrhub/ocr-gateway/internal/pkg/storage"
	"github.com/ocrhub/ocr-gateway/internal/recognition"
	"github.com/ocrhub/ocr-gateway/internal/source"
)

// OCRService is the request dispatcher: it resolves the image source,
// normalizes the bytes, calls the recognition backend and maps the outcome
// into the uniform envelope. It always returns an envelope; domain failures
// never surface as transport errors.
type OCRService interface {
	Recognize(ctx context.Context, input entity.ImageInput, opts recognition.Options) *entity.Envelope
}

// BatchService runs ZIP batch OCR tasks in the background.
type BatchService interface {
	CreateTask(zipData []byte, filename string) (*entity.TaskCreatedResponse, error)
	GetTask(id string) (*entity.Task, error)
	TaskContent(id string) (string, error)
}

type ocrService struct {
	resolver   *source.Resolver
	normalizer *normalize.Normalizer
	recognizer recognition.Recognizer
	cache      database.ResultCache
}

// NewOCRService wires the dispatcher. cache may be nil, which disables
// result caching.
func NewOCRService(resolver *source.Resolver, normalizer *normalize.Normalizer,
	recognizer recognition.Recognizer, cache database.ResultCache) OCRService {
	return &ocrService{
		resolver:   resolver,
		normalizer: normalizer,
		recognizer: recognizer,
		cache:      cache,
	}
}

type batchService struct {
	ocr   OCRService
	store storage.TaskStorage
	pool  chan struct{}
}

func NewBatchService(ocr OCRService, store storage.TaskStorage, poolSize int) BatchService {
	if poolSize <= 0 {
		poolSize = 10
	}
	return &batchService{
		ocr:   ocr,
		store: store,
		pool:  make(chan struct{}, poolSize),
	}
}
