package transport

import (
	"github.com/ocrhub/ocr-gateway/config"
	"github.com/ocrhub/ocr-gateway/internal/service"
)

type OCRHandler struct {
	service  service.OCRService
	accounts []config.AccountConfig
}

func NewOCRHandler(service service.OCRService, accounts []config.AccountConfig) *OCRHandler {
	return &OCRHandler{service: service, accounts: accounts}
}

type BatchHandler struct {
	service service.BatchService
}

func NewBatchHandler(service service.BatchService) *BatchHandler {
	return &BatchHandler{service: service}
}
