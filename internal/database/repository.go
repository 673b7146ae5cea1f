package database

import (
	"context"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

// ResultCache keeps recent recognition results keyed by the hash of the
// normalized payload, so identical images skip the backend. A miss is
// (nil, nil); only successful results are ever stored.
type ResultCache interface {
	Get(ctx context.Context, key string) (*entity.RecognitionResult, error)
	Set(ctx context.Context, key string, result *entity.RecognitionResult) error
}
