package recognition

import (
	"context"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

// Options tweak a single recognition call. Account pins a configured
// backend account by name; empty means rotate. Prompt overrides the
// default extraction instruction.
type Options struct {
	Account string
	Prompt  string
}

// Recognizer is the narrow seam in front of the remote multimodal model,
// so the backend can be swapped or faked in tests without touching the
// dispatcher.
type Recognizer interface {
	Recognize(ctx context.Context, img *entity.NormalizedImage, opts Options) (*entity.RecognitionResult, error)
}
