package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/sirupsen/logrus"

	"github.com/ocrhub/ocr-gateway/internal/entity"
	"github.com/ocrhub/ocr-gateway/internal/recognition"
)

// Recognize walks a single request through the pipeline:
// resolve source -> normalize -> cache lookup -> backend -> envelope.
// Any step failure short-circuits straight into a failure envelope.
func (s *ocrService) Recognize(ctx context.Context, input entity.ImageInput, opts recognition.Options) *entity.Envelope {
	data, _, err := s.resolver.Resolve(ctx, input)
	if err != nil {
		logrus.Warnf("source resolution failed (%s): %s", input.Kind(), err.Error())
		return entity.Fail(err)
	}

	img, err := s.normalizer.Normalize(data)
	if err != nil {
		logrus.Warnf("normalization failed (%s): %s", input.Kind(), err.Error())
		return entity.Fail(err)
	}

	key := payloadKey(img)
	if cached := s.cacheLookup(ctx, key); cached != nil {
		logrus.Debugf("cache hit for payload %s", key[:12])
		return entity.OK(cached)
	}

	result, err := s.recognizer.Recognize(ctx, img, opts)
	if err != nil {
		logrus.Errorf("recognition failed (%s): %s", input.Kind(), err.Error())
		return entity.Fail(err)
	}

	s.cacheStore(ctx, key, result)
	return entity.OK(result)
}

func payloadKey(img *entity.NormalizedImage) string {
	sum := sha256.Sum256([]byte(img.Payload))
	return hex.EncodeToString(sum[:])
}

// Cache failures only cost the shortcut, never the request.
func (s *ocrService) cacheLookup(ctx context.Context, key string) *entity.RecognitionResult {
	if s.cache == nil {
		return nil
	}
	result, err := s.cache.Get(ctx, key)
	if err != nil {
		logrus.Warnf("result cache lookup failed: %s", err.Error())
		return nil
	}
	return result
}

func (s *ocrService) cacheStore(ctx context.Context, key string, result *entity.RecognitionResult) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, result); err != nil {
		logrus.Warnf("result cache store failed: %s", err.Error())
	}
}
