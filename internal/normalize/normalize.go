package normalize

import (
	"bytes"
	"encoding/base64"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

// Formats the backend accepts. Detection is done by content sniffing,
// the declared type from the client is informational only.
var allowedFormats = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/bmp":  true,
	"image/gif":  true,
}

type Normalizer struct {
	maxBytes     int64
	maxDimension int
}

// New builds a Normalizer. maxBytes bounds the decoded payload size,
// maxDimension bounds image width/height in pixels (0 disables downscaling).
func New(maxBytes int64, maxDimension int) *Normalizer {
	return &Normalizer{maxBytes: maxBytes, maxDimension: maxDimension}
}

// Normalize validates raw image bytes and converts them into the canonical
// base64 data-URI payload. The size ceiling is checked on the decoded bytes,
// so base64 expansion on the wire cannot smuggle an oversized image through.
func (n *Normalizer) Normalize(data []byte) (*entity.NormalizedImage, error) {
	mtype := mimetype.Detect(data)
	if !allowedFormats[mtype.String()] {
		return nil, entity.NewError(entity.CodeUnsupportedFormat,
			"unsupported image format: "+mtype.String())
	}

	if n.maxBytes > 0 && int64(len(data)) > n.maxBytes {
		return nil, entity.NewError(entity.CodePayloadTooLarge,
			"image exceeds the maximum allowed size")
	}

	mime := mtype.String()
	if n.maxDimension > 0 {
		bounded, boundedMime, err := n.boundDimensions(data, mime)
		if err != nil {
			return nil, entity.WrapError(entity.CodeDecodeError, "failed to decode image", err)
		}
		data, mime = bounded, boundedMime
	}

	payload := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)

	return &entity.NormalizedImage{
		Payload:   payload,
		MimeType:  mime,
		SizeBytes: len(data),
	}, nil
}

// boundDimensions downscales images wider or taller than the configured
// pixel bound before they go to the backend. Images already within the
// bound pass through untouched, keeping normalization idempotent.
func (n *Normalizer) boundDimensions(data []byte, mime string) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	b := img.Bounds()
	if b.Dx() <= n.maxDimension && b.Dy() <= n.maxDimension {
		return data, mime, nil
	}

	fitted := imaging.Fit(img, n.maxDimension, n.maxDimension, imaging.Lanczos)
	return encodeBounded(fitted, mime)
}

func encodeBounded(img image.Image, mime string) ([]byte, string, error) {
	var buf bytes.Buffer
	if mime == "image/jpeg" {
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "image/jpeg", nil
	}
	// webp and gif have no encoder here, everything non-jpeg lands on png
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "image/png", nil
}
