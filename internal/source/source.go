package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

// Resolver turns any ImageInput variant into raw bytes plus the declared
// media type. URL and proxy-upload variants go over the network, the rest
// are pure in-process transforms.
type Resolver struct {
	client   *http.Client
	maxBytes int64
}

func NewResolver(fetchTimeout time.Duration, maxBytes int64) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: fetchTimeout},
		maxBytes: maxBytes,
	}
}

func (r *Resolver) Resolve(ctx context.Context, input entity.ImageInput) ([]byte, string, error) {
	if err := input.Validate(); err != nil {
		return nil, "", entity.WrapError(entity.CodeInternal, "invalid image input", err)
	}

	switch input.Kind() {
	case entity.InputURL:
		return r.fetchURL(ctx, input.URL())
	case entity.InputBase64:
		return decodeBase64(input.Encoded())
	case entity.InputUpload:
		if len(input.FileBytes()) == 0 {
			return nil, "", entity.NewError(entity.CodeEmptyFile, "uploaded file is empty")
		}
		return input.FileBytes(), input.DeclaredMime(), nil
	case entity.InputProxyUpload:
		return r.forwardProxy(ctx, input)
	}
	return nil, "", entity.NewError(entity.CodeInternal, "unknown input kind")
}

// fetchURL downloads the image with the size ceiling enforced while
// streaming, an oversized body is abandoned as soon as the ceiling is hit.
func (r *Resolver) fetchURL(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", entity.WrapError(entity.CodeFetchError, "invalid image url", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", entity.WrapError(entity.CodeFetchError, "failed to download image", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", entity.NewError(entity.CodeFetchError,
			"image download returned status "+strconv.Itoa(resp.StatusCode))
	}

	data, err := readLimited(resp.Body, r.maxBytes)
	if err != nil {
		return nil, "", err
	}

	logrus.Debugf("downloaded image from %s, %d bytes", url, len(data))
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeBase64(encoded string) ([]byte, string, error) {
	declared := ""
	if strings.HasPrefix(encoded, "data:") {
		rest := strings.TrimPrefix(encoded, "data:")
		idx := strings.Index(rest, ";base64,")
		if idx < 0 {
			return nil, "", entity.NewError(entity.CodeDecodeError, "malformed data URI")
		}
		declared = rest[:idx]
		encoded = rest[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, "", entity.WrapError(entity.CodeDecodeError, "invalid base64 image data", err)
	}
	if len(data) == 0 {
		return nil, "", entity.NewError(entity.CodeDecodeError, "decoded image is empty")
	}
	return data, declared, nil
}

// forwardProxy re-posts the buffered multipart file to the caller-specified
// intermediate endpoint and uses its response body as the image bytes.
func (r *Resolver) forwardProxy(ctx context.Context, input entity.ImageInput) ([]byte, string, error) {
	if len(input.FileBytes()) == 0 {
		return nil, "", entity.NewError(entity.CodeEmptyFile, "uploaded file is empty")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", input.Filename())
	if err != nil {
		return nil, "", entity.WrapError(entity.CodeInternal, "failed to build proxy request", err)
	}
	if _, err := part.Write(input.FileBytes()); err != nil {
		return nil, "", entity.WrapError(entity.CodeInternal, "failed to build proxy request", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", entity.WrapError(entity.CodeInternal, "failed to build proxy request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, input.ProxyTarget(), &body)
	if err != nil {
		return nil, "", entity.WrapError(entity.CodeProxyUnreachable, "invalid proxy target", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, "", entity.WrapError(entity.CodeProxyUnreachable, "proxy endpoint unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", entity.NewError(entity.CodeProxyResponse,
			"proxy endpoint returned status "+strconv.Itoa(resp.StatusCode))
	}

	data, err := readLimited(resp.Body, r.maxBytes)
	if err != nil {
		return nil, "", err
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func readLimited(body io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, entity.WrapError(entity.CodeFetchError, "failed to read response body", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(body, max+1))
	if err != nil {
		return nil, entity.WrapError(entity.CodeFetchError, "failed to read response body", err)
	}
	if int64(len(data)) > max {
		return nil, entity.NewError(entity.CodePayloadTooLarge, "remote image exceeds the maximum allowed size")
	}
	return data, nil
}
