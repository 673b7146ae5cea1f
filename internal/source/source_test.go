package source

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ocrhub/ocr-gateway/internal/entity"
)

var samplePNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 1, 2, 3, 4}

func newTestResolver(maxBytes int64) *Resolver {
	return NewResolver(5*time.Second, maxBytes)
}

func TestResolveURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(samplePNG)
	}))
	defer server.Close()

	data, mime, err := newTestResolver(1024).Resolve(context.Background(), entity.URLInput(server.URL))

	require.NoError(t, err)
	assert.Equal(t, samplePNG, data)
	assert.Equal(t, "image/png", mime)
}

func TestResolveURLErrors(t *testing.T) {
	notFound := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer notFound.Close()

	oversized := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte{0xAB}, 4096))
	}))
	defer oversized.Close()

	tests := []struct {
		name     string
		url      string
		maxBytes int64
		wantCode entity.ErrorCode
	}{
		{
			name:     "non-2xx status",
			url:      notFound.URL,
			maxBytes: 1024,
			wantCode: entity.CodeFetchError,
		},
		{
			name:     "unreachable host",
			url:      "http://127.0.0.1:1",
			maxBytes: 1024,
			wantCode: entity.CodeFetchError,
		},
		{
			name:     "body exceeds size ceiling",
			url:      oversized.URL,
			maxBytes: 1024,
			wantCode: entity.CodePayloadTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestResolver(tt.maxBytes).Resolve(context.Background(), entity.URLInput(tt.url))

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, entity.CodeOf(err))
		})
	}
}

func TestResolveBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(samplePNG)

	tests := []struct {
		name     string
		input    string
		wantMime string
		wantCode entity.ErrorCode
	}{
		{
			name:  "raw base64",
			input: encoded,
		},
		{
			name:     "data URI",
			input:    "data:image/png;base64," + encoded,
			wantMime: "image/png",
		},
		{
			name:     "malformed base64",
			input:    "not-base64!!",
			wantCode: entity.CodeDecodeError,
		},
		{
			name:     "data URI without base64 marker",
			input:    "data:image/png," + encoded,
			wantCode: entity.CodeDecodeError,
		},
		{
			name:     "decodes to empty",
			input:    "data:image/png;base64,",
			wantCode: entity.CodeDecodeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, mime, err := newTestResolver(1024).Resolve(context.Background(), entity.Base64Input(tt.input))

			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, entity.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, samplePNG, data)
			assert.Equal(t, tt.wantMime, mime)
		})
	}
}

func TestResolveUpload(t *testing.T) {
	data, mime, err := newTestResolver(1024).Resolve(context.Background(),
		entity.UploadInput(samplePNG, "scan.png", "image/png"))

	require.NoError(t, err)
	assert.Equal(t, samplePNG, data)
	assert.Equal(t, "image/png", mime)
}

func TestResolveUploadEmptyFile(t *testing.T) {
	_, _, err := newTestResolver(1024).Resolve(context.Background(),
		entity.UploadInput([]byte{}, "scan.png", "image/png"))

	require.Error(t, err)
	assert.Equal(t, entity.CodeEmptyFile, entity.CodeOf(err))
}

func TestResolveProxyUpload(t *testing.T) {
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// echo back the forwarded file bytes
		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		w.Header().Set("Content-Type", "image/png")
		io.Copy(w, file)
	}))
	defer proxy.Close()

	data, mime, err := newTestResolver(1024).Resolve(context.Background(),
		entity.ProxyUploadInput(samplePNG, "scan.png", "image/png", proxy.URL))

	require.NoError(t, err)
	assert.Equal(t, samplePNG, data)
	assert.Equal(t, "image/png", mime)
}

func TestResolveProxyUploadErrors(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer failing.Close()

	tests := []struct {
		name     string
		target   string
		wantCode entity.ErrorCode
	}{
		{
			name:     "unreachable proxy",
			target:   "http://127.0.0.1:1",
			wantCode: entity.CodeProxyUnreachable,
		},
		{
			name:     "proxy responds with error status",
			target:   failing.URL,
			wantCode: entity.CodeProxyResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := newTestResolver(1024).Resolve(context.Background(),
				entity.ProxyUploadInput(samplePNG, "scan.png", "image/png", tt.target))

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, entity.CodeOf(err))
		})
	}
}

func TestResolveRejectsInvalidUnion(t *testing.T) {
	_, _, err := newTestResolver(1024).Resolve(context.Background(), entity.ImageInput{})

	require.Error(t, err)
	assert.Equal(t, entity.CodeInternal, entity.CodeOf(err))
}
