package entity

import "errors"

type InputKind string

const (
	InputURL         InputKind = "url"
	InputBase64      InputKind = "base64"
	InputUpload      InputKind = "upload"
	InputProxyUpload InputKind = "proxy_upload"
)

// ImageInput is a tagged union over the four supported image sources.
// Exactly one variant is populated; construct via URLInput, Base64Input,
// UploadInput or ProxyUploadInput.
type ImageInput struct {
	kind InputKind

	url          string
	encoded      string
	fileBytes    []byte
	filename     string
	declaredMime string
	proxyTarget  string
}

func URLInput(url string) ImageInput {
	return ImageInput{kind: InputURL, url: url}
}

func Base64Input(encoded string) ImageInput {
	return ImageInput{kind: InputBase64, encoded: encoded}
}

func UploadInput(data []byte, filename, declaredMime string) ImageInput {
	return ImageInput{kind: InputUpload, fileBytes: data, filename: filename, declaredMime: declaredMime}
}

func ProxyUploadInput(data []byte, filename, declaredMime, proxyTarget string) ImageInput {
	return ImageInput{
		kind:         InputProxyUpload,
		fileBytes:    data,
		filename:     filename,
		declaredMime: declaredMime,
		proxyTarget:  proxyTarget,
	}
}

func (i ImageInput) Kind() InputKind      { return i.kind }
func (i ImageInput) URL() string          { return i.url }
func (i ImageInput) Encoded() string      { return i.encoded }
func (i ImageInput) FileBytes() []byte    { return i.fileBytes }
func (i ImageInput) Filename() string     { return i.filename }
func (i ImageInput) DeclaredMime() string { return i.declaredMime }
func (i ImageInput) ProxyTarget() string  { return i.proxyTarget }

var ErrInvalidInput = errors.New("image input must have exactly one populated variant")

// Validate checks the exactly-one-variant invariant.
func (i ImageInput) Validate() error {
	switch i.kind {
	case InputURL:
		if i.url == "" || i.encoded != "" || i.fileBytes != nil {
			return ErrInvalidInput
		}
	case InputBase64:
		if i.encoded == "" || i.url != "" || i.fileBytes != nil {
			return ErrInvalidInput
		}
	case InputUpload:
		if i.fileBytes == nil || i.url != "" || i.encoded != "" || i.proxyTarget != "" {
			return ErrInvalidInput
		}
	case InputProxyUpload:
		if i.fileBytes == nil || i.proxyTarget == "" || i.url != "" || i.encoded != "" {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	return nil
}

// NormalizedImage is the canonical payload handed to the recognition
// backend: a base64 data URI, whatever the original source looked like.
type NormalizedImage struct {
	Payload   string `json:"payload"`
	MimeType  string `json:"mime_type"`
	SizeBytes int    `json:"size_bytes"`
}

// RecognitionResult is the backend outcome after post-processing.
// Type is "text" for regular extractions and "captcha" for short
// alphanumeric answers.
type RecognitionResult struct {
	Text string `json:"text"`
	Type string `json:"type"`
}
