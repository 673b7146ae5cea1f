package recognition

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ocrhub/ocr-gateway/config"
	"github.com/ocrhub/ocr-gateway/internal/entity"
)

// DefaultPrompt asks the model for plain extraction: LaTeX for formulas,
// bare characters for captchas, no commentary.
const DefaultPrompt = "Recognize the content of the image. " +
	"Wrap every mathematical formula in standard LaTeX: inline formulas in single $, display formulas in $$. " +
	"Keep ordinary text as-is with the original paragraphs and line breaks. " +
	"If the image is a captcha, output only the captcha characters (usually 4-6 letters and digits), " +
	"ignoring noise lines and distinguishing similar characters such as 0/O, 1/l and 2/Z. " +
	"Do not add any explanation."

const retryDelay = 250 * time.Millisecond

// QwenClient talks to a Qwen-style chat-completions endpoint. It is
// stateless apart from the atomic rotation counter and is safe for
// concurrent use.
type QwenClient struct {
	baseURL  string
	model    string
	prompt   string
	timeout  time.Duration
	accounts []config.AccountConfig
	next     uint64
	client   *http.Client
}

func NewQwenClient(cfg config.BackendConfig) *QwenClient {
	var enabled []config.AccountConfig
	for _, a := range cfg.Accounts {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}

	prompt := cfg.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &QwenClient{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		model:    cfg.Model,
		prompt:   prompt,
		timeout:  timeout,
		accounts: enabled,
		client:   &http.Client{},
	}
}

// Accounts reports the configured account pool (credentials excluded).
func (c *QwenClient) Accounts() []string {
	names := make([]string, 0, len(c.accounts))
	for _, a := range c.accounts {
		names = append(names, a.Name)
	}
	return names
}

type chatContent struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Image string `json:"image,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []chatContent `json:"content"`
}

type chatRequest struct {
	Stream   bool          `json:"stream"`
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type streamChunk struct {
	Choices []struct {
		FinishReason string `json:"finish_reason"`
		Delta        struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// Recognize sends the normalized image with the extraction prompt and
// accumulates the streamed answer. One bounded wait per call: a timeout is
// terminal, while connection errors and 5xx get a single retry.
func (c *QwenClient) Recognize(ctx context.Context, img *entity.NormalizedImage, opts Options) (*entity.RecognitionResult, error) {
	account, err := c.pickAccount(opts.Account)
	if err != nil {
		return nil, err
	}

	prompt := opts.Prompt
	if prompt == "" {
		prompt = c.prompt
	}

	payload, err := json.Marshal(chatRequest{
		Stream: true,
		Model:  c.model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []chatContent{
				{Type: "text", Text: prompt},
				{Type: "image", Image: img.Payload},
			},
		}},
	})
	if err != nil {
		return nil, entity.WrapError(entity.CodeInternal, "failed to encode backend request", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.attempt(ctx, account, payload)
	if err != nil && retryable(err) {
		logrus.Warnf("backend call failed, retrying once: %s", err.Error())
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return nil, classify(ctx.Err())
		}
		text, err = c.attempt(ctx, account, payload)
	}
	if err != nil {
		return nil, classify(err)
	}

	return postProcess(text), nil
}

func (c *QwenClient) pickAccount(name string) (config.AccountConfig, error) {
	if len(c.accounts) == 0 {
		return config.AccountConfig{}, entity.NewError(entity.CodeInternal, "no backend accounts configured")
	}
	if name != "" {
		for _, a := range c.accounts {
			if a.Name == name {
				return a, nil
			}
		}
		return config.AccountConfig{}, entity.NewError(entity.CodeBackendRequest,
			"unknown backend account: "+name)
	}
	idx := atomic.AddUint64(&c.next, 1)
	return c.accounts[int(idx)%len(c.accounts)], nil
}

// transientError marks failures eligible for the single retry.
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}

func (c *QwenClient) attempt(ctx context.Context, account config.AccountConfig, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", entity.WrapError(entity.CodeInternal, "failed to build backend request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", "Bearer "+account.Token)
	if account.Cookie != "" {
		req.Header.Set("Cookie", account.Cookie)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &transientError{err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &transientError{err: errors.New("backend returned status " + strconv.Itoa(resp.StatusCode))}
	case resp.StatusCode >= 400:
		return "", entity.NewError(entity.CodeBackendRequest,
			"backend rejected the request with status "+strconv.Itoa(resp.StatusCode))
	}

	return readStream(resp.Body)
}

// readStream accumulates "data: {...}" SSE lines into the full answer.
func readStream(body io.Reader) (string, error) {
	var full strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(line[len("data: "):]), &chunk); err != nil {
			continue // keep-alive and [DONE] markers are not JSON chunks
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		full.WriteString(choice.Delta.Content)
		if choice.FinishReason == "stop" {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	if full.Len() == 0 {
		return "", entity.NewError(entity.CodeInternal, "recognition returned no content")
	}
	return full.String(), nil
}

func classify(err error) error {
	var e *entity.Error
	if errors.As(err, &e) {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.WrapError(entity.CodeBackendTimeout, "recognition backend timed out", err)
	}
	if errors.Is(err, context.Canceled) {
		return entity.WrapError(entity.CodeBackendTimeout, "recognition was cancelled", err)
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return entity.WrapError(entity.CodeBackendTimeout, "recognition backend timed out", err)
	}
	return entity.WrapError(entity.CodeInternal, "recognition failed", err)
}
