package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"

	"github.com/toonana/toonana/config"
	"github.com/toonana/toonana/errors"
)

// HTTPRenderer renders panel images against an HTTP image-generation
// endpoint. Requests are rate limited and retried with backoff; render
// services shed load with 429s and the occasional 5xx.
type HTTPRenderer struct {
	baseURL     string
	apiKey      string
	maxAttempts int
	retryDelay  time.Duration
	limiter     *rate.Limiter
	httpClient  *http.Client
}

func NewHTTPRenderer(cfg config.RendererConfig) *HTTPRenderer {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 6
	}

	return &HTTPRenderer{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  2 * time.Second,
		limiter:     rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 1),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type renderRequest struct {
	Prompt string `json:"prompt"`
	Style  string `json:"style,omitempty"`
}

type renderResponse struct {
	Image string `json:"image"` // base64, optionally a data URL
	Error string `json:"error,omitempty"`
}

// Render generates one panel image and returns the raw image bytes.
func (r *HTTPRenderer) Render(ctx context.Context, prompt, style string) ([]byte, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "render rate limit wait")
	}

	var data []byte
	err := retry.Do(
		func() error {
			var attemptErr error
			data, attemptErr = r.renderOnce(ctx, prompt, style)
			return attemptErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.maxAttempts)),
		retry.Delay(r.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(isRetryable),
		retry.LastErrorOnly(true),
	)
	return data, err
}

// retryableError marks a failure worth another attempt.
type retryableError struct{ error }

func isRetryable(err error) bool {
	var r retryableError
	return errors.As(err, &r)
}

func (r *HTTPRenderer) renderOnce(ctx context.Context, prompt, style string) ([]byte, error) {
	jsonData, err := json.Marshal(renderRequest{Prompt: prompt, Style: style})
	if err != nil {
		return nil, errors.Wrap(err, "marshal render request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "create render request")
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, retryableError{errors.Wrap(err, "render request failed")}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, retryableError{errors.Newf("renderer returned status %d: %s", resp.StatusCode, string(body))}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Newf("renderer returned status %d: %s", resp.StatusCode, string(body))
	}

	var rendered renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&rendered); err != nil {
		return nil, errors.Wrap(errors.ErrDecode, err.Error())
	}
	if rendered.Error != "" {
		return nil, errors.Newf("renderer error: %s", rendered.Error)
	}

	payload := rendered.Image
	if i := strings.IndexByte(payload, ','); i >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDecode, err.Error())
	}
	if len(data) == 0 {
		return nil, errors.Wrap(errors.ErrDecode, "renderer returned empty image")
	}
	return data, nil
}
