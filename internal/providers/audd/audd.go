// Package audd implements the AudD identification provider.
//
// Samples are submitted as multipart form data with the API token; the
// service answers with a single best match or a null result for silence
// and unrecognized audio.
package audd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tracklist/internal/providers"
)

const (
	// ProviderName is the stable identifier used in configuration and results.
	ProviderName = "audd"

	defaultEndpoint = "https://api.audd.io/"
	defaultTimeout  = 15 * time.Second

	// The API reports matches without a score; treat a bare match as solid
	// but not certain.
	fallbackConfidence = 0.8
)

// Config holds the credentials for one AudD account.
type Config struct {
	APIToken string
	Endpoint string
	Timeout  time.Duration
}

// Client talks to the AudD recognition API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client (tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New constructs an AudD client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider identifier.
func (c *Client) Name() string { return ProviderName }

// Identify submits the sample and maps the response onto a Result.
func (c *Client) Identify(ctx context.Context, sample []byte, offset float64) (providers.Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("api_token", c.cfg.APIToken); err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindBadRequest, err)
	}
	part, err := writer.CreateFormFile("file", "sample.wav")
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindBadRequest, err)
	}
	if _, err := part.Write(sample); err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindBadRequest, err)
	}
	if err := writer.Close(); err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindBadRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, body)
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindBadRequest, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindOf(err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindAuthFailed, "invalid api token")
	case resp.StatusCode == http.StatusTooManyRequests:
		return providers.Result{}, &providers.Error{
			Provider:   ProviderName,
			Kind:       providers.KindRateLimited,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("rate limit exceeded"),
		}
	case resp.StatusCode == http.StatusBadRequest:
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindBadRequest, "rejected request")
	default:
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindUnknown, "unexpected status %d", resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindUnknown, err)
	}
	return parseResponse(payload, offset)
}

// recognizeResponse mirrors the fields of the API response we consume.
type recognizeResponse struct {
	Status string `json:"status"`
	Error  struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"error"`
	Result *struct {
		Artist string   `json:"artist"`
		Title  string   `json:"title"`
		Album  string   `json:"album"`
		Score  *float64 `json:"score"`
	} `json:"result"`
}

func parseResponse(payload []byte, offset float64) (providers.Result, error) {
	var decoded recognizeResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindUnknown,
			"parse response: %v", err)
	}

	if decoded.Status != "success" {
		kind := providers.KindUnknown
		// 900: wrong api_token; 901: recognition limit reached.
		switch decoded.Error.ErrorCode {
		case 900:
			kind = providers.KindAuthFailed
		case 901:
			kind = providers.KindRateLimited
		}
		return providers.Result{}, providers.Errorf(ProviderName, kind,
			"error %d: %s", decoded.Error.ErrorCode, decoded.Error.ErrorMessage)
	}

	if decoded.Result == nil || (decoded.Result.Title == "" && decoded.Result.Artist == "") {
		return providers.Failed(ProviderName, offset, ""), nil
	}

	confidence := fallbackConfidence
	if decoded.Result.Score != nil {
		confidence = clamp01(*decoded.Result.Score / 100)
	}

	var raw map[string]any
	_ = json.Unmarshal(payload, &raw)

	return providers.Result{
		Provider:   ProviderName,
		Title:      decoded.Result.Title,
		Artist:     decoded.Result.Artist,
		Album:      decoded.Result.Album,
		Confidence: confidence,
		Offset:     offset,
		Raw:        raw,
		Succeeded:  true,
	}, nil
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if when, err := http.ParseTime(value); err == nil {
		if wait := time.Until(when); wait > 0 {
			return wait
		}
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
