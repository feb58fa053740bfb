// Package acrcloud implements the ACRCloud identification provider.
//
// Requests are signed with HMAC-SHA1 over the canonical request string and
// submitted as multipart form data to the /v1/identify endpoint.
package acrcloud

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
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
	ProviderName = "acrcloud"

	identifyPath     = "/v1/identify"
	signatureVersion = "1"
	dataType         = "audio"

	defaultTimeout = 15 * time.Second

	// ACRCloud status codes. Anything else non-zero is an unclassified
	// identification failure.
	statusOK          = 0
	statusNoResult    = 1001
	statusAuthFailed  = 2000
	statusRateLimited = 3001
)

// Config holds the credentials for one ACRCloud project.
type Config struct {
	Host         string
	AccessKey    string
	AccessSecret string
	Timeout      time.Duration
}

// Client talks to the ACRCloud identification API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
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

// WithClock overrides the signing timestamp source (tests).
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// New constructs an ACRCloud client.
func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
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
	body, contentType, err := c.buildRequest(sample)
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindBadRequest, err)
	}

	endpoint := "https://" + c.cfg.Host + identifyPath
	if strings.Contains(c.cfg.Host, "://") {
		endpoint = strings.TrimRight(c.cfg.Host, "/") + identifyPath
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindBadRequest, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindOf(err), err)
	}
	defer resp.Body.Close()

	if err := classifyHTTPStatus(resp); err != nil {
		return providers.Result{}, err
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return providers.Result{}, providers.NewError(ProviderName, providers.KindUnknown, err)
	}
	return c.parseResponse(payload, offset)
}

// buildRequest signs the canonical request string and assembles the
// multipart body.
func (c *Client) buildRequest(sample []byte) (*bytes.Buffer, string, error) {
	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	stringToSign := strings.Join([]string{
		http.MethodPost,
		identifyPath,
		c.cfg.AccessKey,
		dataType,
		signatureVersion,
		timestamp,
	}, "\n")
	signature := sign(stringToSign, c.cfg.AccessSecret)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := map[string]string{
		"access_key":        c.cfg.AccessKey,
		"sample_bytes":      strconv.Itoa(len(sample)),
		"timestamp":         timestamp,
		"signature":         signature,
		"data_type":         dataType,
		"signature_version": signatureVersion,
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	part, err := writer.CreateFormFile("sample", "sample.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create sample part: %w", err)
	}
	if _, err := part.Write(sample); err != nil {
		return nil, "", fmt.Errorf("write sample: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize multipart body: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

func sign(stringToSign, secret string) string {
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func classifyHTTPStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return providers.Errorf(ProviderName, providers.KindAuthFailed, "invalid credentials")
	case resp.StatusCode == http.StatusTooManyRequests:
		return &providers.Error{
			Provider:   ProviderName,
			Kind:       providers.KindRateLimited,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("rate limit exceeded"),
		}
	case resp.StatusCode == http.StatusBadRequest:
		return providers.Errorf(ProviderName, providers.KindBadRequest, "rejected request: status %d", resp.StatusCode)
	default:
		return providers.Errorf(ProviderName, providers.KindUnknown, "unexpected status %d", resp.StatusCode)
	}
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

// identifyResponse mirrors the fields of the API response we consume.
type identifyResponse struct {
	Status struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	} `json:"status"`
	Metadata struct {
		Music []struct {
			Title   string `json:"title"`
			Artists []struct {
				Name string `json:"name"`
			} `json:"artists"`
			Album struct {
				Name string `json:"name"`
			} `json:"album"`
			Score float64 `json:"score"`
		} `json:"music"`
	} `json:"metadata"`
}

func (c *Client) parseResponse(payload []byte, offset float64) (providers.Result, error) {
	var decoded identifyResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindUnknown,
			"parse response: %v", err)
	}

	switch decoded.Status.Code {
	case statusOK:
	case statusNoResult:
		return providers.Failed(ProviderName, offset, ""), nil
	case statusAuthFailed:
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindAuthFailed, "%s", decoded.Status.Msg)
	case statusRateLimited:
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindRateLimited, "%s", decoded.Status.Msg)
	default:
		return providers.Result{}, providers.Errorf(ProviderName, providers.KindUnknown,
			"status %d: %s", decoded.Status.Code, decoded.Status.Msg)
	}

	if len(decoded.Metadata.Music) == 0 {
		return providers.Failed(ProviderName, offset, ""), nil
	}

	best := decoded.Metadata.Music[0]
	artists := make([]string, 0, len(best.Artists))
	for _, a := range best.Artists {
		if a.Name != "" {
			artists = append(artists, a.Name)
		}
	}

	var raw map[string]any
	_ = json.Unmarshal(payload, &raw)

	return providers.Result{
		Provider:   ProviderName,
		Title:      best.Title,
		Artist:     strings.Join(artists, ", "),
		Album:      best.Album.Name,
		Confidence: clamp01(best.Score / 100),
		Offset:     offset,
		Raw:        raw,
		Succeeded:  true,
	}, nil
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
