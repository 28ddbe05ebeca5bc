package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog"
)

// Prediction terminal and transient states as reported by the remote service.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

const (
	defaultPollTimeout  = 120 * time.Second
	defaultPollInterval = 1500 * time.Millisecond
)

// Options configures the prediction client.
type Options struct {
	Token        string
	BaseURL      string
	ModelVersion string
	HTTPClient   *http.Client
	PollTimeout  time.Duration
	PollInterval time.Duration
	Logger       *zerolog.Logger
}

// Client is a minimal client for a remote asynchronous image-generation
// service: submit a request, poll it until terminal, download the output.
type Client struct {
	token        string
	baseURL      string
	modelVersion string
	httpClient   *http.Client
	pollTimeout  time.Duration
	pollInterval time.Duration
	logger       zerolog.Logger
}

// outputURLs tolerates both the array and plain-string shapes the service
// uses for the output field across model families.
type outputURLs []string

func (o *outputURLs) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*o = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one != "" {
			*o = []string{one}
		}
		return nil
	}
	return fmt.Errorf("predict: unsupported output shape: %s", string(data))
}

// Prediction is the remote job record.
type Prediction struct {
	ID     string     `json:"id"`
	Status string     `json:"status"`
	Output outputURLs `json:"output"`
	Error  string     `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// FirstOutput returns the first output asset URL, if any.
func (p Prediction) FirstOutput() (string, bool) {
	if len(p.Output) == 0 {
		return "", false
	}
	return p.Output[0], true
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.replicate.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		token:        strings.TrimSpace(opts.Token),
		baseURL:      baseURL,
		modelVersion: strings.TrimSpace(opts.ModelVersion),
		httpClient:   client,
		pollTimeout:  pollTimeout,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Create submits a prediction and returns its record. A non-2xx response or
// a record without an id yields a *RequestError.
func (c *Client) Create(ctx context.Context, version string, input map[string]any) (Prediction, error) {
	payload := map[string]any{"version": version, "input": input}
	body, err := json.Marshal(payload)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: submit prediction: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Prediction{}, &RequestError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return Prediction{}, fmt.Errorf("predict: decode prediction: %w", err)
	}
	if pred.ID == "" {
		return Prediction{}, &RequestError{Status: resp.StatusCode, Message: "response lacks a prediction id"}
	}
	c.logger.Debug().Str("prediction_id", pred.ID).Str("status", pred.Status).Msg("predict: prediction created")
	return pred, nil
}

// Wait polls the prediction at the configured interval until it succeeds, the
// remote reports failure/cancellation (*PredictionFailedError), the wall-clock
// budget runs out (ErrPollTimeout) or ctx is canceled.
func (c *Client) Wait(ctx context.Context, idOrURL string) (Prediction, error) {
	statusURL := idOrURL
	if !strings.HasPrefix(idOrURL, "http://") && !strings.HasPrefix(idOrURL, "https://") {
		statusURL = c.baseURL + "/predictions/" + idOrURL
	}

	deadline := time.Now().Add(c.pollTimeout)
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		pred, err := c.fetch(ctx, statusURL)
		if err != nil {
			return Prediction{}, err
		}
		switch pred.Status {
		case StatusSucceeded:
			return pred, nil
		case StatusFailed, StatusCanceled:
			return Prediction{}, &PredictionFailedError{ID: pred.ID, Status: pred.Status, Reason: pred.Error}
		}

		if time.Now().After(deadline) {
			return Prediction{}, fmt.Errorf("predict: waited %s for %s: %w", c.pollTimeout, statusURL, ErrPollTimeout)
		}
		select {
		case <-ctx.Done():
			return Prediction{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Download fetches a binary asset. Non-2xx responses yield a *DownloadError.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("predict: download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &DownloadError{URL: url, Status: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("predict: read asset: %w", err)
	}
	return data, nil
}

// Illustration runs the full best-effort chain: create, wait, download the
// first output and validate that it decodes as an image. Corrupt remote
// assets surface as ErrInvalidAsset so callers can degrade gracefully.
func (c *Client) Illustration(ctx context.Context, prompt string) ([]byte, error) {
	input := map[string]any{
		"prompt": prompt,
		"width":  1024,
		"height": 1024,
	}
	pred, err := c.Create(ctx, c.modelVersion, input)
	if err != nil {
		return nil, err
	}
	target := pred.URLs.Get
	if target == "" {
		target = pred.ID
	}
	final, err := c.Wait(ctx, target)
	if err != nil {
		return nil, err
	}
	assetURL, ok := final.FirstOutput()
	if !ok {
		return nil, &PredictionFailedError{ID: final.ID, Status: final.Status, Reason: "no output assets"}
	}
	data, err := c.Download(ctx, assetURL)
	if err != nil {
		return nil, err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
	}
	return data, nil
}

func (c *Client) fetch(ctx context.Context, url string) (Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: status request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Prediction{}, fmt.Errorf("predict: fetch status: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Prediction{}, &RequestError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	var pred Prediction
	if err := json.NewDecoder(resp.Body).Decode(&pred); err != nil {
		return Prediction{}, fmt.Errorf("predict: decode status: %w", err)
	}
	return pred, nil
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
