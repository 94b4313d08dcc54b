package mlapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/phish-guard/internal/core"
	"github.com/mikey/phish-guard/internal/utils"
)

const (
	// MaxPageTextChars bounds the page text sent with a URL request
	MaxPageTextChars = 1000
	// MaxEmailBodyChars bounds the body sent with an email request
	MaxEmailBodyChars = 2000

	maxResponseBytes = 1 << 20
)

// Client is an implementation of the MLClient interface backed by the
// phishing prediction HTTP API
type Client struct {
	httpClient    *http.Client
	endpoint      string
	timeout       time.Duration
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

type urlRequest struct {
	URL            string `json:"url"`
	PageText       string `json:"page_text"`
	LinksCount     int    `json:"links_count"`
	ReturnFeatures bool   `json:"return_features"`
}

type emailRequest struct {
	Subject        string   `json:"subject"`
	Body           string   `json:"body"`
	Links          []string `json:"links"`
	ReturnFeatures bool     `json:"return_features"`
}

// predictResponse is the subset of the prediction payload the engine reads
type predictResponse struct {
	RiskScore   *float64 `json:"risk_score"`
	RiskLevel   string   `json:"risk_level"`
	Probability *float64 `json:"probability"`
}

// NewClient creates a new prediction API client
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger, textProcessor *utils.TextProcessor) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		endpoint:      strings.TrimRight(endpoint, "/"),
		timeout:       timeout,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// ClassifyURL posts a page to /predict/url
func (c *Client) ClassifyURL(ctx context.Context, page *core.PageSubject) (*core.MLResult, error) {
	req := urlRequest{
		URL:        page.URL,
		PageText:   c.textProcessor.ProcessText(page.PageText, MaxPageTextChars),
		LinksCount: page.LinkCount,
	}
	return c.predict(ctx, "/predict/url", req)
}

// ClassifyEmail posts an email to /predict/email
func (c *Client) ClassifyEmail(ctx context.Context, email *core.EmailSubject) (*core.MLResult, error) {
	links := email.Links
	if links == nil {
		links = []string{}
	}
	req := emailRequest{
		Subject: email.Subject,
		Body:    c.textProcessor.ProcessText(email.Body, MaxEmailBodyChars),
		Links:   links,
	}
	return c.predict(ctx, "/predict/email", req)
}

// Health probes GET /health; any 2xx status is healthy
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: failed to build health request: %v", core.ErrUnavailable, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: health request failed: %v", core.ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: health returned status %d", core.ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *Client) predict(ctx context.Context, path string, payload interface{}) (*core.MLResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode request: %v", core.ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", core.ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request to %s failed: %v", core.ErrUnavailable, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", core.ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", core.ErrUnavailable, path, resp.StatusCode)
	}

	result, err := parseResponse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrUnavailable, err)
	}

	c.logger.Debug("Prediction received",
		zap.String("path", path),
		zap.Int("risk_score", result.RiskScore),
		zap.String("risk_level", result.RiskLevel.String()),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// parseResponse validates a prediction payload. Scores arrive as floats and
// are rounded to the nearest integer.
func parseResponse(data []byte) (*core.MLResult, error) {
	var resp predictResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("malformed prediction response: %w", err)
	}
	if resp.RiskScore == nil {
		return nil, fmt.Errorf("prediction response has no risk_score")
	}
	if resp.Probability == nil {
		return nil, fmt.Errorf("prediction response has no probability")
	}
	return core.NewMLResult(*resp.RiskScore, resp.RiskLevel, *resp.Probability)
}
