// Package summarizer calls the external text summarization model.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the total request timeout for a model call.
	DefaultTimeout = 60 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 10 * time.Second

	maxResponseBytes = 1 << 20
	maxErrorSnippet  = 200
)

// ErrUpstream is returned when the model endpoint fails or returns no summary.
var ErrUpstream = errors.New("summarization upstream failed")

// Summarizer produces a summary of text bounded by token lengths.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error)
}

// HTTPClient calls a Hugging Face style inference endpoint.
type HTTPClient struct {
	endpoint string
	apiToken string
	client   *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithAPIToken sends token as a bearer credential on every call.
func WithAPIToken(token string) Option {
	return func(c *HTTPClient) {
		c.apiToken = token
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *HTTPClient) {
		if client != nil {
			c.client = client
		}
	}
}

// NewHTTPClient creates a model client for endpoint with the given total timeout.
func NewHTTPClient(endpoint string, timeout time.Duration, opts ...Option) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &HTTPClient{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   DialTimeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxLength int  `json:"max_length"`
	MinLength int  `json:"min_length"`
	DoSample  bool `json:"do_sample"`
}

type inferenceResult struct {
	SummaryText string `json:"summary_text"`
}

// Summarize sends one request to the model and returns the first generated summary.
func (c *HTTPClient) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	body, err := json.Marshal(inferenceRequest{
		Inputs: text,
		Parameters: inferenceParameters{
			MaxLength: maxLength,
			MinLength: minLength,
			DoSample:  false,
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet(data))
	}

	summary, err := decodeSummary(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	return summary, nil
}

// decodeSummary accepts either a list of results or a single result object.
func decodeSummary(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", errors.New("empty response")
	}

	var results []inferenceResult
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &results); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
	} else {
		var single inferenceResult
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		results = append(results, single)
	}

	if len(results) == 0 || strings.TrimSpace(results[0].SummaryText) == "" {
		return "", errors.New("no summary in response")
	}
	return results[0].SummaryText, nil
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > maxErrorSnippet {
		return s[:maxErrorSnippet]
	}
	return s
}
