// Package remote is a classifier backend that calls an HTTP inference service.
//
// Protocol:
//
//	GET  {endpoint}/health            2xx when the model is served
//	POST {endpoint}/predict           {"text": "...", "model": "..."}
//	                                  -> {"label": "positive", "confidence": 0.93}
//	                                  or {"class_index": 3, "confidence": 0.93}
//
// Services that return a 5-class index are mapped with LabelForClass.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/JonMunkholm/reviewsense/internal/core"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

const responseSchema = `{
  "type": "object",
  "required": ["confidence"],
  "properties": {
    "label":       {"type": "string", "enum": ["positive", "negative", "neutral", "POSITIVE", "NEGATIVE", "NEUTRAL"]},
    "class_index": {"type": "integer"},
    "confidence":  {"type": "number", "minimum": 0, "maximum": 1}
  },
  "anyOf": [
    {"required": ["label"]},
    {"required": ["class_index"]}
  ]
}`

// Client is a Backend talking to a remote inference service.
type Client struct {
	endpoint  string
	apiKey    string
	modelName string
	http      *http.Client
	schema    *jsonschema.Schema
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithModelName names the model in prediction requests.
func WithModelName(name string) Option {
	return func(c *Client) { c.modelName = name }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for endpoint, e.g. "http://inference:9000".
func New(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
		schema:   schema,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("prediction.json", strings.NewReader(responseSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("prediction.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func (c *Client) Name() string { return "remote" }

func (c *Client) Description() string {
	return "Multilingual sentiment model served over HTTP at " + c.endpoint
}

// Load checks that the service is reachable and healthy.
func (c *Client) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("health check: unexpected status %s", resp.Status)
	}
	return nil
}

type predictRequest struct {
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

type predictResponse struct {
	Label      string  `json:"label"`
	ClassIndex *int    `json:"class_index"`
	Confidence float64 `json:"confidence"`
}

// Predict sends one text for classification.
func (c *Client) Predict(ctx context.Context, text string) (core.Prediction, error) {
	reqID := uuid.New().String()
	start := time.Now()

	body, err := json.Marshal(predictRequest{Text: text, Model: c.modelName})
	if err != nil {
		return core.Prediction{}, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/predict", bytes.NewReader(body))
	if err != nil {
		return core.Prediction{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return core.Prediction{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return core.Prediction{}, fmt.Errorf("read response: %w", err)
	}

	slog.Debug("remote classifier response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode != http.StatusOK {
		return core.Prediction{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return c.decode(raw)
}

func (c *Client) decode(raw []byte) (core.Prediction, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return core.Prediction{}, fmt.Errorf("decode response: %w", err)
	}
	if err := c.schema.Validate(doc); err != nil {
		return core.Prediction{}, fmt.Errorf("response does not match schema: %w", err)
	}

	var pr predictResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return core.Prediction{}, fmt.Errorf("decode response: %w", err)
	}

	if label, ok := core.ParseLabel(pr.Label); ok {
		return core.Prediction{Label: label, Confidence: pr.Confidence}, nil
	}
	if pr.ClassIndex == nil {
		return core.Prediction{}, fmt.Errorf("response has neither label nor class_index")
	}
	return core.Prediction{Label: LabelForClass(*pr.ClassIndex), Confidence: pr.Confidence}, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// LabelForClass maps a 5-class sentiment index (very negative .. very
// positive) to a label. Unknown indexes are neutral.
func LabelForClass(idx int) core.SentimentLabel {
	switch idx {
	case 0, 1:
		return core.LabelNegative
	case 2:
		return core.LabelNeutral
	case 3, 4:
		return core.LabelPositive
	default:
		return core.LabelNeutral
	}
}
