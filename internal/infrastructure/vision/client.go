// Package vision is the client for the multimodal model that classifies
// and extracts scanned documents from their rendered image.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) { c.executor = executor }
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

func New(baseURL, model string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 180 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type classifyPayload struct {
	IssuerName  string  `json:"issuer_name"`
	FormatHint  string  `json:"format_hint"`
	DocumentTag string  `json:"document_tag"`
	Confidence  float64 `json:"confidence"`
}

func (c *Client) Classify(ctx context.Context, input domain.ProcessFileInput) (*domain.VisionClassification, error) {
	raw, err := c.generate(ctx, "vision.classify", classifyPrompt, input.Content)
	if err != nil {
		return nil, err
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse classification json: %w", err)
	}
	return &domain.VisionClassification{
		IssuerName:  payload.IssuerName,
		FormatHint:  payload.FormatHint,
		DocumentTag: payload.DocumentTag,
		Confidence:  normalizeConfidence(payload.Confidence),
	}, nil
}

type extractPayload struct {
	Classification classifyPayload `json:"classification"`
	Fields         map[string]struct {
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"fields"`
	LineItems []struct {
		Description string `json:"description"`
		Quantity    string `json:"quantity"`
		UnitPrice   string `json:"unit_price"`
		Amount      string `json:"amount"`
	} `json:"line_items"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func (c *Client) ExtractAll(ctx context.Context, input domain.ProcessFileInput, prompt string) (*domain.VisionExtraction, error) {
	raw, err := c.generate(ctx, "vision.extract", extractionPrompt(prompt), input.Content)
	if err != nil {
		return nil, err
	}

	var payload extractPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return nil, fmt.Errorf("parse extraction json: %w", err)
	}

	extraction := &domain.VisionExtraction{
		Classification: domain.VisionClassification{
			IssuerName:  payload.Classification.IssuerName,
			FormatHint:  payload.Classification.FormatHint,
			DocumentTag: payload.Classification.DocumentTag,
			Confidence:  normalizeConfidence(payload.Classification.Confidence),
		},
		Fields:     make(map[string]domain.ExtractedField, len(payload.Fields)),
		Text:       payload.Text,
		Confidence: normalizeConfidence(payload.Confidence),
	}
	for name, field := range payload.Fields {
		extraction.Fields[name] = domain.ExtractedField{
			Value:      field.Value,
			Confidence: normalizeConfidence(field.Confidence),
		}
	}
	for _, item := range payload.LineItems {
		extraction.LineItems = append(extraction.LineItems, domain.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return extraction, nil
}

func (c *Client) generate(ctx context.Context, operation, prompt string, content []byte) (string, error) {
	request := map[string]any{
		"model":  c.model,
		"prompt": prompt,
		"images": []string{base64.StdEncoding.EncodeToString(content)},
		"stream": false,
		"format": "json",
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", request, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Do(ctx, operation, call, classifyVisionError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapTemporaryIfNeeded(operation, err)
	}
	return strings.TrimSpace(response.Response), nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}

func normalizeConfidence(v float64) float64 {
	if v > 0 && v <= 1 {
		return v * 100
	}
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
