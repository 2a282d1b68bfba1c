// Package docintel is the HTTP client for the structured document
// analysis service, the primary extractor for text-bearing documents.
package docintel

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/core/domain"
	"github.com/laitim2001/ai-document-extraction-project-sub002/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
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

func New(baseURL, apiKey, model string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type analyzeRequest struct {
	Model    string `json:"model"`
	Content  string `json:"content"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name,omitempty"`
}

type analyzeResponse struct {
	Fields map[string]struct {
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
	PageCount  int     `json:"page_count"`
}

func (c *Client) Extract(ctx context.Context, input domain.ProcessFileInput) (*domain.StructuredExtraction, error) {
	request := analyzeRequest{
		Model:    c.model,
		Content:  base64.StdEncoding.EncodeToString(input.Content),
		MimeType: input.MimeType,
		FileName: input.FileName,
	}

	var response analyzeResponse
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/v1/analyze", request, &response, "analyze")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Do(ctx, "docintel.analyze", call, classifyDocintelError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("docintel analyze", err)
	}

	extraction := &domain.StructuredExtraction{
		Fields:     make(map[string]domain.ExtractedField, len(response.Fields)),
		Text:       response.Text,
		Confidence: normalizeConfidence(response.Confidence),
		PageCount:  response.PageCount,
	}
	for name, field := range response.Fields {
		extraction.Fields[name] = domain.ExtractedField{
			Value:      field.Value,
			Confidence: normalizeConfidence(field.Confidence),
		}
	}
	for _, item := range response.LineItems {
		extraction.LineItems = append(extraction.LineItems, domain.LineItem{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		})
	}
	return extraction, nil
}

// normalizeConfidence lifts provider fractions in [0,1] onto the [0,100]
// scale the pipeline works in.
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
