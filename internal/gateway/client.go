// Package gateway is the client for the remote conversion service. The
// service is prompted, not programmed: correctness and stability of its
// output are not guaranteed, so every reply crosses a strict
// parse-and-validate boundary before it reaches the orchestrator.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"codeport-cli/internal/apperrors"
	"codeport-cli/internal/domain"
)

// HTTPClient allows injecting a transport in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to a generateContent-style endpoint.
type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    HTTPClient
	logger  *zap.Logger
}

// NewClient creates a gateway client. A missing API key is a
// configuration error, surfaced before any call is attempted.
func NewClient(baseURL, apiKey, model string, logger *zap.Logger) (*Client, error) {
	return NewClientWithHTTP(baseURL, apiKey, model, &http.Client{}, logger)
}

// NewClientWithHTTP creates a gateway client with a custom transport.
func NewClientWithHTTP(baseURL, apiKey, model string, httpClient HTTPClient, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, apperrors.NewConfiguration("gateway API key is missing")
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		http:    httpClient,
		logger:  logger,
	}, nil
}

type generateRequest struct {
	Contents          []content  `json:"contents"`
	SystemInstruction *content   `json:"systemInstruction,omitempty"`
	GenerationConfig  *genConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type genConfig struct {
	ResponseMIMEType string  `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema `json:"responseSchema,omitempty"`
	Temperature      float64 `json:"temperature"`
}

// schema is the subset of the gateway's response-schema language we use.
type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Items      *schema            `json:"items,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// filesSchema constrains conversion replies to {"files": [{name,path,content}]}.
func filesSchema() *schema {
	return &schema{
		Type: "object",
		Properties: map[string]*schema{
			"files": {
				Type: "array",
				Items: &schema{
					Type: "object",
					Properties: map[string]*schema{
						"name":    {Type: "string"},
						"path":    {Type: "string"},
						"content": {Type: "string"},
					},
					Required: []string{"name", "path", "content"},
				},
			},
		},
		Required: []string{"files"},
	}
}

// analysisSchema constrains analyze replies to the ProjectAnalysis shape.
func analysisSchema() *schema {
	return &schema{
		Type: "object",
		Properties: map[string]*schema{
			"projectType":     {Type: "string"},
			"primaryLanguage": {Type: "string"},
			"framework":       {Type: "string"},
			"ambiguousFiles":  {Type: "array", Items: &schema{Type: "string"}},
			"suggestedTarget": {Type: "string"},
		},
		Required: []string{"projectType", "primaryLanguage"},
	}
}

// Convert translates one text file. Never called for asset files; the
// caller resolves the "auto" sentinel beforehand. Most failures
// (transport, empty reply, schema violation) come back as
// CONVERSION_FAILED wrapping the cause; a credential rejection stays a
// CONFIGURATION error so the caller can abort the whole batch instead of
// failing every file in turn.
func (c *Client) Convert(
	ctx context.Context,
	file *domain.ProjectFile,
	source, target domain.Language,
	allowSplit bool,
) ([]domain.OutputFile, error) {
	c.logger.Debug("Starting conversion call",
		zap.String("path", file.Path),
		zap.String("source", string(source)),
		zap.String("target", string(target)),
		zap.Bool("allow_split", allowSplit))

	prompt := buildConvertPrompt(file, source, target, allowSplit)
	text, err := c.generate(ctx, prompt, convertSystemInstruction, filesSchema())
	if err != nil {
		if apperrors.IsConfiguration(err) {
			return nil, err
		}
		return nil, apperrors.NewConversionFailed(file.Path, err)
	}

	outputs, err := parseFiles(text)
	if err != nil {
		return nil, apperrors.NewConversionFailed(file.Path, err)
	}

	c.logger.Debug("Completed conversion call",
		zap.String("path", file.Path),
		zap.Int("output_files", len(outputs)))

	return outputs, nil
}

// Analyze classifies a project from its file manifest. Transport failures
// and empty replies surface as GATEWAY_UNAVAILABLE, malformed replies as
// SCHEMA_VIOLATION, rejected credentials as CONFIGURATION. No retries; a
// single failed attempt goes to the caller.
func (c *Client) Analyze(ctx context.Context, manifest []domain.FileStat) (*domain.ProjectAnalysis, error) {
	c.logger.Debug("Starting analysis call", zap.Int("manifest_entries", len(manifest)))

	text, err := c.generate(ctx, buildAnalyzePrompt(manifest), "", analysisSchema())
	if err != nil {
		if apperrors.IsConfiguration(err) {
			return nil, err
		}
		return nil, apperrors.NewGatewayUnavailable(err)
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Completed analysis call",
		zap.String("project_type", analysis.ProjectType),
		zap.String("primary_language", analysis.PrimaryLanguage))

	return analysis, nil
}

// isCredentialRejection reports whether an error response means the API
// key itself is bad. The service answers an invalid key with 400 and an
// API_KEY_INVALID reason rather than 401.
func isCredentialRejection(status int, body []byte) bool {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return bytes.Contains(body, []byte("API_KEY_INVALID"))
	}
	return false
}

// generate performs exactly one call and returns the reply text. An empty
// or missing text field is fatal for the call.
func (c *Client) generate(ctx context.Context, prompt, system string, responseSchema *schema) (string, error) {
	body := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &genConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
			Temperature:      0.2,
		},
	}
	if system != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		if isCredentialRejection(resp.StatusCode, respBody) {
			return "", apperrors.NewConfiguration(
				fmt.Sprintf("gateway rejected credentials (%d): %s", resp.StatusCode, string(respBody)))
		}
		return "", fmt.Errorf("gateway error %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	var text string
	for _, cand := range parsed.Candidates {
		for _, p := range cand.Content.Parts {
			text += p.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("gateway returned no text")
	}

	return text, nil
}
