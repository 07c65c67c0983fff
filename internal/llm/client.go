package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"dispatch/internal/httpx"
)

var (
	// ErrMissingAPIKey is returned when the client has no API key configured.
	ErrMissingAPIKey = errors.New("llm api key not configured")

	// ErrInvalidResponse is returned when the model output does not match the schema.
	ErrInvalidResponse = errors.New("invalid llm response")
)

// Schema is the subset of OpenAPI schema accepted as a response schema.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Client calls a generateContent endpoint that returns strictly typed JSON.
type Client struct {
	httpClient *http.Client
	baseURL    string
	model      string
	apiKey     string
}

// NewClient creates an LLM client.
func NewClient(httpClient *http.Client, baseURL, model, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	ResponseSchema   *Schema `json:"responseSchema,omitempty"`
	Temperature      float64 `json:"temperature"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateJSON sends prompt with a response schema and decodes the
// model's JSON answer into out.
func (c *Client) GenerateJSON(ctx context.Context, prompt string, schema *Schema, out any) error {
	if !c.Configured() {
		return ErrMissingAPIKey
	}

	req := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}
	header := http.Header{}
	header.Set("x-goog-api-key", c.apiKey)

	var resp generateResponse
	url := c.baseURL + "/models/" + c.model + ":generateContent"
	if err := httpx.PostJSON(ctx, c.httpClient, url, header, req, &resp); err != nil {
		return err
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("%w: empty candidates", ErrInvalidResponse)
	}
	text := resp.Candidates[0].Content.Parts[0].Text
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}
