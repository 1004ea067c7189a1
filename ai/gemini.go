// ABOUTME: Gemini-backed text generation with JSON-schema constrained output
// ABOUTME: One Generator per model id so a Chain can fall back across models
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModels is the fallback order used when none is configured.
var DefaultModels = []string{"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash"}

var ErrEmptyResponse = errors.New("model returned an empty response")

// Request is one structured generation call.
type Request struct {
	Prompt string
	Schema *genai.Schema
}

// Generator produces raw JSON text for a request.
type Generator interface {
	Model() string
	Generate(ctx context.Context, req Request) (string, error)
}

// NewGeminiClient creates the shared API client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: Gemini API key is required", ErrAuth)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(client *genai.Client, model string) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model}
}

func (g *GeminiGenerator) Model() string { return g.model }

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", classify(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// classify marks 401 and 403 answers as authentication failures.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == 401 || apiErr.Code == 403) {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return err
}

// NewGeminiChain builds a fallback chain over the given model ids.
func NewGeminiChain(client *genai.Client, models []string, opts ...ChainOption) *Chain {
	if len(models) == 0 {
		models = DefaultModels
	}
	gens := make([]Generator, 0, len(models))
	for _, m := range models {
		gens = append(gens, NewGeminiGenerator(client, m))
	}
	return NewChain(gens, opts...)
}
