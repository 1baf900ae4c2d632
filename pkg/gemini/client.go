// Package gemini wraps the Google generative AI SDK for multimodal card
// extraction.
package gemini

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rotisserie/eris"
	"google.golang.org/api/option"
)

// Client defines the Gemini operations used by the vision extractor.
type Client interface {
	// GenerateVision sends an image plus a text prompt and returns the
	// model's text response.
	GenerateVision(ctx context.Context, prompt string, image []byte, format string) (string, error)
	Close() error
}

// genaiClient implements Client using the official generative-ai-go SDK.
type genaiClient struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. An empty model falls back to the
// flash tier, which is fast enough for card extraction.
func NewClient(ctx context.Context, apiKey, model string) (Client, error) {
	if apiKey == "" {
		return nil, eris.New("gemini: API key is required")
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}

	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}

	return &genaiClient{client: c, model: model}, nil
}

func (c *genaiClient) GenerateVision(ctx context.Context, prompt string, image []byte, format string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, image),
		genai.Text(prompt),
	)
	if err != nil {
		return "", eris.Wrap(err, "gemini: generate content")
	}

	return textFromResponse(resp)
}

func (c *genaiClient) Close() error {
	return c.client.Close()
}

// textFromResponse extracts the text parts of the first candidate.
func textFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", eris.New("gemini: no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", eris.New("gemini: no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", eris.New("gemini: no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
