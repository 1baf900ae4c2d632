// Package vision turns a business-card image into structured contact fields
// using a multimodal model.
package vision

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cardfolio/cardscan-cli/internal/model"
	"github.com/cardfolio/cardscan-cli/pkg/gemini"
)

// Extractor reads the seven contact fields off a card image.
type Extractor interface {
	Extract(ctx context.Context, imageURI string) (model.RawExtraction, error)
}

// ExtractionError is fatal to the current scan: the vision call failed or
// returned output that does not decode to the expected shape. There is no
// partial-extraction result.
type ExtractionError struct {
	Cause error
}

func (e *ExtractionError) Error() string {
	return "vision: extraction failed: " + e.Cause.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

const extractPrompt = `Analyze this business card image and extract the following details in JSON format.
Return ONLY the JSON object, no markdown or other text.
If a field is missing, use an empty string.

Fields to extract:
- name (Full name)
- title (Job title)
- company (Company name)
- email (Email address)
- phone (Phone number)
- address (Physical address)
- website (Website URL)`

// GeminiExtractor implements Extractor with the Gemini vision API.
type GeminiExtractor struct {
	client gemini.Client
}

// NewGeminiExtractor creates an Extractor backed by the given Gemini client.
func NewGeminiExtractor(client gemini.Client) *GeminiExtractor {
	return &GeminiExtractor{client: client}
}

// Extract sends the image to the vision model and strictly decodes the
// seven-field JSON response. Any call or decode failure is an
// *ExtractionError; callers must not treat the returned extraction as
// partially valid on error.
func (e *GeminiExtractor) Extract(ctx context.Context, imageURI string) (model.RawExtraction, error) {
	data, format, err := readImage(imageURI)
	if err != nil {
		return model.RawExtraction{}, &ExtractionError{Cause: err}
	}

	text, err := e.client.GenerateVision(ctx, extractPrompt, data, format)
	if err != nil {
		return model.RawExtraction{}, &ExtractionError{Cause: err}
	}

	raw, err := decodeExtraction(text)
	if err != nil {
		zap.L().Warn("vision: model returned undecodable output",
			zap.String("image", imageURI),
			zap.Error(err),
		)
		return model.RawExtraction{}, &ExtractionError{Cause: err}
	}

	zap.L().Debug("vision: extracted card",
		zap.String("image", imageURI),
		zap.String("name", raw.Name),
		zap.String("company", raw.Company),
	)
	return raw, nil
}

// decodeExtraction strips markdown fences and decodes the model output into
// exactly the seven extraction fields. Unknown keys are ignored; a non-object
// payload or non-string field value is a decode failure.
func decodeExtraction(text string) (model.RawExtraction, error) {
	cleaned := stripFences(text)

	var raw model.RawExtraction
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return model.RawExtraction{}, eris.Wrap(err, "vision: decode extraction")
	}
	return raw, nil
}

// stripFences removes markdown code fences and isolates the JSON object from
// surrounding prose.
func stripFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// readImage loads the image bytes for a local path or file:// URI and infers
// the format Gemini expects from the extension.
func readImage(imageURI string) ([]byte, string, error) {
	path := strings.TrimPrefix(imageURI, "file://")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", eris.Wrapf(err, "vision: read image %s", path)
	}

	format := "jpeg"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		format = "png"
	case ".webp":
		format = "webp"
	case ".heic":
		format = "heic"
	}

	return data, format, nil
}
