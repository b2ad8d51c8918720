package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// The model is instructed once, globally, about its role; the per-request
	// outfit specification travels in the prompt.
	geminiSystemInstruction = "You are a professional fashion designer specializing in wedding attire visualization."
)

// ErrNoImageGenerated is returned when the model answered without an image
// payload.
var ErrNoImageGenerated = errors.New("generation produced no image")

// ReferenceImage is one inline image sent alongside the prompt. Order
// matters: the subject photo always comes first.
type ReferenceImage struct {
	MIMEType string
	Data     []byte
}

// ImageGenerator produces an image from a prompt and reference images.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, refs []ReferenceImage) ([]byte, error)
}

type geminiClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// NewGeminiClient creates an ImageGenerator backed by the Gemini REST API.
func NewGeminiClient(apiKey, model string, timeout time.Duration, logger zerolog.Logger) ImageGenerator {
	return &geminiClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: geminiBaseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With().Str("service", "GeminiClient").Logger(),
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type generateContentRequest struct {
	SystemInstruction *geminiContent `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (c *geminiClient) GenerateImage(ctx context.Context, prompt string, refs []ReferenceImage) ([]byte, error) {
	parts := make([]geminiPart, 0, len(refs)+1)
	parts = append(parts, geminiPart{Text: prompt})
	for _, ref := range refs {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: ref.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(ref.Data),
		}})
	}

	reqBody := generateContentRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: geminiSystemInstruction}}},
		Contents:          []geminiContent{{Parts: parts}},
	}
	reqBody.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling generation request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("creating generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling generation model: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading generation response: %w", err)
	}

	var genResp generateContentResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("decoding generation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if genResp.Error != nil {
			c.logger.Error().
				Int("status_code", resp.StatusCode).
				Str("model_status", genResp.Error.Status).
				Msg("Generation model returned error")
			return nil, fmt.Errorf("generation model error: %s", genResp.Error.Message)
		}
		return nil, fmt.Errorf("generation model returned status %d", resp.StatusCode)
	}

	for _, cand := range genResp.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData == nil {
				continue
			}
			imageBytes, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("decoding image payload: %w", err)
			}
			return imageBytes, nil
		}
	}

	return nil, ErrNoImageGenerated
}
