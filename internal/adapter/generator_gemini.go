package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-doc-locker/internal/config"
	"github.com/MKhiriev/go-doc-locker/internal/logger"
	"github.com/MKhiriev/go-doc-locker/internal/utils"
)

const profilePrompt = `Generate a one-page professional profile summarizing the user's skills, education,
and achievements from this text. Return in strict JSON format:
{
  "name": "",
  "email": "",
  "education": "",
  "skills": [],
  "certifications": [],
  "achievements": [],
  "summary": ""
}

Text: `

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
	Seed             *int64 `json:"seed,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason,omitempty"`
	} `json:"candidates,omitempty"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason,omitempty"`
	} `json:"promptFeedback,omitempty"`
}

type geminiGenerator struct {
	client *utils.HTTPClient
	apiKey string
	model  string
	logger *logger.Logger
}

// NewGeminiGenerator constructs a [ProfileGenerator] calling the Gemini
// generateContent API at cfg.BaseURL. The request timeout is cfg.Timeout.
func NewGeminiGenerator(cfg config.Generator, logger *logger.Logger) (ProfileGenerator, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	baseURL, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, fmt.Errorf("invalid generator base url %q", cfg.BaseURL)
	}

	return &geminiGenerator{
		client: utils.NewHTTPClient(strings.TrimRight(baseURL.String(), "/"), cfg.Timeout),
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		logger: logger,
	}, nil
}

// Derive implements [ProfileGenerator]. It returns the model's answer with
// any Markdown code fence removed. The answer is not validated here.
func (g *geminiGenerator) Derive(ctx context.Context, text string, seed *int64) (json.RawMessage, error) {
	log := logger.FromContext(ctx)

	body := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: profilePrompt + text}}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			Seed:             seed,
		},
	}

	resp, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", g.apiKey).
		SetBody(body).
		Post("/v1beta/models/" + url.PathEscape(g.model) + ":generateContent")
	if err != nil {
		log.Err(err).Str("func", "geminiGenerator.Derive").Msg("generate request failed")
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		log.Err(err).Str("func", "geminiGenerator.Derive").Int("status", resp.StatusCode()).Msg("generator returned an error")
		return nil, err
	}

	var decoded generateContentResponse
	if err = json.Unmarshal(resp.Body(), &decoded); err != nil {
		log.Err(err).Str("func", "geminiGenerator.Derive").Msg("failed to decode generator response")
		return nil, fmt.Errorf("decode generator response: %w", err)
	}

	if decoded.PromptFeedback != nil && decoded.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrBlockedPrompt, decoded.PromptFeedback.BlockReason)
	}
	if len(decoded.Candidates) == 0 {
		return nil, ErrEmptyCompletion
	}

	var answer strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		answer.WriteString(p.Text)
	}

	out := stripCodeFence(answer.String())
	if out == "" {
		return nil, ErrEmptyCompletion
	}

	log.Debug().Str("func", "geminiGenerator.Derive").Int("bytes", len(out)).Msg("profile derived")
	return json.RawMessage(out), nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}

	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

type disabledGenerator struct {
	logger *logger.Logger
}

// NewDisabledGenerator returns a [ProfileGenerator] that always fails with
// [ErrGeneratorDisabled]. It is used when no API key is configured.
func NewDisabledGenerator(logger *logger.Logger) ProfileGenerator {
	return &disabledGenerator{logger: logger}
}

func (d *disabledGenerator) Derive(ctx context.Context, _ string, _ *int64) (json.RawMessage, error) {
	logger.FromContext(ctx).Warn().Str("func", "disabledGenerator.Derive").Msg("generator is disabled")
	return nil, ErrGeneratorDisabled
}
