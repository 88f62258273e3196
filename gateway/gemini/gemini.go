// Package gemini implements the tryon.Gateway contract using Google's
// Gemini API.
//
// This gateway uses the Gemini API backend via the official Go SDK:
// https://github.com/googleapis/go-genai
//
// Image synthesis and grounded consultation are served by different
// models: an image-output model for try-on edits, and a text model with
// the Google Search tool for stylist answers with citations.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mhpenta/tryon"
	"github.com/mhpenta/tryon/ratelimiter"
	"google.golang.org/genai"
)

// Default API model names.
const (
	// DefaultEditModel is the image-output model used for try-on synthesis.
	DefaultEditModel = "gemini-2.5-flash-image"

	// DefaultConsultModel is the text model used for grounded consultation.
	DefaultConsultModel = "gemini-2.5-flash"
)

// Default per-minute budgets for the free API tier.
const (
	defaultTokensPerMinute   = 250_000
	defaultRequestsPerMinute = 10
)

// ErrNoImageSynthesized is returned when the model responds without an
// image payload.
var ErrNoImageSynthesized = errors.New("model returned no image")

// stylistSystemPrompt frames the consult model as an eyewear expert. The
// model is prompt-sensitive; keep product recommendations concrete.
const stylistSystemPrompt = "You are an expert eyewear stylist. You help " +
	"the user choose frames that suit their face, and you recommend real, " +
	"purchasable products when asked. Answer concisely and concretely, " +
	"referring to the frame attributes visible in the user's photo."

// Config configures the gateway.
type Config struct {
	// APIKey for the Gemini API. If empty, the SDK falls back to the
	// GOOGLE_API_KEY or GEMINI_API_KEY environment variables.
	APIKey string

	// EditModel and ConsultModel override the default API model names.
	EditModel    string
	ConsultModel string

	// TokensPerMinute and RequestsPerMinute bound calls per model.
	// Zero values select the free-tier defaults.
	TokensPerMinute   int
	RequestsPerMinute int
}

// Gateway implements tryon.Gateway over the Gemini API.
type Gateway struct {
	client       *genai.Client
	editModel    string
	consultModel string
	limiters     ratelimiter.Registry
	estimator    *tokenEstimator
}

// Ensure Gateway implements the contract.
var _ tryon.Gateway = (*Gateway)(nil)

// New creates a Gateway from a Config.
func New(ctx context.Context, config *Config) (*Gateway, error) {
	if config == nil {
		config = &Config{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}

	if config.APIKey != "" {
		clientCfg.APIKey = config.APIKey
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &Gateway{
		client:       client,
		editModel:    config.EditModel,
		consultModel: config.ConsultModel,
		limiters:     ratelimiter.NewRegistry(),
		estimator:    newTokenEstimator(),
	}
	if g.editModel == "" {
		g.editModel = DefaultEditModel
	}
	if g.consultModel == "" {
		g.consultModel = DefaultConsultModel
	}

	tpm := config.TokensPerMinute
	if tpm == 0 {
		tpm = defaultTokensPerMinute
	}
	rpm := config.RequestsPerMinute
	if rpm == 0 {
		rpm = defaultRequestsPerMinute
	}
	g.limiters.Set(g.editModel, ratelimiter.New(tpm, rpm))
	g.limiters.Set(g.consultModel, ratelimiter.New(tpm, rpm))

	return g, nil
}

// NewWithAPIKey creates a gateway with an API key and default models.
func NewWithAPIKey(ctx context.Context, apiKey string) (*Gateway, error) {
	return New(ctx, &Config{APIKey: apiKey})
}

// SetRateLimiter sets a custom rate limiter for a model.
// Use this to swap in a distributed limiter for production.
func (g *Gateway) SetRateLimiter(model string, limiter ratelimiter.Limiter) *Gateway {
	g.limiters.Set(model, limiter)
	return g
}

// SynthesizeImage executes an image-edit request. The request's images are
// attached in order, followed by the instruction text.
func (g *Gateway) SynthesizeImage(ctx context.Context, req *tryon.GatewayRequest) (*tryon.SynthesisResult, error) {
	if err := g.checkRateLimit(g.editModel, req.Instruction); err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     img.Data,
				MIMEType: img.MIMEType,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: req.Instruction})

	contents := []*genai.Content{
		{Parts: parts},
	}

	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	result, err := g.client.Models.GenerateContent(ctx, g.editModel, contents, genConfig)
	if err != nil {
		if rlErr := checkRateLimitError(err, g.editModel); rlErr != nil {
			return nil, rlErr
		}
		return nil, fmt.Errorf("synthesis failed: %w", err)
	}

	img, err := parseImage(result)
	if err != nil {
		return nil, err
	}

	return &tryon.SynthesisResult{Image: *img}, nil
}

// Consult executes a grounded-chat request. Prior turns are supplied as
// conversation history; the current look image, its caption, and the user
// text form the final user message.
func (g *Gateway) Consult(ctx context.Context, req *tryon.GatewayRequest) (*tryon.ConsultResult, error) {
	if err := g.checkRateLimit(g.consultModel, req.Text); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, entry := range req.History {
		contents = append(contents, &genai.Content{
			Role:  string(entry.Role),
			Parts: []*genai.Part{{Text: entry.Text}},
		})
	}

	parts := make([]*genai.Part, 0, 3)
	for _, img := range req.Images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     img.Data,
				MIMEType: img.MIMEType,
			},
		})
	}
	if req.Caption != "" {
		parts = append(parts, &genai.Part{Text: req.Caption})
	}
	parts = append(parts, &genai.Part{Text: req.Text})

	contents = append(contents, &genai.Content{
		Role:  string(tryon.RoleUser),
		Parts: parts,
	})

	genConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: stylistSystemPrompt}},
		},
	}
	if req.GroundingEnabled {
		genConfig.Tools = []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, g.consultModel, contents, genConfig)
	if err != nil {
		if rlErr := checkRateLimitError(err, g.consultModel); rlErr != nil {
			return nil, rlErr
		}
		return nil, fmt.Errorf("consultation failed: %w", err)
	}

	return parseConsult(result)
}

// Close releases any resources held by the gateway.
func (g *Gateway) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK
	return nil
}

// checkRateLimit consumes budget for one call against the model's limiter.
func (g *Gateway) checkRateLimit(model, text string) error {
	const tokenBuffer = 100 // image payloads and fixed prompt text

	limiter, err := g.limiters.Get(model)
	if err != nil {
		return nil
	}

	estimatedTokens := g.estimator.EstimateTokens(text) + tokenBuffer

	if !limiter.TryConsume(estimatedTokens) {
		return &tryon.RateLimitError{
			RetryAfter: limiter.TimeUntilAvailable(estimatedTokens),
			LimitType:  "tokens",
			Model:      model,
		}
	}

	return nil
}

// parseImage extracts the first synthesized image from a response.
func parseImage(result *genai.GenerateContentResponse) (*tryon.ImageRef, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: empty response from model", ErrNoImageSynthesized)
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != nil {
				return &tryon.ImageRef{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	return nil, ErrNoImageSynthesized
}

// parseConsult extracts the answer text and grounding citations.
func parseConsult(result *genai.GenerateContentResponse) (*tryon.ConsultResult, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.New("empty response from model")
	}

	consult := &tryon.ConsultResult{}

	for _, candidate := range result.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if part.Thought {
					continue
				}
				if part.Text != "" {
					consult.Text += part.Text
				}
			}
		}

		if candidate.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil {
				continue
			}
			consult.Citations = append(consult.Citations, tryon.Citation{
				Title: chunk.Web.Title,
				URI:   chunk.Web.URI,
			})
		}
	}

	return consult, nil
}

// checkRateLimitError checks if an error from the Gemini API is a rate
// limit error. If so, it wraps it in a RateLimitError for standardized
// handling; otherwise returns nil so the caller wraps the original.
func checkRateLimitError(err error, model string) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return nil
	}

	if apiErr.Code != 429 && apiErr.Status != "RESOURCE_EXHAUSTED" {
		return nil
	}

	return &tryon.RateLimitError{
		RetryAfter: 60 * time.Second, // Default; API doesn't reliably provide Retry-After
		LimitType:  "requests",
		Model:      model,
		Err:        err,
	}
}
