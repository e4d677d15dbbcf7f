// Package vision provides the rooftop imagery analysis client. It is the
// upstream producer of RoofAnalysis values; the calculation pipeline treats
// it as an opaque collaborator and falls back to the canonical default
// analysis whenever it fails.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sunward-group/rooftop-cli/internal/model"
	"github.com/sunward-group/rooftop-cli/internal/resilience"
)

// Client analyzes rooftop imagery into a structured RoofAnalysis.
type Client interface {
	AnalyzeRooftop(ctx context.Context, imageData []byte, mediaType string) (*model.RoofAnalysis, error)
}

// Option configures the client.
type Option func(*sdkClient)

// WithModel overrides the vision model ID.
func WithModel(m string) Option {
	return func(c *sdkClient) { c.model = m }
}

// WithMaxTokens overrides the response token budget.
func WithMaxTokens(n int64) Option {
	return func(c *sdkClient) { c.maxTokens = n }
}

// WithRateLimit caps outgoing requests per second.
func WithRateLimit(rps float64) Option {
	return func(c *sdkClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
	retry     resilience.Policy
}

// NewClient creates a vision client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     "claude-sonnet-4-5-20250929",
		maxTokens: 2000,
		limiter:   rate.NewLimiter(1, 1),
		retry:     resilience.DefaultPolicy(),
	}
	c.retry.ShouldRetry = shouldRetryAPI
	c.retry.OnRetry = resilience.Logger("anthropic", "analyze_rooftop")
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// shouldRetryAPI retries rate limits, overload, and server errors from the
// API; auth and request-shape errors surface immediately.
func shouldRetryAPI(err error) bool {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		return resilience.IsTransientHTTPStatus(apierr.StatusCode) || apierr.StatusCode == 529
	}
	return resilience.IsTransient(err)
}

// visionTemperature keeps structured extraction near-deterministic.
const visionTemperature = 0.1

// AnalyzeRooftop sends the image with the structured-JSON prompt and parses
// the response. Any failure (encoding, API, parse, empty payload) returns
// an error; substituting the default analysis is the caller's decision.
func (c *sdkClient) AnalyzeRooftop(ctx context.Context, imageData []byte, mediaType string) (*model.RoofAnalysis, error) {
	if len(imageData) == 0 {
		return nil, eris.New("vision: empty image data")
	}
	if mediaType == "" {
		mediaType = "image/jpeg"
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "vision: rate limit wait")
	}

	encoded := base64.StdEncoding.EncodeToString(imageData)

	msg, err := resilience.Do(ctx, c.retry, func(ctx context.Context) (*sdk.Message, error) {
		return c.client.Messages.New(ctx, sdk.MessageNewParams{
			Model:       sdk.Model(c.model),
			MaxTokens:   c.maxTokens,
			Temperature: sdk.Float(visionTemperature),
			Messages: []sdk.MessageParam{
				sdk.NewUserMessage(
					sdk.NewImageBlockBase64(mediaType, encoded),
					sdk.NewTextBlock(rooftopPrompt),
				),
			},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "vision: analyze rooftop")
	}

	var text strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}

	zap.L().Info("vision: rooftop analyzed",
		zap.String("model", string(msg.Model)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	analysis, err := parseAnalysis(text.String())
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// parseAnalysis extracts the JSON object from the model response and
// unmarshals it. All-or-nothing: a payload that parses but carries no roof
// data is rejected rather than partially salvaged.
func parseAnalysis(content string) (*model.RoofAnalysis, error) {
	cleaned := cleanJSON(content)
	if cleaned == "" {
		zap.L().Debug("vision: response had no JSON object", zap.Int("response_len", len(content)))
		return nil, eris.New("vision: no JSON object in response")
	}

	var analysis model.RoofAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		zap.L().Debug("vision: discarding malformed response", zap.Int("response_len", len(content)))
		return nil, eris.Wrap(err, "vision: unmarshal analysis")
	}

	if analysis.Empty() {
		zap.L().Debug("vision: response parsed but carried no roof data", zap.Int("response_len", len(content)))
		return nil, eris.New("vision: response carried no roof data")
	}

	analysis.Normalize()
	return &analysis, nil
}

// cleanJSON strips markdown fences and isolates the outermost JSON object.
func cleanJSON(text string) string {
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
	if start < 0 || end <= start {
		return ""
	}
	return strings.TrimSpace(text[start : end+1])
}
