// Package vision extracts structured OCR payloads from screenshot images
// using the Anthropic vision API.
package vision

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/gigsight/trips-cli/internal/model"
)

// Client defines the vision operations used by the ingest path.
type Client interface {
	ExtractScreenshot(ctx context.Context, req Request) (*model.OCRInput, error)
}

// Request is one screenshot to transcribe.
type Request struct {
	ImageBase64 string
	MediaType   string // e.g. "image/png"
	Hint        string // optional screenshot-type hint from the caller
}

// extractionPrompt asks for the exact JSON shape the pipeline consumes.
const extractionPrompt = `Transcribe this rideshare/delivery app screenshot.
Respond with JSON only, no prose, using this shape:
{"text": "<full visible text>", "numbers": [<every number visible, as floats>], "image_type": "<one of: initial_offer, final_total, dashboard_odometer, trip_summary, navigation, weekly_summary, unknown>", "confidence": <0.0-1.0>}`

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	limiter   *rate.Limiter
}

// NewClient creates a vision client backed by the SDK. requestsPerSecond
// caps the API call rate across all goroutines sharing the client.
func NewClient(apiKey, visionModel string, maxTokens int, requestsPerSecond float64) Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:     visionModel,
		maxTokens: int64(maxTokens),
		limiter:   rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
	}
}

func (c *sdkClient) ExtractScreenshot(ctx context.Context, req Request) (*model.OCRInput, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "vision: rate limit wait")
	}

	prompt := extractionPrompt
	if req.Hint != "" {
		prompt += "\nThe caller believes this is a " + req.Hint + " screenshot."
	}

	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(
				sdk.NewImageBlockBase64(req.MediaType, req.ImageBase64),
				sdk.NewTextBlock(prompt),
			),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "vision: create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		sb.WriteString(block.Text)
	}

	in, err := ParseOCRResponse(sb.String())
	if err != nil {
		return nil, err
	}

	zap.L().Debug("vision extraction",
		zap.String("model", c.model),
		zap.String("image_type", in.ImageType),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return in, nil
}
