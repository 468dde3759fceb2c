package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	domainimage "mealvision-server/internal/domain/image"
	"mealvision-server/internal/domain/nutrition"
	platformerrors "mealvision-server/internal/platform/errors"
	"mealvision-server/internal/platform/logging"
	"mealvision-server/internal/platform/observability"
)

// Progress milestones inside one Analyze call. Values are stage-local
// percentages; the orchestrator rescales them into its own range.
const (
	progressStart    = 0
	progressEncoded  = 25
	progressSent     = 50
	progressReceived = 75
	progressParsed   = 100
)

// Config selects the multimodal completion endpoint.
type Config struct {
	ModelName string
	BaseURL   string
	APIKey    string
	// Timeout bounds the completion wait. External model latency is the
	// dominant tail of the whole pipeline, so the bound lives here.
	Timeout time.Duration
}

// Client calls an OpenAI-compatible vision endpoint and turns its untrusted
// response into a validated nutrition.AnalysisResult. It performs no retries;
// every failure is terminal for the call.
type Client struct {
	config Config
	api    *openai.Client
	logger *logging.Logger
}

func NewClient(cfg Config, logger *logging.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, "vision.new", "API key is required")
	}
	if cfg.ModelName == "" {
		return nil, platformerrors.New(platformerrors.KindConfig, "vision.new", "model name is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		config: cfg,
		api:    openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

// Analyze issues one completion request carrying the image as a data URI and
// validates the response at the boundary. onProgress is purely observational;
// a nil callback is fine and reported values never affect control flow.
func (c *Client) Analyze(ctx context.Context, img domainimage.CompressedImage, onProgress func(int)) (*nutrition.AnalysisResult, error) {
	report := func(p int) {
		if onProgress != nil {
			onProgress(p)
		}
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	ctx, spanEnd := observability.StartSpan(ctx, "vision.client", "analyze")
	var spanErr error
	defer func() { spanEnd(spanErr) }()

	report(progressStart)

	dataURI := fmt.Sprintf("data:%s;base64,%s",
		img.MediaType,
		base64.StdEncoding.EncodeToString(img.Data),
	)
	report(progressEncoded)

	request := openai.ChatCompletionRequest{
		Model: c.config.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: userPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURI,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
		MaxTokens:   maxCompletionTokens,
		Temperature: samplingTemperature,
	}

	c.logger.DebugTag("VISION", "invoking %s: image_bytes=%d detail=low", c.config.ModelName, len(img.Data))
	report(progressSent)

	response, err := c.api.CreateChatCompletion(ctx, request)
	if err != nil {
		spanErr = err
		return nil, c.mapProviderError(err)
	}
	report(progressReceived)

	if len(response.Choices) == 0 {
		spanErr = platformerrors.NewCoded(platformerrors.KindVision,
			platformerrors.CodeMalformedResponse, "vision.analyze", "response has no choices")
		return nil, spanErr
	}

	content := response.Choices[0].Message.Content
	result, err := nutrition.Parse(content)
	if err != nil {
		c.logger.WarnTag("VISION", "unparseable model response: %v", err)
		spanErr = &platformerrors.Error{
			Kind:    platformerrors.KindVision,
			Code:    platformerrors.CodeMalformedResponse,
			Op:      "vision.analyze",
			Message: "model response does not match the analysis schema",
			Cause:   err,
		}
		return nil, spanErr
	}
	report(progressParsed)

	c.logger.InfoTag("VISION", "analysis complete: %d food items, %s/%s",
		len(result.FoodItems), result.Analysis.MealType, result.Analysis.HealthRating)

	return result, nil
}

// mapProviderError is the single authoritative mapping from provider HTTP
// status to the domain failure taxonomy.
func (c *Client) mapProviderError(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status != 0 {
		switch status {
		case http.StatusUnauthorized:
			return &platformerrors.Error{
				Kind:    platformerrors.KindVision,
				Code:    platformerrors.CodeUnauthorized,
				Op:      "vision.analyze",
				Message: "invalid vision API key, check the server configuration",
				Cause:   err,
			}
		case http.StatusTooManyRequests:
			return &platformerrors.Error{
				Kind:    platformerrors.KindVision,
				Code:    platformerrors.CodeRateLimited,
				Op:      "vision.analyze",
				Message: "vision provider rate limit exceeded, try again later",
				Cause:   err,
			}
		case http.StatusPaymentRequired:
			return &platformerrors.Error{
				Kind:    platformerrors.KindVision,
				Code:    platformerrors.CodeQuotaExceeded,
				Op:      "vision.analyze",
				Message: "vision provider quota exceeded",
				Cause:   err,
			}
		default:
			return (&platformerrors.Error{
				Kind:    platformerrors.KindVision,
				Code:    platformerrors.CodeProviderError,
				Op:      "vision.analyze",
				Message: fmt.Sprintf("vision provider error: status %d", status),
				Cause:   err,
			}).WithStatus(status)
		}
	}

	return &platformerrors.Error{
		Kind:    platformerrors.KindVision,
		Code:    platformerrors.CodeProviderError,
		Op:      "vision.analyze",
		Message: "vision provider unreachable",
		Cause:   err,
	}
}
