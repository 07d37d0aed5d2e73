// Package anthropic implements the review collaborators over the
// Anthropic API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/inkforge/redraft/internal/review"
	"github.com/inkforge/redraft/internal/telemetry"
	"github.com/inkforge/redraft/internal/types"
)

const (
	maxRetryElapsed = 2 * time.Minute

	reviewMaxTokens  = 4096
	rewriteMaxTokens = 8192
)

// errAPIKeyRequired is returned when no API key is available.
var errAPIKeyRequired = errors.New("API key required")

// Client implements review.Reviewer, review.Rewriter, and
// review.Generator against the Anthropic Messages API.
type Client struct {
	client sdk.Client
	model  sdk.Model
}

var (
	_ review.Reviewer  = (*Client)(nil)
	_ review.Rewriter  = (*Client)(nil)
	_ review.Generator = (*Client)(nil)
)

// New creates a client. Env var ANTHROPIC_API_KEY takes precedence over
// the explicit apiKey.
func New(apiKey, model string) (*Client, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or configure review.api_key", errAPIKeyRequired)
	}

	aiMetricsOnce.Do(initAIMetrics)

	return &Client{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  sdk.Model(model),
	}, nil
}

// Review scores the manuscript and decodes the reviewer's structured
// issue list.
func (c *Client) Review(ctx context.Context, document string, prior review.PriorContext) (*types.ReviewResult, error) {
	prompt, err := renderReviewPrompt(document, prior)
	if err != nil {
		return nil, fmt.Errorf("render review prompt: %w", err)
	}
	text, err := c.callText(ctx, "review", prompt, reviewMaxTokens)
	if err != nil {
		return nil, err
	}
	return parseReviewResult(text)
}

// Correct rewrites one unit against its aggregated issue text. The
// caller compares the result against the input; unchanged content is a
// failed attempt, not an error.
func (c *Client) Correct(ctx context.Context, unitContent, issueText, docContext string) (string, error) {
	prompt, err := renderRewritePrompt(unitContent, issueText, docContext)
	if err != nil {
		return "", fmt.Errorf("render rewrite prompt: %w", err)
	}
	return c.callText(ctx, "rewrite", prompt, rewriteMaxTokens)
}

// Generate produces chapter prose from an outline description.
func (c *Client) Generate(ctx context.Context, outline string) (string, error) {
	prompt, err := renderGeneratePrompt(outline)
	if err != nil {
		return "", fmt.Errorf("render generate prompt: %w", err)
	}
	return c.callText(ctx, "generate", prompt, rewriteMaxTokens)
}

// aiMetrics holds lazily-initialized OTel instruments for API calls.
var aiMetrics struct {
	inputTokens  metric.Int64Counter
	outputTokens metric.Int64Counter
	duration     metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := telemetry.Meter("github.com/inkforge/redraft/ai")
	aiMetrics.inputTokens, _ = m.Int64Counter("rd.ai.input_tokens",
		metric.WithDescription("Anthropic API input tokens consumed"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.outputTokens, _ = m.Int64Counter("rd.ai.output_tokens",
		metric.WithDescription("Anthropic API output tokens generated"),
		metric.WithUnit("{token}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("rd.ai.request.duration",
		metric.WithDescription("Anthropic API request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}

func (c *Client) callText(ctx context.Context, operation, prompt string, maxTokens int64) (string, error) {
	tracer := telemetry.Tracer("github.com/inkforge/redraft/ai")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("rd.ai.model", string(c.model)),
		attribute.String("rd.ai.operation", operation),
	)

	params := sdk.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = maxRetryElapsed

	var text string
	err := backoff.Retry(func() error {
		t0 := time.Now()
		message, err := c.client.Messages.New(ctx, params)
		ms := float64(time.Since(t0).Milliseconds())

		if err != nil {
			if !isRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		modelAttr := attribute.String("rd.ai.model", string(c.model))
		if aiMetrics.inputTokens != nil {
			aiMetrics.inputTokens.Add(ctx, message.Usage.InputTokens, metric.WithAttributes(modelAttr))
			aiMetrics.outputTokens.Add(ctx, message.Usage.OutputTokens, metric.WithAttributes(modelAttr))
			aiMetrics.duration.Record(ctx, ms, metric.WithAttributes(modelAttr))
		}
		span.SetAttributes(
			attribute.Int64("rd.ai.input_tokens", message.Usage.InputTokens),
			attribute.Int64("rd.ai.output_tokens", message.Usage.OutputTokens),
		)

		if len(message.Content) == 0 {
			return backoff.Permanent(fmt.Errorf("unexpected response format: no content blocks"))
		}
		content := message.Content[0]
		if content.Type != "text" {
			return backoff.Permanent(fmt.Errorf("unexpected response format: not a text block (type=%s)", content.Type))
		}
		text = content.Text
		return nil
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("%w: %s: %v", review.ErrUnavailable, operation, err)
	}
	return text, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}

	return false
}
