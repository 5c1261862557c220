package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/daybreak-app/daybreak-api/internal/config"
	"github.com/daybreak-app/daybreak-api/internal/domain"
	"github.com/daybreak-app/daybreak-api/internal/generation"
)

const (
	// generationTemperature keeps plan output mostly deterministic while
	// leaving the model room to phrase content naturally.
	generationTemperature float32 = 0.3

	// maxOutlineSections caps how much of the outline is inlined into the
	// analysis prompt for very large documents.
	maxOutlineSections = 200
)

// Capability implements the generation.Capability interface using
// Google's Gemini API.
type Capability struct {
	logger *slog.Logger
	config config.LLMConfig
}

// NewCapability creates a new Gemini-backed Capability with the provided
// dependencies. The configuration carries the model name and retry policy;
// API credentials arrive with each request.
func NewCapability(logger *slog.Logger, cfg config.LLMConfig) (*Capability, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	return &Capability{
		logger: logger.With(slog.String("component", "gemini_capability")),
		config: cfg,
	}, nil
}

// Ensure Capability implements generation.Capability interface
var _ generation.Capability = (*Capability)(nil)

// Analyze implements generation.Capability.Analyze
func (c *Capability) Analyze(ctx context.Context, req generation.AnalyzeRequest) (*generation.Analysis, error) {
	if req.Credential == "" {
		return nil, generation.ErrMissingCredential
	}
	if req.Text == "" {
		return nil, fmt.Errorf("%w: empty document text", generation.ErrAnalysisFailed)
	}

	prompt := buildAnalysisPrompt(req.Text, req.Outline)
	text, err := c.callWithRetry(ctx, req.Credential, analysisSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrAnalysisFailed, err)
	}

	var analysis generation.Analysis
	if err := json.Unmarshal([]byte(stripFences(text)), &analysis); err != nil {
		return nil, fmt.Errorf("%w: failed to parse analysis JSON: %v", generation.ErrInvalidResponse, err)
	}
	return &analysis, nil
}

// GeneratePlan implements generation.Capability.GeneratePlan
func (c *Capability) GeneratePlan(ctx context.Context, req generation.PlanRequest) (*generation.PlanSchema, error) {
	if req.Credential == "" {
		return nil, generation.ErrMissingCredential
	}
	if req.Analysis == nil {
		return nil, fmt.Errorf("%w: missing analysis", generation.ErrGenerationFailed)
	}

	prompt, err := buildPlanPrompt(req.Analysis, req.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := c.callWithRetry(ctx, req.Credential, planSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	var schema generation.PlanSchema
	if err := json.Unmarshal([]byte(stripFences(text)), &schema); err != nil {
		return nil, fmt.Errorf("%w: failed to parse plan JSON: %v", generation.ErrInvalidResponse, err)
	}
	if len(schema.Modules) == 0 {
		return nil, fmt.Errorf("%w: plan has no modules", generation.ErrInvalidResponse)
	}
	return &schema, nil
}

// callWithRetry makes a Gemini API call with exponential backoff and
// jitter. Transient errors are retried up to the configured limit;
// permanent errors (blocked content, unparseable responses) are returned
// immediately. A fresh client is built from the credential on every call.
func (c *Capability) callWithRetry(
	ctx context.Context,
	credential, systemPrompt, userPrompt string,
) (string, error) {
	maxRetries := c.config.MaxRetries
	baseDelaySeconds := c.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		c.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}
	if baseDelaySeconds < 1 {
		c.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  credential,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to create client: %v", generation.ErrInvalidConfig, err)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:       genai.Ptr(generationTemperature),
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptNum := attempt + 1
		c.logger.InfoContext(ctx, "making Gemini API call",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1,
			"model", c.config.ModelName)

		text, transient, err := c.generateOnce(ctx, client, genConfig, userPrompt)
		if err == nil {
			c.logger.InfoContext(ctx, "Gemini API call successful", "attempt", attemptNum)
			return text, nil
		}
		lastErr = err

		c.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attemptNum,
			"error", err)

		if !transient {
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, lastErr)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		c.logger.InfoContext(ctx, "retrying after delay",
			"attempt", attemptNum,
			"delay", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, lastErr)
}

// generateOnce performs a single GenerateContent call and classifies its
// failure as transient (retryable) or permanent.
func (c *Capability) generateOnce(
	ctx context.Context,
	client *genai.Client,
	genConfig *genai.GenerateContentConfig,
	prompt string,
) (text string, transient bool, err error) {
	resp, err := client.Models.GenerateContent(ctx, c.config.ModelName, genai.Text(prompt), genConfig)
	if err != nil {
		return "", true, fmt.Errorf("API call failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", false, fmt.Errorf("%w: blocked by safety filters", generation.ErrContentBlocked)
	}
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", false, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	if sb.Len() == 0 {
		return "", false, fmt.Errorf("%w: no text in response", generation.ErrInvalidResponse)
	}
	return sb.String(), false, nil
}

func buildAnalysisPrompt(text string, outline []domain.Section) string {
	var sb strings.Builder
	sb.WriteString("Analyze this curriculum content.\n\nDocument outline:\n")

	sections := outline
	if len(sections) > maxOutlineSections {
		sections = sections[:maxOutlineSections]
	}
	for _, section := range sections {
		fmt.Fprintf(&sb, "%s %s (page %d, complexity %d)\n",
			strings.Repeat("#", max(section.Level, 1)),
			section.Heading,
			section.PageNumber,
			section.EstimatedComplexity)
	}

	sb.WriteString("\nFull content:\n\n")
	sb.WriteString(text)
	return sb.String()
}

func buildPlanPrompt(analysis *generation.Analysis, text string) (string, error) {
	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal analysis: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("Generate a structured learning plan from this curriculum content.\n\nAnalysis:\n")
	sb.Write(analysisJSON)
	sb.WriteString("\n\nSource content:\n\n")
	sb.WriteString(text)
	return sb.String(), nil
}

// stripFences removes a surrounding markdown code fence from model output.
// The prompts forbid fences but models add them anyway often enough that
// parsing has to tolerate it.
func stripFences(response string) string {
	trimmed := strings.TrimSpace(response)

	if rest, ok := strings.CutPrefix(trimmed, "```json"); ok {
		if body, ok := strings.CutSuffix(rest, "```"); ok {
			return strings.TrimSpace(body)
		}
		return trimmed
	}
	if rest, ok := strings.CutPrefix(trimmed, "```"); ok {
		if body, ok := strings.CutSuffix(rest, "```"); ok {
			return strings.TrimSpace(body)
		}
	}
	return trimmed
}
