package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quiplabs/quip-backend/internal/logger"
)

// GenerationError wraps any failure of the generation collaborator,
// including structurally invalid responses.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

type SectionOutline struct {
	SectionTitle       string `json:"section_title"`
	SectionDescription string `json:"section_description"`
}

type CourseOutline struct {
	CourseTitle       string           `json:"course_title"`
	CourseDescription string           `json:"course_description"`
	Sections          []SectionOutline `json:"sections"`
}

// GenerationClient is the collaborator that produces course structure
// and content. All calls block until the model responds or fails.
type GenerationClient interface {
	ValidateCourseRequest(ctx context.Context, description string) (bool, error)
	GenerateOutline(ctx context.Context, description, level string) (*CourseOutline, error)
	GenerateSectionContent(ctx context.Context, sectionDescription string) (string, error)
}

type geminiClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewGeminiClient(log *logger.Logger) (GenerationClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := os.Getenv("GEMINI_BASE_URL")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	timeoutSec := 180
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 4
	if v := os.Getenv("GEMINI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &geminiClient{
		log:        log.With("service", "GeminiClient"),
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

func (c *geminiClient) ValidateCourseRequest(ctx context.Context, description string) (bool, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_valid_course_request": map[string]any{"type": "boolean"},
		},
		"required": []string{"is_valid_course_request"},
	}
	raw, err := c.generateJSON(ctx, systemPromptValidator, description, schema)
	if err != nil {
		return false, &GenerationError{Op: "validate", Err: err}
	}
	var verdict struct {
		IsValidCourseRequest bool `json:"is_valid_course_request"`
	}
	if err := json.Unmarshal(raw, &verdict); err != nil {
		return false, &GenerationError{Op: "validate", Err: fmt.Errorf("decode verdict: %w", err)}
	}
	return verdict.IsValidCourseRequest, nil
}

func (c *geminiClient) GenerateOutline(ctx context.Context, description, level string) (*CourseOutline, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"course_title":       map[string]any{"type": "string"},
			"course_description": map[string]any{"type": "string"},
			"sections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"section_title":       map[string]any{"type": "string"},
						"section_description": map[string]any{"type": "string"},
					},
					"required": []string{"section_title", "section_description"},
				},
			},
		},
		"required": []string{"course_title", "course_description", "sections"},
	}

	user := fmt.Sprintf("Course Description: %s \n\n Level: %s", description, level)
	raw, err := c.generateJSON(ctx, systemPromptOutline, user, schema)
	if err != nil {
		return nil, &GenerationError{Op: "outline", Err: err}
	}

	var outline CourseOutline
	if err := json.Unmarshal(raw, &outline); err != nil {
		return nil, &GenerationError{Op: "outline", Err: fmt.Errorf("decode outline: %w", err)}
	}
	if strings.TrimSpace(outline.CourseTitle) == "" {
		return nil, &GenerationError{Op: "outline", Err: fmt.Errorf("outline missing course title")}
	}
	if len(outline.Sections) == 0 {
		return nil, &GenerationError{Op: "outline", Err: fmt.Errorf("outline has no sections")}
	}
	return &outline, nil
}

func (c *geminiClient) GenerateSectionContent(ctx context.Context, sectionDescription string) (string, error) {
	text, err := c.generateText(ctx, systemPromptContent, sectionDescription)
	if err != nil {
		return "", &GenerationError{Op: "section content", Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return "", &GenerationError{Op: "section content", Err: fmt.Errorf("empty content response")}
	}
	return text, nil
}

// --- Gemini generateContent wire types ---

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"system_instruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func (c *geminiClient) generateJSON(ctx context.Context, system, user string, schema map[string]any) (json.RawMessage, error) {
	text, err := c.generate(ctx, system, user, &geminiGenConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

func (c *geminiClient) generateText(ctx context.Context, system, user string) (string, error) {
	return c.generate(ctx, system, user, nil)
}

func (c *geminiClient) generate(ctx context.Context, system, user string, cfg *geminiGenConfig) (string, error) {
	body := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: system}}},
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: user}}},
		},
		GenerationConfig: cfg,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := jitterSleep(time.Duration(attempt) * 2 * time.Second)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			c.log.Debug("Retrying generation call", "attempt", attempt, "last_error", lastErr)
		}

		text, err := c.doGenerate(ctx, url, payload)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !isRetryableErr(err) {
			return "", err
		}
	}
	return "", fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *geminiClient) doGenerate(ctx context.Context, url string, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &geminiHTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response has no candidates")
	}

	var sb strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

func isRetryableHTTP(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

func isRetryableErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var httpErr *geminiHTTPError
	if errors.As(err, &httpErr) {
		return isRetryableHTTP(httpErr.StatusCode)
	}
	return false
}

// jitterSleep spreads retries +/- 20% around the base delay.
func jitterSleep(base time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delta := base.Seconds() * 0.2
	low := base.Seconds() - delta
	v := low + rand.Float64()*(2*delta)
	return time.Duration(v * float64(time.Second))
}
