// Package ai improves and drafts prompt text through an OpenAI compatible
// chat completions API (OpenRouter by default).
package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/existflow/promptpicker/internal/license"
	"github.com/existflow/promptpicker/internal/logger"
	"github.com/existflow/promptpicker/internal/model"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	DefaultModel   = "moonshotai/kimi-k2:free"

	maxTokens   = 2000
	temperature = 0.7

	appReferer = "https://prompt-buddy.app"
	appTitle   = "Prompt Buddy"
)

// User facing failures
var (
	ErrNoAPIKey      = errors.New("AI API key not found. Set OPENROUTER_API_KEY or ai.api_key in the config file.")
	ErrInvalidKey    = errors.New("Invalid API key. Please check your OpenRouter API key.")
	ErrRateLimited   = errors.New("Rate limit exceeded. Please try again later.")
	ErrRequestFailed = errors.New("Failed to generate response")
)

// DeniedError is returned when the license does not include AI features
type DeniedError struct {
	Reason string
}

func (e *DeniedError) Error() string { return e.Reason }

const enhanceSystemPrompt = `You are a prompt engineering expert. Your task is to improve and enhance prompts for AI assistants.

Guidelines:
- Make prompts more specific and actionable
- Add relevant context and constraints
- Improve clarity and structure
- Maintain the original intent
- Keep prompts concise but comprehensive
- Focus on practical, usable improvements`

const generateSystemPrompt = `You are a prompt engineering expert. Create effective, clear, and actionable prompts for AI assistants based on user descriptions.

Guidelines:
- Make prompts specific and detailed
- Include relevant context and constraints
- Use clear, direct language
- Focus on desired outcomes
- Keep prompts practical and usable`

// Config selects the endpoint
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// TierFunc reports the caller's current tier
type TierFunc func(ctx context.Context) (model.Tier, error)

// Service calls the chat completions API
type Service struct {
	client *openai.Client
	model  string
	tier   TierFunc
}

// headerTransport adds the attribution headers OpenRouter asks for
type headerTransport struct {
	base http.RoundTripper
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("HTTP-Referer", appReferer)
	req.Header.Set("X-Title", appTitle)
	return t.base.RoundTrip(req)
}

// New creates a service. tier gates every call; nil means always allowed.
func New(cfg Config, tier TierFunc) (*Service, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = DefaultBaseURL
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	clientConfig.HTTPClient = &http.Client{Transport: headerTransport{base: http.DefaultTransport}}

	m := cfg.Model
	if m == "" {
		m = DefaultModel
	}

	return &Service{
		client: openai.NewClientWithConfig(clientConfig),
		model:  m,
		tier:   tier,
	}, nil
}

// Enhance rewrites content following instruction
func (s *Service) Enhance(ctx context.Context, content, instruction string) (string, error) {
	user := fmt.Sprintf(`Please enhance this prompt based on the following request:

Original prompt: "%s"

Enhancement request: "%s"

Return only the improved prompt, without any explanation or additional text.`, content, instruction)

	return s.complete(ctx, enhanceSystemPrompt, user)
}

// Generate drafts a prompt from a description
func (s *Service) Generate(ctx context.Context, description string) (string, error) {
	user := fmt.Sprintf(`Create a prompt based on this description: "%s"

Return only the prompt, without any explanation or additional text.`, description)

	return s.complete(ctx, generateSystemPrompt, user)
}

func (s *Service) complete(ctx context.Context, system, user string) (string, error) {
	if s.tier != nil {
		tier, err := s.tier(ctx)
		if err != nil {
			return "", err
		}
		if d := license.Allow(tier, license.FeatureAI); !d.Allowed {
			return "", &DeniedError{Reason: d.Reason}
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		logger.Warn("AI request failed", logger.F("model", s.model), logger.F("error", err))
		return "", mapError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "No response generated", nil
	}

	content := resp.Choices[0].Message.Content
	logger.Info("AI response received", logger.F("model", s.model), logger.F("chars", len(content)))
	return strings.TrimSpace(content), nil
}

// mapError turns provider failures into short messages for the user
func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	status := 0
	message := ""

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		message = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusUnauthorized:
		return ErrInvalidKey
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case message != "":
		return errors.New(message)
	default:
		return ErrRequestFailed
	}
}
