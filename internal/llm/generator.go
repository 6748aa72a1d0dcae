// Package llm is the boundary to the external text-generation service.
//
// A Generator is resolved once at startup: an OpenAI-compatible client when
// an API key is configured, Unavailable otherwise. Call sites go through
// WithFallback so a failed, slow or empty generation always degrades to the
// caller's deterministic result.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/lab-report-summarizer/internal/config"
	"github.com/BerylCAtieno/lab-report-summarizer/internal/utils"
)

var (
	ErrUnavailable   = errors.New("generation service not configured")
	ErrEmptyResponse = errors.New("generation service returned no text")
)

type Generator interface {
	// Available reports whether Generate can be attempted at all.
	Available() bool
	Generate(ctx context.Context, systemPrompt, userContent string) (string, error)
}

// Unavailable is the Generator used when no service is configured.
type Unavailable struct{}

func (Unavailable) Available() bool { return false }

func (Unavailable) Generate(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

// New picks the Generator variant from cfg.
func New(cfg *config.Config, logger *utils.Logger) Generator {
	if !cfg.LLMConfigured() {
		logger.Info("LLM_API_KEY not set, using rule-based summaries and chat")
		return Unavailable{}
	}
	logger.Info("Generation service configured", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
	return NewOpenAIGenerator(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTimeout)
}

// WithFallback returns the trimmed generated text, or fallback() when the
// generator is unavailable, fails, panics or answers with blank text.
func WithFallback(ctx context.Context, g Generator, logger *utils.Logger, op, systemPrompt, userContent string, fallback func() string) (out string) {
	if g == nil || !g.Available() {
		return fallback()
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Generation panicked, using fallback", "op", op, "panic", fmt.Sprint(r))
			out = fallback()
		}
	}()

	text, err := g.Generate(ctx, systemPrompt, userContent)
	if err != nil {
		logger.Warn("Generation failed, using fallback", "op", op, "error", err)
		return fallback()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		logger.Warn("Generation failed, using fallback", "op", op, "error", ErrEmptyResponse)
		return fallback()
	}

	return text
}
