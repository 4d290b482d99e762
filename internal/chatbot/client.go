package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-portal/internal/config"
)

// Completer produces the assistant reply for a conversation.
type Completer interface {
	Complete(ctx context.Context, turns []Message) (string, error)
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// HTTPCompleter calls an OpenAI-compatible chat completions endpoint.
type HTTPCompleter struct {
	endpoint string
	apiKey   string
	model    string
	timeout  time.Duration
}

// NewHTTPCompleter builds a completer from chatbot configuration.
func NewHTTPCompleter(cfg config.ChatbotConfig) *HTTPCompleter {
	return &HTTPCompleter{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		timeout:  cfg.Timeout(),
	}
}

// Complete posts the conversation and returns the first choice.
func (c *HTTPCompleter) Complete(ctx context.Context, turns []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.apiKey == "" {
		return "", errors.New("chatbot api key not configured")
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(c.endpoint)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+c.apiKey)
	agent.JSON(completionRequest{Model: c.model, Messages: turns})
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		return "", fmt.Errorf("build chatbot request: %w", err)
	}

	var resp completionResponse
	code, body, errs := agent.Struct(&resp)
	if code != fiber.StatusOK {
		if len(errs) > 0 && code == 0 {
			return "", fmt.Errorf("chatbot request: %w", errors.Join(errs...))
		}
		if resp.Error != nil && resp.Error.Message != "" {
			return "", fmt.Errorf("chatbot upstream status %d: %s", code, resp.Error.Message)
		}
		return "", fmt.Errorf("chatbot upstream status %d: %s", code, truncate(string(body), 200))
	}
	if len(errs) > 0 {
		return "", fmt.Errorf("decode chatbot response: %w", errors.Join(errs...))
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("chatbot response has no choices")
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", errors.New("chatbot response is empty")
	}
	return reply, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
