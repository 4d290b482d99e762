package chatbot

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	apperrors "github.com/spec-kit/support-portal/pkg/util/errorutil"
)

// MaxMessageLength bounds a single user turn.
const MaxMessageLength = 4000

const unavailableMessage = "The assistant is unavailable right now. Please try again later."

// Service relays user messages to the completion backend and keeps history.
type Service struct {
	history      HistoryStore
	completer    Completer
	limiter      *Limiter
	systemPrompt string
	logger       *zap.Logger
}

// NewService wires the chatbot. A nil limiter disables rate limiting.
func NewService(history HistoryStore, completer Completer, limiter *Limiter, systemPrompt string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		history:      history,
		completer:    completer,
		limiter:      limiter,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
}

// Send appends text to the user's conversation and returns the reply.
// History is only written once the upstream call succeeds.
func (s *Service) Send(ctx context.Context, userID, text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", apperrors.NewValidationError("message is required", map[string]any{"message": "required"})
	case utf8.RuneCountInString(text) > MaxMessageLength:
		return "", apperrors.NewValidationError("message too long", map[string]any{"message": "must be at most 4000 characters"})
	}
	if s.limiter != nil && !s.limiter.Allow(userID) {
		return "", apperrors.NewRateLimited("too many chatbot messages, slow down")
	}

	history, err := s.history.Load(ctx, userID)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	userTurn := Message{Role: RoleUser, Content: text}
	turns := make([]Message, 0, len(history)+2)
	if s.systemPrompt != "" {
		turns = append(turns, Message{Role: RoleSystem, Content: s.systemPrompt})
	}
	turns = append(turns, history...)
	turns = append(turns, userTurn)

	reply, err := s.completer.Complete(ctx, turns)
	if err != nil {
		s.logger.Warn("chatbot upstream failed", zap.String("user_id", userID), zap.Error(err))
		return "", apperrors.NewUpstreamError(unavailableMessage, err)
	}

	if err := s.history.Append(ctx, userID, userTurn, Message{Role: RoleAssistant, Content: reply}); err != nil {
		s.logger.Error("chatbot history write failed", zap.String("user_id", userID), zap.Error(err))
	}
	return reply, nil
}

// Clear forgets the user's conversation.
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.history.Clear(ctx, userID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}
