package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/digisaathi/server/internal/ai"
	"github.com/digisaathi/server/internal/database/models"
	"gorm.io/gorm"
)

var (
	// ErrStorage indicates a chat message write failed.
	ErrStorage = errors.New("failed to store chat message")
	// ErrGeneration indicates the AI provider call failed.
	ErrGeneration = errors.New("failed to generate response")
)

// Persona sent as the system instruction on every generation call.
const systemPersona = "You are DigiSaathi, a friendly financial literacy assistant for India. " +
	"Explain money concepts in simple, encouraging language, avoid jargon, " +
	"and never give specific investment recommendations. " +
	"When asked about scams or fraud, always advise caution and verification through official channels."

type Service struct {
	db        *gorm.DB
	generator ai.Generator
	logger    *slog.Logger
}

func NewService(db *gorm.DB, generator ai.Generator, logger *slog.Logger) *Service {
	return &Service{db: db, generator: generator, logger: logger}
}

type Input struct {
	Message string
	// Optional override of the user's stored language preference.
	Language string
}

type Result struct {
	Response         string
	UserMessage      *models.ChatMessage
	AssistantMessage *models.ChatMessage
}

// Chat runs one turn: persist the inbound message, call the generator, and
// persist the response. The two writes and the external call are treated as
// one logical operation — if a later step fails, the inbound row is removed
// so a turn never half-exists.
func (s *Service) Chat(ctx context.Context, user *models.User, input Input) (*Result, error) {
	inbound := &models.ChatMessage{
		Message:    input.Message,
		IsFromUser: true,
		OwnerID:    user.ID,
	}
	if err := s.db.WithContext(ctx).Create(inbound).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	response, err := s.generator.Generate(ctx, systemPersona, composePrompt(user, input))
	if err != nil {
		s.compensate(inbound)
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	outbound := &models.ChatMessage{
		Message:    response,
		IsFromUser: false,
		OwnerID:    user.ID,
	}
	if err := s.db.WithContext(ctx).Create(outbound).Error; err != nil {
		s.compensate(inbound)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return &Result{
		Response:         response,
		UserMessage:      inbound,
		AssistantMessage: outbound,
	}, nil
}

// History returns the user's messages, oldest first.
func (s *Service) History(ctx context.Context, user *models.User, offset, limit int) ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", user.ID).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return messages, nil
}

// compensate removes the inbound row after a failed turn. Best effort: a
// delete failure is logged, not surfaced, since the request already failed.
func (s *Service) compensate(inbound *models.ChatMessage) {
	if err := s.db.Unscoped().Delete(inbound).Error; err != nil {
		s.logger.Error("failed to remove orphaned chat message",
			"message_id", inbound.ID,
			"error", err,
		)
	}
}

// composePrompt folds the caller's identity, language preference, and free
// text into the single block sent to the generator.
func composePrompt(user *models.User, input Input) string {
	name := strings.TrimSpace(user.FullName)
	if name == "" {
		name = user.Email
	}

	language := strings.TrimSpace(input.Language)
	if language == "" {
		language = user.Language
	}

	var b strings.Builder
	fmt.Fprintf(&b, "The user's name is %s.", name)
	if language != "" && language != "en" {
		fmt.Fprintf(&b, " Respond in the language with code %q.", language)
	}
	fmt.Fprintf(&b, "\n\nUser message: %s", input.Message)
	return b.String()
}
