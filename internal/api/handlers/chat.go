package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/digisaathi/server/internal/api/dto"
	"github.com/digisaathi/server/internal/api/middleware"
	"github.com/digisaathi/server/internal/auth"
	"github.com/digisaathi/server/internal/chat"
)

type ChatHandler struct {
	chatService *chat.Service
	authService *auth.Service
}

func NewChatHandler(chatService *chat.Service, authService *auth.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService, authService: authService}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if errors := req.Validate(); len(errors) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errors})
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "User not found"})
		return
	}

	result, err := h.chatService.Chat(r.Context(), user, chat.Input{
		Message:  req.Message,
		Language: req.Language,
	})

	if err != nil {
		switch {
		case errors.Is(err, chat.ErrGeneration):
			writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: "The assistant is unavailable right now, please try again"})
		default:
			writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to process chat message"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ChatResponse{
		Response: result.Response,
		Message:  req.Message,
	})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "User not found"})
		return
	}

	params := parsePagination(r)

	messages, err := h.chatService.History(r.Context(), user, params.Offset(), params.PerPage)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load chat history"})
		return
	}

	out := make([]dto.ChatMessageDTO, 0, len(messages))
	for _, m := range messages {
		out = append(out, dto.ChatMessageDTO{
			ID:         m.ID.String(),
			Message:    m.Message,
			IsFromUser: m.IsFromUser,
			CreatedAt:  m.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, out)
}
