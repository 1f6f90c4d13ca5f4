package dto

import "github.com/digisaathi/server/internal/api/validation"

// Inbound chat turns are capped well below model context limits; anything
// longer is almost certainly a paste mistake.
const maxChatMessageLength = 4000

type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

func (r ChatRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Message == "" {
		errors["message"] = "Message is required"
	} else if len(r.Message) > maxChatMessageLength {
		errors["message"] = "Message is too long"
	}
	if r.Language != "" && !validation.IsValidLanguage(r.Language) {
		errors["language"] = "Language must be a two-letter code like en or hi"
	}

	return errors
}

type ChatResponse struct {
	Response string `json:"response"`
	Message  string `json:"message"`
}

type ChatMessageDTO struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	IsFromUser bool   `json:"is_from_user"`
	CreatedAt  string `json:"created_at"`
}
