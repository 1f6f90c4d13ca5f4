package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/digisaathi/server/internal/database/models"
	"github.com/digisaathi/server/internal/documents"
	"github.com/digisaathi/server/internal/ocr"
	"github.com/digisaathi/server/pkg/crypto"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

type Handler struct {
	db         *gorm.DB
	logger     *slog.Logger
	docService *documents.Service
	ocrService *ocr.Service
	encryptor  *crypto.Encryptor
}

func NewHandler(db *gorm.DB, logger *slog.Logger, docService *documents.Service, ocrService *ocr.Service, encryptor *crypto.Encryptor) *Handler {
	return &Handler{
		db:         db,
		logger:     logger,
		docService: docService,
		ocrService: ocrService,
		encryptor:  encryptor,
	}
}

func (h *Handler) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeDocumentExtraction, h.HandleDocumentExtraction)
}

// HandleDocumentExtraction downloads an uploaded document, runs OCR, and
// stores the encrypted text on the row. Decode failures are terminal (the
// payload will never become an image); engine failures are returned so asynq
// retries them.
func (h *Handler) HandleDocumentExtraction(ctx context.Context, t *asynq.Task) error {
	var payload DocumentExtractionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	h.logger.Info("starting document extraction",
		"document_id", payload.DocumentID,
		"owner_id", payload.OwnerID,
	)

	doc, err := h.docService.Get(ctx, payload.OwnerID, payload.DocumentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			h.logger.Warn("document vanished before extraction", "document_id", payload.DocumentID)
			return nil
		}
		return err
	}

	if err := h.updateStatus(doc.ID, models.DocumentStatusProcessing, ""); err != nil {
		return err
	}

	data, err := h.docService.Object(ctx, doc)
	if err != nil {
		return err
	}

	text, err := h.ocrService.Extract(ctx, data)
	if err != nil {
		if errors.Is(err, ocr.ErrDecode) {
			h.logger.Warn("document is not a decodable image", "document_id", doc.ID)
			return h.updateStatus(doc.ID, models.DocumentStatusFailed, err.Error())
		}
		if statusErr := h.updateStatus(doc.ID, models.DocumentStatusFailed, err.Error()); statusErr != nil {
			h.logger.Error("failed to mark document failed", "document_id", doc.ID, "error", statusErr)
		}
		return err
	}

	ciphertext, err := h.encryptor.EncryptString(text)
	if err != nil {
		return fmt.Errorf("encrypting extracted text: %w", err)
	}

	if err := h.db.Model(&models.Document{}).
		Where("id = ?", doc.ID).
		Updates(map[string]interface{}{
			"extracted_text": ciphertext,
			"status":         models.DocumentStatusProcessed,
			"failure_reason": "",
		}).Error; err != nil {
		return fmt.Errorf("storing extracted text: %w", err)
	}

	h.logger.Info("document extraction complete",
		"document_id", doc.ID,
		"chars", len(text),
	)
	return nil
}

func (h *Handler) updateStatus(id uuid.UUID, status models.DocumentStatus, reason string) error {
	return h.db.Model(&models.Document{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":         status,
			"failure_reason": reason,
		}).Error
}
