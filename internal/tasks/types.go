package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeDocumentExtraction = "document:extract"
)

// DocumentExtractionPayload identifies an uploaded document awaiting OCR.
type DocumentExtractionPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
}

func NewDocumentExtractionTask(payload DocumentExtractionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDocumentExtraction, data, asynq.Queue("ocr"), asynq.MaxRetry(3)), nil
}
