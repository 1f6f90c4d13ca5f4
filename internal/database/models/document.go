package models

import "github.com/google/uuid"

type DocumentStatus string

const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusProcessed  DocumentStatus = "processed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Document is uploaded-file metadata owned by a user. The file itself lives
// in the object store under StorageKey; ExtractedText is age-encrypted.
type Document struct {
	Base
	Filename    string `gorm:"not null" json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	StorageKey  string `gorm:"uniqueIndex" json:"-"`
	// Base64 ciphertext of the OCR output. Empty until processed.
	ExtractedText string         `gorm:"type:text" json:"-"`
	Status        DocumentStatus `gorm:"default:'uploaded'" json:"status"`
	// Set when OCR fails, for operator triage.
	FailureReason string    `json:"failure_reason,omitempty"`
	OwnerID       uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (Document) TableName() string {
	return "documents"
}
