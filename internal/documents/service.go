package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/digisaathi/server/internal/database/models"
	"github.com/digisaathi/server/internal/storage"
	"github.com/digisaathi/server/pkg/crypto"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrStorage  = errors.New("document storage failure")
)

// Service owns document metadata rows and the raw uploads behind them.
type Service struct {
	db        *gorm.DB
	store     storage.ObjectStore
	encryptor *crypto.Encryptor
	logger    *slog.Logger
}

func NewService(db *gorm.DB, store storage.ObjectStore, encryptor *crypto.Encryptor, logger *slog.Logger) *Service {
	return &Service{db: db, store: store, encryptor: encryptor, logger: logger}
}

type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Upload stores the raw file in the object store and records the metadata
// row. If the row write fails the stored object is removed, so a Document
// never points at a missing object.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, input UploadInput) (*models.Document, error) {
	key := fmt.Sprintf("documents/%s/%s", ownerID, uuid.New())

	if err := s.store.Put(ctx, key, bytes.NewReader(input.Data), input.ContentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	doc := &models.Document{
		Filename:    input.Filename,
		ContentType: input.ContentType,
		Size:        int64(len(input.Data)),
		StorageKey:  key,
		Status:      models.DocumentStatusUploaded,
		OwnerID:     ownerID,
	}
	if err := s.db.WithContext(ctx).Create(doc).Error; err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.logger.Error("failed to remove orphaned object", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return doc, nil
}

// List returns the owner's documents in insertion order with the total count.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]models.Document, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Document{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	var docs []models.Document
	if err := query.
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	return docs, total, nil
}

// Get returns a single document, scoped to its owner.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return &doc, nil
}

// ExtractedText decrypts the stored OCR output. Empty until the document has
// been processed.
func (s *Service) ExtractedText(doc *models.Document) (string, error) {
	if doc.ExtractedText == "" {
		return "", nil
	}
	return s.encryptor.DecryptString(doc.ExtractedText)
}

// Object fetches the raw upload for a document.
func (s *Service) Object(ctx context.Context, doc *models.Document) ([]byte, error) {
	data, err := s.store.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return data, nil
}
