package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/digisaathi/server/internal/api/dto"
	"github.com/digisaathi/server/internal/api/middleware"
	"github.com/digisaathi/server/internal/database/models"
	"github.com/digisaathi/server/internal/documents"
	"github.com/digisaathi/server/internal/tasks"
)

type DocumentHandler struct {
	docService  *documents.Service
	asynqClient *asynq.Client
	logger      *slog.Logger
}

func NewDocumentHandler(docService *documents.Service, asynqClient *asynq.Client, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{docService: docService, asynqClient: asynqClient, logger: logger}
}

// Upload stores the document and queues background text extraction. The
// response carries status "uploaded"; clients poll the document until it
// reaches "processed" or "failed".
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "A file upload named 'file' is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Failed to read uploaded file"})
		return
	}

	ownerID := middleware.GetUserID(r.Context())

	doc, err := h.docService.Upload(r.Context(), ownerID, documents.UploadInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to store document"})
		return
	}

	if h.asynqClient == nil {
		h.logger.Warn("no queue client, document extraction skipped", "document_id", doc.ID)
	} else {
		task, err := tasks.NewDocumentExtractionTask(tasks.DocumentExtractionPayload{
			DocumentID: doc.ID,
			OwnerID:    ownerID,
		})
		if err == nil {
			_, err = h.asynqClient.EnqueueContext(r.Context(), task)
		}
		if err != nil {
			// The document is stored; extraction can be re-queued later.
			h.logger.Error("failed to enqueue document extraction", "document_id", doc.ID, "error", err)
		}
	}

	writeJSON(w, http.StatusCreated, h.toDocumentDTO(doc, false))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.GetUserID(r.Context())
	params := parsePagination(r)

	docs, total, err := h.docService.List(r.Context(), ownerID, params.Offset(), params.PerPage)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to list documents"})
		return
	}

	out := make([]dto.DocumentDTO, 0, len(docs))
	for i := range docs {
		out = append(out, h.toDocumentDTO(&docs[i], false))
	}

	totalPages := int((total + int64(params.PerPage) - 1) / int64(params.PerPage))

	writeJSON(w, http.StatusOK, dto.PaginatedResponse{
		Data:       out,
		Total:      total,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
	})
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid document ID"})
		return
	}

	ownerID := middleware.GetUserID(r.Context())

	doc, err := h.docService.Get(r.Context(), ownerID, id)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Document not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load document"})
		return
	}

	writeJSON(w, http.StatusOK, h.toDocumentDTO(doc, true))
}

func (h *DocumentHandler) toDocumentDTO(doc *models.Document, includeText bool) dto.DocumentDTO {
	out := dto.DocumentDTO{
		ID:            doc.ID.String(),
		Filename:      doc.Filename,
		ContentType:   doc.ContentType,
		Size:          doc.Size,
		Status:        string(doc.Status),
		FailureReason: doc.FailureReason,
		CreatedAt:     doc.CreatedAt.Format(time.RFC3339),
	}

	if includeText && doc.Status == models.DocumentStatusProcessed {
		text, err := h.docService.ExtractedText(doc)
		if err != nil {
			h.logger.Error("failed to decrypt extracted text", "document_id", doc.ID, "error", err)
		} else {
			out.ExtractedText = text
		}
	}

	return out
}

func parsePagination(r *http.Request) dto.PaginationParams {
	params := dto.PaginationParams{}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		params.Page = page
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil {
		params.PerPage = perPage
	}
	params.Normalize()
	return params
}
