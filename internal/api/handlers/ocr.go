package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/digisaathi/server/internal/api/dto"
	"github.com/digisaathi/server/internal/ocr"
)

// maxUploadSize caps OCR uploads at 10 MiB; scanned bills and statements are
// comfortably under this.
const maxUploadSize = 10 << 20

type OCRHandler struct {
	ocrService *ocr.Service
}

func NewOCRHandler(ocrService *ocr.Service) *OCRHandler {
	return &OCRHandler{ocrService: ocrService}
}

// Upload extracts text from an uploaded image synchronously and returns it
// without persisting anything.
func (h *OCRHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	text, err := h.ocrService.Extract(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, ocr.ErrDecode):
			writeJSON(w, http.StatusUnprocessableEntity, dto.ErrorResponse{Error: "Uploaded file is not a readable image"})
		default:
			writeJSON(w, http.StatusBadGateway, dto.ErrorResponse{Error: "Text extraction failed, please try again"})
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.OCRResponse{
		Filename:      header.Filename,
		ExtractedText: text,
	})
}
