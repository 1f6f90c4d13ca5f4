package tasks_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"testing"

	"github.com/digisaathi/server/internal/database/models"
	"github.com/digisaathi/server/internal/documents"
	"github.com/digisaathi/server/internal/ocr"
	"github.com/digisaathi/server/internal/storage"
	"github.com/digisaathi/server/internal/tasks"
	"github.com/digisaathi/server/internal/testutil"
	"github.com/digisaathi/server/pkg/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	text string
	err  error
}

func (s *stubEngine) ExtractText(ctx context.Context, image []byte) (string, error) {
	return s.text, s.err
}

type fixture struct {
	tc         *testutil.TestSetup
	docService *documents.Service
	handler    *tasks.Handler
	encryptor  *crypto.Encryptor
}

func newFixture(t *testing.T, engine ocr.Engine) *fixture {
	t.Helper()

	tc := testutil.NewTestContext(t)
	t.Cleanup(tc.Cleanup)

	enc, err := crypto.NewEncryptor("")
	require.NoError(t, err)

	docService := documents.NewService(tc.DB, storage.NewMemoryStore(), enc, slog.Default())
	handler := tasks.NewHandler(tc.DB, slog.Default(), docService, ocr.NewService(engine), enc)

	return &fixture{tc: tc, docService: docService, handler: handler, encryptor: enc}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func (f *fixture) upload(t *testing.T, data []byte) *models.Document {
	t.Helper()
	doc, err := f.docService.Upload(context.Background(), f.tc.User.ID, documents.UploadInput{
		Filename:    "statement.png",
		ContentType: "image/png",
		Data:        data,
	})
	require.NoError(t, err)
	return doc
}

func (f *fixture) runTask(t *testing.T, doc *models.Document) error {
	t.Helper()
	task, err := tasks.NewDocumentExtractionTask(tasks.DocumentExtractionPayload{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
	})
	require.NoError(t, err)
	return f.handler.HandleDocumentExtraction(context.Background(), task)
}

func TestHandleDocumentExtraction(t *testing.T) {
	f := newFixture(t, &stubEngine{text: "Total due: Rs 1,240"})
	doc := f.upload(t, pngBytes(t))

	require.NoError(t, f.runTask(t, doc))

	var updated models.Document
	require.NoError(t, f.tc.DB.First(&updated, doc.ID).Error)
	assert.Equal(t, models.DocumentStatusProcessed, updated.Status)
	assert.Empty(t, updated.FailureReason)

	// The stored text is ciphertext; it decrypts back to the OCR output.
	assert.NotEmpty(t, updated.ExtractedText)
	assert.NotEqual(t, "Total due: Rs 1,240", updated.ExtractedText)

	text, err := f.docService.ExtractedText(&updated)
	require.NoError(t, err)
	assert.Equal(t, "Total due: Rs 1,240", text)
}

func TestHandleDocumentExtraction_NonImageIsTerminal(t *testing.T) {
	f := newFixture(t, &stubEngine{text: "never reached"})
	doc := f.upload(t, []byte("not an image"))

	// Decode failures do not requeue.
	require.NoError(t, f.runTask(t, doc))

	var updated models.Document
	require.NoError(t, f.tc.DB.First(&updated, doc.ID).Error)
	assert.Equal(t, models.DocumentStatusFailed, updated.Status)
	assert.NotEmpty(t, updated.FailureReason)
}

func TestHandleDocumentExtraction_EngineFailureRetries(t *testing.T) {
	f := newFixture(t, &stubEngine{err: errors.New("tesseract crashed")})
	doc := f.upload(t, pngBytes(t))

	// Engine failures propagate so asynq retries the task.
	err := f.runTask(t, doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, ocr.ErrEngine)

	var updated models.Document
	require.NoError(t, f.tc.DB.First(&updated, doc.ID).Error)
	assert.Equal(t, models.DocumentStatusFailed, updated.Status)
}

func TestHandleDocumentExtraction_MissingDocument(t *testing.T) {
	f := newFixture(t, &stubEngine{text: "ok"})

	task, err := tasks.NewDocumentExtractionTask(tasks.DocumentExtractionPayload{
		DocumentID: uuid.New(),
		OwnerID:    f.tc.User.ID,
	})
	require.NoError(t, err)

	// A vanished document is not an error worth retrying.
	assert.NoError(t, f.handler.HandleDocumentExtraction(context.Background(), task))
}
