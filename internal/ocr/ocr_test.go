package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

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

// pngBytes encodes a small blank image so decode validation passes.
func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestService_Extract(t *testing.T) {
	svc := NewService(&stubEngine{text: "  Total due: Rs 1,240\n"})

	text, err := svc.Extract(context.Background(), pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "Total due: Rs 1,240", text)
}

func TestService_Extract_EmptyTextIsNotAnError(t *testing.T) {
	svc := NewService(&stubEngine{text: "   \n"})

	text, err := svc.Extract(context.Background(), pngBytes(t))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestService_Extract_NonImagePayload(t *testing.T) {
	svc := NewService(&stubEngine{text: "never reached"})

	for name, payload := range map[string][]byte{
		"empty":      nil,
		"plain text": []byte("this is a pdf, honest"),
		"truncated":  pngBytes(t)[:4],
	} {
		_, err := svc.Extract(context.Background(), payload)
		assert.ErrorIs(t, err, ErrDecode, name)
	}
}

func TestService_Extract_EngineFailure(t *testing.T) {
	svc := NewService(&stubEngine{err: errors.New("tesseract not found")})

	_, err := svc.Extract(context.Background(), pngBytes(t))
	assert.ErrorIs(t, err, ErrEngine)
	assert.NotErrorIs(t, err, ErrDecode)
}
