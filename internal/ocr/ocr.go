package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	// Registered formats accepted for upload.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

var (
	// ErrDecode means the payload is not a decodable image. Caller error.
	ErrDecode = errors.New("payload is not a decodable image")
	// ErrEngine means Tesseract itself failed. Server-side error.
	ErrEngine = errors.New("ocr engine failure")
)

// Engine extracts text from a decoded-valid image payload.
type Engine interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// Service validates payloads before handing them to the engine so decode
// failures and engine failures stay distinct. An image with no recognizable
// text yields an empty string, which is a valid result, not an error.
type Service struct {
	engine Engine
}

func NewService(engine Engine) *Service {
	return &Service{engine: engine}
}

// Extract returns the text found in an uploaded image.
func (s *Service) Extract(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty payload", ErrDecode)
	}
	if _, format, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	} else if format == "" {
		return "", ErrDecode
	}

	text, err := s.engine.ExtractText(ctx, data)
	if err != nil {
		if errors.Is(err, ErrEngine) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}
	return strings.TrimSpace(text), nil
}
