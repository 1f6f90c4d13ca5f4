package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs OCR through the system Tesseract installation. A
// fresh client per call keeps the engine safe under concurrent requests;
// gosseract clients are not goroutine-safe.
type TesseractEngine struct {
	languages []string
}

func NewTesseractEngine(languages []string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages}
}

func (e *TesseractEngine) ExtractText(ctx context.Context, img []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("%w: setting languages: %v", ErrEngine, err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("%w: loading image: %v", ErrEngine, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEngine, err)
	}
	return text, nil
}

var _ Engine = (*TesseractEngine)(nil)
