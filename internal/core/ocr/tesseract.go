// Package ocr wraps the Tesseract engine behind core.OCREngine.
// It links against libtesseract through cgo.
package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"

	"github.com/markdave123-py/contexta-qa/internal/core"
)

var _ core.OCREngine = (*Tesseract)(nil)

// Tesseract runs the Tesseract engine through gosseract. gosseract clients
// are not safe for concurrent use, so each call gets its own.
type Tesseract struct {
	language    string
	tessdataDir string
}

func NewTesseract(language, tessdataDir string) *Tesseract {
	if language == "" {
		language = "eng"
	}
	return &Tesseract{language: language, tessdataDir: tessdataDir}
}

func (t *Tesseract) Recognize(ctx context.Context, img *image.RGBA) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode ocr input: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataDir != "" {
		if err := client.SetTessdataPrefix(t.tessdataDir); err != nil {
			return "", fmt.Errorf("tesseract tessdata: %w", err)
		}
	}
	if err := client.SetLanguage(t.language); err != nil {
		return "", fmt.Errorf("tesseract language: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("tesseract image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}
