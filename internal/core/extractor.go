package core

import (
	"context"
	"image"
)

// TextExtractor turns an uploaded file into plain text.
type TextExtractor interface {
	// Extract picks the reader from the filename extension.
	Extract(ctx context.Context, data []byte, filename string) (string, error)
	// ExtractImage runs OCR over raster image bytes.
	ExtractImage(ctx context.Context, data []byte) (string, error)
}

// OCREngine transcribes text from an RGB image.
type OCREngine interface {
	Recognize(ctx context.Context, img *image.RGBA) (string, error)
}
