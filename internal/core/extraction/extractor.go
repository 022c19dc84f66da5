// Package extraction turns uploaded documents and images into plain text.
//
// The reader is chosen from the filename extension alone; the declared
// content type of an upload is never consulted.
package extraction

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/contexta-qa/internal/core"
)

const (
	FormatPDF   = "pdf"
	FormatDOCX  = "docx"
	FormatText  = "text"
	FormatImage = "image"

	noExtension = "(no extension)"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

var _ core.TextExtractor = (*Extractor)(nil)

// Extractor implements core.TextExtractor. It holds no per-request state and
// is safe for concurrent use as long as its OCR engine is.
type Extractor struct {
	ocr    core.OCREngine
	logger *slog.Logger
}

func NewExtractor(ocr core.OCREngine, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{ocr: ocr, logger: logger}
}

// FormatOf reports which reader handles filename, or "" when none does.
func FormatOf(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return FormatPDF
	case ext == ".docx":
		return FormatDOCX
	case ext == ".txt":
		return FormatText
	case imageExts[ext]:
		return FormatImage
	default:
		return ""
	}
}

// Extract reads data with the reader matching the extension of filename.
func (e *Extractor) Extract(ctx context.Context, data []byte, filename string) (string, error) {
	start := time.Now()
	format := FormatOf(filename)
	e.logger.Debug("starting extraction", "filename", filename, "format", format, "bytes", len(data))

	var (
		text string
		err  error
	)
	switch format {
	case FormatPDF:
		text, err = e.extractPDF(data)
	case FormatDOCX:
		text, err = extractDOCX(data)
	case FormatText:
		text, err = decodeText(data)
	case FormatImage:
		return e.ExtractImage(ctx, data)
	default:
		unsupported := strings.ToLower(filepath.Ext(filename))
		if unsupported == "" {
			unsupported = filename
		}
		if unsupported == "" {
			unsupported = noExtension
		}
		e.logger.Error("unsupported file type", "filename", filename, "extension", unsupported)
		return "", &core.UnsupportedFormatError{Format: unsupported}
	}
	if err != nil {
		e.logger.Error("extraction failed", "filename", filename, "format", format, "error", err)
		return "", err
	}

	e.logger.Info("extraction complete",
		"filename", filename,
		"format", format,
		"chars", len([]rune(text)),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return text, nil
}
