package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/markdave123-py/contexta-qa/internal/core"
	"github.com/markdave123-py/contexta-qa/internal/core/extraction"
	"github.com/markdave123-py/contexta-qa/internal/models"
)

// ExtractionRecorder receives one observation per upload.
type ExtractionRecorder interface {
	ObserveExtraction(format, outcome string, chars int)
}

type DocumentHandler struct {
	extractor core.TextExtractor
	recorder  ExtractionRecorder
	maxBytes  int64
	timeout   time.Duration
	logger    *slog.Logger
}

func NewDocumentHandler(extractor core.TextExtractor, recorder ExtractionRecorder, maxUploadMB int, timeout time.Duration, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		extractor: extractor,
		recorder:  recorder,
		maxBytes:  int64(maxUploadMB) << 20,
		timeout:   timeout,
		logger:    logger,
	}
}

type upload struct {
	data        []byte
	filename    string
	contentType string
}

// UploadDocument extracts text from a pdf, docx, txt or image upload.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := withDeadline(r, h.timeout)
	defer cancel()

	format := extraction.FormatOf(up.filename)
	text, err := h.extractor.Extract(ctx, up.data, up.filename)
	h.observe(format, text, err)
	if err != nil {
		writeError(w, h.timeoutOr(ctx, err))
		return
	}
	h.logger.Info("document extracted", "filename", up.filename, "content_type", up.contentType, "chars", len([]rune(text)))
	writeJSON(w, http.StatusOK, models.DocumentResponse{Content: text})
}

// UploadImage runs OCR on an image upload whatever its filename says.
func (h *DocumentHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := withDeadline(r, h.timeout)
	defer cancel()

	text, err := h.extractor.ExtractImage(ctx, up.data)
	h.observe(extraction.FormatImage, text, err)
	if err != nil {
		writeError(w, h.timeoutOr(ctx, err))
		return
	}
	h.logger.Info("image transcribed", "filename", up.filename, "content_type", up.contentType, "chars", len([]rune(text)))
	writeJSON(w, http.StatusOK, models.ImageResponse{Text: text})
}

func (h *DocumentHandler) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return upload{}, fmt.Errorf("upload exceeds %d bytes: %w", h.maxBytes, err)
		}
		return upload{}, fmt.Errorf("%w: expected a multipart form with a 'file' field: %v", core.ErrValidation, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, fmt.Errorf("%w: field 'file' is required", core.ErrValidation)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, fmt.Errorf("read upload: %w", err)
	}

	contentType := header.Header.Get("Content-Type")
	h.logger.Info("upload received",
		"filename", header.Filename,
		"content_type", contentType,
		"bytes", len(data),
	)
	return upload{data: data, filename: header.Filename, contentType: contentType}, nil
}

// timeoutOr prefers the deadline error so a cancelled OCR run reads as 504.
func (h *DocumentHandler) timeoutOr(ctx context.Context, err error) error {
	if terr := deadlineError(ctx, h.timeout); terr != nil {
		return terr
	}
	return err
}

func (h *DocumentHandler) observe(format, text string, err error) {
	if h.recorder == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	outcome := "ok"
	switch {
	case errors.Is(err, core.ErrUnsupportedFormat):
		outcome = "unsupported"
	case errors.Is(err, core.ErrDecode):
		outcome = "decode_error"
	case err != nil:
		outcome = "error"
	}
	h.recorder.ObserveExtraction(format, outcome, len([]rune(text)))
}
