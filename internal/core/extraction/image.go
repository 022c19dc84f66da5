package extraction

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/markdave123-py/contexta-qa/internal/core"
)

// ExtractImage decodes data, flattens it to opaque RGB and runs OCR on it.
func (e *Extractor) ExtractImage(ctx context.Context, data []byte) (string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			sniffed := strings.SplitN(http.DetectContentType(data), ";", 2)[0]
			e.logger.Error("unsupported image format", "detected", sniffed)
			return "", &core.UnsupportedFormatError{Format: sniffed}
		}
		return "", core.WrapError(core.ErrDecode, "decode image", err)
	}
	if e.ocr == nil {
		return "", errors.New("ocr engine is not configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rgb := toRGB(img)
	e.logger.Info("running ocr",
		"format", format,
		"width", rgb.Bounds().Dx(),
		"height", rgb.Bounds().Dy(),
	)
	text, err := e.ocr.Recognize(ctx, rgb)
	if err != nil {
		e.logger.Error("ocr failed", "format", format, "error", err)
		return "", err
	}
	return text, nil
}

// toRGB returns an opaque RGBA copy of img. Transparent regions are
// composited over white.
func toRGB(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Opaque() {
		return rgba
	}
	bounds := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, bounds.Min, draw.Over)
	return out
}
