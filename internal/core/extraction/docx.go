package extraction

import (
	"bytes"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/contexta-qa/internal/core"
)

// extractDOCX returns the document paragraphs in order, one per line.
func extractDOCX(data []byte) (string, error) {
	raw, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", core.WrapError(core.ErrDecode, "read docx", err)
	}
	return joinParagraphs(raw), nil
}

// joinParagraphs drops the blank lines docconv emits around the body and
// terminates every paragraph with a newline.
func joinParagraphs(raw string) string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return ""
	}
	return strings.Join(lines[start:end], "\n") + "\n"
}
