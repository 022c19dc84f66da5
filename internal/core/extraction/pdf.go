package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/markdave123-py/contexta-qa/internal/core"
)

// extractPDF concatenates the text of every page, one page per line, in page
// order. Pages the reader cannot interpret contribute an empty line.
func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	// the reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = core.WrapError(core.ErrDecode, "read pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", core.WrapError(core.ErrDecode, "read pdf", err)
	}

	pages := reader.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		pageText, perr := readPage(reader, i)
		if perr != nil {
			e.logger.Warn("pdf page yielded no text", "page", i, "error", perr)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func readPage(reader *pdf.Reader, n int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page %d: %v", n, r)
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() || page.V.Key("Contents").IsNull() {
		return "", nil
	}
	text, err = page.GetPlainText(nil)
	if err != nil {
		return "", err
	}
	// the reader opens every text line with a newline
	return strings.Trim(text, "\r\n"), nil
}
