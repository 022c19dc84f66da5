package extraction

import (
	"fmt"
	"unicode/utf8"

	"github.com/markdave123-py/contexta-qa/internal/core"
)

// decodeText returns data verbatim when it is valid UTF-8.
func decodeText(data []byte) (string, error) {
	for off := 0; off < len(data); {
		r, size := utf8.DecodeRune(data[off:])
		if r == utf8.RuneError && size <= 1 {
			return "", fmt.Errorf("%w: 'utf-8' codec can't decode byte 0x%02x in position %d", core.ErrDecode, data[off], off)
		}
		off += size
	}
	return string(data), nil
}
