package properties

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf16"
)

// Escape renders a value for the properties file. Backslashes are doubled;
// control characters and anything outside 7-bit ASCII become \uXXXX using
// upper-case hex UTF-16 code units, so runes above the BMP produce a
// surrogate pair.
func Escape(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r <= unicode.MaxASCII && !unicode.IsControl(r):
			b.WriteRune(r)
		default:
			for _, unit := range utf16.Encode([]rune{r}) {
				fmt.Fprintf(&b, `\u%04X`, unit)
			}
		}
	}
	return b.String()
}
