// Header line helpers.
//
// Record ids are returned exactly as stored. These helpers clean an id for
// consumers that cannot cope with tabs (tab-separated outputs such as .fai)
// or with bytes that are not valid UTF-8.
package fastx

import (
	"bytes"
	"unicode/utf8"
)

// MaskHeaderTabs replaces every tab in id with '|'. It returns nil and
// false when id contains no tab.
func MaskHeaderTabs(id []byte) ([]byte, bool) {
	if bytes.IndexByte(id, '\t') < 0 {
		return nil, false
	}
	out := bytes.Clone(id)
	for i, c := range out {
		if c == '\t' {
			out[i] = '|'
		}
	}
	return out, true
}

// MaskHeaderUTF8 replaces invalid UTF-8 sequences in id with U+FFFD. It
// returns nil and false when id is already valid.
func MaskHeaderUTF8(id []byte) ([]byte, bool) {
	if utf8.Valid(id) {
		return nil, false
	}
	return bytes.ToValidUTF8(id, []byte("\uFFFD")), true
}
