// Package encodings maps the engine's candidate encoding names onto
// golang.org/x/text decoders and normalizes detector output to those names.
package encodings

import (
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Candidate names, in the order the robust reader tries them when the
// caller asks for "auto".
const (
	UTF8Sig = "utf-8-sig"
	GBK     = "gbk"
	GB18030 = "gb18030"
	UTF8    = "utf-8"
	Latin1  = "latin1"
)

// Candidates returns the auto-mode encoding cascade in try order.
func Candidates() []string {
	return []string{UTF8Sig, GBK, GB18030, UTF8, Latin1}
}

var byName = map[string]encoding.Encoding{
	UTF8Sig: unicode.UTF8BOM,
	GBK:     simplifiedchinese.GBK,
	GB18030: simplifiedchinese.GB18030,
	UTF8:    unicode.UTF8,
	Latin1:  charmap.ISO8859_1,
}

// Known reports whether name is one of the candidate encodings.
func Known(name string) bool {
	_, ok := byName[name]
	return ok
}

// Normalize maps a charset-detector label (e.g. "GB-18030", "ISO-8859-1")
// onto a candidate name. Unknown labels are lowercased and returned as-is,
// so Known can reject them.
func Normalize(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return UTF8
	case "gbk", "gb2312", "gb-2312", "hz-gb-2312":
		return GBK
	case "gb18030", "gb-18030":
		return GB18030
	case "iso-8859-1", "latin1", "latin-1", "windows-1252":
		return Latin1
	default:
		return strings.ToLower(strings.TrimSpace(label))
	}
}

// DecodingReader wraps r so that reads yield UTF-8 decoded from the named
// encoding. Unknown names decode as plain UTF-8. Undecodable bytes become
// the Unicode replacement rune rather than errors.
func DecodingReader(r io.Reader, name string) io.Reader {
	enc, ok := byName[name]
	if !ok {
		enc = unicode.UTF8
	}
	return transform.NewReader(r, enc.NewDecoder())
}
