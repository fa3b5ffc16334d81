package mailsync

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// decodeCharset converts raw header bytes in the declared charset to a
// UTF-8 string. The charsets seen in practice on Russian-market mail
// servers get explicit table-backed decoders; anything else goes through
// the IANA registry, falling back to permissive UTF-8. This function
// never fails: garbage in, replacement runes out.
func decodeCharset(data []byte, name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return string(data)
	case "windows-1251", "cp1251":
		return decodeWith(charmap.Windows1251, data)
	case "koi8-r", "koi8r":
		return decodeWith(charmap.KOI8R, data)
	case "iso-8859-1", "latin1", "latin-1", "us-ascii":
		return decodeWith(charmap.ISO8859_1, data)
	default:
		if enc, err := ianaindex.MIME.Encoding(name); err == nil && enc != nil {
			if out, err := enc.NewDecoder().Bytes(data); err == nil {
				return string(out)
			}
		}
		return string(data)
	}
}

// decodeWith runs data through the encoding's decoder, falling back to
// the raw bytes if the transform fails.
func decodeWith(enc encoding.Encoding, data []byte) string {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
