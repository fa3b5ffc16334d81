package mailsync

import (
	"encoding/base64"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// encodedWordRe matches one RFC 2047 encoded-word:
// =?charset?{B|Q}?payload?=
var encodedWordRe = regexp.MustCompile(`=\?([^?]+)\?([BbQq])\?([^?]*)\?=`)

// adjacentWordsRe matches the whitespace between two adjacent
// encoded-words. Per RFC 2047 §6.2 that whitespace is a transport
// artifact and must not be rendered.
var adjacentWordsRe = regexp.MustCompile(`\?=[ \t\r\n]+=\?`)

// decodeHeaderValue decodes all RFC 2047 encoded-words in a header
// value, leaving plain text untouched. Malformed words pass through
// unchanged rather than failing the message.
func decodeHeaderValue(v string) string {
	if !strings.Contains(v, "=?") {
		return v
	}
	v = adjacentWordsRe.ReplaceAllString(v, "?==?")
	return encodedWordRe.ReplaceAllStringFunc(v, decodeEncodedWord)
}

// decodeEncodedWord decodes a single encoded-word token.
func decodeEncodedWord(word string) string {
	m := encodedWordRe.FindStringSubmatch(word)
	if m == nil {
		return word
	}
	charset, encoding, payload := m[1], m[2], m[3]

	var raw []byte
	switch strings.ToUpper(encoding) {
	case "B":
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return word
		}
		raw = decoded
	case "Q":
		raw = decodeQEncoding(payload)
	default:
		return word
	}

	return decodeCharset(raw, charset)
}

// decodeQEncoding decodes the Q variant: "_" is a space and "=XX" is a
// hex-escaped byte. Invalid escapes are kept verbatim.
func decodeQEncoding(s string) []byte {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '_':
			out = append(out, ' ')
		case s[i] == '=' && i+2 < len(s):
			if b, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
				out = append(out, byte(b))
				i += 2
				continue
			}
			out = append(out, s[i])
		default:
			out = append(out, s[i])
		}
	}
	return out
}

// angleAddrRe matches the addr-spec inside "Display Name <addr>".
var angleAddrRe = regexp.MustCompile(`<([^<>]+)>`)

// bareAddrRe matches the first bare token@token substring.
var bareAddrRe = regexp.MustCompile(`[^\s<>,;:"'()]+@[^\s<>,;:"'()]+`)

// extractEmailAddress pulls the address out of a decoded From/To header
// value: the angle-bracket form wins, then the first bare address,
// otherwise the raw value passes through unchanged.
func extractEmailAddress(v string) string {
	if m := angleAddrRe.FindStringSubmatch(v); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := bareAddrRe.FindString(v); m != "" {
		return m
	}
	return strings.TrimSpace(v)
}

// parseHeaderDate parses a Date header value. A malformed date returns
// ok=false instead of an error so one bad header never drops a message.
func parseHeaderDate(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := mail.ParseDate(v); err == nil {
		return t, true
	}
	// A few servers emit slightly off-spec formats worth a second try.
	for _, layout := range []string{
		time.RFC1123Z,
		time.RFC1123,
		"2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
