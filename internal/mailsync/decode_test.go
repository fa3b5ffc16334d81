package mailsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeaderValueBase64UTF8(t *testing.T) {
	got := decodeHeaderValue("=?UTF-8?B?0LrQuNGA0LjQu9C70LjRhtCw?=")
	assert.Equal(t, "кириллица", got)
}

func TestDecodeHeaderValueQEncoding(t *testing.T) {
	got := decodeHeaderValue("=?UTF-8?Q?hello_world?=")
	assert.Equal(t, "hello world", got)

	got = decodeHeaderValue("=?ISO-8859-1?Q?caf=E9?=")
	assert.Equal(t, "café", got)
}

func TestDecodeHeaderValueAdjacentWordsJoinWithoutSpace(t *testing.T) {
	// RFC 2047 §6.2: whitespace between adjacent encoded-words is not
	// rendered.
	got := decodeHeaderValue("=?UTF-8?Q?foo?= =?UTF-8?Q?bar?=")
	assert.Equal(t, "foobar", got)

	got = decodeHeaderValue("=?UTF-8?Q?foo?=\r\n =?UTF-8?Q?bar?=")
	assert.Equal(t, "foobar", got)
}

func TestDecodeHeaderValuePlainTextUntouched(t *testing.T) {
	assert.Equal(t, "Ivan Petrov", decodeHeaderValue("Ivan Petrov"))
	// Malformed words pass through unchanged.
	assert.Equal(t, "=?UTF-8?X?abc?=", decodeHeaderValue("=?UTF-8?X?abc?="))
}

func TestDecodeHeaderValueMixedPlainAndEncoded(t *testing.T) {
	got := decodeHeaderValue("Re: =?UTF-8?B?0J/RgNC40LLQtdGC?= (fwd)")
	assert.Equal(t, "Re: Привет (fwd)", got)
}

func TestDecodeCharsetWindows1251(t *testing.T) {
	// 0xC0 is Cyrillic capital А in Windows-1251.
	assert.Equal(t, "А", decodeCharset([]byte{0xC0}, "windows-1251"))
	assert.Equal(t, "Привет", decodeCharset(
		[]byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}, "Windows-1251"))
}

func TestDecodeCharsetKOI8R(t *testing.T) {
	// 0xC1 is Cyrillic small а in KOI8-R.
	assert.Equal(t, "а", decodeCharset([]byte{0xC1}, "koi8-r"))
}

func TestDecodeCharsetLatin1(t *testing.T) {
	assert.Equal(t, "é", decodeCharset([]byte{0xE9}, "iso-8859-1"))
}

func TestDecodeCharsetEmptyAndUnknown(t *testing.T) {
	assert.Equal(t, "plain", decodeCharset([]byte("plain"), ""))
	// Unknown charsets fall back to permissive UTF-8.
	assert.Equal(t, "plain", decodeCharset([]byte("plain"), "x-no-such-charset"))
}

func TestExtractEmailAddress(t *testing.T) {
	assert.Equal(t, "ivan@example.com",
		extractEmailAddress("Ivan <ivan@example.com>"))
	assert.Equal(t, "ivan@example.com",
		extractEmailAddress("ivan@example.com"))
	assert.Equal(t, "ivan@example.com",
		extractEmailAddress(`"Петров, Иван" <ivan@example.com>`))
	assert.Equal(t, "ivan@example.com",
		extractEmailAddress("Ivan Petrov ivan@example.com"))
	// Nothing address-shaped: the raw value passes through.
	assert.Equal(t, "undisclosed recipients",
		extractEmailAddress(" undisclosed recipients "))
}

func TestParseHeaderDate(t *testing.T) {
	got, ok := parseHeaderDate("Mon, 5 Feb 2024 10:30:00 +0300")
	require.True(t, ok)
	assert.Equal(t, 2024, got.Year())
	assert.Equal(t, time.February, got.Month())
	assert.Equal(t, 5, got.Day())

	_, ok = parseHeaderDate("not a date")
	assert.False(t, ok)

	_, ok = parseHeaderDate("")
	assert.False(t, ok)
}

func TestDecodeQEncodingUnderscore(t *testing.T) {
	assert.Equal(t, []byte("a b"), decodeQEncoding("a_b"))
	assert.Equal(t, []byte{0xFF}, decodeQEncoding("=FF"))
	// Invalid escapes are kept verbatim.
	assert.Equal(t, []byte("=ZZ"), decodeQEncoding("=ZZ"))
}
