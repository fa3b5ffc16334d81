package mailsync

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainPayloadRoundTrip(t *testing.T) {
	payload := plainPayload("ivan@example.com", "p@ss\"word")

	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)

	parts := strings.Split(string(raw), "\x00")
	require.Len(t, parts, 3)
	assert.Empty(t, parts[0])
	assert.Equal(t, "ivan@example.com", parts[1])
	assert.Equal(t, "p@ss\"word", parts[2])
}

func TestQuoteIMAPString(t *testing.T) {
	assert.Equal(t, `"plain"`, quoteIMAPString("plain"))
	assert.Equal(t, `"a\"b"`, quoteIMAPString(`a"b`))
	assert.Equal(t, `"a\\b"`, quoteIMAPString(`a\b`))
	// Escaping never produces an unterminated quoted string.
	assert.Equal(t, `"\\\""`, quoteIMAPString(`\"`))
}

func TestParseCapability(t *testing.T) {
	raw := "* CAPABILITY IMAP4rev1 AUTH=PLAIN AUTH=LOGIN\r\nA1 OK done\r\n"
	assert.Equal(t, "IMAP4rev1 AUTH=PLAIN AUTH=LOGIN", parseCapability(raw))

	assert.Empty(t, parseCapability("A1 OK done\r\n"))
}
