package mailsync

import (
	"encoding/base64"
	"strings"
	"time"
)

// plainPayload builds the SASL PLAIN initial response:
// base64("\x00" + username + "\x00" + secret).
func plainPayload(username, secret string) string {
	raw := "\x00" + username + "\x00" + secret
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// quoteIMAPString renders s as an IMAP quoted string, doubling backslash
// and double-quote so the result can never terminate early.
func quoteIMAPString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// parseCapability extracts the server's capability list from a
// CAPABILITY response. Returns an empty string when absent.
func parseCapability(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(line, "* CAPABILITY ") {
			return strings.TrimPrefix(line, "* CAPABILITY ")
		}
	}
	return ""
}

// authenticate tries AUTHENTICATE PLAIN and falls back to LOGIN.
// It returns the last tagged response line for diagnostics when both
// mechanisms are rejected. A transport failure is returned as err.
func authenticate(s *Session, username, secret string, timeout time.Duration) (lastLine string, ok bool, err error) {
	resp, err := s.CommandWithPayload(
		"AUTHENTICATE PLAIN",
		plainPayload(username, secret),
		timeout,
	)
	if err != nil {
		return "", false, err
	}
	if resp.OK() {
		return resp.StatusLine, true, nil
	}

	resp, err = s.Command(
		"LOGIN "+quoteIMAPString(username)+" "+quoteIMAPString(secret),
		timeout,
	)
	if err != nil {
		return "", false, err
	}
	if resp.OK() {
		return resp.StatusLine, true, nil
	}

	return resp.StatusLine, false, nil
}
