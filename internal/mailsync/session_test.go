package mailsync

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pipeSession wires a Session to an in-memory peer driven by script.
func pipeSession(t *testing.T, script func(conn net.Conn, r *bufio.Reader)) *Session {
	t.Helper()

	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})

	go script(server, bufio.NewReader(server))

	return NewSession(client, "imap.test:993")
}

func TestSessionReadGreeting(t *testing.T) {
	s := pipeSession(t, func(conn net.Conn, r *bufio.Reader) {
		conn.Write([]byte("* OK IMAP4rev1 Service Ready\r\n"))
	})

	greeting, err := s.ReadGreeting(time.Second)
	require.NoError(t, err)
	assert.Equal(t, "* OK IMAP4rev1 Service Ready", greeting)
}

func TestSessionCommandAccumulatesUntaggedData(t *testing.T) {
	s := pipeSession(t, func(conn net.Conn, r *bufio.Reader) {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		if !strings.HasPrefix(line, "A1 SEARCH") {
			conn.Write([]byte("A1 BAD unexpected\r\n"))
			return
		}
		conn.Write([]byte("* SEARCH 1 2\r\nA1 OK SEARCH completed\r\n"))
	})

	resp, err := s.Command("SEARCH SINCE 1-Jan-2024", time.Second)
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "A1", resp.Tag)
	assert.Contains(t, resp.Raw, "* SEARCH 1 2")
	assert.Equal(t, "A1 OK SEARCH completed", resp.StatusLine)
}

func TestSessionTagsIncrease(t *testing.T) {
	s := pipeSession(t, func(conn net.Conn, r *bufio.Reader) {
		for i := 0; i < 2; i++ {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			tag := strings.Fields(line)[0]
			conn.Write([]byte(tag + " OK done\r\n"))
		}
	})

	resp, err := s.Command("NOOP", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "A1", resp.Tag)

	resp, err = s.Command("NOOP", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "A2", resp.Tag)
}

func TestSessionCommandNoStatus(t *testing.T) {
	s := pipeSession(t, func(conn net.Conn, r *bufio.Reader) {
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		conn.Write([]byte("A1 NO [AUTHENTICATIONFAILED] Invalid credentials\r\n"))
	})

	resp, err := s.Command("LOGIN \"u\" \"p\"", time.Second)
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "NO", resp.Status)
	assert.Contains(t, resp.StatusLine, "AUTHENTICATIONFAILED")
}

func TestSessionCommandWithPayloadContinuation(t *testing.T) {
	var payload string
	done := make(chan struct{})

	s := pipeSession(t, func(conn net.Conn, r *bufio.Reader) {
		defer close(done)
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		conn.Write([]byte("+ \r\n"))
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		payload = strings.TrimRight(line, "\r\n")
		conn.Write([]byte("A1 OK AUTHENTICATE completed\r\n"))
	})

	resp, err := s.CommandWithPayload("AUTHENTICATE PLAIN", "AGl2YW4AcGFzcw==", time.Second)
	require.NoError(t, err)
	assert.True(t, resp.OK())

	<-done
	assert.Equal(t, "AGl2YW4AcGFzcw==", payload)
}

func TestSessionCommandTimeoutForceClosesSocket(t *testing.T) {
	s := pipeSession(t, func(conn net.Conn, r *bufio.Reader) {
		if _, err := r.ReadString('\n'); err != nil {
			return
		}
		// Hung peer: answer with partial data and then nothing.
		conn.Write([]byte("* 5 EXISTS\r\n"))
	})

	resp, err := s.Command("SELECT \"INBOX\"", 100*time.Millisecond)
	require.Error(t, err)
	assert.True(t, s.Closed())

	// The partial buffer is preserved for error reporting.
	require.NotNil(t, resp)
	assert.Contains(t, resp.Raw, "* 5 EXISTS")
	assert.Empty(t, resp.Status)

	// After the force-close the session refuses further commands.
	_, err = s.Command("NOOP", time.Second)
	assert.Error(t, err)
}
