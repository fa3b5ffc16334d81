package mailsync

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Session owns one IMAP connection: the socket, the tag counter, and the
// read buffer. Commands are strictly sequential; every command is fully
// answered before the next is issued.
type Session struct {
	conn   net.Conn
	addr   string
	tag    int
	buf    []byte
	closed bool
}

// Response is the accumulated server output for one tagged command.
type Response struct {
	// Tag is the client tag the command was issued under.
	Tag string

	// Raw is the full accumulated response text, including untagged
	// "*" data lines, so callers can parse both the tagged status and
	// the data in one pass. On a timeout it holds whatever partial
	// output was received.
	Raw string

	// Status is "OK", "NO", or "BAD"; empty if the terminal line was
	// never seen (timeout).
	Status string

	// StatusLine is the raw tagged terminal line.
	StatusLine string
}

// OK reports whether the command completed with a tagged OK.
func (r *Response) OK() bool { return r.Status == "OK" }

// Dial opens a TLS connection to the IMAP server with a bounded connect
// timeout. Failure here is the only error that aborts an entire run.
func Dial(host string, port int, timeout time.Duration) (*Session, error) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return nil, &ConnectError{Addr: addr, Err: err}
	}
	return NewSession(conn, addr), nil
}

// NewSession wraps an established connection. Exposed so tests can run
// the protocol over an in-memory pipe.
func NewSession(conn net.Conn, addr string) *Session {
	return &Session{conn: conn, addr: addr}
}

// ReadGreeting reads the server's initial untagged greeting line.
func (s *Session) ReadGreeting(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for {
		if i := bytes.IndexByte(s.buf, '\n'); i >= 0 {
			line := strings.TrimRight(string(s.buf[:i]), "\r")
			s.buf = s.buf[i+1:]
			return line, nil
		}
		if err := s.readMore(deadline); err != nil {
			s.forceClose()
			return "", fmt.Errorf("reading greeting from %s: %w", s.addr, err)
		}
	}
}

// Command writes "{tag} {text}\r\n" and accumulates server output until
// the tagged OK/NO/BAD terminal line appears or the timeout elapses. On
// timeout the socket is force-closed and the partial buffer is returned
// alongside the error for diagnostics.
func (s *Session) Command(text string, timeout time.Duration) (*Response, error) {
	return s.roundTrip(text, "", timeout)
}

// CommandWithPayload behaves like Command but, when the server answers
// with a "+" continuation prompt, writes the payload line before
// resuming the wait for the tagged terminal. Used for AUTHENTICATE.
func (s *Session) CommandWithPayload(text, payload string, timeout time.Duration) (*Response, error) {
	return s.roundTrip(text, payload, timeout)
}

func (s *Session) roundTrip(text, payload string, timeout time.Duration) (*Response, error) {
	if s.closed {
		return nil, fmt.Errorf("session to %s is closed", s.addr)
	}

	s.tag++
	tag := "A" + strconv.Itoa(s.tag)
	s.buf = s.buf[:0]
	deadline := time.Now().Add(timeout)

	if err := s.write(tag+" "+text+"\r\n", deadline); err != nil {
		s.forceClose()
		return nil, fmt.Errorf("writing command %s: %w", tag, err)
	}

	payloadSent := payload == ""
	scanned := 0
	for {
		// Scan only complete lines accumulated so far.
		for {
			i := indexByteFrom(s.buf, scanned, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimRight(string(s.buf[scanned:i]), "\r")
			scanned = i + 1

			if !payloadSent && strings.HasPrefix(line, "+") {
				if err := s.write(payload+"\r\n", deadline); err != nil {
					s.forceClose()
					return nil, fmt.Errorf("writing continuation for %s: %w", tag, err)
				}
				payloadSent = true
				continue
			}

			if status, ok := taggedStatus(line, tag); ok {
				return &Response{
					Tag:        tag,
					Raw:        string(s.buf),
					Status:     status,
					StatusLine: line,
				}, nil
			}
		}

		if err := s.readMore(deadline); err != nil {
			// Fail-safe against a hung peer: the socket is unusable
			// once a command deadline passes.
			partial := string(s.buf)
			s.forceClose()
			return &Response{Tag: tag, Raw: partial},
				fmt.Errorf("awaiting %s completion from %s: %w", tag, s.addr, err)
		}
	}
}

// Logout issues a best-effort LOGOUT and closes the socket.
func (s *Session) Logout(timeout time.Duration) {
	if !s.closed {
		_, _ = s.Command("LOGOUT", timeout)
	}
	s.forceClose()
}

// Close releases the connection. Safe to call multiple times.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// Closed reports whether the underlying socket has been closed.
func (s *Session) Closed() bool { return s.closed }

func (s *Session) forceClose() {
	if !s.closed {
		s.closed = true
		s.conn.Close()
	}
}

func (s *Session) write(text string, deadline time.Time) error {
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	_, err := s.conn.Write([]byte(text))
	return err
}

func (s *Session) readMore(deadline time.Time) error {
	if err := s.conn.SetReadDeadline(deadline); err != nil {
		return err
	}
	tmp := make([]byte, 4096)
	n, err := s.conn.Read(tmp)
	if n > 0 {
		s.buf = append(s.buf, tmp[:n]...)
		return nil
	}
	if err != nil {
		return err
	}
	return nil
}

// taggedStatus checks whether line is the terminal line for tag and
// returns its OK/NO/BAD status.
func taggedStatus(line, tag string) (string, bool) {
	if !strings.HasPrefix(line, tag+" ") {
		return "", false
	}
	fields := strings.Fields(line[len(tag)+1:])
	if len(fields) == 0 {
		return "", false
	}
	switch fields[0] {
	case "OK", "NO", "BAD":
		return fields[0], true
	}
	return "", false
}

func indexByteFrom(b []byte, from int, c byte) int {
	i := bytes.IndexByte(b[from:], c)
	if i < 0 {
		return -1
	}
	return from + i
}
