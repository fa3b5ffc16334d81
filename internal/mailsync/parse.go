package mailsync

import (
	"regexp"
	"strconv"
	"strings"
)

// responseScanner walks a raw IMAP response byte by byte, yielding one
// line at a time together with any literal attached to it. The grammar
// has three line kinds: untagged "*" data, tagged status, and lines
// ending in a literal marker "{N}". A literal is introduced by
// "{N}\r\n" and is exactly the next N raw bytes, regardless of embedded
// CRLFs.
type responseScanner struct {
	data []byte
	pos  int
}

// literalMarkerRe matches a literal byte-count marker at end of line.
var literalMarkerRe = regexp.MustCompile(`\{(\d+)\}$`)

// next returns the next line (without its CRLF) and the literal payload
// following it, if the line announced one. ok is false at end of input.
func (sc *responseScanner) next() (line string, literal []byte, ok bool) {
	if sc.pos >= len(sc.data) {
		return "", nil, false
	}

	end := sc.pos
	for end < len(sc.data) && sc.data[end] != '\n' {
		end++
	}
	line = strings.TrimRight(string(sc.data[sc.pos:end]), "\r")
	if end < len(sc.data) {
		end++ // consume the newline
	}
	sc.pos = end

	m := literalMarkerRe.FindStringSubmatch(line)
	if m == nil {
		return line, nil, true
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n < 0 {
		return line, nil, true
	}
	if sc.pos+n > len(sc.data) {
		// Truncated literal: take what is there.
		n = len(sc.data) - sc.pos
	}
	literal = sc.data[sc.pos : sc.pos+n]
	sc.pos += n
	return line, literal, true
}

// candidate is one message produced by the fetch step. It does not
// outlive the batch it was fetched in.
type candidate struct {
	Seq    int
	UID    string
	Size   int64
	Header []byte
}

// parseFetchResponse splits a multi-message FETCH response into one
// candidate per "* N FETCH" data line. Messages whose header literal or
// UID is missing are dropped; their count is returned so the caller can
// surface the loss.
func parseFetchResponse(raw string) (cands []candidate, dropped int) {
	sc := &responseScanner{data: []byte(raw)}

	for {
		line, literal, ok := sc.next()
		if !ok {
			return cands, dropped
		}

		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "*" || fields[2] != "FETCH" {
			continue
		}
		seq, err := strconv.Atoi(fields[1])
		if err != nil {
			dropped++
			continue
		}
		if literal == nil {
			dropped++
			continue
		}

		c := candidate{Seq: seq, Header: literal}
		for i, tok := range fields {
			if i+1 >= len(fields) {
				break
			}
			val := strings.Trim(fields[i+1], "()")
			switch strings.Trim(tok, "()") {
			case "UID":
				c.UID = val
			case "RFC822.SIZE":
				if n, err := strconv.ParseInt(val, 10, 64); err == nil {
					c.Size = n
				}
			}
		}
		if c.UID == "" {
			dropped++
			continue
		}
		cands = append(cands, c)
	}
}

// unfoldHeaders collapses header continuation lines (CRLF followed by
// leading whitespace) into a single space.
func unfoldHeaders(b []byte) string {
	s := string(b)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var sb strings.Builder
	sb.Grow(len(s))
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') {
				sb.WriteByte(' ')
				sb.WriteString(strings.TrimLeft(line, " \t"))
				continue
			}
			sb.WriteByte('\n')
		}
		sb.WriteString(line)
	}
	return sb.String()
}

// headerMap holds parsed header fields keyed by lowercased name.
type headerMap map[string]string

// parseHeaderBlock unfolds a raw header block and splits it into
// name/value pairs on the first colon of each line.
func parseHeaderBlock(b []byte) headerMap {
	h := make(headerMap)
	for _, line := range strings.Split(unfoldHeaders(b), "\n") {
		if line == "" {
			// Blank line ends the header section.
			break
		}
		i := strings.IndexByte(line, ':')
		if i <= 0 {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(line[:i]))
		value := strings.TrimSpace(line[i+1:])
		if _, exists := h[name]; !exists {
			h[name] = value
		}
	}
	return h
}

// get looks up a header value case-insensitively.
func (h headerMap) get(name string) string {
	return h[strings.ToLower(name)]
}
