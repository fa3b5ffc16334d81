package mailsync

import (
	"strconv"
	"strings"
	"time"
)

// formatIMAPDate renders t in the IMAP date grammar (D-Mon-YYYY),
// e.g. 5-Jan-2024. The day has no leading zero.
func formatIMAPDate(t time.Time) string {
	return t.Format("2-Jan-2006")
}

// parseExists extracts the message count from an untagged "* N EXISTS"
// line in a SELECT response. Returns 0 when absent.
func parseExists(raw string) int {
	for _, line := range strings.Split(raw, "\n") {
		fields := strings.Fields(strings.TrimRight(line, "\r"))
		if len(fields) == 3 && fields[0] == "*" && fields[2] == "EXISTS" {
			if n, err := strconv.Atoi(fields[1]); err == nil {
				return n
			}
		}
	}
	return 0
}

// parseSearch extracts sequence numbers from the untagged "* SEARCH"
// line of a SEARCH response.
func parseSearch(raw string) []int {
	var seqs []int
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, "* SEARCH") {
			continue
		}
		for _, tok := range strings.Fields(line)[2:] {
			if n, err := strconv.Atoi(tok); err == nil {
				seqs = append(seqs, n)
			}
		}
	}
	return seqs
}

// batchSeqNums splits sequence numbers into groups of at most size,
// bounding both the FETCH request line and the response to one
// tractable round trip.
func batchSeqNums(seqs []int, size int) [][]int {
	if size < 1 {
		size = 1
	}
	var batches [][]int
	for start := 0; start < len(seqs); start += size {
		end := start + size
		if end > len(seqs) {
			end = len(seqs)
		}
		batches = append(batches, seqs[start:end])
	}
	return batches
}

// seqSet renders a batch as an IMAP sequence set.
func seqSet(seqs []int) string {
	parts := make([]string, len(seqs))
	for i, n := range seqs {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
