package mailsync

import (
	"regexp"
	"strings"

	"github.com/ivstasov/salonik/internal/model"
)

// Folder is one IMAP mailbox selected for synchronization. Folders are
// discovered fresh every run from the live LIST response; server-side
// names and localizations vary too much to persist as configuration.
type Folder struct {
	// Name is the server-side mailbox name, used in SELECT.
	Name string

	// Direction is model.DirectionInbound or model.DirectionOutbound.
	Direction string

	// Local is the canonical local folder tag (model.FolderInbox or
	// model.FolderSent).
	Local string
}

// sentFolderNames are the recognized "sent" mailbox names, English and
// Russian variants, matched case-insensitively. A mailbox using an
// unlisted localized name is simply not synced for outbound mail; fixing
// that needs SPECIAL-USE support or configurable mapping, not guessing.
var sentFolderNames = []string{
	"sent",
	"sent items",
	"sent messages",
	"sent mail",
	"отправленные",
	"отправленные письма",
	"исходящие",
}

// listLineRe matches one untagged LIST data line:
// * LIST (flags) "delim" "name"  — the delimiter may be NIL and the
// mailbox name may be unquoted.
var listLineRe = regexp.MustCompile(`^\* LIST \([^)]*\) (?:"[^"]*"|NIL) (?:"(.*)"|(.+))$`)

// discoverFolders parses a LIST response into the folders to sync.
// INBOX is always included as inbound; the first recognized sent
// candidate is added as outbound.
func discoverFolders(raw string) []Folder {
	folders := []Folder{{
		Name:      "INBOX",
		Direction: model.DirectionInbound,
		Local:     model.FolderInbox,
	}}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		m := listLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[1]
		if name == "" {
			name = strings.TrimSpace(m[2])
		}
		if name == "" {
			continue
		}

		if isSentFolder(name) {
			folders = append(folders, Folder{
				Name:      name,
				Direction: model.DirectionOutbound,
				Local:     model.FolderSent,
			})
			break
		}
	}

	return folders
}

// isSentFolder reports whether name is a recognized sent-mail mailbox.
func isSentFolder(name string) bool {
	for _, candidate := range sentFolderNames {
		if strings.EqualFold(name, candidate) {
			return true
		}
	}
	return false
}
