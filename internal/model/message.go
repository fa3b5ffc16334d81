package model

import "time"

// Logical folder tags. Server-side folder names vary by provider and
// localization; messages are stored under one of these canonical tags.
const (
	FolderInbox = "inbox"
	FolderSent  = "sent"
)

// Message direction relative to the account owner.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Message is one synchronized mail header record.
//
// Identity is append-only: ExternalKey ("folder:UID") is unique per
// account and, once persisted, is never reused or overwritten.
type Message struct {
	// ID is the internal unique identifier for this message row.
	ID string `json:"id"`

	// AccountID references the EmailAccount the message was synced from.
	AccountID string `json:"account_id"`

	// Folder is the canonical local folder tag (FolderInbox/FolderSent).
	Folder string `json:"folder"`

	// Direction is DirectionInbound or DirectionOutbound.
	Direction string `json:"direction"`

	// ExternalKey is "folder:UID", the dedup key within the account.
	ExternalKey string `json:"external_key"`

	// FromAddr is the decoded sender address.
	FromAddr string `json:"from_addr"`

	// ToAddr is the decoded recipient address.
	ToAddr string `json:"to_addr"`

	// Subject is the decoded subject line.
	Subject string `json:"subject"`

	// ContactID is the correlated CRM contact, if any address matched.
	ContactID *string `json:"contact_id,omitempty"`

	// Size is the server-reported RFC822.SIZE in bytes.
	Size int64 `json:"size"`

	// SentAt is parsed from the Date header; the fetch time is used
	// when the header is missing or unparsable.
	SentAt time.Time `json:"sent_at"`

	// FetchedAt is when this message was synced.
	FetchedAt time.Time `json:"fetched_at"`
}

// ExternalKey builds the "folder:UID" dedup key.
func ExternalKey(folder, uid string) string {
	return folder + ":" + uid
}
