package model

import (
	"net"
	"strconv"
	"time"
)

// EmailAccount holds the IMAP connection settings for one mailbox.
type EmailAccount struct {
	// ID is the internal unique identifier for this account.
	ID string `json:"id"`

	// Label is the user-defined name shown in the UI.
	Label string `json:"label"`

	// Host is the IMAP server hostname.
	Host string `json:"host"`

	// Port is the IMAPS port (usually 993).
	Port int `json:"port"`

	// Username is the IMAP login name.
	Username string `json:"username"`

	// Secret is the account password. It is resolved at run time
	// (keyring or store column) and never serialized.
	Secret string `json:"-"`

	// UseKeyring indicates the secret lives in the OS keyring rather
	// than the database.
	UseKeyring bool `json:"use_keyring"`

	// LastSyncAt is when the last successful sync run completed.
	// Nil for an account that has never been synced.
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Addr returns the host:port dial target for the account.
func (a EmailAccount) Addr() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}
