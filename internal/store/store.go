package store

import (
	"context"
	"time"

	"github.com/ivstasov/salonik/internal/model"
)

// MessageFilter controls filtering, sorting, and pagination for message
// queries.
type MessageFilter struct {
	Folder    *string // model.FolderInbox / model.FolderSent, or nil (all)
	Direction *string // model.DirectionInbound / model.DirectionOutbound, or nil
	ContactID *string // correlated contact, or nil (all)
	Query     *string // search from_addr + to_addr + subject
	SortBy    string  // "sent_at", "fetched_at", "size"
	SortDesc  bool
	Limit     int
	Offset    int
}

// Store defines the persistence interface for email accounts, contacts,
// and synchronized messages.
type Store interface {
	// === Email accounts ===

	CreateAccount(ctx context.Context, acct model.EmailAccount) error
	UpdateAccount(ctx context.Context, acct model.EmailAccount) error
	GetAccountByID(ctx context.Context, id string) (*model.EmailAccount, error)
	ListAccounts(ctx context.Context) ([]model.EmailAccount, error)

	// UpdateAccountSyncTime records the completion time of a successful
	// sync run. Called at most once per run.
	UpdateAccountSyncTime(ctx context.Context, accountID string, t time.Time) error

	// === Contacts ===

	CreateContact(ctx context.Context, c model.Contact) error
	ListContacts(ctx context.Context) ([]model.Contact, error)

	// ContactEmailIndex returns a lowercased email -> contact ID map for
	// every contact with a known address.
	ContactEmailIndex(ctx context.Context) (map[string]string, error)

	// === Messages ===

	// InsertMessages bulk-inserts one batch of new message rows.
	InsertMessages(ctx context.Context, msgs []model.Message) error

	// MessageKeys returns the set of external keys ("folder:UID")
	// already persisted for the account.
	MessageKeys(ctx context.Context, accountID string) (map[string]struct{}, error)

	// HasMessages reports whether any message exists for the
	// account+folder pair. Drives the first-run lookback window.
	HasMessages(ctx context.Context, accountID, folder string) (bool, error)

	GetMessages(ctx context.Context, accountID string, filter MessageFilter) ([]model.Message, error)
}
