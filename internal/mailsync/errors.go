package mailsync

import (
	"errors"
	"fmt"
)

// maxDiagResponse bounds how much raw protocol text is carried in
// diagnostic error payloads.
const maxDiagResponse = 200

// ConnectError indicates the TLS connection could not be established.
// It is fatal: the whole run aborts and the account's last-sync
// timestamp is left unchanged.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connecting to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// GreetingError indicates the server greeting was missing or malformed.
// Fatal: no command is issued after a bad greeting.
type GreetingError struct {
	Greeting string
}

func (e *GreetingError) Error() string {
	return fmt.Sprintf("unexpected server greeting: %q", truncateDiag(e.Greeting))
}

// AuthError indicates that both AUTHENTICATE PLAIN and LOGIN were
// rejected. It carries a diagnostic block for the caller; the secret is
// never included.
type AuthError struct {
	Host         string
	Username     string
	Capability   string
	LastResponse string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s@%s: %s",
		e.Username, e.Host, truncateDiag(e.LastResponse))
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// FolderError indicates one folder could not be selected or searched.
// Non-fatal: the folder is skipped and the run continues.
type FolderError struct {
	Folder string
	Err    error
}

func (e *FolderError) Error() string {
	return fmt.Sprintf("folder %q: %v", e.Folder, e.Err)
}

func (e *FolderError) Unwrap() error { return e.Err }

// FetchError indicates one FETCH batch failed. Non-fatal: the batch is
// skipped; the uncovered date range is retried on the next run.
type FetchError struct {
	Folder string
	Batch  string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s from %q: %v", e.Batch, e.Folder, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError indicates that some messages in a FETCH batch were
// malformed and had to be dropped. Non-fatal: the rest of the batch is
// kept.
type ParseError struct {
	Folder  string
	Batch   string
	Dropped int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dropped %d malformed messages fetching %s from %q",
		e.Dropped, e.Batch, e.Folder)
}

// PersistError indicates one insert batch failed. Non-fatal: logged and
// the run continues with the next batch.
type PersistError struct {
	Folder string
	Err    error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persisting messages for %q: %v", e.Folder, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// truncateDiag trims protocol text carried in error payloads.
func truncateDiag(s string) string {
	if len(s) > maxDiagResponse {
		return s[:maxDiagResponse] + "..."
	}
	return s
}
