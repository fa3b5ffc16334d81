package mailsync

// Options controls one sync invocation.
type Options struct {
	// FullResync forces the wide lookback window for every folder.
	FullResync bool

	// Silent suppresses user-visible notifications upstream. The engine
	// itself only records it in logs.
	Silent bool
}

// Report summarizes one sync run. A run with Problems is a partial
// success: some folders or batches were skipped but the rest synced.
type Report struct {
	// AccountID identifies the synced account.
	AccountID string

	// Inserted is the count of newly persisted messages.
	Inserted int

	// FolderTotals maps each synced logical folder to the message
	// count the server reported for it.
	FolderTotals map[string]int

	// SyncedFolders lists the server-side folder names actually synced.
	SyncedFolders []string

	// Problems holds the non-fatal errors accumulated during the run.
	Problems []string
}
