package mailsync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivstasov/salonik/internal/config"
	"github.com/ivstasov/salonik/internal/model"
)

// Store is the slice of persistence the engine consumes.
type Store interface {
	// MessageKeys returns the set of external keys ("folder:UID")
	// already persisted for the account.
	MessageKeys(ctx context.Context, accountID string) (map[string]struct{}, error)

	// HasMessages reports whether any message exists for the
	// account+folder pair.
	HasMessages(ctx context.Context, accountID, folder string) (bool, error)

	// ContactEmailIndex returns a lowercased email -> contact ID map.
	ContactEmailIndex(ctx context.Context) (map[string]string, error)

	// InsertMessages bulk-inserts one batch of new message rows.
	InsertMessages(ctx context.Context, msgs []model.Message) error

	// UpdateAccountSyncTime records when a sync run completed.
	UpdateAccountSyncTime(ctx context.Context, accountID string, t time.Time) error
}

// Engine synchronizes one mailbox per invocation. It holds no
// cross-account state; separate accounts are synced by separate calls.
type Engine struct {
	store Store
	cfg   config.SyncConfig
	log   *logrus.Logger
	dial  func(host string, port int, timeout time.Duration) (*Session, error)
	now   func() time.Time
}

// New creates an Engine using the real TLS dialer.
func New(store Store, cfg config.SyncConfig, log *logrus.Logger) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		log:   log,
		dial:  Dial,
		now:   time.Now,
	}
}

// SyncAccount runs one full synchronization for the account: connect,
// greet, authenticate, then for each discovered folder select, search
// the lookback window, fetch headers in batches, decode, dedup,
// correlate, and persist. The socket is always closed on exit; the
// account's last-sync timestamp is updated exactly once, only when the
// run reaches completion.
func (e *Engine) SyncAccount(ctx context.Context, acct model.EmailAccount, opts Options) (*Report, error) {
	log := e.log.WithFields(logrus.Fields{
		"account": acct.ID,
		"host":    acct.Host,
	})
	if opts.Silent {
		log = log.WithField("silent", true)
	}

	report := &Report{
		AccountID:    acct.ID,
		FolderTotals: make(map[string]int),
	}

	sess, err := e.dial(acct.Host, acct.Port, e.cfg.ConnectTimeout())
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	cmdTimeout := e.cfg.CommandTimeout()

	greeting, err := sess.ReadGreeting(cmdTimeout)
	if err != nil {
		return nil, fmt.Errorf("reading greeting: %w", err)
	}
	if !strings.Contains(greeting, "OK") {
		return nil, &GreetingError{Greeting: greeting}
	}
	log.Debug("server greeting accepted")

	capResp, err := sess.Command("CAPABILITY", cmdTimeout)
	if err != nil {
		return nil, fmt.Errorf("reading capabilities: %w", err)
	}
	capability := parseCapability(capResp.Raw)

	lastLine, authed, err := authenticate(sess, acct.Username, acct.Secret, cmdTimeout)
	if err != nil {
		return nil, fmt.Errorf("authenticating: %w", err)
	}
	if !authed {
		return nil, &AuthError{
			Host:         acct.Host,
			Username:     acct.Username,
			Capability:   capability,
			LastResponse: truncateDiag(lastLine),
		}
	}
	log.Info("authenticated")

	// Loaded once per run: the dedup key set and the contact index.
	existing, err := e.store.MessageKeys(ctx, acct.ID)
	if err != nil {
		return nil, fmt.Errorf("loading existing message keys: %w", err)
	}
	contacts, err := e.store.ContactEmailIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading contact index: %w", err)
	}

	listResp, err := sess.Command(`LIST "" "*"`, cmdTimeout)
	if err != nil {
		return nil, fmt.Errorf("listing folders: %w", err)
	}
	folders := discoverFolders(listResp.Raw)

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if err := e.syncFolder(ctx, sess, acct, folder, opts, existing, contacts, report); err != nil {
			log.WithField("folder", folder.Name).WithError(err).Warn("folder skipped")
			report.Problems = append(report.Problems, err.Error())
		}

		// A hung peer force-closes the socket mid-run; nothing more
		// can be synced on this connection.
		if sess.Closed() {
			report.Problems = append(report.Problems, "connection lost, remaining folders skipped")
			break
		}
	}

	sess.Logout(cmdTimeout)

	if err := e.store.UpdateAccountSyncTime(ctx, acct.ID, e.now()); err != nil {
		perr := &PersistError{Folder: "", Err: err}
		log.WithError(perr).Warn("updating last-sync timestamp failed")
		report.Problems = append(report.Problems, perr.Error())
	}

	log.WithFields(logrus.Fields{
		"inserted": report.Inserted,
		"folders":  report.SyncedFolders,
		"problems": len(report.Problems),
	}).Info("sync run complete")

	return report, nil
}

// syncFolder selects one folder and runs search, batched fetch, decode,
// dedup, correlation, and persistence for it.
func (e *Engine) syncFolder(
	ctx context.Context,
	sess *Session,
	acct model.EmailAccount,
	folder Folder,
	opts Options,
	existing map[string]struct{},
	contacts map[string]string,
	report *Report,
) error {
	log := e.log.WithFields(logrus.Fields{
		"account": acct.ID,
		"folder":  folder.Name,
	})
	cmdTimeout := e.cfg.CommandTimeout()

	selResp, err := sess.Command("SELECT "+quoteIMAPString(folder.Name), cmdTimeout)
	if err != nil {
		return &FolderError{Folder: folder.Name, Err: err}
	}
	if !selResp.OK() {
		return &FolderError{
			Folder: folder.Name,
			Err:    fmt.Errorf("select rejected: %s", selResp.StatusLine),
		}
	}

	exists := parseExists(selResp.Raw)
	report.FolderTotals[folder.Local] = exists
	report.SyncedFolders = append(report.SyncedFolders, folder.Name)
	if exists == 0 {
		log.Debug("folder empty")
		return nil
	}

	since, err := e.lookbackSince(ctx, acct.ID, folder.Local, opts)
	if err != nil {
		return &FolderError{Folder: folder.Name, Err: err}
	}

	searchResp, err := sess.Command("SEARCH SINCE "+formatIMAPDate(since), cmdTimeout)
	if err != nil {
		return &FolderError{Folder: folder.Name, Err: err}
	}
	if !searchResp.OK() {
		return &FolderError{
			Folder: folder.Name,
			Err:    fmt.Errorf("search rejected: %s", searchResp.StatusLine),
		}
	}

	seqs := parseSearch(searchResp.Raw)
	if len(seqs) == 0 {
		log.Debug("no messages in window")
		return nil
	}
	log.WithField("matched", len(seqs)).Debug("search complete")

	for _, batch := range batchSeqNums(seqs, e.cfg.FetchBatchSize) {
		set := seqSet(batch)
		fetchResp, err := sess.Command(
			fmt.Sprintf("FETCH %s (UID RFC822.SIZE RFC822.HEADER)", set),
			cmdTimeout,
		)
		if err != nil {
			ferr := &FetchError{Folder: folder.Name, Batch: set, Err: err}
			log.WithError(ferr).Warn("fetch batch failed")
			report.Problems = append(report.Problems, ferr.Error())
			if sess.Closed() {
				return nil
			}
			continue
		}
		if !fetchResp.OK() {
			ferr := &FetchError{
				Folder: folder.Name,
				Batch:  set,
				Err:    fmt.Errorf("fetch rejected: %s", fetchResp.StatusLine),
			}
			log.WithError(ferr).Warn("fetch batch failed")
			report.Problems = append(report.Problems, ferr.Error())
			continue
		}

		cands, dropped := parseFetchResponse(fetchResp.Raw)
		if dropped > 0 {
			perr := &ParseError{Folder: folder.Name, Batch: set, Dropped: dropped}
			log.WithError(perr).Warn("malformed messages in batch")
			report.Problems = append(report.Problems, perr.Error())
		}

		msgs := e.buildMessages(acct, folder, cands, existing, contacts)
		if len(msgs) == 0 {
			continue
		}

		if err := e.store.InsertMessages(ctx, msgs); err != nil {
			perr := &PersistError{Folder: folder.Name, Err: err}
			log.WithError(perr).Warn("insert batch failed")
			report.Problems = append(report.Problems, perr.Error())
			continue
		}
		report.Inserted += len(msgs)
	}

	return nil
}

// lookbackSince computes the SEARCH window start: the wide window for a
// full resync or a folder with no synced rows yet, the narrow window
// for incremental runs.
func (e *Engine) lookbackSince(ctx context.Context, accountID, localFolder string, opts Options) (time.Time, error) {
	days := e.cfg.IncrementalLookbackDays
	if opts.FullResync {
		days = e.cfg.FullLookbackDays
	} else {
		has, err := e.store.HasMessages(ctx, accountID, localFolder)
		if err != nil {
			return time.Time{}, fmt.Errorf("checking folder history: %w", err)
		}
		if !has {
			days = e.cfg.FullLookbackDays
		}
	}
	return e.now().AddDate(0, 0, -days), nil
}

// buildMessages turns fetched candidates into message rows, dropping
// duplicates and oversized messages and correlating addresses with
// known contacts. The key set is updated in memory so duplicates are
// also suppressed within the run.
func (e *Engine) buildMessages(
	acct model.EmailAccount,
	folder Folder,
	cands []candidate,
	existing map[string]struct{},
	contacts map[string]string,
) []model.Message {
	now := e.now()

	var msgs []model.Message
	for _, c := range cands {
		key := model.ExternalKey(folder.Local, c.UID)
		if _, dup := existing[key]; dup {
			continue
		}
		if c.Size > e.cfg.MaxMessageSize {
			e.log.WithFields(logrus.Fields{
				"account": acct.ID,
				"key":     key,
				"size":    c.Size,
			}).Debug("message over size cap, skipped")
			continue
		}

		headers := parseHeaderBlock(c.Header)
		from := extractEmailAddress(decodeHeaderValue(headers.get("From")))
		to := extractEmailAddress(decodeHeaderValue(headers.get("To")))
		subject := decodeHeaderValue(headers.get("Subject"))

		sentAt, ok := parseHeaderDate(headers.get("Date"))
		if !ok {
			sentAt = now
		}

		// From is preferred for correlation; To covers outbound mail.
		var contactID *string
		if id, ok := contacts[strings.ToLower(from)]; ok {
			contactID = &id
		} else if id, ok := contacts[strings.ToLower(to)]; ok {
			contactID = &id
		}

		existing[key] = struct{}{}
		msgs = append(msgs, model.Message{
			AccountID:   acct.ID,
			Folder:      folder.Local,
			Direction:   folder.Direction,
			ExternalKey: key,
			FromAddr:    from,
			ToAddr:      to,
			Subject:     subject,
			ContactID:   contactID,
			Size:        c.Size,
			SentAt:      sentAt,
			FetchedAt:   now,
		})
	}
	return msgs
}
