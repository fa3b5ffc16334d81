package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/ivstasov/salonik/internal/config"
	"github.com/ivstasov/salonik/internal/credential"
	"github.com/ivstasov/salonik/internal/mailsync"
	"github.com/ivstasov/salonik/internal/model"
	"github.com/ivstasov/salonik/internal/store"
)

var version = "dev"

func main() {
	var (
		configPath  = pflag.String("config", config.DefaultConfigPath(), "path to the YAML config file")
		accountID   = pflag.String("account", "", "sync only the account with this ID (default: all accounts)")
		fullResync  = pflag.Bool("full", false, "force the wide lookback window for every folder")
		quiet       = pflag.Bool("quiet", false, "suppress user-visible notifications upstream")
		showVersion = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Printf("salonik-sync version %s\n", version)
		return
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("loading configuration")
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	db, err := store.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("opening database")
	}
	defer db.Close()

	ctx := context.Background()

	accounts, err := selectAccounts(ctx, db, *accountID)
	if err != nil {
		logger.WithError(err).Fatal("loading accounts")
	}
	if len(accounts) == 0 {
		logger.Fatal("no email accounts configured")
	}

	engine := mailsync.New(db, cfg.Sync, logger)
	opts := mailsync.Options{FullResync: *fullResync, Silent: *quiet}

	// Each account is an independent invocation: a failed run leaves
	// that account's last-sync timestamp unchanged and does not stop
	// the others.
	failed := 0
	for _, acct := range accounts {
		if err := resolveSecret(&acct); err != nil {
			logger.WithField("account", acct.ID).WithError(err).Error("resolving account secret")
			failed++
			continue
		}

		report, err := engine.SyncAccount(ctx, acct, opts)
		if err != nil {
			printFailure(acct, err)
			failed++
			continue
		}
		printReport(acct, report)
	}

	if failed > 0 {
		os.Exit(1)
	}
}

// selectAccounts returns either the single requested account or all of them.
func selectAccounts(ctx context.Context, db store.Store, id string) ([]model.EmailAccount, error) {
	if id != "" {
		acct, err := db.GetAccountByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return []model.EmailAccount{*acct}, nil
	}
	return db.ListAccounts(ctx)
}

// resolveSecret fills in the account password from the OS keyring when
// the account is marked for it; otherwise the stored column is used.
func resolveSecret(acct *model.EmailAccount) error {
	if !acct.UseKeyring {
		return nil
	}
	secret, err := credential.Get(credential.AccountKey(acct.ID))
	if err != nil {
		return err
	}
	acct.Secret = secret
	return nil
}

func printReport(acct model.EmailAccount, report *mailsync.Report) {
	fmt.Printf("%s (%s): %d new messages\n", acct.Label, acct.Username, report.Inserted)
	for _, name := range report.SyncedFolders {
		fmt.Printf("  synced %s\n", name)
	}
	for folder, total := range report.FolderTotals {
		fmt.Printf("  %s: %d messages on server\n", folder, total)
	}
	for _, p := range report.Problems {
		fmt.Printf("  warning: %s\n", p)
	}
}

func printFailure(acct model.EmailAccount, err error) {
	fmt.Fprintf(os.Stderr, "%s: sync failed: %v\n", acct.Label, err)

	var authErr *mailsync.AuthError
	if errors.As(err, &authErr) {
		fmt.Fprintf(os.Stderr, "  host:          %s\n", authErr.Host)
		fmt.Fprintf(os.Stderr, "  username:      %s\n", authErr.Username)
		fmt.Fprintf(os.Stderr, "  capability:    %s\n", authErr.Capability)
		fmt.Fprintf(os.Stderr, "  last response: %s\n", authErr.LastResponse)
	}
}
