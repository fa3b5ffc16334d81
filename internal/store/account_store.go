package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ivstasov/salonik/internal/model"
)

// CreateAccount inserts a new email account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, acct model.EmailAccount) error {
	if strings.TrimSpace(acct.Host) == "" {
		return fmt.Errorf("account host must not be empty")
	}
	if strings.TrimSpace(acct.Username) == "" {
		return fmt.Errorf("account username must not be empty")
	}
	if acct.ID == "" {
		acct.ID = uuid.New().String()
	}
	if acct.Port == 0 {
		acct.Port = 993
	}
	now := time.Now().UTC()

	// The secret column stays empty when the keyring holds the password.
	secret := acct.Secret
	if acct.UseKeyring {
		secret = ""
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO email_accounts (id, label, host, port, username, secret, use_keyring, last_sync_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Label, acct.Host, acct.Port, acct.Username,
		secret, boolToInt(acct.UseKeyring), acct.LastSyncAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating email account: %w", err)
	}
	return nil
}

// UpdateAccount updates an existing email account's settings.
func (s *SQLiteStore) UpdateAccount(ctx context.Context, acct model.EmailAccount) error {
	if strings.TrimSpace(acct.Host) == "" {
		return fmt.Errorf("account host must not be empty")
	}

	secret := acct.Secret
	if acct.UseKeyring {
		secret = ""
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE email_accounts SET
			label = ?, host = ?, port = ?, username = ?,
			secret = ?, use_keyring = ?, updated_at = ?
		WHERE id = ?`,
		acct.Label, acct.Host, acct.Port, acct.Username,
		secret, boolToInt(acct.UseKeyring), time.Now().UTC(),
		acct.ID,
	)
	if err != nil {
		return fmt.Errorf("updating email account %s: %w", acct.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("email account %s not found", acct.ID)
	}
	return nil
}

// GetAccountByID retrieves a single email account by its ID.
func (s *SQLiteStore) GetAccountByID(ctx context.Context, id string) (*model.EmailAccount, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM email_accounts WHERE id = ?", id)

	acct, err := scanAccountRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("email account %s not found", id)
		}
		return nil, fmt.Errorf("getting email account %s: %w", id, err)
	}

	return &acct, nil
}

// ListAccounts retrieves all email accounts ordered by label.
func (s *SQLiteStore) ListAccounts(ctx context.Context) ([]model.EmailAccount, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM email_accounts ORDER BY label")
	if err != nil {
		return nil, fmt.Errorf("querying email accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.EmailAccount
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}

	return accounts, rows.Err()
}

// UpdateAccountSyncTime records when a sync run completed for the account.
func (s *SQLiteStore) UpdateAccountSyncTime(ctx context.Context, accountID string, t time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE email_accounts SET last_sync_at = ?, updated_at = ? WHERE id = ?",
		t.UTC(), time.Now().UTC(), accountID,
	)
	if err != nil {
		return fmt.Errorf("updating sync time for account %s: %w", accountID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("email account %s not found", accountID)
	}
	return nil
}

// scanAccount scans an account row from a sqlx.Rows result set.
func scanAccount(rows *sqlx.Rows) (model.EmailAccount, error) {
	var (
		acct       model.EmailAccount
		useKeyring int
		lastSync   sql.NullTime
	)

	err := rows.Scan(
		&acct.ID, &acct.Label, &acct.Host, &acct.Port, &acct.Username,
		&acct.Secret, &useKeyring, &lastSync,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return model.EmailAccount{}, fmt.Errorf("scanning account row: %w", err)
	}

	acct.UseKeyring = useKeyring != 0
	if lastSync.Valid {
		t := lastSync.Time
		acct.LastSyncAt = &t
	}

	return acct, nil
}

// scanAccountRow scans a single account row from a sqlx.Row.
func scanAccountRow(row *sqlx.Row) (model.EmailAccount, error) {
	var (
		acct       model.EmailAccount
		useKeyring int
		lastSync   sql.NullTime
	)

	err := row.Scan(
		&acct.ID, &acct.Label, &acct.Host, &acct.Port, &acct.Username,
		&acct.Secret, &useKeyring, &lastSync,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		return model.EmailAccount{}, err
	}

	acct.UseKeyring = useKeyring != 0
	if lastSync.Valid {
		t := lastSync.Time
		acct.LastSyncAt = &t
	}

	return acct, nil
}
