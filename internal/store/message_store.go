package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ivstasov/salonik/internal/model"
)

// InsertMessages bulk-inserts one batch of message rows inside a single
// transaction. External keys are never overwritten; a duplicate key in
// the batch fails the whole batch.
func (s *SQLiteStore) InsertMessages(ctx context.Context, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO messages (
			id, account_id, folder, direction, external_key,
			from_addr, to_addr, subject, contact_id,
			size, sent_at, fetched_at
		) VALUES (
			?, ?, ?, ?, ?,
			?, ?, ?, ?,
			?, ?, ?
		)`

	stmt, err := tx.PreparexContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, m := range msgs {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}

		_, err = stmt.ExecContext(ctx,
			m.ID, m.AccountID, m.Folder, m.Direction, m.ExternalKey,
			m.FromAddr, m.ToAddr, m.Subject, m.ContactID,
			m.Size, m.SentAt.UTC(), m.FetchedAt.UTC(),
		)
		if err != nil {
			return fmt.Errorf("inserting message %s: %w", m.ExternalKey, err)
		}
	}

	return tx.Commit()
}

// MessageKeys returns the set of external keys already persisted for the
// account.
func (s *SQLiteStore) MessageKeys(ctx context.Context, accountID string) (map[string]struct{}, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT external_key FROM messages WHERE account_id = ?", accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying message keys for account %s: %w", accountID, err)
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning message key: %w", err)
		}
		keys[key] = struct{}{}
	}

	return keys, rows.Err()
}

// HasMessages reports whether any message exists for the account+folder pair.
func (s *SQLiteStore) HasMessages(ctx context.Context, accountID, folder string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM messages WHERE account_id = ? AND folder = ? LIMIT 1",
		accountID, folder,
	)
	if err != nil {
		return false, fmt.Errorf("counting messages for account %s folder %s: %w", accountID, folder, err)
	}
	return count > 0, nil
}

// GetMessages retrieves messages for an account matching the filter.
func (s *SQLiteStore) GetMessages(
	ctx context.Context,
	accountID string,
	filter MessageFilter,
) ([]model.Message, error) {
	conditions := []string{"account_id = ?"}
	args := []interface{}{accountID}

	if filter.Folder != nil {
		conditions = append(conditions, "folder = ?")
		args = append(args, *filter.Folder)
	}
	if filter.Direction != nil {
		conditions = append(conditions, "direction = ?")
		args = append(args, *filter.Direction)
	}
	if filter.ContactID != nil {
		conditions = append(conditions, "contact_id = ?")
		args = append(args, *filter.ContactID)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(from_addr LIKE ? OR to_addr LIKE ? OR subject LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q, q)
	}

	query := "SELECT * FROM messages WHERE " + strings.Join(conditions, " AND ")

	// Determine sort column.
	sortBy := "sent_at"
	if filter.SortBy != "" {
		allowedSorts := map[string]bool{
			"sent_at":    true,
			"fetched_at": true,
			"size":       true,
		}
		if allowedSorts[filter.SortBy] {
			sortBy = filter.SortBy
		}
	}

	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}

	return messages, rows.Err()
}

// scanMessage scans a message row from a sqlx.Rows result set.
func scanMessage(rows *sqlx.Rows) (model.Message, error) {
	var m model.Message

	err := rows.Scan(
		&m.ID, &m.AccountID, &m.Folder, &m.Direction, &m.ExternalKey,
		&m.FromAddr, &m.ToAddr, &m.Subject, &m.ContactID,
		&m.Size, &m.SentAt, &m.FetchedAt,
	)
	if err != nil {
		return model.Message{}, fmt.Errorf("scanning message row: %w", err)
	}

	return m, nil
}
