package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivstasov/salonik/internal/model"
)

// CreateContact inserts a new contact.
func (s *SQLiteStore) CreateContact(ctx context.Context, c model.Contact) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("contact name must not be empty")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("creating contact: %w", err)
	}
	return nil
}

// ListContacts retrieves all contacts ordered by name.
func (s *SQLiteStore) ListContacts(ctx context.Context) ([]model.Contact, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM contacts ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying contacts: %w", err)
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning contact row: %w", err)
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

// ContactEmailIndex returns a lowercased email -> contact ID map for all
// contacts with a non-empty address. Later duplicates of the same address
// do not overwrite earlier entries.
func (s *SQLiteStore) ContactEmailIndex(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, email FROM contacts WHERE email != '' ORDER BY created_at",
	)
	if err != nil {
		return nil, fmt.Errorf("querying contact emails: %w", err)
	}
	defer rows.Close()

	index := make(map[string]string)
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, fmt.Errorf("scanning contact email row: %w", err)
		}
		key := strings.ToLower(strings.TrimSpace(email))
		if key == "" {
			continue
		}
		if _, ok := index[key]; !ok {
			index[key] = id
		}
	}

	return index, rows.Err()
}
