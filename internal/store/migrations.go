package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS email_accounts (
	id           TEXT PRIMARY KEY,
	label        TEXT NOT NULL,
	host         TEXT NOT NULL,
	port         INTEGER NOT NULL DEFAULT 993,
	username     TEXT NOT NULL,
	secret       TEXT NOT NULL DEFAULT '',
	use_keyring  INTEGER NOT NULL DEFAULT 0 CHECK(use_keyring IN (0, 1)),
	last_sync_at DATETIME,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS contacts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL DEFAULT '',
	phone      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id           TEXT PRIMARY KEY,
	account_id   TEXT NOT NULL REFERENCES email_accounts(id) ON DELETE CASCADE,
	folder       TEXT NOT NULL CHECK(folder IN ('inbox', 'sent')),
	direction    TEXT NOT NULL CHECK(direction IN ('inbound', 'outbound')),
	external_key TEXT NOT NULL,
	from_addr    TEXT NOT NULL DEFAULT '',
	to_addr      TEXT NOT NULL DEFAULT '',
	subject      TEXT NOT NULL DEFAULT '',
	contact_id   TEXT REFERENCES contacts(id) ON DELETE SET NULL,
	size         INTEGER NOT NULL DEFAULT 0,
	sent_at      DATETIME NOT NULL,
	fetched_at   DATETIME NOT NULL,
	UNIQUE(account_id, external_key)
);

CREATE INDEX IF NOT EXISTS idx_messages_account_id ON messages(account_id);
CREATE INDEX IF NOT EXISTS idx_messages_account_folder ON messages(account_id, folder);
CREATE INDEX IF NOT EXISTS idx_messages_contact_id ON messages(contact_id);
CREATE INDEX IF NOT EXISTS idx_messages_sent_at ON messages(sent_at);
CREATE INDEX IF NOT EXISTS idx_contacts_email ON contacts(email);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_messages_from_addr ON messages(from_addr);
CREATE INDEX IF NOT EXISTS idx_messages_to_addr ON messages(to_addr);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
