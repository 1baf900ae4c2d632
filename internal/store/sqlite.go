package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. The full contact is
// stored as a JSON document alongside indexed filter columns.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id            TEXT PRIMARY KEY,
	contact       TEXT NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	company       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	industry      TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT 'other',
	company_size  TEXT NOT NULL DEFAULT 'unknown',
	is_competitor INTEGER NOT NULL DEFAULT 0,
	tags          TEXT NOT NULL DEFAULT '[]',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at);
CREATE INDEX IF NOT EXISTS idx_contacts_category ON contacts(category);
CREATE INDEX IF NOT EXISTS idx_contacts_industry ON contacts(industry);
CREATE INDEX IF NOT EXISTS idx_contacts_company_size ON contacts(company_size);
CREATE INDEX IF NOT EXISTS idx_contacts_is_competitor ON contacts(is_competitor);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddContact(ctx context.Context, contact *model.Contact) error {
	prepareForInsert(contact)

	contactJSON, tagsJSON, err := encodeContact(contact)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, contact, name, company, email, phone, industry, category, company_size, is_competitor, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		contact.ID, contactJSON, contact.Name, contact.Company, contact.Email,
		contact.Phone, contact.Industry, string(contact.Category),
		string(contact.CompanySize), boolToInt(contact.IsCompetitor),
		tagsJSON, contact.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert contact")
}

func (s *SQLiteStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT contact FROM contacts WHERE id = ?`, id,
	)

	var contactJSON string
	err := row.Scan(&contactJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("contact not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get contact")
	}
	return decodeContact(contactJSON)
}

func (s *SQLiteStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT contact FROM contacts WHERE 1=1`
	var args []any

	if filter.Tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(contacts.tags) WHERE json_each.value = ?)`
		args = append(args, filter.Tag)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.Industry != "" {
		query += ` AND industry = ?`
		args = append(args, filter.Industry)
	}
	if filter.CompanySize != "" {
		query += ` AND company_size = ?`
		args = append(args, string(filter.CompanySize))
	}
	if filter.Country != "" {
		query += ` AND json_extract(contact, '$.location.country') = ?`
		args = append(args, filter.Country)
	}
	if filter.City != "" {
		query += ` AND json_extract(contact, '$.location.city') = ?`
		args = append(args, filter.City)
	}
	if filter.CompetitorsOnly {
		query += ` AND is_competitor = 1`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return s.queryContacts(ctx, query, args...)
}

func (s *SQLiteStore) UpdateContact(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = time.Now().UTC()

	contactJSON, tagsJSON, err := encodeContact(contact)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE contacts SET contact = ?, name = ?, company = ?, email = ?, phone = ?,
		 industry = ?, category = ?, company_size = ?, is_competitor = ?, tags = ?
		 WHERE id = ?`,
		contactJSON, contact.Name, contact.Company, contact.Email, contact.Phone,
		contact.Industry, string(contact.Category), string(contact.CompanySize),
		boolToInt(contact.IsCompetitor), tagsJSON, contact.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update contact %s", contact.ID)
	}
	return checkRowsAffected(res, "contact", contact.ID)
}

func (s *SQLiteStore) DeleteContact(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete contact %s", id)
	}
	return checkRowsAffected(res, "contact", id)
}

func (s *SQLiteStore) SearchContacts(ctx context.Context, query string, limit int) ([]model.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	needle := "%" + strings.ToLower(query) + "%"
	return s.queryContacts(ctx,
		`SELECT contact FROM contacts
		 WHERE lower(name) LIKE ? OR lower(company) LIKE ? OR lower(email) LIKE ?
		    OR lower(phone) LIKE ? OR lower(industry) LIKE ? OR lower(tags) LIKE ?
		 ORDER BY created_at DESC LIMIT ?`,
		needle, needle, needle, needle, needle, needle, limit,
	)
}

func (s *SQLiteStore) queryContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var contactJSON string
		if err := rows.Scan(&contactJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		c, err := decodeContact(contactJSON)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, eris.Wrap(rows.Err(), "sqlite: iterate contacts")
}

// helpers

// prepareForInsert assigns identity and timestamps where the caller left
// them unset.
func prepareForInsert(contact *model.Contact) {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	if contact.UpdatedAt.IsZero() {
		contact.UpdatedAt = contact.CreatedAt
	}
	if contact.ScanTimestamp.IsZero() {
		contact.ScanTimestamp = contact.CreatedAt
	}
	contact.ApplyDefaults()
}

func encodeContact(contact *model.Contact) (contactJSON, tagsJSON string, err error) {
	cj, err := json.Marshal(contact)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal contact")
	}
	tj, err := json.Marshal(contact.Tags)
	if err != nil {
		return "", "", eris.Wrap(err, "store: marshal tags")
	}
	return string(cj), string(tj), nil
}

func decodeContact(contactJSON string) (*model.Contact, error) {
	var c model.Contact
	if err := json.Unmarshal([]byte(contactJSON), &c); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal contact")
	}
	c.ApplyDefaults()
	return &c, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
