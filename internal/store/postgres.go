package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/cardfolio/cardscan-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's pool
// interface satisfies it, which keeps the Postgres store testable without a
// server.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// Statement names for the hottest store operations, prepared on each new
// connection and executed by name.
const (
	stmtInsertContact = "insert_contact"
	stmtGetContact    = "get_contact"
	stmtDeleteContact = "delete_contact"
)

var preparedStatements = map[string]string{
	stmtInsertContact: `INSERT INTO contacts (id, contact, name, company, email, phone, industry, category, company_size, is_competitor, tags, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	stmtGetContact:    `SELECT contact FROM contacts WHERE id = $1`,
	stmtDeleteContact: `DELETE FROM contacts WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contacts (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	contact       JSONB NOT NULL,
	name          TEXT NOT NULL DEFAULT '',
	company       TEXT NOT NULL DEFAULT '',
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	industry      TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT 'other',
	company_size  TEXT NOT NULL DEFAULT 'unknown',
	is_competitor BOOLEAN NOT NULL DEFAULT false,
	tags          JSONB NOT NULL DEFAULT '[]',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contacts_created_at ON contacts(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_contacts_category ON contacts(category);
CREATE INDEX IF NOT EXISTS idx_contacts_industry ON contacts(industry);
CREATE INDEX IF NOT EXISTS idx_contacts_company_size ON contacts(company_size);
CREATE INDEX IF NOT EXISTS idx_contacts_tags ON contacts USING gin(tags);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) AddContact(ctx context.Context, contact *model.Contact) error {
	prepareForInsert(contact)

	contactJSON, tagsJSON, err := encodeContact(contact)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, stmtInsertContact,
		contact.ID, []byte(contactJSON), contact.Name, contact.Company,
		contact.Email, contact.Phone, contact.Industry,
		string(contact.Category), string(contact.CompanySize),
		contact.IsCompetitor, []byte(tagsJSON), contact.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert contact")
}

func (s *PostgresStore) GetContact(ctx context.Context, id string) (*model.Contact, error) {
	var contactJSON []byte
	err := s.pool.QueryRow(ctx, stmtGetContact, id).Scan(&contactJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("contact not found: %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get contact")
	}
	return decodeContact(string(contactJSON))
}

func (s *PostgresStore) ListContacts(ctx context.Context, filter ContactFilter) ([]model.Contact, error) {
	query := `SELECT contact FROM contacts WHERE 1=1`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Tag != "" {
		query += ` AND tags @> ` + arg(mustJSON([]string{filter.Tag}))
	}
	if filter.Category != "" {
		query += ` AND category = ` + arg(string(filter.Category))
	}
	if filter.Industry != "" {
		query += ` AND industry = ` + arg(filter.Industry)
	}
	if filter.CompanySize != "" {
		query += ` AND company_size = ` + arg(string(filter.CompanySize))
	}
	if filter.Country != "" {
		query += ` AND contact->'location'->>'country' = ` + arg(filter.Country)
	}
	if filter.City != "" {
		query += ` AND contact->'location'->>'city' = ` + arg(filter.City)
	}
	if filter.CompetitorsOnly {
		query += ` AND is_competitor`
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	return s.queryContacts(ctx, query, args...)
}

func (s *PostgresStore) UpdateContact(ctx context.Context, contact *model.Contact) error {
	contact.UpdatedAt = time.Now().UTC()

	contactJSON, tagsJSON, err := encodeContact(contact)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE contacts SET contact = $1, name = $2, company = $3, email = $4, phone = $5,
		 industry = $6, category = $7, company_size = $8, is_competitor = $9, tags = $10
		 WHERE id = $11`,
		[]byte(contactJSON), contact.Name, contact.Company, contact.Email,
		contact.Phone, contact.Industry, string(contact.Category),
		string(contact.CompanySize), contact.IsCompetitor, []byte(tagsJSON),
		contact.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update contact %s", contact.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contact not found: %s", contact.ID)
	}
	return nil
}

func (s *PostgresStore) DeleteContact(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, stmtDeleteContact, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete contact %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contact not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SearchContacts(ctx context.Context, query string, limit int) ([]model.Contact, error) {
	if limit <= 0 {
		limit = 100
	}
	needle := "%" + strings.ToLower(query) + "%"
	return s.queryContacts(ctx,
		`SELECT contact FROM contacts
		 WHERE name ILIKE $1 OR company ILIKE $1 OR email ILIKE $1
		    OR phone ILIKE $1 OR industry ILIKE $1 OR tags::text ILIKE $1
		 ORDER BY created_at DESC LIMIT $2`,
		needle, limit,
	)
}

func (s *PostgresStore) queryContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query contacts")
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var contactJSON []byte
		if err := rows.Scan(&contactJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		c, err := decodeContact(string(contactJSON))
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, eris.Wrap(rows.Err(), "postgres: iterate contacts")
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
