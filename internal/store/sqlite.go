package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/snappy-gold/appraisal-api/internal/model"
)

// defaultQuoteLimit caps the recent-quotes feed when the caller passes no
// limit.
const defaultQuoteLimit = 20

// SQLiteStore implements Store using modernc.org/sqlite.
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
CREATE TABLE IF NOT EXISTS quotes (
	id         TEXT PRIMARY KEY,
	appraisal  TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_quotes_created_at ON quotes(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateQuote(ctx context.Context, a model.Appraisal) (*model.Quote, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	appraisalJSON, err := json.Marshal(a)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal appraisal")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quotes (id, appraisal, created_at) VALUES (?, ?, ?)`,
		id, string(appraisalJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert quote")
	}

	return &model.Quote{ID: id, Appraisal: a, CreatedAt: now}, nil
}

func (s *SQLiteStore) RecentQuotes(ctx context.Context, limit int) ([]model.Quote, error) {
	if limit <= 0 {
		limit = defaultQuoteLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, appraisal, created_at FROM quotes ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query recent quotes")
	}
	defer rows.Close() //nolint:errcheck

	var quotes []model.Quote
	for rows.Next() {
		var (
			q             model.Quote
			appraisalJSON string
		)
		if err := rows.Scan(&q.ID, &appraisalJSON, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quote")
		}
		if err := json.Unmarshal([]byte(appraisalJSON), &q.Appraisal); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal quote %s", q.ID)
		}
		quotes = append(quotes, q)
	}
	return quotes, eris.Wrap(rows.Err(), "sqlite: iterate quotes")
}

func (s *SQLiteStore) CreateLead(ctx context.Context, payload model.LeadPayload) (*model.Lead, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal lead payload")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, payload, created_at) VALUES (?, ?, ?)`,
		id, string(payloadJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert lead")
	}

	return &model.Lead{ID: id, Payload: payload, CreatedAt: now}, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, payload, created_at FROM leads WHERE 1=1`
	var args []any

	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else if filter.Offset > 0 {
		// SQLite requires a LIMIT clause before OFFSET; -1 means unbounded.
		query += ` LIMIT -1`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query leads")
	}
	defer rows.Close() //nolint:errcheck

	var leads []model.Lead
	for rows.Next() {
		var (
			l           model.Lead
			payloadJSON string
		)
		if err := rows.Scan(&l.ID, &payloadJSON, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		if err := json.Unmarshal([]byte(payloadJSON), &l.Payload); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal lead %s", l.ID)
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: iterate leads")
}
