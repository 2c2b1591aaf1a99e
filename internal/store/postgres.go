package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/snappy-gold/appraisal-api/internal/db"
	"github.com/snappy-gold/appraisal-api/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_quote":  `INSERT INTO quotes (id, appraisal, created_at) VALUES ($1, $2, $3)`,
	"recent_quotes": `SELECT id, appraisal, created_at FROM quotes ORDER BY created_at DESC, id LIMIT $1`,
	"insert_lead":   `INSERT INTO leads (id, payload, created_at) VALUES ($1, $2, $3)`,
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

	// Prepare frequently-used statements on each new connection.
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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS quotes (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	appraisal  JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_quotes_created_at ON quotes(created_at);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateQuote(ctx context.Context, a model.Appraisal) (*model.Quote, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	appraisalJSON, err := json.Marshal(a)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal appraisal")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO quotes (id, appraisal, created_at) VALUES ($1, $2, $3)`,
		id, string(appraisalJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert quote")
	}

	return &model.Quote{ID: id, Appraisal: a, CreatedAt: now}, nil
}

func (s *PostgresStore) RecentQuotes(ctx context.Context, limit int) ([]model.Quote, error) {
	if limit <= 0 {
		limit = defaultQuoteLimit
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, appraisal, created_at FROM quotes ORDER BY created_at DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query recent quotes")
	}
	defer rows.Close()

	var quotes []model.Quote
	for rows.Next() {
		var (
			q             model.Quote
			appraisalJSON []byte
		)
		if err := rows.Scan(&q.ID, &appraisalJSON, &q.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan quote")
		}
		if err := json.Unmarshal(appraisalJSON, &q.Appraisal); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal quote %s", q.ID)
		}
		quotes = append(quotes, q)
	}
	return quotes, eris.Wrap(rows.Err(), "postgres: iterate quotes")
}

func (s *PostgresStore) CreateLead(ctx context.Context, payload model.LeadPayload) (*model.Lead, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal lead payload")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (id, payload, created_at) VALUES ($1, $2, $3)`,
		id, string(payloadJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert lead")
	}

	return &model.Lead{ID: id, Payload: payload, CreatedAt: now}, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, payload, created_at FROM leads WHERE 1=1`
	var args []any
	n := 0

	if !filter.Since.IsZero() {
		n++
		query += fmt.Sprintf(` AND created_at >= $%d`, n)
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		n++
		query += fmt.Sprintf(` LIMIT $%d`, n)
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(` OFFSET $%d`, n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var (
			l           model.Lead
			payloadJSON []byte
		)
		if err := rows.Scan(&l.ID, &payloadJSON, &l.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		if err := json.Unmarshal(payloadJSON, &l.Payload); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal lead %s", l.ID)
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: iterate leads")
}
