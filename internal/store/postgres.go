package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ashdown-property/splitscan/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
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

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"upsert_property": `INSERT INTO properties (id, postcode, data, updated_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET postcode = EXCLUDED.postcode, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
	"get_property":  `SELECT data FROM properties WHERE id = $1`,
	"save_snapshot": `INSERT INTO snapshots (property_id, data, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (property_id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
	"get_snapshot":    `SELECT data FROM snapshots WHERE property_id = $1`,
	"save_assessment": `INSERT INTO assessments (id, property_id, result, level, confidence, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
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

// NewPostgresFromPool creates a PostgresStore over an existing pool,
// primarily for tests.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS properties (
	id         TEXT PRIMARY KEY,
	postcode   TEXT NOT NULL,
	data       JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshots (
	property_id TEXT PRIMARY KEY REFERENCES properties(id),
	data        JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assessments (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	result      JSONB NOT NULL,
	level       TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS comparables (
	id          TEXT PRIMARY KEY,
	district    TEXT NOT NULL,
	address     TEXT NOT NULL,
	sale_date   DATE NOT NULL,
	price       BIGINT NOT NULL,
	data        JSONB NOT NULL,
	imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (address, sale_date, price)
);

CREATE INDEX IF NOT EXISTS idx_properties_postcode ON properties(postcode);
CREATE INDEX IF NOT EXISTS idx_assessments_property_id ON assessments(property_id);
CREATE INDEX IF NOT EXISTS idx_comparables_district ON comparables(district);
CREATE INDEX IF NOT EXISTS idx_comparables_sale_date ON comparables(sale_date);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) UpsertProperty(ctx context.Context, p *model.Property) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal property")
	}
	_, err = s.pool.Exec(ctx, preparedStatements["upsert_property"], p.ID, p.Postcode, data, time.Now().UTC())
	return eris.Wrapf(err, "postgres: upsert property %s", p.ID)
}

func (s *PostgresStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, preparedStatements["get_property"], id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get property %s", id)
	}
	var p model.Property
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal property")
	}
	return &p, nil
}

func (s *PostgresStore) ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error) {
	query := `SELECT data FROM properties`
	var args []any
	if filter.Postcode != "" {
		query += ` WHERE postcode LIKE $1`
		args = append(args, filter.Postcode+"%")
	}
	query += ` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET $%d`, len(args)+1)
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list properties")
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan property")
		}
		var p model.Property
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal property")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate properties")
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.VerificationSnapshot) error {
	now := time.Now().UTC()
	snap.UpdatedAt = &now
	data, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal snapshot")
	}
	_, err = s.pool.Exec(ctx, preparedStatements["save_snapshot"], snap.PropertyID, data, now)
	return eris.Wrapf(err, "postgres: save snapshot %s", snap.PropertyID)
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, propertyID string) (*model.VerificationSnapshot, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, preparedStatements["get_snapshot"], propertyID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", propertyID)
	}
	var snap model.VerificationSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal snapshot")
	}
	return &snap, nil
}

func (s *PostgresStore) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, preparedStatements["save_assessment"],
		a.ID, a.PropertyID, a.Result, a.Level, a.Confidence, a.CreatedAt)
	return eris.Wrapf(err, "postgres: save assessment %s", a.ID)
}

func (s *PostgresStore) ListAssessments(ctx context.Context, propertyID string, limit int) ([]model.Assessment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, property_id, result, level, confidence, created_at
		 FROM assessments WHERE property_id = $1 ORDER BY created_at DESC LIMIT $2`,
		propertyID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list assessments %s", propertyID)
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var a model.Assessment
		if err := rows.Scan(&a.ID, &a.PropertyID, &a.Result, &a.Level, &a.Confidence, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan assessment")
		}
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate assessments")
}

// SaveComparables inserts records, skipping transactions already stored.
func (s *PostgresStore) SaveComparables(ctx context.Context, district string, recs []model.ComparableRecord) (int, error) {
	inserted := 0
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal comparable")
		}
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO comparables (id, district, address, sale_date, price, data)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (address, sale_date, price) DO NOTHING`,
			uuid.New().String(), district, rec.Address, rec.SaleDate, rec.Price, data,
		)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: insert comparable")
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

func (s *PostgresStore) GetComparables(ctx context.Context, district string, since time.Time) ([]model.ComparableRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT data FROM comparables WHERE district = $1 AND sale_date >= $2 ORDER BY sale_date DESC`,
		district, since,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get comparables %s", district)
	}
	defer rows.Close()

	var out []model.ComparableRecord
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "postgres: scan comparable")
		}
		var rec model.ComparableRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal comparable")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate comparables")
}
