package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ashdown-property/splitscan/internal/model"
)

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
CREATE TABLE IF NOT EXISTS properties (
	id         TEXT PRIMARY KEY,
	postcode   TEXT NOT NULL,
	data       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshots (
	property_id TEXT PRIMARY KEY REFERENCES properties(id),
	data        TEXT NOT NULL,
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS assessments (
	id          TEXT PRIMARY KEY,
	property_id TEXT NOT NULL REFERENCES properties(id),
	result      TEXT NOT NULL,
	level       TEXT NOT NULL,
	confidence  REAL NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS comparables (
	id          TEXT PRIMARY KEY,
	district    TEXT NOT NULL,
	address     TEXT NOT NULL,
	sale_date   DATE NOT NULL,
	price       INTEGER NOT NULL,
	data        TEXT NOT NULL,
	imported_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (address, sale_date, price)
);

CREATE INDEX IF NOT EXISTS idx_properties_postcode ON properties(postcode);
CREATE INDEX IF NOT EXISTS idx_assessments_property_id ON assessments(property_id);
CREATE INDEX IF NOT EXISTS idx_comparables_district ON comparables(district);
CREATE INDEX IF NOT EXISTS idx_comparables_sale_date ON comparables(sale_date);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProperty(ctx context.Context, p *model.Property) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal property")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO properties (id, postcode, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET postcode = excluded.postcode, data = excluded.data, updated_at = excluded.updated_at`,
		p.ID, p.Postcode, string(data), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: upsert property %s", p.ID)
}

func (s *SQLiteStore) GetProperty(ctx context.Context, id string) (*model.Property, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM properties WHERE id = ?`, id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get property %s", id)
	}
	var p model.Property
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal property")
	}
	return &p, nil
}

func (s *SQLiteStore) ListProperties(ctx context.Context, filter PropertyFilter) ([]model.Property, error) {
	query := `SELECT data FROM properties`
	var args []any
	if filter.Postcode != "" {
		query += ` WHERE postcode LIKE ?`
		args = append(args, filter.Postcode+"%")
	}
	query += ` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list properties")
	}
	defer rows.Close()

	var out []model.Property
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan property")
		}
		var p model.Property
		if err := json.Unmarshal([]byte(data), &p); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal property")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate properties")
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.VerificationSnapshot) error {
	now := time.Now().UTC()
	snap.UpdatedAt = &now
	data, err := json.Marshal(snap)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal snapshot")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (property_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT (property_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		snap.PropertyID, string(data), now,
	)
	return eris.Wrapf(err, "sqlite: save snapshot %s", snap.PropertyID)
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, propertyID string) (*model.VerificationSnapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE property_id = ?`, propertyID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", propertyID)
	}
	var snap model.VerificationSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal snapshot")
	}
	return &snap, nil
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, property_id, result, level, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.ID, a.PropertyID, string(a.Result), a.Level, a.Confidence, a.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: save assessment %s", a.ID)
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, propertyID string, limit int) ([]model.Assessment, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, property_id, result, level, confidence, created_at
		 FROM assessments WHERE property_id = ? ORDER BY created_at DESC LIMIT ?`,
		propertyID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list assessments %s", propertyID)
	}
	defer rows.Close()

	var out []model.Assessment
	for rows.Next() {
		var a model.Assessment
		var result string
		if err := rows.Scan(&a.ID, &a.PropertyID, &result, &a.Level, &a.Confidence, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		a.Result = []byte(result)
		out = append(out, a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate assessments")
}

// SaveComparables inserts records, ignoring duplicates of an already-stored
// transaction. Returns the number of new records.
func (s *SQLiteStore) SaveComparables(ctx context.Context, district string, recs []model.ComparableRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	inserted := 0
	for _, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal comparable")
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO comparables (id, district, address, sale_date, price, data)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (address, sale_date, price) DO NOTHING`,
			uuid.New().String(), district, rec.Address, rec.SaleDate.Format("2006-01-02"), rec.Price, string(data),
		)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: insert comparable")
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit")
	}
	return inserted, nil
}

func (s *SQLiteStore) GetComparables(ctx context.Context, district string, since time.Time) ([]model.ComparableRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM comparables WHERE district = ? AND sale_date >= ? ORDER BY sale_date DESC`,
		district, since.Format("2006-01-02"),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get comparables %s", district)
	}
	defer rows.Close()

	var out []model.ComparableRecord
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan comparable")
		}
		var rec model.ComparableRecord
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal comparable")
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate comparables")
}
