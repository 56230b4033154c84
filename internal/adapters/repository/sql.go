package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/okian/rks/internal/domain/model"
)

// Driver names accepted by OpenSQL.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore is a Store backed by database/sql. Rows carry a sequence column
// so insertion order survives across both dialects.
type SQLStore struct {
	db   *sql.DB
	opts options
}

var _ Store = (*SQLStore)(nil)

// OpenSQL opens a database, pings it and ensures the schema exists.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:rks.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/rks?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStore, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", ErrStoreUnavailable, err)
	}
	if driver == DriverSQLite {
		// one writer avoids SQLITE_BUSY under concurrent inserts
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrStoreUnavailable, err)
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: schema: %w", ErrStoreUnavailable, err)
	}
	return NewSQLStore(db, opts...), nil
}

// NewSQLStore wraps an already prepared database handle.
func NewSQLStore(db *sql.DB, opts ...Option) *SQLStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SQLStore{db: db, opts: o}
}

// Close releases the database handle.
func (s *SQLStore) Close() error { return s.db.Close() }

const selectColumns = `id, owner_id, song, difficulty, difficulty_rating, score, accuracy, goods, bads_misses, created_at`

// ListScoresForUser implements Store.
func (s *SQLStore) ListScoresForUser(ctx context.Context, ownerID string) (out []model.ScoreRecord, err error) {
	defer func(start time.Time) { observe("list_user", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM scores WHERE owner_id=$1 ORDER BY seq`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list scores for %s: %w", ErrStoreUnavailable, ownerID, err)
	}
	return scanRecords(rows)
}

// ListAllUsers implements Store.
func (s *SQLStore) ListAllUsers(ctx context.Context) (out []string, err error) {
	defer func(start time.Time) { observe("list_users", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_id FROM scores GROUP BY owner_id ORDER BY MIN(seq)`)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out = []string{}
	for rows.Next() {
		var owner string
		if err := rows.Scan(&owner); err != nil {
			return nil, fmt.Errorf("%w: scan user: %w", ErrStoreUnavailable, err)
		}
		out = append(out, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ErrStoreUnavailable, err)
	}
	return out, nil
}

// ListAllScores implements Store.
func (s *SQLStore) ListAllScores(ctx context.Context) (out []model.ScoreRecord, err error) {
	defer func(start time.Time) { observe("list_all", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM scores ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: list all scores: %w", ErrStoreUnavailable, err)
	}
	return scanRecords(rows)
}

// InsertScore implements Store.
func (s *SQLStore) InsertScore(ctx context.Context, rec model.ScoreRecord) (out model.ScoreRecord, err error) {
	defer func(start time.Time) { observe("insert", start, err) }(time.Now())

	if err := rec.Validate(); err != nil {
		return model.ScoreRecord{}, err
	}
	rec = s.opts.stamp(rec)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scores (id, owner_id, song, difficulty, difficulty_rating, score, accuracy, goods, bads_misses, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.OwnerID, rec.Chart.Song, string(rec.Chart.Difficulty), rec.DifficultyRating,
		rec.Score, rec.Accuracy, nullInt(rec.Goods), nullInt(rec.BadsMisses), rec.CreatedAt.UnixNano())
	if err != nil {
		return model.ScoreRecord{}, fmt.Errorf("%w: insert score: %w", ErrStoreUnavailable, err)
	}
	return rec, nil
}

// DeleteScore implements Store.
func (s *SQLStore) DeleteScore(ctx context.Context, ownerID, scoreID string) (err error) {
	defer func(start time.Time) { observe("delete", start, err) }(time.Now())

	res, err := s.db.ExecContext(ctx, `DELETE FROM scores WHERE owner_id=$1 AND id=$2`, ownerID, scoreID)
	if err != nil {
		return fmt.Errorf("%w: delete score: %w", ErrStoreUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete score: %w", ErrStoreUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, ownerID, scoreID)
	}
	return nil
}

func scanRecords(rows *sql.Rows) ([]model.ScoreRecord, error) {
	defer rows.Close()

	out := []model.ScoreRecord{}
	for rows.Next() {
		var (
			r          model.ScoreRecord
			tier       string
			goods, bm  sql.NullInt64
			createdAtN int64
		)
		if err := rows.Scan(&r.ID, &r.OwnerID, &r.Chart.Song, &tier, &r.DifficultyRating,
			&r.Score, &r.Accuracy, &goods, &bm, &createdAtN); err != nil {
			return nil, fmt.Errorf("%w: scan score: %w", ErrStoreUnavailable, err)
		}
		r.Chart.Difficulty = model.Difficulty(tier)
		r.Goods = intPtr(goods)
		r.BadsMisses = intPtr(bm)
		r.CreatedAt = time.Unix(0, createdAtN).UTC()
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read scores: %w", ErrStoreUnavailable, err)
	}
	return out, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func ensureSchema(ctx context.Context, db *sql.DB, driver string) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return errors.New("no schema for driver " + driver)
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS scores (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  owner_id TEXT NOT NULL,
  song TEXT NOT NULL,
  difficulty TEXT NOT NULL,
  difficulty_rating REAL NOT NULL DEFAULT 0,
  score INTEGER NOT NULL,
  accuracy REAL NOT NULL,
  goods INTEGER,
  bads_misses INTEGER,
  created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS scores_owner_idx ON scores (owner_id, seq);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS scores (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  owner_id TEXT NOT NULL,
  song TEXT NOT NULL,
  difficulty TEXT NOT NULL,
  difficulty_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
  score INTEGER NOT NULL,
  accuracy DOUBLE PRECISION NOT NULL,
  goods INTEGER,
  bads_misses INTEGER,
  created_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS scores_owner_idx ON scores (owner_id, seq);
`
