package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// PostgresConfig controls the connection pool behind the source store. The
// target table needs a pgvector column sized to the embedding dimension.
type PostgresConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore keeps source embeddings in a pgvector-backed table.
type PostgresStore struct {
	pool  pgxPool
	table string
}

// NewPostgresStore connects a pool using the provided config.
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = "sources"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// NewPostgresStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewPostgresStoreWithPool(pool pgxPool, table string) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "sources"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &PostgresStore{pool: pool, table: table}, nil
}

// SaveSource upserts one source row; re-adding a source id overwrites it.
func (s *PostgresStore) SaveSource(ctx context.Context, rec SourceRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("source id is required")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, text, embedding, title, url, source_type)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
	text = EXCLUDED.text,
	embedding = EXCLUDED.embedding,
	title = EXCLUDED.title,
	url = EXCLUDED.url,
	source_type = EXCLUDED.source_type
`, s.table)
	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.Text,
		pgvector.NewVector(toFloat32(rec.Embedding)),
		rec.Title,
		rec.URL,
		rec.SourceType,
	)
	if err != nil {
		return fmt.Errorf("save source %s: %w", rec.ID, err)
	}
	return nil
}

// LoadSources reads every persisted source row.
func (s *PostgresStore) LoadSources(ctx context.Context) ([]SourceRecord, error) {
	query := fmt.Sprintf(`SELECT id, text, embedding, title, url, source_type FROM %s`, s.table)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var records []SourceRecord
	for rows.Next() {
		var (
			rec SourceRecord
			vec pgvector.Vector
		)
		if err := rows.Scan(&rec.ID, &rec.Text, &vec, &rec.Title, &rec.URL, &rec.SourceType); err != nil {
			return nil, fmt.Errorf("scan source row: %w", err)
		}
		rec.Embedding = toFloat64(vec.Slice())
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate source rows: %w", err)
	}
	return records, nil
}

// Close releases the underlying pool resources.
func (s *PostgresStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}
