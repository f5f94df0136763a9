package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Store struct {
	db      *sql.DB
	dialect string
}

// NewStore opens a database from a DSN. postgres:// and postgresql:// URLs use
// lib/pq; sqlite://path, file: URIs and :memory: use the embedded SQLite driver.
func NewStore(dsn string) (*Store, error) {
	dialect, connStr, err := parseDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if dialect == DialectSQLite {
		// every new connection to :memory: would be a separate database
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db, dialect: dialect}, nil
}

func parseDSN(dsn string) (string, string, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return DialectSQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"), dsn == ":memory:":
		return DialectSQLite, dsn, nil
	case dsn == "":
		return "", "", fmt.Errorf("store: empty database url")
	default:
		return "", "", fmt.Errorf("store: unsupported database url %q", dsn)
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() string {
	return s.dialect
}

func (s *Store) Migrate(ctx context.Context) error {
	content, err := schemaFS.ReadFile("schema/" + s.dialect + ".sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// rebind rewrites $N placeholders into ? for SQLite.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectSQLite {
		return query
	}
	var sb strings.Builder
	sb.Grow(len(query))
	for i := 0; i < len(query); i++ {
		if query[i] != '$' {
			sb.WriteByte(query[i])
			continue
		}
		j := i + 1
		for j < len(query) && query[j] >= '0' && query[j] <= '9' {
			j++
		}
		if j == i+1 {
			sb.WriteByte('$')
			continue
		}
		sb.WriteByte('?')
		i = j - 1
	}
	return sb.String()
}
