// Package sqlstore implements store.Persistence over a SQL table per
// collection, each row holding one JSON document.
package sqlstore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"github.com/google/uuid"
	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/docql/internal/debug"
	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/cache"
	"github.com/satishbabariya/docql/query/compiler"
	"github.com/satishbabariya/docql/query/executor"
	"github.com/satishbabariya/docql/query/sqlgen"
	"github.com/satishbabariya/docql/store"
)

// IDField is the document member mirrored into the id column.
const IDField = "_id"

// Config holds database connection configuration.
type Config struct {
	Provider       string
	URL            string
	MaxConnections int
	MaxIdleTime    time.Duration
	ConnectTimeout time.Duration
	// CacheSize bounds the compiled statement cache; zero disables it.
	CacheSize int
	CacheTTL  time.Duration
}

// Store is a SQL-backed document store.
type Store struct {
	db          *sql.DB
	exec        *executor.Executor
	collections *store.Collections

	mu      sync.Mutex
	created map[compiler.Table]bool
	closed  bool
}

// Open connects to the database described by cfg. Collections resolves
// collection names to tables; tables are created on first use.
func Open(ctx context.Context, cfg Config, collections *store.Collections) (*Store, error) {
	dialect, err := sqlgen.ParseDialect(cfg.Provider)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(dialect.DriverName(), cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == sqlgen.SQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections / 2)
	}
	if cfg.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.MaxIdleTime)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	opts := []compiler.Option{compiler.WithOrderBy()}
	if cfg.CacheSize > 0 {
		opts = append(opts, compiler.WithCache(cache.NewLRUCache(cfg.CacheSize, cfg.CacheTTL)))
	}
	c, err := compiler.New(string(dialect), opts...)
	if err != nil {
		db.Close()
		return nil, err
	}

	debug.Info("Connected to database", "dialect", dialect)
	return &Store{
		db:          db,
		exec:        executor.NewExecutor(db, c),
		collections: collections,
		created:     make(map[compiler.Table]bool),
	}, nil
}

// Dialect returns the store's SQL dialect.
func (s *Store) Dialect() sqlgen.Dialect {
	return s.exec.Dialect()
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EnsureCollection creates the collection's table if needed.
func (s *Store) EnsureCollection(ctx context.Context, collection string) error {
	_, err := s.table(ctx, collection)
	return err
}

// Find implements store.Persistence.
func (s *Store) Find(ctx context.Context, collection string, q *ast.Query) ([]json.RawMessage, error) {
	table, err := s.table(ctx, collection)
	if err != nil {
		return nil, store.NewOpError("find", collection, err)
	}
	docs, err := s.exec.FindMany(ctx, table, q)
	if err != nil {
		return nil, store.NewOpError("find", collection, err)
	}
	return docs, nil
}

// Insert implements store.Persistence.
func (s *Store) Insert(ctx context.Context, collection string, doc json.RawMessage) (string, error) {
	table, err := s.table(ctx, collection)
	if err != nil {
		return "", store.NewOpError("insert", collection, err)
	}

	fields := make(map[string]any)
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return "", store.NewOpError("insert", collection, store.ErrInvalidDocument)
	}

	id, ok := fields[IDField].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		fields[IDField] = id
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "", store.NewOpError("insert", collection, err)
	}

	if err := s.exec.Insert(ctx, table, id, raw); err != nil {
		return "", store.NewOpError("insert", collection, err)
	}
	return id, nil
}

// Close releases prepared statements and the connection pool.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.exec.ClearStmtCache()
	return s.db.Close()
}

func (s *Store) table(ctx context.Context, collection string) (compiler.Table, error) {
	table, err := s.collections.Table(collection)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", store.ErrClosed
	}
	if !s.created[table] {
		if err := s.exec.CreateTable(ctx, table); err != nil {
			return "", err
		}
		s.created[table] = true
	}
	return table, nil
}
