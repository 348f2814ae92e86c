// Package executor runs compiled document queries against a database/sql
// connection and returns the raw JSON documents.
package executor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/satishbabariya/docql/internal/debug"
	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/compiler"
	"github.com/satishbabariya/docql/query/sqlgen"
)

// Executor executes queries and returns the data column of every row
type Executor struct {
	db        *sql.DB
	compiler  *compiler.Compiler
	stmtCache map[string]*sql.Stmt
	cacheMu   sync.RWMutex
}

// NewExecutor creates a new query executor
func NewExecutor(db *sql.DB, c *compiler.Compiler) *Executor {
	return &Executor{
		db:        db,
		compiler:  c,
		stmtCache: make(map[string]*sql.Stmt),
	}
}

// Dialect returns the dialect queries are compiled for.
func (e *Executor) Dialect() sqlgen.Dialect {
	return e.compiler.Dialect()
}

// getCachedStmt gets a cached prepared statement or creates a new one
func (e *Executor) getCachedStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	e.cacheMu.RLock()
	stmt, ok := e.stmtCache[query]
	e.cacheMu.RUnlock()

	if ok && stmt != nil {
		return stmt, nil
	}

	stmt, err := e.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}

	e.cacheMu.Lock()
	if existing, ok := e.stmtCache[query]; ok {
		e.cacheMu.Unlock()
		stmt.Close()
		return existing, nil
	}
	e.stmtCache[query] = stmt
	e.cacheMu.Unlock()

	return stmt, nil
}

// ClearStmtCache clears the prepared statement cache
func (e *Executor) ClearStmtCache() {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	for _, stmt := range e.stmtCache {
		stmt.Close()
	}
	e.stmtCache = make(map[string]*sql.Stmt)
}

// CachedStatements returns the number of prepared statements held.
func (e *Executor) CachedStatements() int {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()
	return len(e.stmtCache)
}

// FindMany compiles q against table and returns the matching documents.
func (e *Executor) FindMany(ctx context.Context, table compiler.Table, q *ast.Query) ([]json.RawMessage, error) {
	query, err := e.compiler.Compile(table, q)
	if err != nil {
		return nil, err
	}

	args, err := EncodeArgs(e.Dialect(), query.Args)
	if err != nil {
		return nil, err
	}

	stmt, err := e.getCachedStmt(ctx, query.SQL)
	if err != nil {
		return nil, err
	}

	debug.Debug("Executing query", "sql", query.SQL, "args", len(args))
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rows.Close()

	return scanDocuments(rows)
}

// CreateTable creates the document table if it does not exist.
func (e *Executor) CreateTable(ctx context.Context, table compiler.Table) error {
	if err := table.Validate(); err != nil {
		return err
	}
	ddl := e.compiler.Generator().GenerateCreateTable(string(table))
	if _, err := e.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}
	e.compiler.Invalidate(table)
	return nil
}

// Insert stores one document row.
func (e *Executor) Insert(ctx context.Context, table compiler.Table, id string, doc json.RawMessage) error {
	if err := table.Validate(); err != nil {
		return err
	}
	stmt, err := e.getCachedStmt(ctx, e.compiler.Generator().GenerateInsert(string(table)))
	if err != nil {
		return err
	}
	if _, err := stmt.ExecContext(ctx, id, string(doc)); err != nil {
		return fmt.Errorf("insert failed: %w", err)
	}
	return nil
}

func scanDocuments(rows *sql.Rows) ([]json.RawMessage, error) {
	docs := []json.RawMessage{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		// Drivers may reuse the scan buffer.
		docs = append(docs, json.RawMessage(append([]byte(nil), data...)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return docs, nil
}
