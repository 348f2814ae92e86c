// Package sqlgen generates SQL over a JSON document column for different database providers.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/docql/query/ast"
)

// DataColumn holds the JSON document of every row.
const DataColumn = "data"

// IDColumn holds the document identifier.
const IDColumn = "id"

// Query represents a SQL query with arguments
type Query struct {
	SQL  string
	Args []any
}

// Dialect identifies a SQL provider.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
)

// ParseDialect maps a provider name to a Dialect.
func ParseDialect(provider string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", "postgresql", "postgres", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql":
		return MySQL, nil
	default:
		return "", fmt.Errorf("unsupported provider %q", provider)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case SQLite:
		return "sqlite3"
	case MySQL:
		return "mysql"
	default:
		return "postgres"
	}
}

// Generator generates SQL for a specific provider
type Generator struct {
	dialect Dialect
}

// NewGenerator creates a new SQL generator for the given provider
func NewGenerator(provider string) (*Generator, error) {
	d, err := ParseDialect(provider)
	if err != nil {
		return nil, err
	}
	return &Generator{dialect: d}, nil
}

// Dialect returns the generator's dialect.
func (g *Generator) Dialect() Dialect {
	return g.dialect
}

// SelectOptions tune GenerateSelect.
type SelectOptions struct {
	// OrderBy renders the query's sort keys.
	OrderBy bool
}

// GenerateSelect renders SELECT data FROM table with the query's filter,
// optional ORDER BY and limit clauses. The table must already be a trusted
// identifier.
func (g *Generator) GenerateSelect(table string, q *ast.Query, opts SelectOptions) (*Query, error) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(DataColumn)
	sb.WriteString(" FROM ")
	sb.WriteString(table)

	if q == nil {
		return &Query{SQL: sb.String(), Args: []any{}}, nil
	}

	args := []any{}
	if q.HasFilter() {
		body, whereArgs, err := g.BuildWhere(q.Filter)
		if err != nil {
			return nil, err
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(body)
		args = whereArgs
	}

	if opts.OrderBy && len(q.Sort) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, s := range q.Sort {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(g.FieldRef(s.Field))
			if s.Direction == ast.Descending {
				sb.WriteString(" DESC")
			} else {
				sb.WriteString(" ASC")
			}
		}
	}

	sb.WriteString(LimitClause(q.Limit))
	return &Query{SQL: sb.String(), Args: args}, nil
}

// LimitClause renders " LIMIT n" and " OFFSET n", each only if set.
func LimitClause(l *ast.Limit) string {
	if l == nil {
		return ""
	}
	var sb strings.Builder
	if l.Limit != nil {
		sb.WriteString(" LIMIT ")
		sb.WriteString(strconv.FormatUint(uint64(*l.Limit), 10))
	}
	if l.Offset != nil {
		sb.WriteString(" OFFSET ")
		sb.WriteString(strconv.FormatUint(uint64(*l.Offset), 10))
	}
	return sb.String()
}

// GenerateCreateTable renders the DDL of a document table.
func (g *Generator) GenerateCreateTable(table string) string {
	switch g.dialect {
	case SQLite:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, %s TEXT NOT NULL)", table, IDColumn, DataColumn)
	case MySQL:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s VARCHAR(64) PRIMARY KEY, %s JSON NOT NULL)", table, IDColumn, DataColumn)
	default:
		return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s TEXT PRIMARY KEY, %s JSONB NOT NULL)", table, IDColumn, DataColumn)
	}
}

// GenerateInsert renders an insert of one (id, data) row.
func (g *Generator) GenerateInsert(table string) string {
	return fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES (%s, %s)",
		table, IDColumn, DataColumn, g.Placeholder(1), g.Placeholder(2))
}

// Placeholder returns the n-th (1-based) positional parameter marker.
func (g *Generator) Placeholder(n int) string {
	switch g.dialect {
	case MySQL:
		return "?"
	case SQLite:
		return "?" + strconv.Itoa(n)
	default:
		return "$" + strconv.Itoa(n)
	}
}

// FieldRef renders the expression that extracts field from the data column.
func (g *Generator) FieldRef(field string) string {
	switch g.dialect {
	case SQLite:
		return DataColumn + "->>" + quoteLiteral(field)
	case MySQL:
		return DataColumn + "->" + quoteLiteralMySQL(`$."`+escapePathKey(field)+`"`)
	default:
		return DataColumn + "->" + quoteLiteral(field)
	}
}

// quoteLiteral renders s as a standard SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteLiteralMySQL also escapes backslashes, which MySQL treats as escapes by default.
func quoteLiteralMySQL(s string) string {
	return "'" + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), "'", "''") + "'"
}

func escapePathKey(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`)
}
