// Package compiler compiles queries into parameterized SQL over a JSON document column.
package compiler

import (
	"encoding/json"
	"regexp"

	"github.com/satishbabariya/docql/internal/debug"
	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/cache"
	"github.com/satishbabariya/docql/query/sqlgen"
)

// Table is a table name that is emitted verbatim. Values must come from
// code-controlled sources such as store.Collections, never from user input;
// Validate rejects anything that is not a plain identifier.
type Table string

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the table is a plain SQL identifier.
func (t Table) Validate() error {
	if !identifier.MatchString(string(t)) {
		return &ast.InvalidTableError{Table: string(t)}
	}
	return nil
}

// Compiler compiles queries into SQL
type Compiler struct {
	generator *sqlgen.Generator
	orderBy   bool
	cache     cache.Cache
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithOrderBy renders the query's sort keys as ORDER BY.
func WithOrderBy() Option {
	return func(c *Compiler) { c.orderBy = true }
}

// WithCache memoizes compiled statements in c.
func WithCache(c cache.Cache) Option {
	return func(cc *Compiler) { cc.cache = c }
}

// New creates a compiler for the given provider ("postgres", "sqlite" or "mysql").
func New(provider string, opts ...Option) (*Compiler, error) {
	gen, err := sqlgen.NewGenerator(provider)
	if err != nil {
		return nil, err
	}
	c := &Compiler{generator: gen}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// MustNew is like New but panics on error.
func MustNew(provider string, opts ...Option) *Compiler {
	c, err := New(provider, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultCompiler = MustNew(string(sqlgen.Postgres))

// ToSQL compiles q against table with the default Postgres rendering:
//
//	SELECT data FROM <table> WHERE <body> LIMIT <n> OFFSET <n>
//
// A nil query selects every row. Values are never interpolated; they are
// returned in placeholder order.
func ToSQL(table Table, q *ast.Query) (string, []any, error) {
	return defaultCompiler.ToSQL(table, q)
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() sqlgen.Dialect {
	return c.generator.Dialect()
}

// Generator returns the underlying SQL generator.
func (c *Compiler) Generator() *sqlgen.Generator {
	return c.generator
}

// ToSQL compiles q against table.
func (c *Compiler) ToSQL(table Table, q *ast.Query) (string, []any, error) {
	out, err := c.Compile(table, q)
	if err != nil {
		return "", nil, err
	}
	return out.SQL, out.Args, nil
}

// Compile compiles q against table. The returned query is owned by the caller.
func (c *Compiler) Compile(table Table, q *ast.Query) (*sqlgen.Query, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	key := c.cacheKey(table, q)
	if key != "" {
		if v, ok := c.cache.Get(key); ok {
			debug.Debug("compile cache hit", "table", table, "dialect", c.Dialect())
			return &sqlgen.Query{SQL: v.(string), Args: leafValues(q)}, nil
		}
	}

	out, err := c.generator.GenerateSelect(string(table), q, sqlgen.SelectOptions{OrderBy: c.orderBy})
	if err != nil {
		return nil, err
	}
	debug.Debug("compiled query", "table", table, "dialect", c.Dialect(), "sql", out.SQL, "args", len(out.Args))

	if key != "" {
		c.cache.Set(key, out.SQL)
	}
	return out, nil
}

// Invalidate drops cached statements of table.
func (c *Compiler) Invalidate(table Table) {
	if c.cache != nil {
		c.cache.InvalidatePattern(string(c.Dialect()) + ":" + string(table) + ":*")
	}
}

func (c *Compiler) cacheKey(table Table, q *ast.Query) string {
	if c.cache == nil {
		return ""
	}
	payload := []byte("null")
	if q != nil {
		raw, err := json.Marshal(q)
		if err != nil {
			return ""
		}
		payload = raw
	}
	if c.orderBy {
		payload = append(payload, "|order"...)
	}
	return cache.Key(string(c.Dialect()), string(table), payload)
}

// leafValues returns the arguments of q in placeholder order. Every leaf
// contributes exactly one placeholder.
func leafValues(q *ast.Query) []any {
	args := []any{}
	if q == nil {
		return args
	}
	for _, f := range ast.Leaves(q.Filter) {
		args = append(args, f.Leaf.Value)
	}
	return args
}
