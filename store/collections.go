package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/satishbabariya/docql/query/compiler"
)

// Collections maps logical collection names to table names. It is the only
// source of table names handed to the SQL compiler, so tables never come from
// request input.
type Collections struct {
	mu     sync.RWMutex
	tables map[string]compiler.Table
}

// NewCollections registers each name under a table of the same name.
func NewCollections(names ...string) (*Collections, error) {
	c := &Collections{tables: make(map[string]compiler.Table, len(names))}
	for _, name := range names {
		if err := c.Register(name, compiler.Table(name)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register maps collection to table.
func (c *Collections) Register(collection string, table compiler.Table) error {
	if err := table.Validate(); err != nil {
		return fmt.Errorf("collection %q: %w", collection, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[collection] = table
	return nil
}

// Table resolves a collection to its table.
func (c *Collections) Table(collection string) (compiler.Table, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[collection]
	if !ok {
		return "", fmt.Errorf("%w %q", ErrUnknownCollection, collection)
	}
	return t, nil
}

// Names returns the registered collection names in sorted order.
func (c *Collections) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.tables))
	for name := range c.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
