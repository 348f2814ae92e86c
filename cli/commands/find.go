package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docql/cli/internal/ui"
	"github.com/satishbabariya/docql/internal/debug"
	"github.com/satishbabariya/docql/query/matcher"
	"github.com/satishbabariya/docql/store"
	"github.com/satishbabariya/docql/store/memory"
	"github.com/satishbabariya/docql/store/sqlstore"
)

type findOptions struct {
	queryFlags
	data        string
	databaseURL string
	table       bool
}

// NewFindCommand creates the find command.
func NewFindCommand(g *globalOptions) *cobra.Command {
	opts := &findOptions{}

	cmd := &cobra.Command{
		Use:   "find <collection>",
		Short: "Run a query against a collection",
		Long: `Run a query, including sort and limit, against a collection.

With --data the collection is loaded into memory from a file of documents
and evaluated with the document matcher. Otherwise the query is compiled to
SQL and run against the configured database.`,
		Example: `  docql find users --data users.jsonl --where 'age > 18' --sort age:desc --limit 10
  docql find users --database-url 'file:app.db' --dialect sqlite --where 'name = "Ada"'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, g, opts, args[0])
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVar(&opts.data, "data", "", "File of documents to query in memory, JSON array or JSON Lines (- for stdin)")
	cmd.Flags().StringVar(&opts.databaseURL, "database-url", "", "Database URL (overrides config and DATABASE_URL)")
	cmd.Flags().BoolVar(&opts.table, "table", false, "Print results as a table")

	return cmd
}

func runFind(cmd *cobra.Command, g *globalOptions, opts *findOptions, collection string) error {
	ctx := cmd.Context()

	q, err := opts.load(cmd.InOrStdin())
	if err != nil {
		return err
	}

	p, closeFn, err := openStore(ctx, cmd, g, opts, collection)
	if err != nil {
		return err
	}
	defer closeFn()

	docs, err := p.Find(ctx, collection, q)
	if err != nil {
		return err
	}
	debug.Debug("Find completed", "collection", collection, "documents", len(docs))

	if opts.table {
		return printDocumentTable(docs)
	}
	return writeJSONLines(cmd.OutOrStdout(), docs)
}

func openStore(ctx context.Context, cmd *cobra.Command, g *globalOptions, opts *findOptions, collection string) (store.Persistence, func(), error) {
	if opts.data != "" {
		if opts.data == "-" && opts.file == "-" {
			return nil, nil, fmt.Errorf("--file and --data cannot both read stdin")
		}
		data, err := readSource(opts.data, cmd.InOrStdin())
		if err != nil {
			return nil, nil, err
		}
		docs, err := readDocuments(data)
		if err != nil {
			return nil, nil, err
		}
		mem := memory.New()
		if err := mem.Load(ctx, collection, docs); err != nil {
			return nil, nil, err
		}
		return store.Instrument(mem, "memory"), func() {}, nil
	}

	url := opts.databaseURL
	if url == "" {
		url = g.cfg.DatabaseURL
	}
	if url == "" {
		return nil, nil, fmt.Errorf("no database configured: use --data, --database-url, DOCQL_DATABASE_URL or DATABASE_URL")
	}

	names := g.cfg.Collections
	if len(names) == 0 {
		names = []string{collection}
	}
	collections, err := store.NewCollections(names...)
	if err != nil {
		return nil, nil, err
	}

	s, err := sqlstore.Open(ctx, sqlstore.Config{
		Provider:  g.cfg.Dialect,
		URL:       url,
		CacheSize: g.cfg.CacheSize,
		CacheTTL:  g.cfg.CacheTTL,
	}, collections)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := s.Close(); err != nil {
			debug.Warn("Failed to close store", "error", err)
		}
	}
	return store.Instrument(s, string(s.Dialect())), closeFn, nil
}

// Tabs and newlines would break table alignment.
var cellReplacer = strings.NewReplacer("\t", " ", "\n", " ")

// printDocumentTable prints one row per document and one column per
// top-level field, in sorted field order.
func printDocumentTable(raws []json.RawMessage) error {
	if len(raws) == 0 {
		ui.PrintInfo("No documents")
		return nil
	}

	docs := make([]matcher.MapDocument, 0, len(raws))
	seen := map[string]bool{}
	var fields []string
	for _, raw := range raws {
		d, err := matcher.FromJSON(raw)
		if err != nil {
			return err
		}
		doc, _ := d.(matcher.MapDocument)
		for k := range doc {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
		docs = append(docs, doc)
	}
	sort.Strings(fields)

	rows := make([][]string, 0, len(docs))
	for _, doc := range docs {
		row := make([]string, len(fields))
		for i, f := range fields {
			v, ok := doc.Lookup(f)
			if !ok {
				continue
			}
			if s, isString := v.(string); isString {
				row[i] = cellReplacer.Replace(s)
				continue
			}
			raw, err := json.Marshal(v)
			if err != nil {
				return err
			}
			row[i] = string(raw)
		}
		rows = append(rows, row)
	}

	if err := ui.PrintTable(fields, rows); err != nil {
		return err
	}
	ui.PrintInfo("%d document(s)", len(docs))
	return nil
}
