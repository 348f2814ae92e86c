package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docql/cli/internal/ui"
	"github.com/satishbabariya/docql/cli/internal/watch"
	"github.com/satishbabariya/docql/query/compiler"
)

type compileOptions struct {
	queryFlags
	table   string
	orderBy bool
	asJSON  bool
	pretty  bool
	watch   bool
}

// compiled is the JSON output of the compile command.
type compiled struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(g *globalOptions) *cobra.Command {
	opts := &compileOptions{}

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a query to parameterized SQL",
		Long: `Compile a query into a SELECT over the JSON data column of a table.

Values are never interpolated: the SQL carries positional placeholders and
the parameters are printed in placeholder order.`,
		Example: `  docql compile --table users --where 'id = 2 or name = "John"'
  docql compile --table users --file query.json --dialect sqlite --watch
  docql compile --table users --where 'age > 18' --pretty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, g, opts)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.table, "table", "t", "", "Table to select from")
	cmd.Flags().BoolVar(&opts.orderBy, "order-by", false, "Render sort keys as ORDER BY")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print {\"sql\", \"params\"} as JSON")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Print the SQL in a styled block with a parameter list")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Recompile whenever --file changes")
	_ = cmd.MarkFlagRequired("table")

	return cmd
}

func runCompile(cmd *cobra.Command, g *globalOptions, opts *compileOptions) error {
	var copts []compiler.Option
	if opts.orderBy {
		copts = append(copts, compiler.WithOrderBy())
	}
	c, err := compiler.New(g.cfg.Dialect, copts...)
	if err != nil {
		return err
	}

	compileOnce := func() error {
		q, err := opts.load(cmd.InOrStdin())
		if err != nil {
			return err
		}
		sql, params, err := c.ToSQL(compiler.Table(opts.table), q)
		if err != nil {
			return err
		}
		if opts.pretty && !opts.asJSON {
			return printPretty(opts.table, string(c.Dialect()), sql, params)
		}
		return printCompiled(cmd.OutOrStdout(), sql, params, opts.asJSON)
	}

	if !opts.watch {
		return compileOnce()
	}

	if opts.file == "" || opts.file == "-" {
		return errors.New("--watch requires --file with a path")
	}
	w, err := watch.NewWatcher(opts.file, func() error {
		err := compileOnce()
		if err != nil {
			ui.PrintError("%v", err)
		}
		return err
	})
	if err != nil {
		return err
	}
	ui.PrintInfo("Watching %s (Ctrl+C to stop)", opts.file)
	return w.Run(cmd.Context())
}

func printCompiled(w io.Writer, sql string, params []any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		return enc.Encode(compiled{SQL: sql, Params: params})
	}

	fmt.Fprintln(w, sql)
	for i, p := range params {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "-- %d: %s\n", i+1, raw)
	}
	return nil
}

func printPretty(table, dialect, sql string, params []any) error {
	ui.PrintSection(fmt.Sprintf("Query on %s (%s)", table, dialect))
	ui.PrintCodeBlock(sql, "sql")
	if len(params) == 0 {
		return nil
	}
	ui.PrintSection("Parameters")
	items := make([]string, len(params))
	for i, p := range params {
		raw, err := json.Marshal(p)
		if err != nil {
			return err
		}
		items[i] = fmt.Sprintf("%d: %s", i+1, raw)
	}
	ui.PrintList(items)
	return nil
}
