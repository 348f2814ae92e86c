package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docql/cli/internal/ui"
	"github.com/satishbabariya/docql/query/ast"
	"github.com/satishbabariya/docql/query/compiler"
	"github.com/satishbabariya/docql/query/dsl"
	"github.com/satishbabariya/docql/query/sqlgen"
)

type explainOptions struct {
	queryFlags
	table string
	raw   bool
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(g *globalOptions) *cobra.Command {
	opts := &explainOptions{}

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show a query as a filter expression, wire JSON and SQL",
		Long: `Explain a query: its filter expression, its wire-format JSON and the SQL
it compiles to in every dialect.`,
		Example: `  docql explain --where 'age > 18 and name != "Ada"' --sort age:desc --limit 5`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := opts.load(cmd.InOrStdin())
			if err != nil {
				return err
			}
			md, err := explainMarkdown(q, compiler.Table(opts.table))
			if err != nil {
				return err
			}
			if opts.raw {
				_, err = fmt.Fprint(cmd.OutOrStdout(), md)
				return err
			}
			return ui.PrintMarkdown(md)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVarP(&opts.table, "table", "t", "docs", "Table used in the SQL")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "Print markdown without rendering")

	return cmd
}

func explainMarkdown(q *ast.Query, table compiler.Table) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Query\n\n")

	sb.WriteString("## Filter\n\n")
	if q.HasFilter() {
		expr, err := dsl.Format(q.Filter)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "```\n%s\n```\n\n", expr)
		fmt.Fprintf(&sb, "%d condition(s), evaluated left to right.\n\n", len(ast.Leaves(q.Filter)))
	} else {
		sb.WriteString("No filter: every document matches.\n\n")
	}

	wire, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&sb, "## Wire format\n\n```json\n%s\n```\n\n", wire)

	sb.WriteString("## SQL\n\n")
	for _, d := range []sqlgen.Dialect{sqlgen.Postgres, sqlgen.SQLite, sqlgen.MySQL} {
		c, err := compiler.New(string(d), compiler.WithOrderBy())
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "### %s\n\n", d)
		sql, params, err := c.ToSQL(table, q)
		if err != nil {
			fmt.Fprintf(&sb, "Not compilable: %v\n\n", err)
			continue
		}
		fmt.Fprintf(&sb, "```sql\n%s\n```\n\n", sql)
		if len(params) > 0 {
			raw, err := json.Marshal(params)
			if err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "Parameters: `%s`\n\n", raw)
		}
	}
	return sb.String(), nil
}
