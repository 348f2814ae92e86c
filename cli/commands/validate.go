package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docql/cli/internal/ui"
	"github.com/satishbabariya/docql/query/ast"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <query.json | ->",
		Short: "Validate a wire-format JSON query",
		Long: `Validate a wire-format JSON query against the query schema and decode it.

This command will:
- Check the document against the JSON schema
- Check operations, operators and groups
- Display a summary of the query`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, args[0])
		},
	}
}

func runValidate(cmd *cobra.Command, path string) error {
	data, err := readSource(path, cmd.InOrStdin())
	if err != nil {
		return err
	}

	q, err := ast.Parse(data)
	if err != nil {
		var merr *ast.MalformedQueryError
		if errors.As(err, &merr) {
			ui.PrintError("Query is invalid:")
			for _, reason := range strings.Split(merr.Reason, "; ") {
				fmt.Fprintf(ui.Err, "  • %s\n", reason)
			}
		}
		return fmt.Errorf("invalid query: %s", path)
	}

	ui.PrintSuccess("Query is valid: %s", path)
	ui.PrintList([]string{
		fmt.Sprintf("%d top-level filter item(s)", len(q.Filter)),
		fmt.Sprintf("%d condition(s)", len(ast.Leaves(q.Filter))),
		fmt.Sprintf("%d sort key(s)", len(q.Sort)),
		fmt.Sprintf("limit: %s", describeLimit(q.Limit)),
	})
	return nil
}

func describeLimit(l *ast.Limit) string {
	if l == nil || (l.Limit == nil && l.Offset == nil) {
		return "none"
	}
	var parts []string
	if l.Limit != nil {
		parts = append(parts, fmt.Sprintf("%d", *l.Limit))
	}
	if l.Offset != nil {
		parts = append(parts, fmt.Sprintf("offset %d", *l.Offset))
	}
	return strings.Join(parts, ", ")
}
