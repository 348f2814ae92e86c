package commands

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docql/query/matcher"
)

type matchOptions struct {
	queryFlags
	doc  string
	docs string
}

// NewMatchCommand creates the match command.
func NewMatchCommand(g *globalOptions) *cobra.Command {
	opts := &matchOptions{}

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Evaluate a query's filter against documents",
		Long: `Evaluate a query's filter against one document (--doc), printing true or
false, or against a file of documents (--docs), printing those that match.

Sort and limit are ignored; use find to apply them.`,
		Example: `  docql match --where 'age > 18' --doc '{"age": 30}'
  docql match --where 'name = "Ada"' --docs people.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, opts)
		},
	}

	opts.register(cmd.Flags())
	cmd.Flags().StringVar(&opts.doc, "doc", "", "A single JSON document")
	cmd.Flags().StringVar(&opts.docs, "docs", "", "File of documents, JSON array or JSON Lines (- for stdin)")

	return cmd
}

func runMatch(cmd *cobra.Command, opts *matchOptions) error {
	if (opts.doc == "") == (opts.docs == "") {
		return errors.New("use exactly one of --doc and --docs")
	}
	if opts.file == "-" && opts.docs == "-" {
		return errors.New("--file and --docs cannot both read stdin")
	}

	q, err := opts.load(cmd.InOrStdin())
	if err != nil {
		return err
	}

	if opts.doc != "" {
		doc, err := matcher.FromJSON([]byte(opts.doc))
		if err != nil {
			return err
		}
		ok, err := matcher.Matches(q, doc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ok)
		return nil
	}

	data, err := readSource(opts.docs, cmd.InOrStdin())
	if err != nil {
		return err
	}
	raws, err := readDocuments(data)
	if err != nil {
		return err
	}

	matched := make([]json.RawMessage, 0, len(raws))
	for i, raw := range raws {
		doc, err := matcher.FromJSON(raw)
		if err != nil {
			return fmt.Errorf("document %d: %w", i+1, err)
		}
		ok, err := matcher.Matches(q, doc)
		if err != nil {
			return fmt.Errorf("document %d: %w", i+1, err)
		}
		if ok {
			matched = append(matched, raw)
		}
	}
	return writeJSONLines(cmd.OutOrStdout(), matched)
}
