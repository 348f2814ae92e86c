package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docql/cli/internal/ui"
	"github.com/satishbabariya/docql/cli/internal/update"
	"github.com/satishbabariya/docql/cli/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(g *globalOptions) *cobra.Command {
	var (
		asJSON bool
		latest string
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.FullString())

			if latest == "" {
				return nil
			}
			st, err := update.Check(info.Version, latest)
			if err != nil {
				return err
			}
			if st.Available {
				ui.PrintWarning("A new version is available: %s (current %s)", st.Latest, st.Current)
				ui.PrintInfo("Download: %s", update.GetDownloadURL(st.Latest))
			} else {
				ui.PrintSuccess("docql is up to date")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print version information as JSON")
	cmd.Flags().StringVar(&latest, "check", "", "Compare with a published release version")

	return cmd
}
