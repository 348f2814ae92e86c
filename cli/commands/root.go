// Package commands implements CLI commands.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/docql/cli/internal/config"
	"github.com/satishbabariya/docql/cli/internal/ui"
	"github.com/satishbabariya/docql/cli/internal/version"
	"github.com/satishbabariya/docql/internal/debug"
)

// globalOptions are shared by every command.
type globalOptions struct {
	configFile string
	dialect    string
	debug      bool
	noColor    bool

	cfg *config.Config
}

// NewRootCommand creates the docql command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "docql",
		Short: "Compile, evaluate and run document queries",
		Long: `docql works with document queries: a filter tree with sort and limit.

Queries are given as wire-format JSON (--query, --file) or as a filter
expression (--where), for example:

    docql compile --table users --where 'age > 18 and (name = "Ada" or name = "Grace")'`,
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.load(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&g.configFile, "config", "", "Config file (default .docql.yaml in ., $HOME or $HOME/.config/docql)")
	flags.StringVar(&g.dialect, "dialect", "", "SQL dialect: postgres, sqlite or mysql")
	flags.BoolVar(&g.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&g.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(NewCompileCommand(g))
	cmd.AddCommand(NewMatchCommand(g))
	cmd.AddCommand(NewFindCommand(g))
	cmd.AddCommand(NewExplainCommand(g))
	cmd.AddCommand(NewValidateCommand(g))
	cmd.AddCommand(NewInitCommand(g))
	cmd.AddCommand(NewVersionCommand(g))

	return cmd
}

// ExecuteContext is the main entry point for the CLI
func ExecuteContext(ctx context.Context) error {
	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		ui.PrintError("%v", err)
		return err
	}
	return nil
}

func (g *globalOptions) load(cmd *cobra.Command) error {
	ui.Out = cmd.OutOrStdout()
	ui.Err = cmd.ErrOrStderr()
	if g.noColor {
		ui.DisableColor()
	}

	var (
		cfg *config.Config
		err error
	)
	if g.configFile != "" {
		v, verr := config.New()
		if verr != nil {
			return verr
		}
		v.SetConfigFile(g.configFile)
		cfg, err = config.Load(v)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	if g.dialect != "" {
		cfg.Dialect = g.dialect
	}
	if g.debug {
		cfg.Debug = true
	}
	g.cfg = cfg

	debug.Configure(cfg.Debug, debug.Options{Output: cmd.ErrOrStderr(), JSON: cfg.LogJSON})
	debug.Debug("Loaded configuration", "dialect", cfg.Dialect, "collections", len(cfg.Collections))
	return nil
}
