// Package commands implements the editmine CLI commands.
package commands

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
}

// NewRootCommand builds the editmine command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "editmine",
		Short: "editmine - token-level edit mining for code review corpora",
		Long: `editmine compares before/after snapshots of code fragments at token level,
classifies what kind of edit happened and abstracts recurring edits into
templates with numbered placeholders.

Commands:
  mine      Mine a review corpus into batched change-set records
  compare   Classify the change between two snapshots
  abstract  Abstract two snapshots into an edit template
  tokens    Show the tokens of a snapshot
  lines     Align two snapshots line by line
  serve     Serve the HTTP JSON API
  mcp       Serve the MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.noColor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default: editmine.yaml in ., ./config or /etc/editmine)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress output")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		newMineCommand(opts),
		newCompareCommand(opts),
		newAbstractCommand(opts),
		newTokensCommand(opts),
		newLinesCommand(opts),
		newServeCommand(opts),
		newMCPCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}
