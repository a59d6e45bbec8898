package commands

import (
	"fmt"
	"slices"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newAbstractCommand(opts *globalOptions) *cobra.Command {
	so := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "abstract <before> <after>",
		Short: "Abstract two snapshots into an edit template",
		Long: `Build the edit template of a before/after pair: literals shared by both
sides become numbered placeholders such as ${1:name}, and a change that only
renames one identifier collapses to that rename.

Examples:
  editmine abstract old.py new.py
  editmine abstract --format yaml old.py new.py`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := checkFormat(so.format, formatText, formatJSON, formatYAML)
			if err != nil {
				return err
			}

			return runAbstract(cmd, opts, so, args)
		},
	}

	so.register(cmd, formatText, formatJSON, formatYAML)

	return cmd
}

func runAbstract(cmd *cobra.Command, opts *globalOptions, so *snapshotOptions, args []string) error {
	before, after, err := readPair(cmd, args)
	if err != nil {
		return err
	}

	d, _, err := newDetector(cmd, opts, so, args[0], []byte(before))
	if err != nil {
		return err
	}

	pattern, err := d.Abstract(cmd.Context(), before, after)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	switch so.format {
	case formatJSON:
		return writeJSON(w, pattern)
	case formatYAML:
		return writeYAML(w, pattern)
	}

	if pattern.IsZero() {
		color.New(color.FgYellow).Fprintln(w, "no template: one side is empty")

		return nil
	}

	heading := color.New(color.Bold)

	heading.Fprintln(w, "condition:")
	fmt.Fprintln(w, pattern.ConditionText())
	heading.Fprintln(w, "consequent:")
	fmt.Fprintln(w, pattern.ConsequentText())

	switch {
	case pattern.Rename:
		color.New(color.FgCyan).Fprintln(w, "(rename)")
	case pattern.IsDegenerate():
		color.New(color.Faint).Fprintln(w, "(no shared literals)")
	default:
		ids := make([]int, 0, len(pattern.Placeholders))
		for id := range pattern.Placeholders {
			ids = append(ids, id)
		}

		slices.Sort(ids)

		heading.Fprintln(w, "placeholders:")

		for _, id := range ids {
			fmt.Fprintf(w, "  ${%d} = %s\n", id, pattern.Placeholders[id])
		}
	}

	return nil
}
