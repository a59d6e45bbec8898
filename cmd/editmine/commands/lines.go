package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editmine/pkg/linediff"
)

func newLinesCommand(opts *globalOptions) *cobra.Command {
	so := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "lines <before> <after>",
		Short: "Align two snapshots line by line",
		Long: `Diff two snapshots by line, then align each changed run at token level.
Records start with "=" for unchanged tokens, "-" and "+" for removed and
added chunks, and "*" for a chunk replaced by another.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := checkFormat(so.format, formatText, formatJSON, formatYAML)
			if err != nil {
				return err
			}

			before, after, err := readPair(cmd, args)
			if err != nil {
				return err
			}

			d, _, err := newDetector(cmd, opts, so, args[0], []byte(before))
			if err != nil {
				return err
			}

			hunks, err := d.Lines(cmd.Context(), before, after)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()

			switch so.format {
			case formatJSON:
				return writeJSON(w, linediff.Changed(hunks))
			case formatYAML:
				return writeYAML(w, linediff.Render(hunks))
			}

			printRecords(w, linediff.Render(hunks))

			return nil
		},
	}

	so.register(cmd, formatText, formatJSON, formatYAML)

	return cmd
}
