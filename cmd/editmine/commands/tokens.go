package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newTokensCommand(opts *globalOptions) *cobra.Command {
	so := &snapshotOptions{}

	var significant bool

	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "Show the tokens of a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := checkFormat(so.format, formatTable, formatJSON, formatYAML)
			if err != nil {
				return err
			}

			src, err := readSnapshot(cmd, args[0])
			if err != nil {
				return err
			}

			d, _, err := newDetector(cmd, opts, so, args[0], src)
			if err != nil {
				return err
			}

			seq, err := d.Tokenize(cmd.Context(), string(src))
			if err != nil {
				return err
			}

			if significant {
				seq = seq.Significant()
			}

			w := cmd.OutOrStdout()

			switch so.format {
			case formatJSON:
				return writeJSON(w, seq)
			case formatYAML:
				return writeYAML(w, seq)
			}

			fmt.Fprintln(w, tokensTable(seq))

			return nil
		},
	}

	so.register(cmd, formatTable, formatJSON, formatYAML)
	cmd.Flags().BoolVarP(&significant, "significant", "s", false, "drop newline and indentation tokens")

	return cmd
}
