package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/editmine/pkg/classify"
)

// compareReport is the json/yaml shape of the compare command.
type compareReport struct {
	Language   string         `json:"language"    yaml:"language"`
	Flags      classify.Flags `json:"flags"       yaml:"flags"`
	Records    []string       `json:"records"     yaml:"records"`
	NotLCS     []string       `json:"not_lcs"     yaml:"not_lcs"`
	NotDup     []string       `json:"not_dup"     yaml:"not_dup"`
	EditScript []string       `json:"edit_script" yaml:"edit_script"`
}

func newCompareCommand(opts *globalOptions) *cobra.Command {
	so := &snapshotOptions{}

	cmd := &cobra.Command{
		Use:   "compare <before> <after>",
		Short: "Classify the change between two snapshots",
		Long: `Tokenize two snapshots of a code fragment and report what kind of edit
separates them: renamed identifiers, changed literals or operators, or
layout only. Either file may be "-" for stdin.

Examples:
  editmine compare old.py new.py
  editmine compare --mode multiset --format yaml old.py new.py`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := checkFormat(so.format, formatTable, formatJSON, formatYAML)
			if err != nil {
				return err
			}

			return runCompare(cmd, opts, so, args)
		},
	}

	so.register(cmd, formatTable, formatJSON, formatYAML)
	cmd.Flags().StringVar(&so.mode, "mode", "", "diff set behind the flags: lcs, multiset or levenshtein")

	return cmd
}

func runCompare(cmd *cobra.Command, opts *globalOptions, so *snapshotOptions, args []string) error {
	before, after, err := readPair(cmd, args)
	if err != nil {
		return err
	}

	d, _, err := newDetector(cmd, opts, so, args[0], []byte(before))
	if err != nil {
		return err
	}

	res, err := d.Compare(cmd.Context(), before, after)
	if err != nil {
		return err
	}

	report := compareReport{
		Language:   d.Language().String(),
		Flags:      res.Flags,
		Records:    res.Records,
		NotLCS:     res.Comparison.NotLCS().Contents(),
		NotDup:     res.Comparison.NotDup().Contents(),
		EditScript: res.Comparison.EditScript().Contents(),
	}

	w := cmd.OutOrStdout()

	switch so.format {
	case formatJSON:
		return writeJSON(w, report)
	case formatYAML:
		return writeYAML(w, report)
	}

	color.New(color.Bold).Fprintf(w, "%s: %s -> %s\n", report.Language, args[0], args[1])
	fmt.Fprintln(w, flagsTable(report.Flags))

	if len(report.Records) > 0 {
		fmt.Fprintln(w)
		printRecords(w, report.Records)
	}

	return nil
}
