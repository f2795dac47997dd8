package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the consistency of the local repository",
	Long: `Check the consistency of the local repository, without modifying it.

Metadata is checked against the directory layout, and data files against their digests.
Digests are not verified with --quick.
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		report, err := core.Validate(newContext(), localRepo(), flags.quick, coreOptions()...)
		if err != nil {
			wrapFatalln("validate local repository", err)
			return
		}
		print(cmd, report)
		if !report.OK() {
			osExit(exitCorrupt)
		}
	},
}

func validateText(w io.Writer, data interface{}) error {
	report := data.(*core.ValidationReport)
	for _, finding := range report.Findings {
		line := finding.String()
		if finding.Severity == core.SeverityError {
			line = color.RedString(line)
		} else {
			line = color.YellowString(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	summary := fmt.Sprintf("%s: %d dataset(s), %d version(s), %d file(s) checked, %d finding(s)",
		report.Root, report.Datasets, report.Versions, report.Files, len(report.Findings))
	if report.OK() {
		summary = color.GreenString(summary)
	}
	_, err := fmt.Fprintln(w, summary)
	return err
}

func init() {
	addLocalRepoFlag(validateCmd)
	addQuickFlag(validateCmd)
	addFormatFlag(validateCmd, "text", map[string]Formatter{
		"text": FormatterFunc(validateText),
	})
	rootCmd.AddCommand(validateCmd)
}
