package cmd

import (
	"fmt"
	"io"

	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the datasets and versions of the local repository",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listing, err := core.ListLocal(newContext(), localRepo(), coreOptions()...)
		if err != nil {
			wrapFatalln("list local datasets", err)
			return
		}
		print(cmd, listing)
	},
}

func listText(w io.Writer, data interface{}) error {
	for _, dataset := range data.([]core.DatasetListing) {
		if len(dataset.Versions) == 0 {
			if _, err := fmt.Fprintf(w, "%s (0 versions)\n", dataset.Name); err != nil {
				return err
			}
			continue
		}
		for _, version := range dataset.Versions {
			if _, err := fmt.Fprintf(w, "%s/%s\n", dataset.Name, version); err != nil {
				return err
			}
		}
	}
	return nil
}

func listTable(w io.Writer, data interface{}) error {
	table := newTable("DATASET", "VERSIONS")
	for _, dataset := range data.([]core.DatasetListing) {
		table.AddRow(dataset.Name, len(dataset.Versions))
	}
	return writeTable(w, table)
}

func init() {
	addLocalRepoFlag(listCmd)
	addFormatFlag(listCmd, "text", map[string]Formatter{
		"text":  FormatterFunc(listText),
		"table": FormatterFunc(listTable),
	})
	rootCmd.AddCommand(listCmd)
}
