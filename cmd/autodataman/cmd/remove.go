package cmd

import (
	"strings"

	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/spf13/cobra"
)

var removeCmd = &cobra.Command{
	Use:     "remove <dataset>[/<version>]",
	Aliases: []string{"rm"},
	Short:   "Remove a version or a dataset from the local repository",
	Long: `Remove a version or a dataset from the local repository.

Removing a dataset holding more than one version requires --all.
`,
	Example: `% autodataman remove era5/2019
% autodataman remove era5 --all`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		result, err := core.Remove(newContext(), localRepo(), args[0], flags.removeAll, coreOptions()...)
		if err != nil {
			wrapFatalln("remove "+args[0], err)
			return
		}
		if result.Version != "" {
			logStdOut("removed %s/%s\n", result.Dataset, result.Version)
			return
		}
		if len(result.Versions) == 0 {
			logStdOut("removed dataset %s\n", result.Dataset)
			return
		}
		logStdOut("removed dataset %s (versions: %s)\n", result.Dataset, strings.Join(result.Versions, ", "))
	},
}

func init() {
	addLocalRepoFlag(removeCmd)
	addRemoveAllFlag(removeCmd)
	rootCmd.AddCommand(removeCmd)
}
