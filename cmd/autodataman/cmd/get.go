package cmd

import (
	"strings"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get <dataset>[/<version>]",
	Short: "Download a version of a dataset into the local repository",
	Long: `Download a version of a dataset into the local repository.

When no version is specified, the default version of the dataset is downloaded. A dataset
without a default version requires an explicit version.

Every file is verified against its published digest, then the configured post-download command
for its format is run. The local repository is updated only once all files are in place.

A version already present locally is not downloaded again, unless --force is specified.
`,
	Example: `% autodataman get era5
% autodataman get era5/2019 --force`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dataset, version, err := model.ParseDatasetSpec(args[0])
		if err != nil {
			wrapFatalln("invalid dataset", err)
			return
		}

		result, err := core.Fetch(newContext(), core.FetchRequest{
			Server:    serverURL(),
			LocalRepo: localRepo(),
			Dataset:   dataset,
			Version:   version,
			Force:     flags.force,
		}, coreOptions(core.WithProgress(reportProgress))...)
		if err != nil {
			wrapFatalln("get "+args[0], err)
			return
		}

		spec := result.Dataset + "/" + result.Version
		switch result.Outcome {
		case core.NeedsVersion:
			warn("dataset %s has no default version: specify one of %s", result.Dataset, strings.Join(result.Available, ", "))
		case core.UpToDate:
			logStdOut("%s is up to date\n", spec)
		case core.Drifted:
			warn("the local copy of %s differs from the server: use --force to overwrite it", spec)
			logStdOut("%s\n%s\n", color.CyanString("local:"), result.LocalSummary)
			logStdOut("%s\n%s\n", color.CyanString("server:"), result.RemoteSummary)
		case core.Overwritten:
			logStdOut("%s overwritten: %d file(s), %s\n", spec, result.Files, units.HumanSize(float64(result.Bytes)))
		default:
			logStdOut("%s downloaded: %d file(s), %s\n", spec, result.Files, units.HumanSize(float64(result.Bytes)))
		}
	},
}

func reportProgress(p core.FileProgress) {
	logStdOut("[%d/%d] %s (%s)\n", p.Index, p.Total, p.Filename, units.HumanSize(float64(p.Bytes)))
}

func init() {
	addServerFlag(getCmd)
	addLocalRepoFlag(getCmd)
	addForceFlag(getCmd)
	rootCmd.AddCommand(getCmd)
}
