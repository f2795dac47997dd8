package cmd

import (
	"github.com/oneconcern/autodataman/pkg/samples"
	"github.com/oneconcern/autodataman/pkg/storage/httpfs"
	"github.com/oneconcern/autodataman/pkg/verify"
	"github.com/spf13/cobra"
)

var samplesCmd = &cobra.Command{
	Use:   "samples",
	Short: "Download sample data files listed in a hash list",
	Long: `Download sample data files listed in a hash list.

The first line of a hash list is the base URL of the files. Each following line holds
the digest and the relative path of a file. Files already present with a matching digest
are skipped, and a download with a mismatching digest is retried.
`,
	Example: `% autodataman samples --list sample_data.sha256 --dest ./sample_data`,
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		hash, err := verify.Lookup(flags.samples.hashType)
		if err != nil {
			wrapFatalWithCodef(exitUsage, "%v", err)
			return
		}
		list, err := samples.LoadList(appFs, flags.samples.list)
		if err != nil {
			wrapFatalWithCodef(exitMalformed, "%v", err)
			return
		}
		dest := flags.samples.dest
		if dest == "" {
			dest = "."
		}

		report, err := samples.Download(newContext(), list, dest,
			samples.WithFs(appFs),
			samples.WithHash(hash),
			samples.WithLogger(logger),
			samples.WithHTTPOptions(httpfs.WithTimeout(requestTimeout())),
		)
		if report != nil {
			logStdOut("%d downloaded, %d already present, %d failed\n",
				len(report.Downloaded), len(report.Skipped), len(report.Failed))
		}
		if err != nil {
			wrapFatalWithCodef(exitChecksum, "%v", err)
		}
	},
}

func init() {
	requiredFlags := []string{addSamplesFlags(samplesCmd)}
	for _, flag := range requiredFlags {
		if err := samplesCmd.MarkFlagRequired(flag); err != nil {
			wrapFatalln("mark required flag", err)
			return
		}
	}
	rootCmd.AddCommand(samplesCmd)
}
