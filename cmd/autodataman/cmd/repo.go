package cmd

import (
	"path/filepath"

	"github.com/oneconcern/autodataman/pkg/config"
	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/spf13/cobra"
)

var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Commands to manage local repositories",
	Long: `Commands to manage local repositories.

A local repository is a directory holding the datasets downloaded from a server,
with the same layout as the server.
`,
}

var repoInitCmd = &cobra.Command{
	Use:     "init <dir>",
	Short:   "Create an empty local repository",
	Example: `% autodataman repo init ~/data`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pth := args[0]
		if err := config.ValidateLocalRepo(pth); err != nil {
			wrapFatalWithCodef(exitUsage, "invalid local repository %q: %v", pth, err)
			return
		}
		if err := core.InitRepo(newContext(), pth, coreOptions()...); err != nil {
			wrapFatalln("create local repository", err)
			return
		}
		logStdOut("local repository created at %s\n", pth)
	},
}

var repoSetCmd = &cobra.Command{
	Use:   "set <dir>",
	Short: "Set the default local repository",
	Long: `Set the default local repository, used when --local is not specified.

The directory must be an existing local repository.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pth := args[0]
		if abs, err := filepath.Abs(pth); err == nil {
			pth = abs
		}
		if err := config.ValidateLocalRepo(pth); err != nil {
			wrapFatalWithCodef(exitUsage, "invalid local repository %q: %v", pth, err)
			return
		}
		if err := core.CheckRepo(appFs, pth); err != nil {
			wrapFatalln("check local repository", err)
			return
		}
		if err := cfg.Set(config.KeyDefaultLocalRepo, pth); err != nil {
			wrapFatalln("set default local repository", err)
			return
		}
		if err := cfg.Save(); err != nil {
			wrapFatalln("save config", err)
			return
		}
		logStdOut("default local repository: %s\n", pth)
	},
}

var repoGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the default local repository",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		pth := cfg.DefaultLocalRepo()
		if pth == "" {
			wrapFatalWithCodef(exitUsage, "no default local repository is set")
			return
		}
		logStdOut("%s\n", pth)
	},
}

func init() {
	repoCmd.AddCommand(repoInitCmd)
	repoCmd.AddCommand(repoSetCmd)
	repoCmd.AddCommand(repoGetCmd)
	rootCmd.AddCommand(repoCmd)
}
