package cmd

import (
	"strings"

	"github.com/oneconcern/autodataman/pkg/config"
	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Commands to manage the default server",
}

var serverSetCmd = &cobra.Command{
	Use:     "set <url>",
	Short:   "Set the default server",
	Long:    "Set the default server, used when --server is not specified. The server must publish a valid catalog.",
	Example: `% autodataman server set https://data.example.com/repo`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		server := strings.TrimSuffix(args[0], "/")
		if err := config.ValidateServer(server); err != nil {
			wrapFatalWithCodef(exitUsage, "invalid server %q: %v", server, err)
			return
		}
		if _, err := core.Avail(newContext(), server, coreOptions()...); err != nil {
			wrapFatalln("check server", err)
			return
		}
		if err := cfg.Set(config.KeyDefaultServer, server); err != nil {
			wrapFatalln("set default server", err)
			return
		}
		if err := cfg.Save(); err != nil {
			wrapFatalln("save config", err)
			return
		}
		logStdOut("default server: %s\n", server)
	},
}

var serverGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the default server",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		server := cfg.DefaultServer()
		if server == "" {
			wrapFatalWithCodef(exitUsage, "no default server is set")
			return
		}
		logStdOut("%s\n", server)
	},
}

func init() {
	serverCmd.AddCommand(serverSetCmd)
	serverCmd.AddCommand(serverGetCmd)
	rootCmd.AddCommand(serverCmd)
}
