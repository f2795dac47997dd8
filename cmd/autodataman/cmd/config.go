// Copyright © 2018 One Concern

package cmd

import (
	"io"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage the configuration",
	Long: `Commands to manage the configuration of autodataman.

The configuration is a JSON file of key/value settings, located at $HOME/.autodataman by default.
Reserved keys are:
  default_local_repo   the local repository used when --local is not specified
  default_server       the server used when --server is not specified
  timeout              the timeout on requests to the server

Post-download commands are configured with keys like "<format>_<action>_command":
for instance, "tgz_open_command" is run on files of format "tgz" declaring the "open" action.
`,
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print all settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		print(cmd, cfg.Settings())
	},
}

var configSetCmd = &cobra.Command{
	Use:     "set <variable> <value>",
	Short:   "Set a setting",
	Example: `% autodataman config set nc_convert_command "cdo -f nc4 copy"`,
	Args:    cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		if err := cfg.Set(args[0], args[1]); err != nil {
			wrapFatalln("set "+args[0], err)
			return
		}
		if err := cfg.Save(); err != nil {
			wrapFatalln("save config", err)
			return
		}
		logStdOut("%s = %s\n", args[0], args[1])
	},
}

func settingsTable(w io.Writer, data interface{}) error {
	settings := data.(map[string]string)
	table := newTable("KEY", "VALUE")
	for _, key := range cfg.Keys() {
		table.AddRow(key, settings[key])
	}
	return writeTable(w, table)
}

func init() {
	addFormatFlag(configGetCmd, "table", map[string]Formatter{
		"table": FormatterFunc(settingsTable),
	})
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
