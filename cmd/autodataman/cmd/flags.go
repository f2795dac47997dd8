package cmd

import (
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		configFile string
		logLevel   string
		verbose    bool
		timeout    string
	}
	server    string
	local     string
	force     bool
	removeAll bool
	quick     bool
	web       struct {
		addr string
	}
	samples struct {
		list     string
		dest     string
		hashType string
	}
}

var flags = flagsT{}

func addServerFlag(cmd *cobra.Command) string {
	server := "server"
	cmd.Flags().StringVarP(&flags.server, server, "s", "", "The server URL. Defaults to the configured default server")
	return server
}

func addLocalRepoFlag(cmd *cobra.Command) string {
	local := "local"
	cmd.Flags().StringVarP(&flags.local, local, "l", "", "The local repository. Defaults to the configured default local repository")
	return local
}

func addForceFlag(cmd *cobra.Command) string {
	force := "force"
	cmd.Flags().BoolVarP(&flags.force, force, "f", false, "Overwrite a local version, even when it is up to date or has drifted from the server copy")
	return force
}

func addRemoveAllFlag(cmd *cobra.Command) string {
	all := "all"
	cmd.Flags().BoolVarP(&flags.removeAll, all, "a", false, "Confirm the removal of all versions of a dataset")
	return all
}

func addQuickFlag(cmd *cobra.Command) string {
	quick := "quick"
	cmd.Flags().BoolVar(&flags.quick, quick, false, "Skip the verification of file digests")
	return quick
}

func addAddrFlag(cmd *cobra.Command) string {
	addr := "addr"
	cmd.Flags().StringVar(&flags.web.addr, addr, ":8080", "The address to listen on")
	return addr
}

func addSamplesFlags(cmd *cobra.Command) string {
	list := "list"
	cmd.Flags().StringVar(&flags.samples.list, list, "", "The hash list of the files to download")
	cmd.Flags().StringVar(&flags.samples.dest, "dest", "", "The destination directory. Defaults to the current directory")
	cmd.Flags().StringVar(&flags.samples.hashType, "hash", "sha256", "The hash type used by the list: sha256, sha512, sha1 or md5")
	return list
}
