// Copyright © 2018 One Concern

package cmd

import (
	"context"
	"os"
	"time"

	"github.com/oneconcern/autodataman/pkg/config"
	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/oneconcern/autodataman/pkg/dlogger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "autodataman",
	Short: "Autodataman keeps local copies of versioned datasets",
	Long: `Autodataman keeps local copies of versioned datasets published on a server.

A server publishes a catalog of datasets, each dataset holding named versions of files.
Autodataman downloads versions into a local repository, verifies every file against
the digest published with it, and runs the configured post-download commands.

The local repository is assumed to have a single writer.
`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := flags.root.logLevel
		if flags.root.verbose {
			level = dlogger.LogLevelDebug
		}
		l, err := dlogger.GetLogger(level, dlogger.WithConsole())
		if err != nil {
			wrapFatalln("invalid log level", err)
			return
		}
		logger = l
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var (
	cfg    *config.Config
	logger = zap.NewNop()

	// file system hosting the config file and the local repositories
	appFs afero.Fs = afero.NewOsFs()
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		osExit(exitCode(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&flags.root.configFile, "config", "",
		"The config file (default is $"+config.EnvConfig+" or $HOME/"+config.FileName+")")
	rootCmd.PersistentFlags().StringVar(&flags.root.logLevel, "loglevel", dlogger.LogLevelWarn,
		"The logging level: none, debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVarP(&flags.root.verbose, "verbose", "v", false, "Shortcut for --loglevel debug")
	rootCmd.PersistentFlags().StringVar(&flags.root.timeout, "timeout", "",
		"Timeout on requests to the server, in seconds or as a duration (e.g. 30s). Defaults to the configured timeout")

	_ = viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))
	_ = viper.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))
}

// initConfig reads in the config file and ENV variables if set.
func initConfig() {
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv() // read in environment variables that match
	if lvl := viper.GetString("loglevel"); lvl != "" && !rootCmd.PersistentFlags().Changed("loglevel") {
		flags.root.logLevel = lvl
	}

	pth := flags.root.configFile
	if pth == "" {
		var err error
		if pth, err = config.DefaultPath(); err != nil {
			wrapFatalln("locate config file", err)
			return
		}
	}
	c, err := config.Load(appFs, pth)
	if err != nil {
		wrapFatalln("load config", err)
		return
	}
	if err = c.Validate(); err != nil {
		warn("the config file %s is not valid: %v", c.Path(), err)
	}
	cfg = c
}

// requestTimeout resolves the timeout from the flag, then the config
func requestTimeout() time.Duration {
	value := flags.root.timeout
	if value == "" {
		value = viper.GetString("timeout")
	}
	if value != "" {
		timeout, err := config.ParseTimeout(value)
		if err != nil {
			wrapFatalln("invalid timeout", err)
			return 0
		}
		return timeout
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		wrapFatalln("invalid timeout in config", err)
		return 0
	}
	return timeout
}

// coreOptions builds the options shared by all core operations
func coreOptions(extra ...core.Option) []core.Option {
	return append([]core.Option{
		core.WithFs(appFs),
		core.WithLogger(logger),
		core.WithConfig(cfg),
		core.WithTimeout(requestTimeout()),
		core.WithCommandRunner(core.ShellRunner{Stdout: os.Stderr, Stderr: os.Stderr}),
	}, extra...)
}

// serverURL resolves the server from the flag, then the config
func serverURL() string {
	if flags.server != "" {
		return flags.server
	}
	if server := cfg.DefaultServer(); server != "" {
		return server
	}
	wrapFatalWithCodef(exitUsage, `no server specified: use --server or "autodataman server set <url>"`)
	return ""
}

// localRepo resolves the local repository from the flag, then the config
func localRepo() string {
	pth := flags.local
	if pth == "" {
		pth = cfg.DefaultLocalRepo()
	}
	if pth == "" {
		wrapFatalWithCodef(exitUsage, `no local repository specified: use --local or "autodataman repo set <dir>"`)
		return ""
	}
	if err := config.ValidateLocalRepo(pth); err != nil {
		wrapFatalWithCodef(exitUsage, "invalid local repository %q: %v", pth, err)
		return ""
	}
	return pth
}

func newContext() context.Context {
	return context.Background()
}
