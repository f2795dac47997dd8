package cmd

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the binary
type VersionInfo struct {
	Version   string `yaml:"version,omitempty"`
	BuildDate string `yaml:"buildDate,omitempty"`
	GitCommit string `yaml:"gitCommit,omitempty"`
	GitState  string `yaml:"gitState,omitempty"`
	GoVersion string `yaml:"goVersion"`
}

// NewVersionInfo reports the build information, with "dev" for unreleased builds
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
	if Version != "" {
		ver.Version = Version
		ver.GitState = "clean"
	}
	if GitState != "" {
		ver.GitState = GitState
	}
	return ver
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("Version: %s\nBuild date: %s\nCommit: %s\nWorking tree: %s\nGo: %s\n",
		v.Version, v.BuildDate, v.GitCommit, v.GitState, v.GoVersion)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of autodataman",
	Long: `Prints the version of autodataman. It includes the following components:
	* Semver (output of git describe --tags)
	* Build Date (date at which the binary was built)
	* Git Commit (the git commit hash this binary was built from)
	* Git State (when dirty there were uncommitted changes during the build)
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		print(cmd, NewVersionInfo())
	},
}

func init() {
	addFormatFlag(versionCmd, "text", map[string]Formatter{
		"text": FormatterFunc(func(w io.Writer, data interface{}) error {
			_, err := io.WriteString(w, data.(VersionInfo).String())
			return err
		}),
	})
	rootCmd.AddCommand(versionCmd)
}
