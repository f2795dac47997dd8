package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/oneconcern/autodataman/pkg/web"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local repository as a catalog for other local repositories",
	Long: `Serve the local repository over HTTP, with the same layout as a server.

Another local repository may then use this one as its server. Staging directories
are not served.
`,
	Example: `% autodataman serve --local ~/data --addr :8080
% autodataman get era5 --server http://localhost:8080`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		root := localRepo()
		if err := core.CheckRepo(appFs, root); err != nil {
			wrapFatalln("check local repository", err)
			return
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := web.NewServer(web.ServerParams{Root: root, Fs: appFs, Logger: logger})
		logStdOut("serving %s on %s\n", root, flags.web.addr)
		if err := srv.ListenAndServe(ctx, flags.web.addr); err != nil {
			wrapFatalln("serve local repository", err)
		}
	},
}

func init() {
	addLocalRepoFlag(serveCmd)
	addAddrFlag(serveCmd)
	rootCmd.AddCommand(serveCmd)
}
