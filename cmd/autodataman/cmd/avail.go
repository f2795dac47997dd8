package cmd

import (
	"fmt"
	"io"

	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/oneconcern/autodataman/pkg/model"
	"github.com/spf13/cobra"
)

var availCmd = &cobra.Command{
	Use:   "avail",
	Short: "List the datasets published by the server",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := core.Avail(newContext(), serverURL(), coreOptions()...)
		if err != nil {
			wrapFatalln("list available datasets", err)
			return
		}
		print(cmd, repo)
	},
}

func availText(w io.Writer, data interface{}) error {
	repo := data.(*model.Repository)
	if _, err := fmt.Fprintf(w, "%d dataset(s) available\n", repo.NumDatasets()); err != nil {
		return err
	}
	for _, dataset := range repo.Datasets {
		if _, err := fmt.Fprintln(w, dataset); err != nil {
			return err
		}
	}
	return nil
}

func init() {
	addServerFlag(availCmd)
	addFormatFlag(availCmd, "text", map[string]Formatter{
		"text": FormatterFunc(availText),
	})
	rootCmd.AddCommand(availCmd)
}
