package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/oneconcern/autodataman/pkg/core"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <dataset>",
	Short: "Describe a dataset, as published by the server and as held by the local repository",
	Long: `Describe a dataset, as published by the server and as held by the local repository.

Each side is described independently: a side that cannot be reached is reported, without
preventing the other side from being described.
`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		server := flags.server
		if server == "" {
			server = cfg.DefaultServer()
		}
		root := flags.local
		if root == "" {
			root = cfg.DefaultLocalRepo()
		}
		if server == "" && root == "" {
			wrapFatalWithCodef(exitUsage, "no server and no local repository specified")
			return
		}

		result, err := core.Info(newContext(), server, root, args[0], coreOptions()...)
		if err != nil {
			wrapFatalln("invalid dataset", err)
			return
		}
		print(cmd, result)
	},
}

func infoText(w io.Writer, data interface{}) error {
	result := data.(*core.InfoResult)
	for _, side := range []struct {
		title string
		view  core.DatasetView
	}{
		{title: "Server", view: result.Server},
		{title: "Local repository", view: result.Local},
	} {
		if side.view.Location == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "%s %s\n", color.CyanString(side.title+":"), side.view.Location); err != nil {
			return err
		}
		var err error
		switch {
		case side.view.Err != nil:
			_, err = fmt.Fprintf(w, "%s\n\n", color.RedString("%v", side.view.Err))
		case side.view.Dataset == nil:
			_, err = fmt.Fprintf(w, "dataset %s not found\n\n", result.Dataset)
		default:
			_, err = fmt.Fprintf(w, "%s\n", side.view.Dataset.Summary())
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// infoDocument is the yaml rendering of an InfoResult, with errors as strings
type infoDocument struct {
	Dataset string            `yaml:"dataset"`
	Server  *infoViewDocument `yaml:"server,omitempty"`
	Local   *infoViewDocument `yaml:"local,omitempty"`
}

type infoViewDocument struct {
	Location string      `yaml:"location"`
	Dataset  interface{} `yaml:"dataset"`
	Error    string      `yaml:"error,omitempty"`
}

func newInfoViewDocument(view core.DatasetView) *infoViewDocument {
	if view.Location == "" {
		return nil
	}
	doc := &infoViewDocument{Location: view.Location}
	if view.Dataset != nil {
		doc.Dataset = view.Dataset
	}
	if view.Err != nil {
		doc.Error = view.Err.Error()
	}
	return doc
}

func infoYAML(w io.Writer, data interface{}) error {
	result := data.(*core.InfoResult)
	return yamlFormatter(w, infoDocument{
		Dataset: result.Dataset,
		Server:  newInfoViewDocument(result.Server),
		Local:   newInfoViewDocument(result.Local),
	})
}

func init() {
	addServerFlag(infoCmd)
	addLocalRepoFlag(infoCmd)
	addFormatFlag(infoCmd, "text", map[string]Formatter{
		"text": FormatterFunc(infoText),
		"yaml": FormatterFunc(infoYAML),
	})
	rootCmd.AddCommand(infoCmd)
}
