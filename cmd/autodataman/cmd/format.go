package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"
)

// Formatter renders the result of a command
type Formatter interface {
	Format(io.Writer, interface{}) error
}

// FormatterFunc is a function usable as a Formatter
type FormatterFunc func(io.Writer, interface{}) error

// Format some data
func (f FormatterFunc) Format(w io.Writer, data interface{}) error {
	return f(w, data)
}

var (
	formatters = map[*cobra.Command]map[string]Formatter{}

	yamlFormatter = FormatterFunc(func(w io.Writer, data interface{}) error {
		b, err := yaml.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	})
)

// addFormatFlag adds an --output flag to a command, with "yaml" always available
func addFormatFlag(cmd *cobra.Command, defaultFormat string, available map[string]Formatter) string {
	output := "output"
	all := map[string]Formatter{"yaml": yamlFormatter}
	for k, f := range available {
		all[k] = f
	}
	formatters[cmd] = all

	names := make([]string, 0, len(all))
	for k := range all {
		names = append(names, k)
	}
	sort.Strings(names)
	cmd.Flags().StringP(output, "o", defaultFormat, "The output format: "+strings.Join(names, ", "))
	return output
}

// print renders data with the selected formatter of a command
func print(cmd *cobra.Command, data interface{}) {
	format, _ := cmd.Flags().GetString("output")
	formatter, ok := formatters[cmd][format]
	if !ok {
		wrapFatalWithCodef(exitUsage, "unsupported output format %q", format)
		return
	}
	if err := formatter.Format(stdout, data); err != nil {
		wrapFatalln("render output", err)
	}
}

func newTable(headers ...interface{}) *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true
	if len(headers) > 0 {
		table.AddRow(headers...)
	}
	return table
}

func writeTable(w io.Writer, table *uitable.Table) error {
	_, err := fmt.Fprintln(w, table.String())
	return err
}
