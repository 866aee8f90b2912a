package app

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/rover/internal/rover/intent"
)

func newIntentsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "intents",
		Short: "List the intents understood by the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), intentTable())
			return err
		},
	}
}

func intentTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = 48
	table.Wrap = true
	table.AddRow("INTENT", "ALIASES", "PARAMS", "DESCRIPTION")
	for _, d := range intent.Descriptors() {
		aliases := strings.Join(d.Aliases, ", ")
		if aliases == "" {
			aliases = "-"
		}
		params := d.Params
		if params == "" {
			params = "-"
		}
		table.AddRow(d.Name, aliases, params, d.Description)
	}
	return table
}
