package commands

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/venuebook/mappedapi/internal/constants"
	"github.com/venuebook/mappedapi/pkg/mappedapi"
)

// endpointRow is one leaf of the mapping as listed by tree.
type endpointRow struct {
	Path     string   `json:"path"               yaml:"path"`
	Verb     string   `json:"verb"               yaml:"verb"`
	Template string   `json:"template"           yaml:"template"`
	Required []string `json:"required,omitempty" yaml:"required,omitempty"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [MAPPING_FILE]",
		Short: "List every endpoint in the mapping",
		Long:  "Display each callable path with its verb, URL template and required arguments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			var path string
			if len(args) > 0 {
				path = args[0]
			}

			mapping, err := loadMapping(path)
			if err != nil {
				return err
			}

			rows, err := endpointRows(mapping)
			if err != nil {
				return err
			}

			if format != constants.FormatTable {
				return writeStructured(cmd.OutOrStdout(), format, rows)
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Path", "Verb", "Template", "Required")

			for _, row := range rows {
				_ = table.Append(row.Path, row.Verb, row.Template, strings.Join(row.Required, ", "))
			}

			if err := table.Render(); err != nil {
				return fmt.Errorf("failed to render table: %w", err)
			}

			return nil
		},
	}
}

func endpointRows(mapping mappedapi.Mapping) ([]endpointRow, error) {
	var rows []endpointRow

	err := mapping.Walk(func(path string, endpoint *mappedapi.Endpoint) error {
		rows = append(rows, endpointRow{
			Path:     path,
			Verb:     endpoint.Verb.String(),
			Template: "/" + endpoint.Template(),
			Required: endpoint.RequiredArgs,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking mapping: %w", err)
	}

	return rows, nil
}
