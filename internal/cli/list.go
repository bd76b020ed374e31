package cli

import (
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the built-in certifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			certs := BuiltinCertifications()

			if opts.Format == "json" {
				type entry struct {
					Name        string `json:"name"`
					Description string `json:"description"`
					Clauses     int    `json:"clauses"`
				}
				out := make([]entry, 0, len(certs))
				for _, c := range certs {
					composed, _, err := c.Build()
					if err != nil {
						return fmt.Errorf("build %s: %w", c.Name, err)
					}
					out = append(out, entry{Name: c.Name, Description: c.Description, Clauses: composed.ClauseCount()})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Certification", "Clauses", "Description"})
			for _, c := range certs {
				composed, _, err := c.Build()
				if err != nil {
					return fmt.Errorf("build %s: %w", c.Name, err)
				}
				tw.AppendRow(table.Row{c.Name, composed.ClauseCount(), c.Description})
			}
			tw.Render()
			return nil
		},
	}
}
