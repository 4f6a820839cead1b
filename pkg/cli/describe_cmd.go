package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDescribeCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "describe [table]",
		Short: "Show a table's schema, or list all tables",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 {
				tables, err := app.registry.ListTables(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "TABLE\tCOLUMNS\tPARTITIONED BY\tLOCATION")
				for _, t := range tables {
					pk := "-"
					if len(t.PartitionKeys) > 0 {
						pk = ""
						for i, k := range t.PartitionKeys {
							if i > 0 {
								pk += ", "
							}
							pk += k.Name
						}
					}
					fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", t.Name, len(t.Columns), pk, t.Location)
				}
				return w.Flush()
			}

			table, err := app.registry.GetTable(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Table:    %s\n", table.Name)
			if table.Description != "" {
				fmt.Printf("Desc:     %s\n", table.Description)
			}
			fmt.Printf("Location: %s\n", table.Location)
			fmt.Printf("Format:   %s\n", table.Classification)
			if table.Version != 0 {
				fmt.Printf("Version:  %d\n", table.Version)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "\nCOLUMN\tTYPE\tCOMMENT")
			for _, c := range table.Columns {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Type, c.Comment)
			}
			for _, c := range table.PartitionKeys {
				fmt.Fprintf(w, "%s\t%s\t(partition key)\n", c.Name, c.Type)
			}
			return w.Flush()
		},
	}
}
