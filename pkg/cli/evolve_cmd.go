package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mobiltex-datalake/internal/domain"
	"mobiltex-datalake/internal/evolution"
)

func newEvolveCmd(app *appContext) *cobra.Command {
	var (
		tableName  string
		columnName string
		columnType string
		comment    string
		defaultRaw string
		valuesRaw  string
	)

	cmd := &cobra.Command{
		Use:   "evolve",
		Short: "Add a column to a table's data and catalog definition",
		Long: "Rewrites the table's columnar files with the new column and then " +
			"updates the catalog, taking a full backup first. On a partial " +
			"failure the backup location is printed for manual rollback.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			colType, err := domain.ParseColumnType(columnType)
			if err != nil {
				return err
			}

			req := evolution.Request{
				Table: tableName,
				Column: domain.Column{
					Name:    columnName,
					Type:    colType,
					Comment: comment,
				},
				DefaultValue: domain.NullValue(),
				BackupPrefix: app.cfg.BackupPrefix,
			}
			if cmd.Flags().Changed("default") {
				v, err := domain.ParseValue(defaultRaw, colType)
				if err != nil {
					return fmt.Errorf("parse --default: %w", err)
				}
				req.DefaultValue = v
			}
			if valuesRaw != "" {
				for _, raw := range strings.Split(valuesRaw, ",") {
					v, err := domain.ParseValue(strings.TrimSpace(raw), colType)
					if err != nil {
						return fmt.Errorf("parse --values: %w", err)
					}
					req.Values = append(req.Values, v)
				}
			}

			proc := evolution.New(app.registry, app.curated, app.logger)
			report, err := proc.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Printf("table:    %s\n", report.Table)
			fmt.Printf("snapshot: %s\n", report.SnapshotID)
			fmt.Printf("backup:   %s\n", report.BackupLocation)
			fmt.Printf("rows:     %d across %d files\n", report.RowCount, report.FilesRewritten)
			fmt.Printf("columns:  %s\n", strings.Join(report.OriginalColumns, ", "))
			fmt.Printf("      ->  %s\n", strings.Join(report.NewColumns, ", "))
			if !report.ColumnAdded {
				fmt.Println("catalog already listed the column; data was reconciled")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tableName, "table", "", "Table to evolve")
	cmd.Flags().StringVar(&columnName, "column", "", "Name of the column to add")
	cmd.Flags().StringVar(&columnType, "type", "string", "Column type (string, int, bigint, double, timestamp)")
	cmd.Flags().StringVar(&comment, "comment", "", "Column comment recorded in the catalog")
	cmd.Flags().StringVar(&defaultRaw, "default", "", "Value assigned to existing rows (default: null)")
	cmd.Flags().StringVar(&valuesRaw, "values", "", "Comma-separated per-row values in dataset order")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("column")
	return cmd
}
