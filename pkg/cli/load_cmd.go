package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mobiltex-datalake/internal/loader"
)

func newLoadSampleCmd(app *appContext) *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "load-sample",
		Short: "Load the sample CSV files into the curated zone",
		Long: "Reads assets.csv, sensors.csv, and readings.csv, validates them " +
			"against the catalog schemas, and writes columnar files to each " +
			"table's registered location.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir := dataDir
			if dir == "" {
				dir = app.cfg.DataDir
			}
			l := loader.New(app.registry, app.curated, app.logger, time.Now)
			summaries, err := l.LoadAll(cmd.Context(), dir)
			if err != nil {
				return err
			}
			for _, s := range summaries {
				if s.Partitions > 0 {
					fmt.Printf("%-10s %5d rows, %d partitions\n", s.Table, s.Rows, s.Partitions)
				} else {
					fmt.Printf("%-10s %5d rows\n", s.Table, s.Rows)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Directory containing the sample CSV files (default: DATA_DIR)")
	return cmd
}
