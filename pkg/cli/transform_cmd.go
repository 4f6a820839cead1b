package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"mobiltex-datalake/internal/transform"
)

func newTransformCmd(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "transform",
		Short: "Run the raw-to-curated transformation over every table",
		Long: "Reads CSV drops from the raw zone (raw/<table>/), validates them " +
			"against the catalog, and writes partitioned columnar files to the " +
			"curated zone. Tables that fail are reported but do not stop the run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			job := transform.New(app.registry, app.raw, app.curated, app.logger, time.Now)
			res, err := job.Run(cmd.Context())
			if res != nil {
				fmt.Printf("run %s\n", res.RunID)
				names := make([]string, 0, len(res.Tables))
				for name := range res.Tables {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					fmt.Printf("%-10s %5d rows\n", name, res.Tables[name])
				}
			}
			return err
		},
	}
}
