package cli

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/medlens/analysis/multivariate"
	"github.com/YuminosukeSato/medlens/dataset"
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Print grouped billing, stay and patient-count summaries",
	RunE:  runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

func runAggregate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	df, err := loadPrepared(cfg)
	if err != nil {
		return err
	}
	res, err := multivariate.NewFactory(multivariate.DataAggregation{}).Execute(df)
	if err != nil {
		return err
	}
	names := make([]string, len(res.Tables))
	frames := make([]*dataset.Frame, len(res.Tables))
	for i, t := range res.Tables {
		names[i], frames[i] = t.Name, t.Frame
	}
	return printTables(cmd.OutOrStdout(), names, frames)
}
