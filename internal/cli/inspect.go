package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/medlens/analysis/inspection"
	"github.com/YuminosukeSato/medlens/dataset"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the structure and descriptive statistics of the dataset",
	Example: `
  medlens inspect --data healthcare_dataset.csv
  medlens inspect --output json`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	df, err := loadData(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	factory := inspection.NewFactory(inspection.DescriptiveStatistics{})
	stats, err := factory.Execute(df)
	if err != nil {
		return err
	}
	if format() == "text" {
		factory.SetStrategy(&inspection.DataInfo{Out: out})
		if _, err := factory.Execute(df); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\n"); err != nil {
			return err
		}
	}
	return printTables(out, []string{"descriptive statistics"}, []*dataset.Frame{stats})
}
