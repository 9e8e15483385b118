package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/medlens/analysis/bivariate"
	"github.com/YuminosukeSato/medlens/analysis/condition"
	"github.com/YuminosukeSato/medlens/analysis/multivariate"
	"github.com/YuminosukeSato/medlens/analysis/univariate"
	"github.com/YuminosukeSato/medlens/core/strategy"
	"github.com/YuminosukeSato/medlens/dataset"
	"github.com/YuminosukeSato/medlens/pkg/errors"
	"github.com/YuminosukeSato/medlens/render"
)

var (
	plotKind      string
	plotX         string
	plotY         string
	plotBins      int
	maxCategories int
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render figures of the prepared dataset",
	Long: `Render figures of the prepared dataset into output.dir using output.format.

Each subcommand cleans and prepares the data first, so derived columns such
as Age Group and Length of Stay are available.`,
}

var plotUnivariateCmd = &cobra.Command{
	Use:   "univariate",
	Short: "Histograms, box plots and count charts of single columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlot(cmd, func(df *dataset.Frame, r *render.Renderer) ([]render.Artifact, error) {
			f := univariate.NewFactory(&univariate.Numerical{Renderer: r})
			numeric, err := f.Execute(df)
			if err != nil {
				return nil, err
			}
			f.SetStrategy(&univariate.Categorical{Renderer: r, MaxCategories: maxCategories})
			categorical, err := f.Execute(df)
			if err != nil {
				return nil, err
			}
			return []render.Artifact{numeric, categorical}, nil
		})
	},
}

var plotBivariateCmd = &cobra.Command{
	Use:   "bivariate",
	Short: "Relate two columns with a scatter, line, box, bar or 2D histogram plot",
	Example: `
  medlens plot bivariate --kind scatter -x Age -y "Billing Amount"
  medlens plot bivariate --kind box -x "Medical Condition" -y "Billing Amount"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlot(cmd, func(df *dataset.Frame, r *render.Renderer) ([]render.Artifact, error) {
			s, err := bivariateStrategy(plotKind, r, plotBins)
			if err != nil {
				return nil, err
			}
			art, err := bivariate.NewFactory(s).Execute(bivariate.Request{Frame: df, Feature1: plotX, Feature2: plotY})
			if err != nil {
				return nil, err
			}
			return []render.Artifact{art}, nil
		})
	},
}

var plotMultivariateCmd = &cobra.Command{
	Use:   "multivariate",
	Short: "Correlation heatmap of the numeric columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlot(cmd, func(df *dataset.Frame, r *render.Renderer) ([]render.Artifact, error) {
			res, err := multivariate.NewFactory(&multivariate.CorrelationHeatmap{Renderer: r}).Execute(df)
			if err != nil {
				return nil, err
			}
			return []render.Artifact{*res.Artifact}, nil
		})
	},
}

var plotConditionCmd = &cobra.Command{
	Use:   "condition",
	Short: "Word cloud, counts and per-condition distributions by age group and gender",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlot(cmd, func(df *dataset.Frame, r *render.Renderer) ([]render.Artifact, error) {
			variants := []strategy.Strategy[*dataset.Frame, render.Artifact]{
				&condition.WordCloud{Renderer: r},
				&condition.MedicalCondition{Renderer: r, MaxCategories: maxCategories},
				condition.Cancer(r),
				condition.Arthritis(r),
				condition.Diabetes(r),
				condition.Hypertension(r),
				condition.Obesity(r),
				condition.Asthma(r),
			}
			f := condition.NewFactory(variants[0])
			var arts []render.Artifact
			for _, v := range variants {
				f.SetStrategy(v)
				art, err := f.Execute(df)
				if err != nil {
					return nil, err
				}
				arts = append(arts, art)
			}
			return arts, nil
		})
	},
}

func init() {
	plotCmd.PersistentFlags().IntVar(&maxCategories, "max-categories", 20, "bars per count chart before the rest fold into Other (0 for all)")
	plotBivariateCmd.Flags().StringVar(&plotKind, "kind", "scatter", "plot kind (scatter, line, box, bar, hist2d)")
	plotBivariateCmd.Flags().StringVarP(&plotX, "x", "x", "Age", "first column")
	plotBivariateCmd.Flags().StringVarP(&plotY, "y", "y", "Billing Amount", "second column")
	plotBivariateCmd.Flags().IntVar(&plotBins, "bins", bivariate.DefaultBins, "bins per axis for hist2d")

	plotCmd.AddCommand(plotUnivariateCmd, plotBivariateCmd, plotMultivariateCmd, plotConditionCmd)
	rootCmd.AddCommand(plotCmd)
}

// bivariateStrategy selects the bivariate variant for kind.
func bivariateStrategy(kind string, r *render.Renderer, bins int) (strategy.Strategy[bivariate.Request, render.Artifact], error) {
	switch strings.ToLower(kind) {
	case "scatter":
		return &bivariate.Scatter{Renderer: r}, nil
	case "line":
		return &bivariate.Line{Renderer: r}, nil
	case "box":
		return &bivariate.Box{Renderer: r}, nil
	case "bar":
		return &bivariate.Bar{Renderer: r}, nil
	case "hist2d":
		return &bivariate.Histogram2D{Renderer: r, Bins: bins}, nil
	}
	return nil, errors.NewValidationError("kind", "must be scatter, line, box, bar or hist2d", kind)
}

func runPlot(cmd *cobra.Command, draw func(*dataset.Frame, *render.Renderer) ([]render.Artifact, error)) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	df, err := loadPrepared(cfg)
	if err != nil {
		return err
	}
	arts, err := draw(df, cfg.Output.Renderer())
	if err != nil {
		return err
	}
	return printResult(cmd.OutOrStdout(), arts, func(w io.Writer) error {
		for _, a := range arts {
			if _, err := fmt.Fprintf(w, "%s: %s\n", a.Title, a.Path); err != nil {
				return err
			}
		}
		return nil
	})
}
