package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sunward-group/rooftop-cli/internal/model"
	"github.com/sunward-group/rooftop-cli/internal/report"
)

var (
	analyzeName     string
	analyzeAddress  string
	analyzeImage    string
	analyzeRoofFile string
	analyzeLat      float64
	analyzeLon      float64
	analyzePanel    string
	analyzeRate     float64
	analyzeShading  float64
	analyzeOutJSON  string
	analyzeOutCSV   string
	analyzeOutXLSX  string
	analyzeSave     bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one rooftop for solar feasibility",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		site := model.Site{
			Name:              analyzeName,
			Address:           analyzeAddress,
			ImagePath:         analyzeImage,
			RoofFile:          analyzeRoofFile,
			Latitude:          analyzeLat,
			Longitude:         analyzeLon,
			PanelType:         analyzePanel,
			ElectricityRate:   analyzeRate,
			ShadingAdjustment: analyzeShading,
		}

		p := initPipeline()
		bundle, err := p.Run(ctx, site)
		if err != nil {
			return eris.Wrap(err, "analyze")
		}

		if analyzeSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck

			run, err := st.CreateRun(ctx, site)
			if err != nil {
				return err
			}
			if err := st.UpdateRunResult(ctx, run.ID, bundle); err != nil {
				return err
			}
			zap.L().Info("run saved", zap.String("run_id", run.ID))
		}

		if analyzeOutJSON != "" {
			if err := writeFileWith(analyzeOutJSON, func(f *os.File) error {
				return report.WriteJSON(f, bundle)
			}); err != nil {
				return err
			}
		}
		if analyzeOutCSV != "" {
			if err := writeFileWith(analyzeOutCSV, func(f *os.File) error {
				return report.WriteCashFlowCSV(f, bundle)
			}); err != nil {
				return err
			}
		}
		if analyzeOutXLSX != "" {
			if err := report.WriteWorkbook(analyzeOutXLSX, site.Name, bundle); err != nil {
				return err
			}
		}

		fmt.Fprint(os.Stdout, report.Summary(site.Name, bundle))
		return nil
	},
}

func writeFileWith(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close() //nolint:errcheck

	if err := write(f); err != nil {
		return err
	}
	return eris.Wrapf(f.Sync(), "sync %s", path)
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "site name for reports and persistence")
	analyzeCmd.Flags().StringVar(&analyzeAddress, "address", "", "street address (geocoded when no coordinates are given)")
	analyzeCmd.Flags().StringVar(&analyzeImage, "image", "", "path to rooftop image (requires vision key)")
	analyzeCmd.Flags().StringVar(&analyzeRoofFile, "roof-file", "", "path to a pre-computed roof analysis (json or yaml)")
	analyzeCmd.Flags().Float64Var(&analyzeLat, "lat", 0, "site latitude (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeLon, "lon", 0, "site longitude (default from config)")
	analyzeCmd.Flags().StringVar(&analyzePanel, "panel", "", "panel type (standard_residential, high_efficiency, premium)")
	analyzeCmd.Flags().Float64Var(&analyzeRate, "rate", 0, "electricity rate override ($/kWh)")
	analyzeCmd.Flags().Float64Var(&analyzeShading, "shading", 0, "extra shading derate in (0,1]")
	analyzeCmd.Flags().StringVar(&analyzeOutJSON, "out-json", "", "write full bundle JSON to file")
	analyzeCmd.Flags().StringVar(&analyzeOutCSV, "out-csv", "", "write cash-flow CSV to file")
	analyzeCmd.Flags().StringVar(&analyzeOutXLSX, "out-xlsx", "", "write xlsx workbook to file")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "persist the run to the store")
	rootCmd.AddCommand(analyzeCmd)
}
