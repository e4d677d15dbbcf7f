package main

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sunward-group/rooftop-cli/internal/model"
	"github.com/sunward-group/rooftop-cli/internal/store"
)

var (
	batchSitesFile string
	batchLimit     int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a CSV of sites concurrently",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sites, err := loadSitesCSV(batchSitesFile)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		p := initPipeline()
		return processBatch(ctx, sites, batchLimit, cfg.Batch.MaxConcurrentSites, st, func(ctx context.Context, site model.Site) (*model.AnalysisBundle, error) {
			return p.Run(ctx, site)
		})
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchSitesFile, "sites", "", "CSV file of sites (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of sites to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("sites")
	rootCmd.AddCommand(batchCmd)
}

// analyzeFunc is the callback signature for analyzing one site.
type analyzeFunc func(ctx context.Context, site model.Site) (*model.AnalysisBundle, error)

// processBatch analyzes sites concurrently, persisting every outcome. One
// site failing never aborts the batch.
func processBatch(ctx context.Context, sites []model.Site, limit, concurrency int, st store.Store, analyze analyzeFunc) error {
	if len(sites) == 0 {
		zap.L().Info("no sites to process")
		return nil
	}
	if limit > 0 && len(sites) > limit {
		sites = sites[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("sites", len(sites)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, site := range sites {
		g.Go(func() error {
			log := zap.L().With(zap.String("site", site.Name))

			run, err := st.CreateRun(gctx, site)
			if err != nil {
				failed.Add(1)
				log.Error("create run failed", zap.Error(err))
				return nil
			}
			if err := st.UpdateRunStatus(gctx, run.ID, model.RunStatusAnalyzing); err != nil {
				log.Warn("status update failed", zap.Error(err))
			}

			bundle, err := analyze(gctx, site)
			if err != nil {
				failed.Add(1)
				log.Error("analysis failed", zap.Error(err))
				if sErr := st.UpdateRunStatus(gctx, run.ID, model.RunStatusFailed); sErr != nil {
					log.Warn("status update failed", zap.Error(sErr))
				}
				return nil // don't abort batch on individual failure
			}

			if err := st.UpdateRunResult(gctx, run.ID, bundle); err != nil {
				failed.Add(1)
				log.Error("save result failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			log.Info("analysis complete",
				zap.String("run_id", run.ID),
				zap.String("feasibility", string(bundle.Recommendation.Feasibility)),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return eris.Wrap(err, "batch processing")
	}

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return nil
}

// sitesHeader is the expected CSV column order.
var sitesHeader = []string{"name", "address", "image_path", "roof_file", "latitude", "longitude", "panel_type", "electricity_rate", "shading_factor"}

// loadSitesCSV reads sites from a CSV file. The header row is required;
// numeric columns may be blank.
func loadSitesCSV(path string) ([]model.Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: open sites file %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read sites header")
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["name"]; !ok {
		return nil, eris.Errorf("batch: sites file missing name column (expected columns: %s)", strings.Join(sitesHeader, ", "))
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	numField := func(rec []string, name string) (float64, error) {
		s := field(rec, name)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}

	var sites []model.Site
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "batch: read sites line %d", line)
		}

		site := model.Site{
			Name:      field(rec, "name"),
			Address:   field(rec, "address"),
			ImagePath: field(rec, "image_path"),
			RoofFile:  field(rec, "roof_file"),
			PanelType: field(rec, "panel_type"),
		}
		for _, n := range []struct {
			name string
			dst  *float64
		}{
			{"latitude", &site.Latitude},
			{"longitude", &site.Longitude},
			{"electricity_rate", &site.ElectricityRate},
			{"shading_factor", &site.ShadingAdjustment},
		} {
			v, err := numField(rec, n.name)
			if err != nil {
				return nil, eris.Wrapf(err, "batch: parse %s on line %d", n.name, line)
			}
			*n.dst = v
		}
		sites = append(sites, site)
	}

	return sites, nil
}
