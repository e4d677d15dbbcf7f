// Package pipeline orchestrates a complete rooftop feasibility analysis:
// roof resolution, panel layout, irradiance, production forecast, financial
// model, and the final recommendation.
package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sunward-group/rooftop-cli/internal/config"
	"github.com/sunward-group/rooftop-cli/internal/feasibility"
	"github.com/sunward-group/rooftop-cli/internal/finance"
	"github.com/sunward-group/rooftop-cli/internal/irradiance"
	"github.com/sunward-group/rooftop-cli/internal/layout"
	"github.com/sunward-group/rooftop-cli/internal/model"
	"github.com/sunward-group/rooftop-cli/internal/production"
	"github.com/sunward-group/rooftop-cli/pkg/geocode"
	"github.com/sunward-group/rooftop-cli/pkg/vision"
)

// Pipeline runs the analysis stages in order. Stages after roof resolution
// are pure: the same roof and parameters always produce the same bundle.
type Pipeline struct {
	cfg       *config.Config
	vision    vision.Client
	geo       geocode.Client
	estimator irradiance.Estimator
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithGeocoder enables address resolution for sites without coordinates.
func WithGeocoder(g geocode.Client) Option {
	return func(p *Pipeline) { p.geo = g }
}

// WithEstimator replaces the default latitude-band irradiance model.
func WithEstimator(e irradiance.Estimator) Option {
	return func(p *Pipeline) { p.estimator = e }
}

// New creates a pipeline. The vision client may be nil; image analysis then
// degrades to the roof file or the canonical default.
func New(cfg *config.Config, vis vision.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		vision:    vis,
		estimator: irradiance.NewLatitudeModel(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run analyzes one site and returns the complete bundle. Roof resolution
// degrades rather than fails; only invalid caller parameters (unknown panel
// type) return an error.
func (p *Pipeline) Run(ctx context.Context, site model.Site) (*model.AnalysisBundle, error) {
	panel, err := p.cfg.Panel(site.PanelType)
	if err != nil {
		return nil, err
	}
	panelType := site.PanelType
	if panelType == "" {
		panelType = "standard_residential"
	}

	roof, fallback := p.resolveRoof(ctx, site)

	lat, lon := p.resolveLocation(ctx, site)

	lay := layout.NewPlanner(p.cfg.Analysis).Plan(roof, panel)

	irr := p.estimator.Estimate(
		lat,
		roof.Orientation.TiltDegrees,
		roof.Orientation.PrimaryDirection.Azimuth(),
	)

	shading := site.ShadingAdjustment
	if shading <= 0 || shading > 1 {
		shading = 1
	}
	prod := production.Forecast(lay.SystemPowerKW(), irr, shading, production.DefaultLosses())

	// Site overrides never mutate the shared config.
	finCfg := p.cfg.Financial
	if site.ElectricityRate > 0 {
		finCfg.ElectricityRate = site.ElectricityRate
	}
	fin := finance.NewModeler(p.cfg.Installation, finCfg).Analyze(lay.SystemPowerKW(), prod.AnnualKWh, panel)

	rec := feasibility.Assess(roof, fin, lay)

	bundle := &model.AnalysisBundle{
		RoofAnalysis:   roof,
		PanelLayout:    lay,
		Irradiance:     irr,
		Production:     prod,
		Financial:      fin,
		Recommendation: rec,
		Parameters: model.Parameters{
			Latitude:          lat,
			Longitude:         lon,
			PanelType:         panelType,
			ElectricityRate:   finCfg.ElectricityRate,
			ShadingAdjustment: shading,
		},
		FallbackMode: fallback,
	}

	zap.L().Info("pipeline: analysis complete",
		zap.String("site", site.Name),
		zap.Int("panels", lay.PanelCount),
		zap.Float64("system_kw", lay.SystemPowerKW()),
		zap.String("feasibility", string(rec.Feasibility)),
		zap.Bool("fallback_mode", fallback),
	)

	return bundle, nil
}

// resolveLocation picks coordinates for a site. Explicit coordinates win;
// an address is geocoded when a geocoder is wired; otherwise the configured
// default location applies. Geocoding failures log and degrade.
func (p *Pipeline) resolveLocation(ctx context.Context, site model.Site) (float64, float64) {
	if site.Latitude != 0 || site.Longitude != 0 {
		return site.Latitude, site.Longitude
	}

	if site.Address != "" && p.geo != nil {
		res, err := p.geo.Geocode(ctx, site.Address)
		if err == nil && res.Matched {
			zap.L().Info("pipeline: address resolved",
				zap.String("site", site.Name),
				zap.String("matched_address", res.MatchedAddress),
				zap.Float64("latitude", res.Latitude),
				zap.Float64("longitude", res.Longitude),
			)
			return res.Latitude, res.Longitude
		}
		zap.L().Warn("pipeline: geocoding failed, using default location",
			zap.String("site", site.Name),
			zap.String("address", site.Address),
			zap.Error(err),
		)
	}

	return p.cfg.Location.Latitude, p.cfg.Location.Longitude
}

// resolveRoof produces the RoofAnalysis for a site. Preference order: vision
// on the site image, then the roof file, then the canonical default. Every
// failure logs and degrades; this function cannot fail.
func (p *Pipeline) resolveRoof(ctx context.Context, site model.Site) (model.RoofAnalysis, bool) {
	if site.ImagePath != "" && p.vision != nil {
		roof, err := p.analyzeImage(ctx, site.ImagePath)
		if err == nil {
			return *roof, false
		}
		zap.L().Warn("pipeline: vision analysis failed, falling back",
			zap.String("site", site.Name),
			zap.String("image", site.ImagePath),
			zap.Error(err),
		)
	}

	if site.RoofFile != "" {
		roof, err := loadRoofFile(site.RoofFile)
		if err == nil {
			return *roof, false
		}
		zap.L().Warn("pipeline: roof file unreadable, falling back",
			zap.String("site", site.Name),
			zap.String("roof_file", site.RoofFile),
			zap.Error(err),
		)
	}

	return model.Default(), true
}

func (p *Pipeline) analyzeImage(ctx context.Context, path string) (*model.RoofAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read image")
	}
	return p.vision.AnalyzeRooftop(ctx, data, mediaTypeFor(path))
}

// loadRoofFile reads a pre-computed RoofAnalysis from a JSON or YAML file.
func loadRoofFile(path string) (*model.RoofAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read roof file")
	}

	var roof model.RoofAnalysis
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &roof); err != nil {
			return nil, eris.Wrap(err, "pipeline: parse roof yaml")
		}
	default:
		if err := json.Unmarshal(data, &roof); err != nil {
			return nil, eris.Wrap(err, "pipeline: parse roof json")
		}
	}

	if roof.Empty() {
		return nil, eris.Errorf("pipeline: roof file %s carries no roof data", path)
	}
	roof.Normalize()
	return &roof, nil
}

func mediaTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
