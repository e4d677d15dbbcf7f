// Package layout plans the panel arrangement for a roof: how many panels
// fit once spacing, obstructions, and shading are accounted for.
package layout

import (
	"math"

	"go.uber.org/zap"

	"github.com/sunward-group/rooftop-cli/internal/config"
	"github.com/sunward-group/rooftop-cli/internal/model"
)

// shadingMultipliers maps the ordinal shading impact to a panel-count
// derating fraction.
var shadingMultipliers = map[model.ShadingImpact]float64{
	model.ShadingMinimal:     0.95,
	model.ShadingLow:         0.90,
	model.ShadingModerate:    0.80,
	model.ShadingHigh:        0.60,
	model.ShadingSignificant: 0.60,
}

// Planner computes panel layouts from roof analyses.
type Planner struct {
	cfg config.AnalysisConfig
}

// NewPlanner creates a Planner with the given layout constants.
func NewPlanner(cfg config.AnalysisConfig) *Planner {
	return &Planner{cfg: cfg}
}

// Plan derives the panel layout for a roof and panel variant.
//
// The usable area is first derated by the spacing factor (row spacing and
// edge setbacks), giving a theoretical maximum count. Each penalized
// obstruction then removes a fractional number of panels, and the remainder
// is derated by the shading multiplier. The result never goes negative.
func (p *Planner) Plan(roof model.RoofAnalysis, panel config.PanelSpec) model.PanelLayout {
	effectiveArea := roof.Roof.UsableAreaSqm * p.cfg.SpacingFactor
	maxPanels := int(math.Floor(effectiveArea / panel.AreaSqm))

	lost := p.cfg.PanelsPerObstruction * float64(roof.Obstructions.PenalizedCount())
	mult := p.shadingMultiplier(roof.Shading.OverallImpact)

	count := int(math.Floor((float64(maxPanels) - lost) * mult))
	if count < 0 {
		count = 0
	}

	coverage := 0.0
	if roof.Roof.UsableAreaSqm > 0 {
		coverage = float64(count) * panel.AreaSqm / roof.Roof.UsableAreaSqm * 100
	}

	// Layout efficiency is actual over theoretical max; 0 when nothing fits.
	efficiency := 0.0
	if maxPanels > 0 {
		efficiency = float64(count) / float64(maxPanels)
	}

	result := model.PanelLayout{
		PanelCount:        count,
		PanelPowerRatingW: panel.PowerRatingW,
		TotalSystemPowerW: float64(count) * panel.PowerRatingW,
		TotalPanelAreaSqm: float64(count) * panel.AreaSqm,
		RoofCoveragePct:   coverage,
		PanelEfficiency:   panel.Efficiency,
		Optimization: model.LayoutOptimization{
			PanelsLostToObstructions: int(lost),
			ShadingMultiplier:        mult,
			SpacingEfficiency:        p.cfg.SpacingFactor,
			LayoutEfficiency:         efficiency,
		},
	}

	zap.L().Info("layout: panel plan computed",
		zap.Float64("usable_area_sqm", roof.Roof.UsableAreaSqm),
		zap.Int("max_panels", maxPanels),
		zap.Float64("panels_lost_to_obstructions", lost),
		zap.Float64("shading_multiplier", mult),
		zap.Int("panel_count", count),
		zap.Float64("system_power_w", result.TotalSystemPowerW),
	)

	return result
}

// shadingMultiplier resolves the ordinal shading impact to a derating
// fraction, using the configured conservative default for values the vision
// collaborator invents.
func (p *Planner) shadingMultiplier(impact model.ShadingImpact) float64 {
	if m, ok := shadingMultipliers[impact]; ok {
		return m
	}
	return p.cfg.DefaultShadingMultiplier
}
