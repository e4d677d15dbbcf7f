// Package report renders an analysis bundle for humans and downstream tools:
// a markdown summary, a JSON export, a cash-flow CSV, and an xlsx workbook.
// Rendering never recomputes values; everything comes from the bundle.
package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sunward-group/rooftop-cli/internal/model"
)

// Summary generates the human-readable feasibility report in markdown.
func Summary(siteName string, bundle *model.AnalysisBundle) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	name := siteName
	if name == "" {
		name = "Rooftop Site"
	}
	fmt.Fprintf(&b, "# Solar Feasibility Report: %s\n", name)
	fmt.Fprintf(&b, "Generated: %s\n", time.Now().Format("2006-01-02"))
	fmt.Fprintf(&b, "Location: %.4f, %.4f\n\n", bundle.Parameters.Latitude, bundle.Parameters.Longitude)

	fmt.Fprintf(&b, "## Verdict: %s\n", bundle.Recommendation.Feasibility)
	if bundle.FallbackMode {
		b.WriteString("Note: roof characteristics estimated from defaults, not imagery.\n")
	}
	b.WriteString("\n")

	// Roof.
	roof := bundle.RoofAnalysis
	b.WriteString("## Roof\n")
	fmt.Fprintf(&b, "- Total area: %.0f m² (%.0f m² usable)\n", roof.Roof.TotalAreaSqm, roof.Roof.UsableAreaSqm)
	fmt.Fprintf(&b, "- Condition: %s (%s, %s)\n", roof.Roof.Condition, roof.Roof.Material, roof.Roof.AgeEstimate)
	fmt.Fprintf(&b, "- Orientation: %s at %.0f° tilt\n", roof.Orientation.PrimaryDirection, roof.Orientation.TiltDegrees)
	fmt.Fprintf(&b, "- Obstructions: %d\n", roof.Obstructions.PenalizedCount())
	fmt.Fprintf(&b, "- Shading impact: %s\n\n", roof.Shading.OverallImpact)

	// System.
	lay := bundle.PanelLayout
	b.WriteString("## System\n")
	fmt.Fprintf(&b, "- Panels: %d × %.0f W (%s)\n", lay.PanelCount, lay.PanelPowerRatingW, bundle.Parameters.PanelType)
	fmt.Fprintf(&b, "- System size: %.1f kW\n", lay.SystemPowerKW())
	fmt.Fprintf(&b, "- Roof coverage: %.1f%%\n", lay.RoofCoveragePct)
	fmt.Fprintf(&b, "- Layout efficiency: %.0f%%\n\n", lay.Optimization.LayoutEfficiency*100)

	// Production.
	prod := bundle.Production
	b.WriteString("## Production\n")
	p.Fprintf(&b, "- Annual production: %.0f kWh\n", prod.AnnualKWh)
	fmt.Fprintf(&b, "- Daily average: %.1f kWh\n", prod.DailyAverageKWh)
	fmt.Fprintf(&b, "- Capacity factor: %.1f%%\n", prod.CapacityFactor*100)
	fmt.Fprintf(&b, "- CO₂ offset: %.1f tons/yr\n", prod.CO2OffsetTons)
	fmt.Fprintf(&b, "- Peak sun hours: %.1f h/day\n\n", bundle.Irradiance.PeakSunHours)

	// Financials.
	fin := bundle.Financial
	b.WriteString("## Financials\n")
	p.Fprintf(&b, "- Total cost: $%.0f ($%.2f/W)\n", fin.Costs.Total, fin.Costs.PerWatt)
	p.Fprintf(&b, "- Federal tax credit: -$%.0f\n", fin.Costs.FederalTaxCredit)
	p.Fprintf(&b, "- Net cost: $%.0f\n", fin.Costs.Net)
	p.Fprintf(&b, "- Annual savings: $%.0f ($%.0f/month)\n", fin.Savings.Annual, fin.Savings.Monthly)
	if fin.Savings.SimplePayback.IsInfinite() {
		b.WriteString("- Simple payback: never\n")
	} else {
		fmt.Fprintf(&b, "- Simple payback: %.1f years\n", float64(fin.Savings.SimplePayback))
	}
	p.Fprintf(&b, "- 25-year NPV: $%.0f\n", fin.Returns.NPV)
	fmt.Fprintf(&b, "- Estimated IRR: %.1f%%\n", fin.Returns.IRRPct)
	fmt.Fprintf(&b, "- 25-year ROI: %.0f%%\n\n", fin.Returns.ROI25Pct)

	// Recommendations.
	rec := bundle.Recommendation
	if len(rec.PriorityItems) > 0 {
		b.WriteString("## Priority Items\n")
		for _, item := range rec.PriorityItems {
			fmt.Fprintf(&b, "- %s\n", item)
		}
		b.WriteString("\n")
	}
	if len(rec.Advisories) > 0 {
		b.WriteString("## Recommendations\n")
		for _, r := range rec.Advisories {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}
	b.WriteString("## Next Steps\n")
	for i, step := range rec.NextSteps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	return b.String()
}
