package model

import (
	"encoding/json"
	"math"
)

// Years is a duration in years that may be infinite (payback never reached).
// +Inf serializes as JSON null so exported bundles stay valid JSON.
type Years float64

// IsInfinite reports whether the payback is never reached.
func (y Years) IsInfinite() bool {
	return math.IsInf(float64(y), 1)
}

func (y Years) MarshalJSON() ([]byte, error) {
	if y.IsInfinite() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(y))
}

func (y *Years) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*y = Years(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*y = Years(f)
	return nil
}

// PanelLayout is the derived panel arrangement for a roof.
type PanelLayout struct {
	PanelCount        int                `json:"total_panels"`
	PanelPowerRatingW float64            `json:"panel_power_rating"`
	TotalSystemPowerW float64            `json:"total_system_power"`
	TotalPanelAreaSqm float64            `json:"total_panel_area"`
	RoofCoveragePct   float64            `json:"roof_coverage_percentage"`
	PanelEfficiency   float64            `json:"panel_efficiency"`
	Optimization      LayoutOptimization `json:"layout_optimization"`
}

// LayoutOptimization summarizes how the theoretical maximum was reduced.
type LayoutOptimization struct {
	PanelsLostToObstructions int     `json:"panels_lost_to_obstructions"`
	ShadingMultiplier        float64 `json:"shading_reduction_factor"`
	SpacingEfficiency        float64 `json:"spacing_efficiency"`
	LayoutEfficiency         float64 `json:"layout_efficiency"`
}

// SystemPowerKW returns the system power in kilowatts.
func (l PanelLayout) SystemPowerKW() float64 {
	return l.TotalSystemPowerW / 1000
}

// IrradianceProfile is the estimated solar resource at the site.
type IrradianceProfile struct {
	AnnualIrradiance float64 `json:"annual_irradiance"` // kWh/m²/yr
	DailyAverage     float64 `json:"daily_average"`
	PeakSunHours     float64 `json:"peak_sun_hours"`
	TiltFactor       float64 `json:"tilt_factor"`
	AzimuthFactor    float64 `json:"azimuth_factor"`
}

// ProductionForecast is the annual and monthly energy production estimate.
type ProductionForecast struct {
	AnnualKWh        float64     `json:"annual_production_kwh"`
	MonthlyKWh       [12]float64 `json:"monthly_production_kwh"` // index 0 = January
	DailyAverageKWh  float64     `json:"daily_average_kwh"`
	SystemEfficiency float64     `json:"system_efficiency"`
	CapacityFactor   float64     `json:"capacity_factor"`
	CO2OffsetTons    float64     `json:"co2_offset_tons"`
}

// CostBreakdown itemizes the installed system cost.
type CostBreakdown struct {
	Equipment        float64 `json:"equipment_cost"`
	Installation     float64 `json:"installation_cost"`
	Total            float64 `json:"total_cost"`
	FederalTaxCredit float64 `json:"federal_tax_credit"`
	Net              float64 `json:"net_cost"`
	PerWatt          float64 `json:"cost_per_watt"`
}

// SavingsBreakdown summarizes energy bill savings.
type SavingsBreakdown struct {
	Annual        float64 `json:"annual_savings"`
	Monthly       float64 `json:"monthly_savings"`
	Lifetime      float64 `json:"lifetime_savings"` // cumulative over the horizon
	SimplePayback Years   `json:"simple_payback_years"`
}

// Returns holds the investment return metrics.
type Returns struct {
	NPV      float64 `json:"npv"`
	IRRPct   float64 `json:"irr"` // bounded approximation, [0,50]
	ROI25Pct float64 `json:"roi_25_year"`
}

// CashFlowYear is one row of the multi-year projection.
type CashFlowYear struct {
	Year              int     `json:"year"`
	ProductionKWh     float64 `json:"production_kwh"`
	ElectricityRate   float64 `json:"electricity_rate"`
	AnnualSavings     float64 `json:"annual_savings"`
	CumulativeSavings float64 `json:"cumulative_savings"`
	NetBenefit        float64 `json:"net_benefit"`
}

// FinancialAnalysis is the complete financial model output.
type FinancialAnalysis struct {
	Costs    CostBreakdown    `json:"costs"`
	Savings  SavingsBreakdown `json:"savings"`
	Returns  Returns          `json:"returns"`
	CashFlow []CashFlowYear   `json:"cash_flow_projection"`
}

// Verdict is the 4-point feasibility scale, ordered best to worst.
type Verdict string

const (
	VerdictHighlyRecommended   Verdict = "Highly Recommended"
	VerdictRecommended         Verdict = "Recommended"
	VerdictConsiderWithCaution Verdict = "Consider with Caution"
	VerdictNotRecommended      Verdict = "Not Recommended"
)

// Recommendation carries the feasibility verdict and advisory guidance.
type Recommendation struct {
	Advisories    []string `json:"recommendations"`
	PriorityItems []string `json:"priority_items"`
	Feasibility   Verdict  `json:"overall_feasibility"`
	NextSteps     []string `json:"next_steps"`
}

// Parameters records the caller-supplied inputs that shaped an analysis.
type Parameters struct {
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	PanelType         string  `json:"panel_type"`
	ElectricityRate   float64 `json:"electricity_rate"`
	ShadingAdjustment float64 `json:"shading_factor"`
}

// AnalysisBundle is the complete output contract: one typed structure per
// pipeline stage. Downstream formatting and export operate on this bundle
// only and never recompute values.
type AnalysisBundle struct {
	RoofAnalysis   RoofAnalysis       `json:"roof_analysis"`
	PanelLayout    PanelLayout        `json:"panel_layout"`
	Irradiance     IrradianceProfile  `json:"irradiance"`
	Production     ProductionForecast `json:"energy_production"`
	Financial      FinancialAnalysis  `json:"financial_analysis"`
	Recommendation Recommendation     `json:"recommendations"`
	Parameters     Parameters         `json:"parameters"`
	FallbackMode   bool               `json:"fallback_mode,omitempty"`
}
