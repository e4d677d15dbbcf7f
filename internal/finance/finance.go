// Package finance models the cost, savings, and investment returns of a
// solar installation over a 25-year horizon.
package finance

import (
	"math"

	"go.uber.org/zap"

	"github.com/sunward-group/rooftop-cli/internal/config"
	"github.com/sunward-group/rooftop-cli/internal/model"
)

// horizonYears is the projection length. The panel warranty period sets it.
const horizonYears = 25

// Modeler computes financial analyses from immutable cost and rate
// configuration.
type Modeler struct {
	install config.InstallationConfig
	fin     config.FinancialConfig
}

// NewModeler creates a Modeler. The configs are copied by value and must not
// change for the lifetime of the Modeler.
func NewModeler(install config.InstallationConfig, fin config.FinancialConfig) *Modeler {
	return &Modeler{install: install, fin: fin}
}

// Analyze produces the complete financial model for a sized system. Every
// division is guarded: zero or negative savings and investments produce
// sentinel values (+Inf payback, 0 IRR), never errors.
func (m *Modeler) Analyze(systemPowerKW, annualProductionKWh float64, panel config.PanelSpec) model.FinancialAnalysis {
	systemPowerW := systemPowerKW * 1000

	equipment := systemPowerW * panel.CostPerWatt
	installation := systemPowerW*(m.install.BaseCostPerWatt+m.install.InverterCostPerWatt) +
		m.install.ElectricalCost +
		m.install.PermitCost +
		m.install.InspectionCost +
		systemPowerKW*m.install.InstallHoursPerKW*m.install.LaborCostPerHour

	total := equipment + installation
	credit := total * m.fin.FederalTaxCredit
	netCost := total - credit

	perWatt := 0.0
	if systemPowerW > 0 {
		perWatt = total / systemPowerW
	}

	annualSavings := annualProductionKWh * m.fin.ElectricityRate

	payback := model.Years(math.Inf(1))
	if annualSavings > 0 {
		payback = model.Years(netCost / annualSavings)
	}

	cashFlow := m.project(annualProductionKWh, netCost)
	cumulative := cashFlow[len(cashFlow)-1].CumulativeSavings

	npv := -netCost
	for _, cf := range cashFlow {
		npv += cf.AnnualSavings / math.Pow(1+m.fin.DiscountRate, float64(cf.Year))
	}

	roi := 0.0
	if netCost > 0 {
		roi = (cumulative - netCost) / netCost * 100
	}

	analysis := model.FinancialAnalysis{
		Costs: model.CostBreakdown{
			Equipment:        equipment,
			Installation:     installation,
			Total:            total,
			FederalTaxCredit: credit,
			Net:              netCost,
			PerWatt:          perWatt,
		},
		Savings: model.SavingsBreakdown{
			Annual:        annualSavings,
			Monthly:       annualSavings / 12,
			Lifetime:      cumulative,
			SimplePayback: payback,
		},
		Returns: model.Returns{
			NPV:      npv,
			IRRPct:   approximateIRR(netCost, cashFlow),
			ROI25Pct: roi,
		},
		CashFlow: cashFlow,
	}

	zap.L().Info("finance: analysis computed",
		zap.Float64("system_power_kw", systemPowerKW),
		zap.Float64("net_cost", netCost),
		zap.Float64("annual_savings", annualSavings),
		zap.Float64("payback_years", float64(payback)),
		zap.Float64("npv", npv),
		zap.Float64("irr_pct", analysis.Returns.IRRPct),
	)

	return analysis
}

// project simulates the full horizon year by year: the electricity rate
// escalates and the system output degrades, both compounding from year 1.
func (m *Modeler) project(annualProductionKWh, netCost float64) []model.CashFlowYear {
	cashFlow := make([]model.CashFlowYear, 0, horizonYears)
	cumulative := 0.0

	for year := 1; year <= horizonYears; year++ {
		rate := m.fin.ElectricityRate * math.Pow(1+m.fin.AnnualRateIncrease, float64(year-1))
		production := annualProductionKWh * math.Pow(1-m.fin.SystemDegradation, float64(year-1))
		savings := production * rate
		cumulative += savings

		cashFlow = append(cashFlow, model.CashFlowYear{
			Year:              year,
			ProductionKWh:     production,
			ElectricityRate:   rate,
			AnnualSavings:     savings,
			CumulativeSavings: cumulative,
			NetBenefit:        cumulative - netCost,
		})
	}

	return cashFlow
}

// approximateIRR is a deliberately bounded proxy for the internal rate of
// return: average annual cash flow over the initial investment, as a
// percentage clamped to [0, 50]. It is not a discounted-cash-flow root and
// must not be replaced with one without a version flag; callers rely on the
// bounded output range.
func approximateIRR(netCost float64, cashFlow []model.CashFlowYear) float64 {
	if netCost <= 0 || len(cashFlow) == 0 {
		return 0
	}

	total := 0.0
	for _, cf := range cashFlow {
		total += cf.AnnualSavings
	}
	average := total / float64(len(cashFlow))

	irr := average / netCost * 100
	return math.Min(math.Max(irr, 0), 50)
}
