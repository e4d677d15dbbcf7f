package report

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sunward-group/rooftop-cli/internal/model"
)

// WriteJSON writes the full bundle as indented JSON.
func WriteJSON(w io.Writer, bundle *model.AnalysisBundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(bundle); err != nil {
		return eris.Wrap(err, "report: encode json")
	}
	return nil
}

var cashFlowHeader = []string{
	"year", "production_kwh", "electricity_rate", "annual_savings", "cumulative_savings", "net_benefit",
}

// WriteCashFlowCSV writes the year-by-year projection as CSV.
func WriteCashFlowCSV(w io.Writer, bundle *model.AnalysisBundle) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(cashFlowHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, cf := range bundle.Financial.CashFlow {
		row := []string{
			strconv.Itoa(cf.Year),
			strconv.FormatFloat(cf.ProductionKWh, 'f', 1, 64),
			strconv.FormatFloat(cf.ElectricityRate, 'f', 4, 64),
			strconv.FormatFloat(cf.AnnualSavings, 'f', 2, 64),
			strconv.FormatFloat(cf.CumulativeSavings, 'f', 2, 64),
			strconv.FormatFloat(cf.NetBenefit, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	return nil
}

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// WriteWorkbook saves an xlsx workbook with Summary, Monthly Production, and
// Cash Flow sheets.
func WriteWorkbook(path string, siteName string, bundle *model.AnalysisBundle) error {
	f := xlsx.NewFile()

	if err := addSummarySheet(f, siteName, bundle); err != nil {
		return err
	}
	if err := addMonthlySheet(f, bundle); err != nil {
		return err
	}
	if err := addCashFlowSheet(f, bundle); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "report: save workbook %s", path)
	}
	return nil
}

func addSummarySheet(f *xlsx.File, siteName string, bundle *model.AnalysisBundle) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	addPair := func(label string, value interface{}) {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		cell := row.AddCell()
		switch v := value.(type) {
		case string:
			cell.SetString(v)
		case int:
			cell.SetInt(v)
		case float64:
			cell.SetFloat(v)
		}
	}

	fin := bundle.Financial
	addPair("Site", siteName)
	addPair("Feasibility", string(bundle.Recommendation.Feasibility))
	addPair("Panel count", bundle.PanelLayout.PanelCount)
	addPair("System power (kW)", bundle.PanelLayout.SystemPowerKW())
	addPair("Annual production (kWh)", bundle.Production.AnnualKWh)
	addPair("Total cost ($)", fin.Costs.Total)
	addPair("Net cost ($)", fin.Costs.Net)
	addPair("Annual savings ($)", fin.Savings.Annual)
	if fin.Savings.SimplePayback.IsInfinite() {
		addPair("Payback (years)", "never")
	} else {
		addPair("Payback (years)", float64(fin.Savings.SimplePayback))
	}
	addPair("NPV ($)", fin.Returns.NPV)
	addPair("IRR (%)", fin.Returns.IRRPct)
	addPair("25-year ROI (%)", fin.Returns.ROI25Pct)

	return nil
}

func addMonthlySheet(f *xlsx.File, bundle *model.AnalysisBundle) error {
	sheet, err := f.AddSheet("Monthly Production")
	if err != nil {
		return eris.Wrap(err, "report: add monthly sheet")
	}

	header := sheet.AddRow()
	header.AddCell().SetString("Month")
	header.AddCell().SetString("Production (kWh)")

	for i, kwh := range bundle.Production.MonthlyKWh {
		row := sheet.AddRow()
		row.AddCell().SetString(monthNames[i])
		row.AddCell().SetFloat(kwh)
	}

	return nil
}

func addCashFlowSheet(f *xlsx.File, bundle *model.AnalysisBundle) error {
	sheet, err := f.AddSheet("Cash Flow")
	if err != nil {
		return eris.Wrap(err, "report: add cash flow sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Year", "Production (kWh)", "Rate ($/kWh)", "Savings ($)", "Cumulative ($)", "Net Benefit ($)"} {
		header.AddCell().SetString(h)
	}

	for _, cf := range bundle.Financial.CashFlow {
		row := sheet.AddRow()
		row.AddCell().SetInt(cf.Year)
		row.AddCell().SetFloat(cf.ProductionKWh)
		row.AddCell().SetFloat(cf.ElectricityRate)
		row.AddCell().SetFloat(cf.AnnualSavings)
		row.AddCell().SetFloat(cf.CumulativeSavings)
		row.AddCell().SetFloat(cf.NetBenefit)
	}

	return nil
}
