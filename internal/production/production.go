// Package production forecasts annual and monthly energy output for a sized
// system under an irradiance profile.
package production

import (
	"go.uber.org/zap"

	"github.com/sunward-group/rooftop-cli/internal/model"
)

// Losses holds the multiplicative system loss factors, each a fraction in
// (0,1].
type Losses struct {
	Inverter    float64
	DCWiring    float64
	ACWiring    float64
	Soiling     float64
	Temperature float64
}

// DefaultLosses returns the standard loss chain for a residential install.
func DefaultLosses() Losses {
	return Losses{
		Inverter:    0.96,
		DCWiring:    0.95,
		ACWiring:    0.98,
		Soiling:     0.95,
		Temperature: 0.90,
	}
}

// Total composes the loss chain with the caller-supplied shading adjustment.
func (l Losses) Total(shadingAdjustment float64) float64 {
	return l.Inverter * l.DCWiring * l.ACWiring * l.Soiling * l.Temperature * shadingAdjustment
}

// monthlyWeights distributes annual production across months, summer-peaked
// and winter-troughed. Shares are normalized by the weight sum so the twelve
// months always total the annual figure.
var monthlyWeights = [12]float64{0.7, 0.8, 0.9, 1.1, 1.2, 1.3, 1.3, 1.2, 1.1, 0.9, 0.7, 0.6}

var monthlyWeightSum = func() float64 {
	sum := 0.0
	for _, w := range monthlyWeights {
		sum += w
	}
	return sum
}()

// emission factor, metric tons CO₂ avoided per kWh of grid electricity
// displaced.
const co2TonsPerKWh = 0.0004

const hoursPerYear = 8760

// Forecast computes the production forecast for a system. shadingAdjustment
// is an additional derating in (0,1] for shading the imagery missed.
func Forecast(systemPowerKW float64, irr model.IrradianceProfile, shadingAdjustment float64, losses Losses) model.ProductionForecast {
	if shadingAdjustment <= 0 || shadingAdjustment > 1 {
		shadingAdjustment = 1
	}

	efficiency := losses.Total(shadingAdjustment)
	annual := systemPowerKW * irr.PeakSunHours * 365 * efficiency

	var monthly [12]float64
	for i, w := range monthlyWeights {
		monthly[i] = annual * w / monthlyWeightSum
	}

	capacityFactor := 0.0
	if systemPowerKW > 0 {
		capacityFactor = annual / (systemPowerKW * hoursPerYear)
	}

	forecast := model.ProductionForecast{
		AnnualKWh:        annual,
		MonthlyKWh:       monthly,
		DailyAverageKWh:  annual / 365,
		SystemEfficiency: efficiency,
		CapacityFactor:   capacityFactor,
		CO2OffsetTons:    annual * co2TonsPerKWh,
	}

	zap.L().Info("production: forecast computed",
		zap.Float64("system_power_kw", systemPowerKW),
		zap.Float64("peak_sun_hours", irr.PeakSunHours),
		zap.Float64("system_efficiency", efficiency),
		zap.Float64("annual_kwh", annual),
		zap.Float64("capacity_factor", capacityFactor),
	)

	return forecast
}
