// Package irradiance estimates the annual solar resource at a site from its
// latitude and the panel orientation.
package irradiance

import (
	"math"

	"go.uber.org/zap"

	"github.com/sunward-group/rooftop-cli/internal/model"
)

// Estimator produces an irradiance profile for a site and panel
// orientation. The default implementation is a coarse latitude-band model;
// the pipeline depends on this interface so a full sky/clearness model can
// replace it without touching downstream stages.
type Estimator interface {
	Estimate(latitude, tiltDegrees, azimuthDegrees float64) model.IrradianceProfile
}

// LatitudeModel approximates annual irradiance from the site latitude alone,
// then derates for tilt and azimuth deviation from optimal.
type LatitudeModel struct{}

// NewLatitudeModel creates the latitude-band estimator.
func NewLatitudeModel() *LatitudeModel {
	return &LatitudeModel{}
}

// Estimate computes the irradiance profile for the given site and panel
// orientation. The formula is total: every numeric input yields a profile.
func (m *LatitudeModel) Estimate(latitude, tiltDegrees, azimuthDegrees float64) model.IrradianceProfile {
	base := baseIrradiance(latitude)

	// Optimal tilt approximately equals the site latitude. The 0.1 floor
	// keeps the factor positive even for a vertical panel at the equator.
	optimalTilt := math.Abs(latitude)
	tiltFactor := math.Cos(radians(math.Abs(tiltDegrees-optimalTilt)))*0.9 + 0.1

	// South-facing (180°) is optimal in the northern hemisphere convention.
	// The floor keeps the factor positive for north-facing roofs, where the
	// raw cosine term goes negative.
	azimuthFactor := math.Cos(radians(math.Abs(azimuthDegrees-180)))*0.8 + 0.2
	if azimuthFactor < 0.2 {
		azimuthFactor = 0.2
	}

	annual := base * tiltFactor * azimuthFactor

	profile := model.IrradianceProfile{
		AnnualIrradiance: annual,
		DailyAverage:     annual / 365,
		PeakSunHours:     annual / 1000,
		TiltFactor:       tiltFactor,
		AzimuthFactor:    azimuthFactor,
	}

	zap.L().Debug("irradiance: profile estimated",
		zap.Float64("latitude", latitude),
		zap.Float64("tilt", tiltDegrees),
		zap.Float64("azimuth", azimuthDegrees),
		zap.Float64("annual_irradiance", annual),
		zap.Float64("peak_sun_hours", profile.PeakSunHours),
	)

	return profile
}

// baseIrradiance returns the annual irradiance for the latitude band
// (kWh/m²/yr).
func baseIrradiance(latitude float64) float64 {
	abs := math.Abs(latitude)
	switch {
	case abs < 25: // tropical
		return 2000
	case abs < 35: // subtropical
		return 1800
	case abs < 45: // temperate
		return 1600
	default:
		return 1400
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
