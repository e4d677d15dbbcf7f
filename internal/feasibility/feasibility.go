// Package feasibility turns a roof rating and a financial analysis into an
// overall verdict with advisory guidance.
package feasibility

import (
	"go.uber.org/zap"

	"github.com/sunward-group/rooftop-cli/internal/model"
)

// roofScores maps the vision collaborator's rating to an ordinal score.
// Unrecognized ratings score as fair.
var roofScores = map[model.Rating]int{
	model.RatingExcellent: 4,
	model.RatingGood:      3,
	model.RatingFair:      2,
	model.RatingPoor:      1,
}

// nextSteps is the fixed checklist attached to every recommendation.
var nextSteps = []string{
	"Get professional site assessment",
	"Obtain multiple installer quotes",
	"Check local permitting requirements",
	"Verify utility net metering policies",
	"Consider financing options",
}

// Assess produces the recommendation for an analyzed roof. Each advisory
// rule fires independently; none suppresses another.
func Assess(roof model.RoofAnalysis, fin model.FinancialAnalysis, lay model.PanelLayout) model.Recommendation {
	var advisories []string
	var priorities []string

	if roof.Roof.Condition == model.RatingPoor || roof.Roof.Condition == model.RatingFair {
		advisories = append(advisories, "Consider roof repairs or replacement before solar installation")
		priorities = append(priorities, "roof_condition")
	}

	if heavyShading(roof.Shading.OverallImpact) {
		advisories = append(advisories,
			"Consider tree trimming or removal to reduce shading",
			"Evaluate micro-inverters or power optimizers for shaded areas",
		)
	}

	payback := float64(fin.Savings.SimplePayback)
	switch {
	case payback < 7:
		advisories = append(advisories, "Excellent financial return - highly recommended")
	case payback < 10:
		advisories = append(advisories, "Good financial return - recommended")
	case payback < 15:
		advisories = append(advisories, "Moderate return - consider if environmental benefits are important")
	default:
		advisories = append(advisories, "Long payback period - may not be financially optimal")
	}

	systemKW := lay.SystemPowerKW()
	if systemKW < 3 {
		advisories = append(advisories, "Small system size - consider if it meets your energy needs")
	} else if systemKW > 10 {
		advisories = append(advisories, "Large system - verify electrical panel capacity")
	}

	verdict := feasibility(roof.Suitability.OverallRating, payback)

	zap.L().Info("feasibility: assessment computed",
		zap.String("roof_rating", string(roof.Suitability.OverallRating)),
		zap.Float64("payback_years", payback),
		zap.String("verdict", string(verdict)),
		zap.Int("advisories", len(advisories)),
	)

	return model.Recommendation{
		Advisories:    advisories,
		PriorityItems: priorities,
		Feasibility:   verdict,
		NextSteps:     nextSteps,
	}
}

// heavyShading reports whether the overall impact warrants mitigation
// advisories. High and significant sit at the same severity level.
func heavyShading(impact model.ShadingImpact) bool {
	switch impact {
	case model.ShadingModerate, model.ShadingHigh, model.ShadingSignificant:
		return true
	default:
		return false
	}
}

// feasibility combines the roof and financial scores into the verdict.
// Bucket lower bounds are inclusive; an infinite payback lands in the
// lowest financial bucket.
func feasibility(rating model.Rating, paybackYears float64) model.Verdict {
	roofScore, ok := roofScores[rating]
	if !ok {
		roofScore = 2
	}

	var financialScore int
	switch {
	case paybackYears < 7:
		financialScore = 4
	case paybackYears < 10:
		financialScore = 3
	case paybackYears < 15:
		financialScore = 2
	default:
		financialScore = 1
	}

	score := float64(roofScore+financialScore) / 2
	switch {
	case score >= 3.5:
		return model.VerdictHighlyRecommended
	case score >= 2.5:
		return model.VerdictRecommended
	case score >= 1.5:
		return model.VerdictConsiderWithCaution
	default:
		return model.VerdictNotRecommended
	}
}
