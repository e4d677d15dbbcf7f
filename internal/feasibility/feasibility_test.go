package feasibility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunward-group/rooftop-cli/internal/model"
)

func TestFeasibilityVerdicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rating  model.Rating
		payback float64
		want    model.Verdict
	}{
		{"excellent roof fast payback", model.RatingExcellent, 5, model.VerdictHighlyRecommended},
		{"good roof fast payback", model.RatingGood, 5, model.VerdictHighlyRecommended},
		{"good roof good payback", model.RatingGood, 8, model.VerdictRecommended},
		{"fair roof moderate payback", model.RatingFair, 12, model.VerdictConsiderWithCaution},
		{"poor roof slow payback", model.RatingPoor, 20, model.VerdictNotRecommended},
		{"poor roof fast payback", model.RatingPoor, 5, model.VerdictRecommended},
		{"infinite payback good roof", model.RatingGood, math.Inf(1), model.VerdictConsiderWithCaution},
		{"unrecognized rating scores as fair", model.Rating("pristine"), 8, model.VerdictRecommended},
		{"boundary payback 7 drops a bucket", model.RatingGood, 7, model.VerdictRecommended},
		{"boundary score 3.5 inclusive", model.RatingExcellent, 9, model.VerdictHighlyRecommended},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, feasibility(tt.rating, tt.payback))
		})
	}
}

// verdictRank orders verdicts worst to best for monotonicity checks.
var verdictRank = map[model.Verdict]int{
	model.VerdictNotRecommended:      0,
	model.VerdictConsiderWithCaution: 1,
	model.VerdictRecommended:         2,
	model.VerdictHighlyRecommended:   3,
}

func TestFeasibilityMonotonic(t *testing.T) {
	t.Parallel()

	ratings := []model.Rating{model.RatingPoor, model.RatingFair, model.RatingGood, model.RatingExcellent}
	paybacks := []float64{20, 12, 8, 5}

	// A better roof never yields a worse verdict at fixed payback.
	for _, payback := range paybacks {
		prev := -1
		for _, rating := range ratings {
			rank := verdictRank[feasibility(rating, payback)]
			assert.GreaterOrEqual(t, rank, prev)
			prev = rank
		}
	}

	// A faster payback never yields a worse verdict at fixed rating.
	for _, rating := range ratings {
		prev := -1
		for _, payback := range paybacks {
			rank := verdictRank[feasibility(rating, payback)]
			assert.GreaterOrEqual(t, rank, prev)
			prev = rank
		}
	}
}

func finWithPayback(years float64) model.FinancialAnalysis {
	var fa model.FinancialAnalysis
	fa.Savings.SimplePayback = model.Years(years)
	return fa
}

func layWithKW(kw float64) model.PanelLayout {
	return model.PanelLayout{TotalSystemPowerW: kw * 1000}
}

func TestAssessAdvisoryRules(t *testing.T) {
	t.Parallel()

	t.Run("poor condition flags roof priority", func(t *testing.T) {
		t.Parallel()
		roof := model.Default()
		roof.Roof.Condition = model.RatingPoor

		rec := Assess(roof, finWithPayback(8), layWithKW(5))

		assert.Contains(t, rec.PriorityItems, "roof_condition")
		assert.Contains(t, rec.Advisories, "Consider roof repairs or replacement before solar installation")
	})

	t.Run("moderate shading emits both shading advisories", func(t *testing.T) {
		t.Parallel()
		roof := model.Default()
		roof.Shading.OverallImpact = model.ShadingModerate

		rec := Assess(roof, finWithPayback(8), layWithKW(5))

		assert.Contains(t, rec.Advisories, "Consider tree trimming or removal to reduce shading")
		assert.Contains(t, rec.Advisories, "Evaluate micro-inverters or power optimizers for shaded areas")
	})

	t.Run("significant shading treated like high", func(t *testing.T) {
		t.Parallel()
		roof := model.Default()
		roof.Shading.OverallImpact = model.ShadingSignificant

		rec := Assess(roof, finWithPayback(8), layWithKW(5))

		assert.Contains(t, rec.Advisories, "Consider tree trimming or removal to reduce shading")
		assert.Contains(t, rec.Advisories, "Evaluate micro-inverters or power optimizers for shaded areas")
	})

	t.Run("small system advisory", func(t *testing.T) {
		t.Parallel()
		rec := Assess(model.Default(), finWithPayback(8), layWithKW(2))
		assert.Contains(t, rec.Advisories, "Small system size - consider if it meets your energy needs")
	})

	t.Run("large system advisory", func(t *testing.T) {
		t.Parallel()
		rec := Assess(model.Default(), finWithPayback(8), layWithKW(15))
		assert.Contains(t, rec.Advisories, "Large system - verify electrical panel capacity")
	})

	t.Run("rules are additive", func(t *testing.T) {
		t.Parallel()
		roof := model.Default()
		roof.Roof.Condition = model.RatingFair
		roof.Shading.OverallImpact = model.ShadingHigh

		rec := Assess(roof, finWithPayback(20), layWithKW(15))

		// condition + 2 shading + payback tier + size check
		require.Len(t, rec.Advisories, 5)
		assert.Contains(t, rec.Advisories, "Long payback period - may not be financially optimal")
	})

	t.Run("next steps always attached", func(t *testing.T) {
		t.Parallel()
		rec := Assess(model.Default(), finWithPayback(8), layWithKW(5))
		require.Len(t, rec.NextSteps, 5)
		assert.Equal(t, "Get professional site assessment", rec.NextSteps[0])
	})
}
