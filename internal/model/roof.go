// Package model defines the shared data structures passed between the
// analysis pipeline stages.
package model

// Rating is the ordinal quality scale used for roof condition and overall
// solar suitability.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingGood      Rating = "good"
	RatingFair      Rating = "fair"
	RatingPoor      Rating = "poor"
)

// ShadingImpact is the qualitative shading severity reported by the vision
// collaborator.
type ShadingImpact string

const (
	ShadingNone        ShadingImpact = "none"
	ShadingMinimal     ShadingImpact = "minimal"
	ShadingLow         ShadingImpact = "low"
	ShadingModerate    ShadingImpact = "moderate"
	ShadingHigh        ShadingImpact = "high"
	ShadingSignificant ShadingImpact = "significant"
)

// CompassDirection is the primary roof orientation.
type CompassDirection string

// directionAzimuths maps compass directions to azimuth degrees (0=N, 180=S).
var directionAzimuths = map[CompassDirection]float64{
	"north":     0,
	"northeast": 45,
	"east":      90,
	"southeast": 135,
	"south":     180,
	"southwest": 225,
	"west":      270,
	"northwest": 315,
}

// Azimuth converts the direction to degrees. Unrecognized directions default
// to south (180), the conservative assumption for the northern hemisphere.
func (d CompassDirection) Azimuth() float64 {
	if az, ok := directionAzimuths[d]; ok {
		return az
	}
	return 180
}

// RoofStructure describes the physical roof surface.
type RoofStructure struct {
	TotalAreaSqm  float64 `json:"roof_area_sqm" yaml:"roof_area_sqm"`
	UsableAreaSqm float64 `json:"usable_area_sqm" yaml:"usable_area_sqm"`
	Shape         string  `json:"roof_shape" yaml:"roof_shape"`
	Material      string  `json:"roof_material" yaml:"roof_material"`
	Condition     Rating  `json:"roof_condition" yaml:"roof_condition"`
	AgeEstimate   string  `json:"roof_age_estimate" yaml:"roof_age_estimate"`
}

// Orientation describes the roof's facing and tilt.
type Orientation struct {
	PrimaryDirection     CompassDirection `json:"primary_roof_direction" yaml:"primary_roof_direction"`
	TiltDegrees          float64          `json:"roof_tilt_estimate" yaml:"roof_tilt_estimate"`
	MultipleOrientations bool             `json:"multiple_orientations" yaml:"multiple_orientations"`
	OptimalSections      []string         `json:"optimal_sections,omitempty" yaml:"optimal_sections,omitempty"`
}

// Obstructions counts rooftop features that displace panels.
type Obstructions struct {
	Chimneys        int      `json:"chimneys" yaml:"chimneys"`
	Vents           int      `json:"vents" yaml:"vents"`
	Skylights       int      `json:"skylights" yaml:"skylights"`
	HVACUnits       int      `json:"hvac_units" yaml:"hvac_units"`
	SatelliteDishes int      `json:"satellite_dishes" yaml:"satellite_dishes"`
	Other           []string `json:"other_obstructions,omitempty" yaml:"other_obstructions,omitempty"`
}

// PenalizedCount returns the obstruction count that reduces panel capacity.
// Satellite dishes and "other" are excluded: they sit at roof edges or can be
// relocated, so they don't displace panel rows.
func (o Obstructions) PenalizedCount() int {
	return o.Chimneys + o.Vents + o.Skylights + o.HVACUnits
}

// Shading summarizes shading sources and their combined impact.
type Shading struct {
	NearbyTrees          ShadingImpact `json:"nearby_trees" yaml:"nearby_trees"`
	NeighboringBuildings ShadingImpact `json:"neighboring_buildings" yaml:"neighboring_buildings"`
	SelfShading          ShadingImpact `json:"self_shading" yaml:"self_shading"`
	OverallImpact        ShadingImpact `json:"overall_shading_impact" yaml:"overall_shading_impact"`
}

// Access describes installation logistics observed from imagery.
type Access struct {
	Accessibility          string `json:"roof_accessibility" yaml:"roof_accessibility"`
	StructuralConcerns     string `json:"structural_concerns" yaml:"structural_concerns"`
	ElectricalPanelVisible bool   `json:"electrical_panel_visible" yaml:"electrical_panel_visible"`
	InstallationComplexity string `json:"installation_complexity" yaml:"installation_complexity"`
}

// Suitability is the vision collaborator's overall judgment.
type Suitability struct {
	OverallRating   Rating   `json:"overall_rating" yaml:"overall_rating"`
	ConfidenceScore float64  `json:"confidence_score" yaml:"confidence_score"`
	KeyAdvantages   []string `json:"key_advantages,omitempty" yaml:"key_advantages,omitempty"`
	KeyChallenges   []string `json:"key_challenges,omitempty" yaml:"key_challenges,omitempty"`
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// RoofAnalysis is the structured rooftop description produced by the vision
// collaborator. It is immutable once handed to the pipeline.
type RoofAnalysis struct {
	Roof         RoofStructure `json:"roof_analysis" yaml:"roof_analysis"`
	Orientation  Orientation   `json:"orientation_analysis" yaml:"orientation_analysis"`
	Obstructions Obstructions  `json:"obstructions" yaml:"obstructions"`
	Shading      Shading       `json:"shading_analysis" yaml:"shading_analysis"`
	Access       Access        `json:"access_and_installation" yaml:"access_and_installation"`
	Suitability  Suitability   `json:"solar_suitability" yaml:"solar_suitability"`
}

// Default returns the canonical fallback RoofAnalysis used whenever the
// vision collaborator is unavailable or returns a malformed payload. Values
// describe a typical suburban residential roof.
func Default() RoofAnalysis {
	return RoofAnalysis{
		Roof: RoofStructure{
			TotalAreaSqm:  150,
			UsableAreaSqm: 120,
			Shape:         "rectangular",
			Material:      "asphalt_shingles",
			Condition:     RatingGood,
			AgeEstimate:   "10-20_years",
		},
		Orientation: Orientation{
			PrimaryDirection: "south",
			TiltDegrees:      30,
			OptimalSections:  []string{"main_roof"},
		},
		Obstructions: Obstructions{
			Chimneys:  1,
			Vents:     3,
			Skylights: 0,
			HVACUnits: 1,
		},
		Shading: Shading{
			NearbyTrees:          ShadingMinimal,
			NeighboringBuildings: ShadingMinimal,
			SelfShading:          ShadingNone,
			OverallImpact:        ShadingLow,
		},
		Access: Access{
			Accessibility:          "moderate",
			StructuralConcerns:     "minor",
			ElectricalPanelVisible: true,
			InstallationComplexity: "moderate",
		},
		Suitability: Suitability{
			OverallRating:   RatingGood,
			ConfidenceScore: 0.7,
			KeyAdvantages:   []string{"Good roof area", "South-facing orientation"},
			KeyChallenges:   []string{"Some obstructions present"},
			Recommendations: []string{"Professional site assessment recommended"},
		},
	}
}

// Normalize clamps out-of-range values in place so downstream stages can rely
// on the documented invariants. It never rejects the analysis: upstream shape
// problems degrade, they don't fail.
func (a *RoofAnalysis) Normalize() {
	if a.Roof.TotalAreaSqm < 0 {
		a.Roof.TotalAreaSqm = 0
	}
	if a.Roof.UsableAreaSqm < 0 {
		a.Roof.UsableAreaSqm = 0
	}
	if a.Roof.UsableAreaSqm > a.Roof.TotalAreaSqm {
		a.Roof.UsableAreaSqm = a.Roof.TotalAreaSqm
	}

	if a.Orientation.TiltDegrees < 0 {
		a.Orientation.TiltDegrees = 0
	}
	if a.Orientation.TiltDegrees > 90 {
		a.Orientation.TiltDegrees = 90
	}

	clampCount(&a.Obstructions.Chimneys)
	clampCount(&a.Obstructions.Vents)
	clampCount(&a.Obstructions.Skylights)
	clampCount(&a.Obstructions.HVACUnits)
	clampCount(&a.Obstructions.SatelliteDishes)

	if a.Suitability.ConfidenceScore < 0 {
		a.Suitability.ConfidenceScore = 0
	}
	if a.Suitability.ConfidenceScore > 1 {
		a.Suitability.ConfidenceScore = 1
	}
}

func clampCount(n *int) {
	if *n < 0 {
		*n = 0
	}
}

// Empty reports whether the analysis carries no usable roof data, which
// happens when the vision response parsed as JSON but missed every field.
func (a RoofAnalysis) Empty() bool {
	return a.Roof.TotalAreaSqm == 0 && a.Roof.UsableAreaSqm == 0
}
