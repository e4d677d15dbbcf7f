package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunward-group/rooftop-cli/internal/config"
	"github.com/sunward-group/rooftop-cli/internal/model"
	"github.com/sunward-group/rooftop-cli/pkg/geocode"
)

// fakeVision returns a canned analysis or error without any network calls.
type fakeVision struct {
	analysis *model.RoofAnalysis
	err      error
	calls    int
}

func (f *fakeVision) AnalyzeRooftop(_ context.Context, _ []byte, _ string) (*model.RoofAnalysis, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.analysis, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	return cfg
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestRunWithDefaultRoof(t *testing.T) {
	p := New(testConfig(t), nil)

	bundle, err := p.Run(context.Background(), model.Site{Name: "test-site"})
	require.NoError(t, err)

	// No image and no roof file: canonical default roof, flagged as fallback.
	assert.True(t, bundle.FallbackMode)
	assert.Equal(t, model.Default(), bundle.RoofAnalysis)
	assert.Equal(t, 43, bundle.PanelLayout.PanelCount)
	assert.Equal(t, 17200.0, bundle.PanelLayout.TotalSystemPowerW)
	assert.InDelta(t, 1587, bundle.Irradiance.AnnualIrradiance, 1)
	assert.Greater(t, bundle.Production.AnnualKWh, 0.0)
	require.Len(t, bundle.Financial.CashFlow, 25)
	assert.NotEmpty(t, bundle.Recommendation.Feasibility)

	assert.Equal(t, 37.7749, bundle.Parameters.Latitude)
	assert.Equal(t, "standard_residential", bundle.Parameters.PanelType)
	assert.Equal(t, 0.13, bundle.Parameters.ElectricityRate)
}

func TestRunWithVisionAnalysis(t *testing.T) {
	roof := model.Default()
	roof.Roof.UsableAreaSqm = 90
	roof.Suitability.OverallRating = model.RatingExcellent

	vis := &fakeVision{analysis: &roof}
	p := New(testConfig(t), vis)

	image := writeTempFile(t, "roof.png", []byte("not-a-real-png"))
	bundle, err := p.Run(context.Background(), model.Site{Name: "imaged", ImagePath: image})
	require.NoError(t, err)

	assert.Equal(t, 1, vis.calls)
	assert.False(t, bundle.FallbackMode)
	assert.Equal(t, 90.0, bundle.RoofAnalysis.Roof.UsableAreaSqm)
}

func TestRunVisionFailureFallsBackToDefault(t *testing.T) {
	vis := &fakeVision{err: eris.New("vision: no JSON object in response")}
	p := New(testConfig(t), vis)

	image := writeTempFile(t, "roof.jpg", []byte("junk"))
	bundle, err := p.Run(context.Background(), model.Site{Name: "degraded", ImagePath: image})
	require.NoError(t, err)

	assert.Equal(t, 1, vis.calls)
	assert.True(t, bundle.FallbackMode)
	assert.Equal(t, model.Default(), bundle.RoofAnalysis)
}

func TestRunMissingImageFallsBack(t *testing.T) {
	vis := &fakeVision{analysis: &model.RoofAnalysis{}}
	p := New(testConfig(t), vis)

	bundle, err := p.Run(context.Background(), model.Site{ImagePath: "/nonexistent/roof.jpg"})
	require.NoError(t, err)

	assert.Zero(t, vis.calls)
	assert.True(t, bundle.FallbackMode)
}

func TestRunWithRoofFile(t *testing.T) {
	roof := model.Default()
	roof.Roof.UsableAreaSqm = 60
	data, err := json.Marshal(roof)
	require.NoError(t, err)

	path := writeTempFile(t, "roof.json", data)
	p := New(testConfig(t), nil)

	bundle, err := p.Run(context.Background(), model.Site{RoofFile: path})
	require.NoError(t, err)

	assert.False(t, bundle.FallbackMode)
	assert.Equal(t, 60.0, bundle.RoofAnalysis.Roof.UsableAreaSqm)
}

func TestRunWithYAMLRoofFile(t *testing.T) {
	yamlRoof := `
roof_analysis:
  roof_area_sqm: 110
  usable_area_sqm: 95
  roof_condition: good
orientation_analysis:
  primary_roof_direction: southeast
  roof_tilt_estimate: 20
shading_analysis:
  overall_shading_impact: minimal
solar_suitability:
  overall_rating: good
  confidence_score: 0.8
`
	path := writeTempFile(t, "roof.yaml", []byte(yamlRoof))
	p := New(testConfig(t), nil)

	bundle, err := p.Run(context.Background(), model.Site{RoofFile: path})
	require.NoError(t, err)

	assert.False(t, bundle.FallbackMode)
	assert.Equal(t, 95.0, bundle.RoofAnalysis.Roof.UsableAreaSqm)
	assert.Equal(t, 135.0, bundle.RoofAnalysis.Orientation.PrimaryDirection.Azimuth())
}

func TestRunMalformedRoofFileFallsBack(t *testing.T) {
	path := writeTempFile(t, "roof.json", []byte(`{"roof_analysis": broken`))
	p := New(testConfig(t), nil)

	bundle, err := p.Run(context.Background(), model.Site{RoofFile: path})
	require.NoError(t, err)

	assert.True(t, bundle.FallbackMode)
	assert.Equal(t, model.Default(), bundle.RoofAnalysis)
}

func TestRunSiteOverrides(t *testing.T) {
	cfg := testConfig(t)
	p := New(cfg, nil)

	bundle, err := p.Run(context.Background(), model.Site{
		Latitude:          10,
		Longitude:         -66,
		PanelType:         "premium",
		ElectricityRate:   0.25,
		ShadingAdjustment: 0.8,
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, bundle.Parameters.Latitude)
	assert.Equal(t, -66.0, bundle.Parameters.Longitude)
	assert.Equal(t, "premium", bundle.Parameters.PanelType)
	assert.Equal(t, 0.25, bundle.Parameters.ElectricityRate)
	assert.Equal(t, 0.8, bundle.Parameters.ShadingAdjustment)
	assert.Equal(t, 500.0, bundle.PanelLayout.PanelPowerRatingW)

	// Overrides never leak back into the shared config.
	assert.Equal(t, 0.13, cfg.Financial.ElectricityRate)

	// Year-one cash flow uses the overridden rate.
	require.NotEmpty(t, bundle.Financial.CashFlow)
	assert.InDelta(t, 0.25, bundle.Financial.CashFlow[0].ElectricityRate, 1e-9)
}

func TestRunUnknownPanelType(t *testing.T) {
	p := New(testConfig(t), nil)

	_, err := p.Run(context.Background(), model.Site{PanelType: "fusion"})
	assert.ErrorContains(t, err, "unknown panel type")
}

func TestRunDeterministic(t *testing.T) {
	p := New(testConfig(t), nil)
	site := model.Site{Name: "repeat"}

	a, err := p.Run(context.Background(), site)
	require.NoError(t, err)
	b, err := p.Run(context.Background(), site)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// fakeGeocoder resolves every address to a fixed coordinate pair.
type fakeGeocoder struct {
	result *geocode.Result
	err    error
	calls  int
}

func (f *fakeGeocoder) Geocode(_ context.Context, _ string) (*geocode.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestRunGeocodesAddress(t *testing.T) {
	geo := &fakeGeocoder{result: &geocode.Result{
		Latitude:  40.7128,
		Longitude: -74.006,
		Matched:   true,
	}}
	p := New(testConfig(t), nil, WithGeocoder(geo))

	bundle, err := p.Run(context.Background(), model.Site{
		Name:    "address-site",
		Address: "1 Main St, New York, NY",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, 40.7128, bundle.Parameters.Latitude)
	assert.Equal(t, -74.006, bundle.Parameters.Longitude)
}

func TestRunExplicitCoordinatesSkipGeocoding(t *testing.T) {
	geo := &fakeGeocoder{result: &geocode.Result{Latitude: 1, Longitude: 2, Matched: true}}
	p := New(testConfig(t), nil, WithGeocoder(geo))

	bundle, err := p.Run(context.Background(), model.Site{
		Name:      "coords-win",
		Address:   "1 Main St",
		Latitude:  33.45,
		Longitude: -112.07,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, geo.calls)
	assert.Equal(t, 33.45, bundle.Parameters.Latitude)
}

func TestRunGeocodeFailureUsesDefaultLocation(t *testing.T) {
	geo := &fakeGeocoder{err: eris.New("census unavailable")}
	p := New(testConfig(t), nil, WithGeocoder(geo))

	bundle, err := p.Run(context.Background(), model.Site{
		Name:    "geo-down",
		Address: "1 Main St",
	})
	require.NoError(t, err)
	assert.Equal(t, 37.7749, bundle.Parameters.Latitude)
	assert.Equal(t, -122.4194, bundle.Parameters.Longitude)
}

func TestRunUnmatchedAddressUsesDefaultLocation(t *testing.T) {
	geo := &fakeGeocoder{result: &geocode.Result{Matched: false}}
	p := New(testConfig(t), nil, WithGeocoder(geo))

	bundle, err := p.Run(context.Background(), model.Site{
		Name:    "no-match",
		Address: "nowhere",
	})
	require.NoError(t, err)
	assert.Equal(t, 37.7749, bundle.Parameters.Latitude)
}

// fixedEstimator returns the same profile for every site.
type fixedEstimator struct {
	profile model.IrradianceProfile
	calls   int
}

func (f *fixedEstimator) Estimate(_, _, _ float64) model.IrradianceProfile {
	f.calls++
	return f.profile
}

func TestRunUsesConfiguredEstimator(t *testing.T) {
	est := &fixedEstimator{profile: model.IrradianceProfile{
		AnnualIrradiance: 2200,
		DailyAverage:     2200.0 / 365,
		PeakSunHours:     2.2,
		TiltFactor:       1,
		AzimuthFactor:    1,
	}}
	p := New(testConfig(t), nil, WithEstimator(est))

	bundle, err := p.Run(context.Background(), model.Site{Name: "custom-model"})
	require.NoError(t, err)
	assert.Equal(t, 1, est.calls)
	assert.Equal(t, 2200.0, bundle.Irradiance.AnnualIrradiance)
	assert.InDelta(t, 2.2, bundle.Irradiance.PeakSunHours, 1e-9)
}
