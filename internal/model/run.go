package model

import "time"

// RunStatus represents the current state of an analysis run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusAnalyzing RunStatus = "analyzing"
	RunStatusComplete  RunStatus = "complete"
	RunStatusFailed    RunStatus = "failed"
)

// Site identifies one rooftop to analyze and the caller-supplied overrides.
type Site struct {
	Name              string  `json:"name" yaml:"name"`
	Address           string  `json:"address,omitempty" yaml:"address,omitempty"`
	ImagePath         string  `json:"image_path,omitempty" yaml:"image_path,omitempty"`
	RoofFile          string  `json:"roof_file,omitempty" yaml:"roof_file,omitempty"`
	Latitude          float64 `json:"latitude" yaml:"latitude"`
	Longitude         float64 `json:"longitude" yaml:"longitude"`
	PanelType         string  `json:"panel_type,omitempty" yaml:"panel_type,omitempty"`
	ElectricityRate   float64 `json:"electricity_rate,omitempty" yaml:"electricity_rate,omitempty"`
	ShadingAdjustment float64 `json:"shading_factor,omitempty" yaml:"shading_factor,omitempty"`
}

// Run represents a single persisted analysis run for a site.
type Run struct {
	ID        string          `json:"id"`
	Site      Site            `json:"site"`
	Status    RunStatus       `json:"status"`
	Result    *AnalysisBundle `json:"result,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
