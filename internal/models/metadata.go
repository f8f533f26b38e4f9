package models

import "time"

// CaptureMode defines how a probe dataset was produced
type CaptureMode string

const (
	ModeCapture CaptureMode = "capture"
	ModeMock    CaptureMode = "mock"
	ModeMerged  CaptureMode = "merged"
)

// ProbeInfo describes one probe of a capture
type ProbeInfo struct {
	Name  string     `json:"name"`
	Field string     `json:"field"`
	Color string     `json:"color"`
	Coord [3]float64 `json:"coord"`
	Index int        `json:"index"`
}

// BadDir is a time directory that could not be read
type BadDir struct {
	Dir    string `json:"dir"`
	Reason string `json:"reason"`
}

// Metadata represents the probe.meta.json structure for a capture
type Metadata struct {
	RunID     string      `json:"run_id"`
	CreatedAt time.Time   `json:"created_at"`
	Mode      CaptureMode `json:"mode"`
	Case      string      `json:"case,omitempty"`
	CasePath  string      `json:"case_path,omitempty"`
	Field     string      `json:"field,omitempty"`
	TMin      float64     `json:"tmin"`
	TMax      float64     `json:"tmax"`
	SkipFirst bool        `json:"skip_first"`
	TimeCount int         `json:"time_count"`
	Probes    []ProbeInfo `json:"probes"`
	BadDirs   []BadDir    `json:"bad_dirs,omitempty"`
	Sources   []string    `json:"sources,omitempty"` // For merged datasets
	Notes     string      `json:"notes,omitempty"`
}
