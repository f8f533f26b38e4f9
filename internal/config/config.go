package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment overrides, e.g. FOAMKIT_CASE_ROOT.
const EnvPrefix = "FOAMKIT"

// File is the layout of config.toml.
type File struct {
	Case     CaseSettings     `toml:"case"`
	Mesh     MeshSettings     `toml:"mesh"`
	Probe    ProbeSettings    `toml:"probe"`
	Log      LogSettings      `toml:"log"`
	Registry RegistrySettings `toml:"registry"`
}

// CaseSettings locates the simulation case.
type CaseSettings struct {
	Root       string `toml:"root" mapstructure:"root"`
	InitialDir string `toml:"initial_dir" mapstructure:"initial_dir"`
}

// MeshSettings names the mesh snapshot kept inside a case.
type MeshSettings struct {
	Snapshot string `toml:"snapshot" mapstructure:"snapshot"`
}

// ProbeSettings are the capture defaults.
type ProbeSettings struct {
	MinDistance      float64       `toml:"min_distance" mapstructure:"min_distance"`
	TMin             float64       `toml:"tmin" mapstructure:"tmin"`
	TMax             float64       `toml:"tmax" mapstructure:"tmax"`
	SkipFirst        bool          `toml:"skip_first" mapstructure:"skip_first"`
	ProgressInterval time.Duration `toml:"progress_interval" mapstructure:"progress_interval"`
	Decompressor     string        `toml:"decompressor" mapstructure:"decompressor"`
	CompressedExt    string        `toml:"compressed_ext" mapstructure:"compressed_ext"`
	// Fields are probed when the probe command gets no field argument.
	Fields           []string      `toml:"fields" mapstructure:"fields"`
}

// LogSettings configures the console logger.
type LogSettings struct {
	File    string `toml:"file" mapstructure:"file"`
	Color   string `toml:"color" mapstructure:"color"`
	Verbose bool   `toml:"verbose" mapstructure:"verbose"`
}

// RegistrySettings locates the dataset registry files.
type RegistrySettings struct {
	Path string `toml:"path" mapstructure:"path"`
}

// Default returns the built-in configuration.
func Default() File {
	return File{
		Case: CaseSettings{Root: ".", InitialDir: "0"},
		Mesh: MeshSettings{Snapshot: "mesh.gob"},
		Probe: ProbeSettings{
			MinDistance:      0.01,
			TMin:             0,
			TMax:             1e6,
			SkipFirst:        true,
			ProgressInterval: 10 * time.Second,
			Decompressor:     "gzip",
			CompressedExt:    ".gz",
		},
		Log:      LogSettings{Color: "auto"},
		Registry: RegistrySettings{Path: "plumes"},
	}
}

// SetDefaults registers every key of Default with viper.
func SetDefaults() {
	d := Default()
	viper.SetDefault("case.root", d.Case.Root)
	viper.SetDefault("case.initial_dir", d.Case.InitialDir)
	viper.SetDefault("mesh.snapshot", d.Mesh.Snapshot)
	viper.SetDefault("probe.min_distance", d.Probe.MinDistance)
	viper.SetDefault("probe.tmin", d.Probe.TMin)
	viper.SetDefault("probe.tmax", d.Probe.TMax)
	viper.SetDefault("probe.skip_first", d.Probe.SkipFirst)
	viper.SetDefault("probe.progress_interval", d.Probe.ProgressInterval.String())
	viper.SetDefault("probe.decompressor", d.Probe.Decompressor)
	viper.SetDefault("probe.compressed_ext", d.Probe.CompressedExt)
	viper.SetDefault("probe.fields", []string{})
	viper.SetDefault("log.file", d.Log.File)
	viper.SetDefault("log.color", d.Log.Color)
	viper.SetDefault("log.verbose", d.Log.Verbose)
	viper.SetDefault("registry.path", d.Registry.Path)
}

// Probe decodes the probe section. Durations may be given as strings
// ("30s") and field lists as comma separated strings.
func Probe() (ProbeSettings, error) {
	var s ProbeSettings
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := viper.UnmarshalKey("probe", &s, hook); err != nil {
		return s, fmt.Errorf("failed to decode probe settings: %w", err)
	}
	return s, nil
}

// GetCaseRoot returns the case directory
func GetCaseRoot() string {
	return viper.GetString("case.root")
}

// GetInitialDir returns the directory whose field files define the field classes
func GetInitialDir() string {
	return viper.GetString("case.initial_dir")
}

// GetMeshSnapshot returns the snapshot file name looked for inside a case
func GetMeshSnapshot() string {
	return viper.GetString("mesh.snapshot")
}

// GetRegistryPath returns the directory holding the registry json files
func GetRegistryPath() string {
	return viper.GetString("registry.path")
}

// GetLogFile returns the optional log file
func GetLogFile() string {
	return viper.GetString("log.file")
}

// GetLogColor returns the colour mode: auto, always or never
func GetLogColor() string {
	return viper.GetString("log.color")
}

// GetLogVerbose reports whether debug lines are printed
func GetLogVerbose() bool {
	return viper.GetBool("log.verbose")
}
