package models

import "path/filepath"

// Artifact file names of a probe dataset
const (
	CoordsFile = "probe.coords.p"
	TimesFile  = "probe.t.p"
	DataFile   = "probe.data.npy"
	MetaFile   = "probe.meta.json"
	MergedDir  = "merged"
)

// Artifacts locates the files of one probe dataset.
// Format: <dir>/<prefix>probe.coords.p and so on
type Artifacts struct {
	Dir    string
	Prefix string
}

// Coords returns the path of the coordinates file
func (a Artifacts) Coords() string {
	return filepath.Join(a.Dir, a.Prefix+CoordsFile)
}

// Times returns the path of the time axis file
func (a Artifacts) Times() string {
	return filepath.Join(a.Dir, a.Prefix+TimesFile)
}

// Data returns the path of the data array file
func (a Artifacts) Data() string {
	return filepath.Join(a.Dir, a.Prefix+DataFile)
}

// Meta returns the path of the metadata file
func (a Artifacts) Meta() string {
	return filepath.Join(a.Dir, a.Prefix+MetaFile)
}

// String names the dataset for log messages
func (a Artifacts) String() string {
	if a.Prefix == "" {
		return a.Dir
	}
	return filepath.Join(a.Dir, a.Prefix+"*")
}
