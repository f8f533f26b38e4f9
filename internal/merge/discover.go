package merge

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/models"
	"github.com/pders01/foamkit/internal/probe"
)

// Discover finds the datasets directly inside dir. Files named
// <prefix>probe.coords.p form a dataset together with the matching times
// and data files; a group missing either of those is an error.
func Discover(fs afero.Fs, dir string) ([]models.Artifacts, error) {
	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var found []models.Artifacts
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), models.CoordsFile) {
			continue
		}
		a := models.Artifacts{Dir: dir, Prefix: strings.TrimSuffix(info.Name(), models.CoordsFile)}
		if err := checkComplete(fs, a); err != nil {
			return nil, err
		}
		found = append(found, a)
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Prefix < found[j].Prefix })
	return found, nil
}

// FromDirs returns one dataset per directory, each holding the
// unprefixed artifact files.
func FromDirs(fs afero.Fs, dirs []string) ([]models.Artifacts, error) {
	found := make([]models.Artifacts, 0, len(dirs))
	for _, d := range dirs {
		a := models.Artifacts{Dir: d}
		if ok, _ := afero.Exists(fs, a.Coords()); !ok {
			return nil, fmt.Errorf("no %s in %s", models.CoordsFile, d)
		}
		if err := checkComplete(fs, a); err != nil {
			return nil, err
		}
		found = append(found, a)
	}
	return found, nil
}

func checkComplete(fs afero.Fs, a models.Artifacts) error {
	for _, path := range []string{a.Times(), a.Data()} {
		if ok, _ := afero.Exists(fs, path); !ok {
			return fmt.Errorf("dataset %s is incomplete: missing %s", a, filepath.Base(path))
		}
	}
	return nil
}

// LoadSources reads every dataset.
func LoadSources(fs afero.Fs, artifacts []models.Artifacts) ([]Source, error) {
	sources := make([]Source, 0, len(artifacts))
	for _, a := range artifacts {
		d, err := probe.Load(fs, a)
		if err != nil {
			return nil, err
		}
		sources = append(sources, Source{Name: a.String(), Dataset: d})
	}
	return sources, nil
}

// Write stores the merged dataset and its manifest in outDir.
func Write(fs afero.Fs, outDir string, d *probe.Dataset, sources []models.Artifacts) (models.Artifacts, error) {
	out := models.Artifacts{Dir: outDir}
	if err := probe.Save(fs, out, d); err != nil {
		return out, err
	}
	if err := probe.WriteMeta(fs, out.Meta(), probe.NewMergeMetadata(sources, d)); err != nil {
		return out, err
	}
	return out, nil
}
