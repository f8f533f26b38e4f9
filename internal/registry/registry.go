// Package registry maintains the JSON files that list captured probe
// datasets for downstream analysis.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"

	"github.com/pders01/foamkit/internal/logging"
)

const (
	// DefaultColor is used when an item is registered without a color.
	DefaultColor = "violet"
	// SimulationsFile holds items registered with type "sim".
	SimulationsFile = "simulations.json"
	// RecordingsFile holds items registered with type "rec".
	RecordingsFile = "recordings.json"
	// ArtifactGlob matches the probe files copied on registration.
	ArtifactGlob = "probe*.*"
)

var (
	// ErrDuplicate is returned when an item with the same name and root
	// is already registered and overwriting was not requested.
	ErrDuplicate = errors.New("registry item already exists")
	// ErrInvalidType is returned for a type that is neither "sim", "rec"
	// nor a json file name.
	ErrInvalidType = errors.New("type must be 'sim' or 'rec', or the name of a json file")
	// ErrInvalidItem is returned when a stored item lacks name or root.
	ErrInvalidItem = errors.New("registry item is missing a required field")
)

// Item is one registered dataset. Fields are ordered by JSON key so the
// file stays sorted.
type Item struct {
	Color      string    `json:"color"`
	Dimensions []float64 `json:"dimensions"`
	Fields     []string  `json:"fields"`
	Fs         float64   `json:"fs"`
	Name       string    `json:"name"`
	Root       string    `json:"root"`
	Source     []float64 `json:"source"`
}

// Registry is the content of one registry file. Root is the directory
// below which item roots live.
type Registry struct {
	Items []Item `json:"registry"`
	Root  string `json:"root"`
}

// FileFor returns the registry file for type typ inside dir.
func FileFor(dir, typ string) (string, error) {
	switch {
	case typ == "sim":
		return filepath.Join(dir, SimulationsFile), nil
	case typ == "rec":
		return filepath.Join(dir, RecordingsFile), nil
	case strings.HasSuffix(typ, "json"):
		return filepath.Join(dir, typ), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidType, typ)
}

// ParseArray parses a bracketed list of numbers such as "[1.2, 0.5]".
func ParseArray(s string) ([]float64, error) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimPrefix(trimmed, "[")
	trimmed = strings.TrimSuffix(trimmed, "]")
	if strings.TrimSpace(trimmed) == "" {
		return []float64{}, nil
	}
	parts := strings.Split(trimmed, ",")
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := cast.ToFloat64E(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid array %q: %w", s, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// ParseFields splits a comma separated field list.
func ParseFields(s string) []string {
	var fields []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Load reads and validates a registry file.
func Load(fs afero.Fs, path string) (*Registry, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("failed to parse registry %s: %w", path, err)
	}
	for _, it := range reg.Items {
		if it.Name == "" || it.Root == "" {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidItem, it)
		}
	}
	return &reg, nil
}

// Save writes reg to path with four space indentation.
func Save(fs afero.Fs, path string, reg *Registry) error {
	if reg.Items == nil {
		reg.Items = []Item{}
	}
	data, err := json.MarshalIndent(reg, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry: %w", err)
	}
	return nil
}

// RegisterOptions controls Register.
type RegisterOptions struct {
	// SourceDir holds the probe files to copy. Defaults to the item name.
	SourceDir string
	Overwrite bool
	NoCopy    bool
	// Mock leaves the registry file untouched.
	Mock bool
	Log  *logging.Logger
}

// RegisterResult reports what Register did.
type RegisterResult struct {
	Replaced []Item
	Copied   []string
	Written  bool
}

// Register adds item to the registry at path. An existing item with the
// same name and root is replaced only with Overwrite. Unless NoCopy is
// set, probe files from SourceDir are copied to <registry root>/<item root>.
func Register(fs afero.Fs, path string, item Item, opts RegisterOptions) (*RegisterResult, error) {
	log := opts.Log
	if item.Color == "" {
		item.Color = DefaultColor
	}

	log.Info("Using registry %s", path)
	reg, err := Load(fs, path)
	if err != nil {
		return nil, err
	}

	res := &RegisterResult{}
	kept := make([]Item, 0, len(reg.Items)+1)
	for _, it := range reg.Items {
		if it.Name == item.Name && it.Root == item.Root {
			res.Replaced = append(res.Replaced, it)
		} else {
			kept = append(kept, it)
		}
	}
	log.Info("Found %d items matching new item.", len(res.Replaced))
	if len(res.Replaced) > 0 {
		if !opts.Overwrite {
			return nil, fmt.Errorf("%w: name %q, root %q", ErrDuplicate, item.Name, item.Root)
		}
		log.Warn("Existing registry item with name %q and root %q found. Overwriting it.", item.Name, item.Root)
		reg.Items = kept
	}

	if opts.NoCopy {
		log.Info("Not copying probe files because --nocopy was set.")
	} else {
		src := opts.SourceDir
		if src == "" {
			src = item.Name
		}
		dest := filepath.Join(reg.Root, item.Root)
		copied, err := copyArtifacts(fs, src, dest)
		if err != nil {
			return nil, err
		}
		res.Copied = copied
		log.Info("Copied %d probe files from %s to %s.", len(copied), src, dest)
	}

	reg.Items = append(reg.Items, item)
	log.Info("Inserting new item %s (root %s).", item.Name, item.Root)

	if opts.Mock {
		log.Info("Mock mode, did not update registry.")
		return res, nil
	}
	if err := Save(fs, path, reg); err != nil {
		return nil, err
	}
	res.Written = true
	log.Success("Wrote registry to %s.", path)
	return res, nil
}

func copyArtifacts(fs afero.Fs, src, dest string) ([]string, error) {
	matches, err := afero.Glob(fs, filepath.Join(src, ArtifactGlob))
	if err != nil {
		return nil, fmt.Errorf("failed to list probe files: %w", err)
	}
	if err := fs.MkdirAll(dest, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	var copied []string
	for _, m := range matches {
		info, err := fs.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		target := filepath.Join(dest, filepath.Base(m))
		if err := copyFile(fs, m, target); err != nil {
			return copied, err
		}
		copied = append(copied, target)
	}
	return copied, nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	in, err := fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := fs.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}

// Unregister removes every item whose root equals root. The file is only
// rewritten when apply is set; the removed items are returned either way.
func Unregister(fs afero.Fs, path, root string, apply bool, log *logging.Logger) ([]Item, error) {
	reg, err := Load(fs, path)
	if err != nil {
		return nil, err
	}
	log.Info("Loaded registry, containing %d items.", len(reg.Items))

	var removed []Item
	kept := make([]Item, 0, len(reg.Items))
	for _, it := range reg.Items {
		if it.Root == root {
			removed = append(removed, it)
			log.Info("Would remove %s (root %s).", it.Name, it.Root)
		} else {
			kept = append(kept, it)
		}
	}

	if !apply {
		return removed, nil
	}
	reg.Items = kept
	if err := Save(fs, path, reg); err != nil {
		return nil, err
	}
	log.Success("Wrote new registry, containing %d items.", len(kept))
	return removed, nil
}
