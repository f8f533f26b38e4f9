package cmd

import (
	"strings"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/config"
	"github.com/pders01/foamkit/internal/field"
	"github.com/pders01/foamkit/internal/probe"
)

func TestInit(t *testing.T) {
	fs := afero.NewMemMapFs()
	out := useFs(t, fs)
	initOutput = "/home/user/.config/foamkit/config.toml"
	initForce = false

	if err := runInit(nil, nil); err != nil {
		t.Fatalf("init command failed: %v", err)
	}
	if !strings.Contains(out.String(), "Created default config") {
		t.Errorf("unexpected output %q", out.String())
	}

	data, err := afero.ReadFile(fs, initOutput)
	if err != nil {
		t.Fatal(err)
	}
	var got config.File
	if _, err := toml.Decode(string(data), &got); err != nil {
		t.Fatalf("written config is not valid TOML: %v", err)
	}
	want := config.Default()
	if got.Probe.MinDistance != want.Probe.MinDistance || got.Mesh.Snapshot != want.Mesh.Snapshot || got.Registry.Path != want.Registry.Path {
		t.Errorf("expected defaults, got %+v", got)
	}

	// An existing config is left alone unless --force is given.
	afero.WriteFile(fs, initOutput, []byte("# mine\n"), 0644)
	out.Reset()
	if err := runInit(nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Config already exists") {
		t.Errorf("unexpected output %q", out.String())
	}
	if data, _ := afero.ReadFile(fs, initOutput); string(data) != "# mine\n" {
		t.Error("existing config was overwritten")
	}

	initForce = true
	if err := runInit(nil, nil); err != nil {
		t.Fatal(err)
	}
	if data, _ := afero.ReadFile(fs, initOutput); string(data) == "# mine\n" {
		t.Error("--force should overwrite the config")
	}
}

func TestFlagValues(t *testing.T) {
	var mode coordModeValue
	if err := mode.Set("absolute"); err != nil || probe.CoordMode(mode) != probe.Absolute {
		t.Errorf("expected absolute, got %q (%v)", mode, err)
	}
	if err := mode.Set("polar"); err == nil {
		t.Error("expected error for unknown mode")
	}

	var dec decompressorValue
	if err := dec.Set(" GUNZIP "); err != nil || dec.String() != decompressGunzip {
		t.Errorf("expected gunzip, got %q (%v)", dec, err)
	}
	if err := dec.Set("bzip2"); err == nil {
		t.Error("expected error for unknown decompressor")
	}
}

func TestNewDecompressor(t *testing.T) {
	fs := afero.NewMemMapFs()
	d, err := newDecompressor(fs, "gzip")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := d.(field.GzipDecompressor); !ok {
		t.Errorf("expected GzipDecompressor, got %T", d)
	}
	if d, err = newDecompressor(fs, "gunzip"); err != nil {
		t.Fatal(err)
	}
	if cmd, ok := d.(field.CommandDecompressor); !ok || cmd.Name != field.DefaultCommand.Name {
		t.Errorf("expected the default command, got %#v", d)
	}
	if _, err := newDecompressor(fs, "zip"); err == nil {
		t.Error("expected error for unknown decompressor")
	}
}
