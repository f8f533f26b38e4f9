package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()

	if GetCaseRoot() != "." || GetInitialDir() != "0" || GetMeshSnapshot() != "mesh.gob" {
		t.Errorf("unexpected case defaults %q %q %q", GetCaseRoot(), GetInitialDir(), GetMeshSnapshot())
	}
	if GetLogColor() != "auto" || GetLogVerbose() || GetLogFile() != "" {
		t.Error("unexpected log defaults")
	}

	p, err := Probe()
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Fields) != 0 {
		t.Errorf("expected no default fields, got %v", p.Fields)
	}
	want := Default().Probe
	want.Fields = p.Fields
	if !reflect.DeepEqual(p, want) {
		t.Errorf("expected %+v, got %+v", want, p)
	}
}

func TestProbeDecodesStrings(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	SetDefaults()
	viper.Set("probe.progress_interval", "1m30s")
	viper.Set("probe.fields", "T,U")
	viper.Set("probe.min_distance", "0.5")

	p, err := Probe()
	if err != nil {
		t.Fatal(err)
	}
	if p.ProgressInterval != 90*time.Second {
		t.Errorf("expected 1m30s, got %v", p.ProgressInterval)
	}
	if !reflect.DeepEqual(p.Fields, []string{"T", "U"}) {
		t.Errorf("unexpected fields %v", p.Fields)
	}
	if p.MinDistance != 0.5 {
		t.Errorf("expected 0.5, got %v", p.MinDistance)
	}
}

func TestProbeInvalidDuration(t *testing.T) {
	viper.Reset()
	defer viper.Reset()
	viper.Set("probe.progress_interval", "soon")
	if _, err := Probe(); err == nil {
		t.Error("expected error for invalid duration")
	}
}
