package cmd

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/pders01/foamkit/internal/models"
	"github.com/pders01/foamkit/internal/probe"
	"github.com/pders01/foamkit/internal/testutil"
)

func resetProbeFlags() {
	probeNX, probeNY = 11, 11
	probeXMin, probeXMax = "0%", "100%"
	probeYMin, probeYMax = "0%", "100%"
	probeCoords = ""
	probeFrom = ""
	probeMesh = ""
	probeMock = false
	probeBar = false
	probeOutputDir = "/out"
	probePrefix = ""
	probeCoordMode = coordModeValue(probe.Relative)
}

func TestProbeGrid(t *testing.T) {
	tc, _ := useMemCase(t, 3, 2, "1", "2")
	resetProbeFlags()
	probeNX, probeNY = 3, 2

	if err := runProbe(nil, []string{"T"}); err != nil {
		t.Fatalf("probe command failed: %v", err)
	}

	d, err := probe.Load(tc.Fs, models.Artifacts{Dir: "/out"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d.Times, []float64{1, 2}) {
		t.Fatalf("expected times [1 2], got %v", d.Times)
	}
	if !reflect.DeepEqual(d.Data.Shape, []int{2, 6, 1}) {
		t.Fatalf("unexpected shape %v", d.Data.Shape)
	}
	// The grid points are exactly the cell centers, in cell order.
	for i, tv := range d.Times {
		for k := 0; k < 6; k++ {
			if got, want := d.Data.At3(i, k, 0), testutil.ScalarValue(tv, k); got != want {
				t.Errorf("t=%v probe %d: expected %v, got %v", tv, k, want, got)
			}
		}
	}

	meta, err := probe.ReadMeta(tc.Fs, "/out/"+models.MetaFile)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Mode != models.ModeCapture || meta.Field != "T" || len(meta.Probes) != 6 || meta.TimeCount != 2 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestProbeCoordsVector(t *testing.T) {
	tc, _ := useMemCase(t, 3, 2, "1")
	resetProbeFlags()
	probeCoords = "(0.5, 0.5) (100%, 100%)"
	probePrefix = "u."

	if err := runProbe(nil, []string{"U"}); err != nil {
		t.Fatalf("probe command failed: %v", err)
	}

	d, err := probe.Load(tc.Fs, models.Artifacts{Dir: "/out", Prefix: "u."})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(d.Data.Shape, []int{1, 2, 3}) {
		t.Fatalf("unexpected shape %v", d.Data.Shape)
	}
	want := testutil.VectorValue(1, 5)
	for k := 0; k < 3; k++ {
		if got := d.Data.At3(0, 1, k); got != want[k] {
			t.Errorf("component %d: expected %v, got %v", k, want[k], got)
		}
	}
}

func TestProbeMock(t *testing.T) {
	tc, _ := useMemCase(t, 3, 2, "1")
	resetProbeFlags()
	probeNX, probeNY = 2, 2
	probeMock = true

	if err := runProbe(nil, []string{"T"}); err != nil {
		t.Fatal(err)
	}
	a := models.Artifacts{Dir: "/out"}
	if ok, _ := afero.Exists(tc.Fs, a.Coords()); !ok {
		t.Error("mock run should write coordinates")
	}
	for _, p := range []string{a.Times(), a.Data()} {
		if ok, _ := afero.Exists(tc.Fs, p); ok {
			t.Errorf("mock run should not write %s", p)
		}
	}
	meta, err := probe.ReadMeta(tc.Fs, a.Meta())
	if err != nil {
		t.Fatal(err)
	}
	if meta.Mode != models.ModeMock {
		t.Errorf("expected mock mode, got %s", meta.Mode)
	}
}

func TestProbeFromFile(t *testing.T) {
	tc, _ := useMemCase(t, 3, 2, "1")
	resetProbeFlags()
	yaml := "probes:\n  - coord: [0, 0]\n  - coord: [1, 1]\n    name: far\n"
	afero.WriteFile(tc.Fs, "/probes.yaml", []byte(yaml), 0644)
	probeFrom = "/probes.yaml"

	if err := runProbe(nil, []string{"T"}); err != nil {
		t.Fatal(err)
	}
	meta, err := probe.ReadMeta(tc.Fs, "/out/"+models.MetaFile)
	if err != nil {
		t.Fatal(err)
	}
	if len(meta.Probes) != 2 || meta.Probes[1].Name != "far" || meta.Probes[1].Index != 5 {
		t.Errorf("unexpected probes %+v", meta.Probes)
	}
}

func TestProbeErrors(t *testing.T) {
	useMemCase(t, 3, 2, "1")

	tests := []struct {
		name  string
		setup func()
		args  []string
		want  error
	}{
		{"unknown field", func() {}, []string{"p"}, probe.ErrUnknownField},
		{"x out of range", func() { probeXMin = "-5" }, []string{"T"}, probe.ErrOutOfRange},
		{"malformed coords", func() { probeCoords = "(1)" }, []string{"T"}, probe.ErrMalformedCoord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetProbeFlags()
			tt.setup()
			if err := runProbe(nil, tt.args); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	for _, n := range [][2]int{{-1, 5}, {5, -1}, {0, 0}} {
		resetProbeFlags()
		probeNX, probeNY = n[0], n[1]
		if err := runProbe(nil, []string{"T"}); err == nil || !strings.Contains(err.Error(), "invalid grid") {
			t.Errorf("--nx %d --ny %d: expected invalid grid error, got %v", n[0], n[1], err)
		}
	}

	resetProbeFlags()
	probeXMin, probeXMax = "50%", "10%"
	if err := runProbe(nil, []string{"T"}); err == nil {
		t.Error("expected error for xmin >= xmax")
	}

	resetProbeFlags()
	if err := runProbe(nil, nil); err == nil {
		t.Error("expected error without field or definitions file")
	}
}

func TestProbeFromFileMixedDimensions(t *testing.T) {
	tc, _ := useMemCase(t, 3, 2, "1", "2")
	resetProbeFlags()
	yaml := "field: T\nprobes:\n  - coord: [0, 0]\n  - name: outlet\n    field: U\n    coord: [1, 1]\n"
	afero.WriteFile(tc.Fs, "/probes.yaml", []byte(yaml), 0644)
	probeFrom = "/probes.yaml"
	// An unusable decompressor would fail the read, so the dimension check
	// must come first.
	viper.Set("probe.decompressor", "bzip2")

	err := runProbe(nil, nil)
	if !errors.Is(err, probe.ErrMixedDimensions) {
		t.Fatalf("expected ErrMixedDimensions, got %v", err)
	}
	if ok, _ := afero.DirExists(tc.Fs, "/out"); ok {
		t.Error("nothing should be written for mixed dimensions")
	}
}

func TestProbeConfiguredFields(t *testing.T) {
	tc, _ := useMemCase(t, 3, 2, "1")
	resetProbeFlags()
	probeNX, probeNY = 3, 2
	viper.Set("probe.fields", []string{"T"})

	if err := runProbe(nil, nil); err != nil {
		t.Fatalf("probe command failed: %v", err)
	}
	meta, err := probe.ReadMeta(tc.Fs, "/out/"+models.MetaFile)
	if err != nil {
		t.Fatal(err)
	}
	if meta.Field != "T" || len(meta.Probes) != 6 || meta.Probes[0].Name != "T_1" {
		t.Errorf("unexpected metadata %+v", meta)
	}

	// A field argument takes precedence over the configured list.
	viper.Set("probe.fields", []string{"T", "U"})
	probePrefix = "u."
	if err := runProbe(nil, []string{"U"}); err != nil {
		t.Fatal(err)
	}
	if meta, _ = probe.ReadMeta(tc.Fs, "/out/u."+models.MetaFile); meta == nil || meta.Field != "U" {
		t.Errorf("expected field U, got %+v", meta)
	}

	// Configured fields are probed together, so they must share dimensions.
	probePrefix = "mixed."
	if err := runProbe(nil, nil); !errors.Is(err, probe.ErrMixedDimensions) {
		t.Errorf("expected ErrMixedDimensions, got %v", err)
	}
}
