package probe

import (
	"errors"
	"reflect"
	"testing"

	"github.com/spf13/afero"
)

func TestResolveValue(t *testing.T) {
	rng := [2]float64{1, 3}
	tests := []struct {
		in      string
		want    float64
		wantErr error
	}{
		{"50%", 2, nil},
		{"0%", 1, nil},
		{"100%", 3, nil},
		{"2.5", 2.5, nil},
		{" 1 ", 1, nil},
		{"0.9999999", 1, nil},
		{"3.0000001", 3, nil},
		{"0.5", 0, ErrOutOfRange},
		{"150%", 0, ErrOutOfRange},
		{"abc", 0, ErrMalformedCoord},
		{"x%", 0, ErrMalformedCoord},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveValue(tt.in, rng)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSpan(t *testing.T) {
	got, err := Span("25%", "75%", [2]float64{0, 4})
	if err != nil {
		t.Fatal(err)
	}
	if got != [2]float64{1, 3} {
		t.Errorf("unexpected span %v", got)
	}
	if _, err := Span("50%", "50%", [2]float64{0, 4}); err == nil {
		t.Error("expected error for empty span")
	}
	if _, err := Span("3", "1", [2]float64{0, 4}); err == nil {
		t.Error("expected error for reversed span")
	}
}

func TestGrid(t *testing.T) {
	got := Grid([2]float64{0, 2}, [2]float64{0, 1}, 3, 2)
	want := []Coord{
		{0, 0, 0}, {1, 0, 0}, {2, 0, 0},
		{0, 1, 0}, {1, 1, 0}, {2, 1, 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	single := Grid([2]float64{0.5, 2}, [2]float64{0.25, 1}, 1, 1)
	if !reflect.DeepEqual(single, []Coord{{0.5, 0.25, 0}}) {
		t.Errorf("unexpected single point grid %v", single)
	}

	for _, n := range [][2]int{{-1, 5}, {5, -1}, {0, 3}} {
		if got := Grid([2]float64{0, 1}, [2]float64{0, 1}, n[0], n[1]); len(got) != 0 {
			t.Errorf("%dx%d: expected no points, got %v", n[0], n[1], got)
		}
	}
}

func TestParseCoordList(t *testing.T) {
	got, err := ParseCoordList("(2.1, 40%) (0%,100%)", [2]float64{0, 4}, [2]float64{0, 10})
	if err != nil {
		t.Fatal(err)
	}
	want := []Coord{{2.1, 4, 0}, {0, 10, 0}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	for _, bad := range []string{"", "(1)", "1, 2", "(a, 1)"} {
		if _, err := ParseCoordList(bad, [2]float64{0, 4}, [2]float64{0, 10}); !errors.Is(err, ErrMalformedCoord) {
			t.Errorf("%q: expected ErrMalformedCoord, got %v", bad, err)
		}
	}
	if _, err := ParseCoordList("(5, 1)", [2]float64{0, 4}, [2]float64{0, 10}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
}

const definitionsYAML = `
field: T
mode: relative
probes:
  - coord: [0.5, 0.5]
  - name: corner
    coord: [0.5, 0.5, 0.5]
    mode: absolute
    color: "#ff0000"
  - field: U
    coord: [0, 0]
`

func TestDefinitions(t *testing.T) {
	tc, c := newMemCase(t, 3, 2, "1")
	if err := afero.WriteFile(tc.Fs, "/probes.yaml", []byte(definitionsYAML), 0644); err != nil {
		t.Fatal(err)
	}

	defs, err := LoadDefinitions(tc.Fs, "/probes.yaml")
	if err != nil {
		t.Fatal(err)
	}
	results, err := c.AddDefinitions(defs)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 || len(c.Probes()) != 3 {
		t.Fatalf("expected 3 probes, got %d results and %d probes", len(results), len(c.Probes()))
	}

	// Relative (0.5, 0.5) on x range [0.5, 2.5] and y range [0.5, 1.5]; z
	// collapses to the single cell layer at 0.5.
	first := c.Probes()[0]
	if first.Name != "T_1" || first.Coord != (Coord{1.5, 1, 0.5}) {
		t.Errorf("unexpected first probe %s at %v", first.Name, first.Coord)
	}
	corner := c.Probe("corner")
	if corner == nil || corner.Color != "#ff0000" || corner.Index != 0 {
		t.Errorf("unexpected corner probe %+v", corner)
	}
	if u := c.Probes()[2]; u.Field != "U" || u.Name != "U_1" {
		t.Errorf("unexpected third probe %+v", u)
	}
}

func TestLoadDefinitionsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	cases := map[string]string{
		"/short.yaml":  "field: T\nprobes:\n  - coord: [1]\n",
		"/mode.yaml":   "field: T\nmode: polar\nprobes:\n  - coord: [1, 2]\n",
		"/syntax.yaml": "probes: [",
	}
	for path, content := range cases {
		afero.WriteFile(fs, path, []byte(content), 0644)
		if _, err := LoadDefinitions(fs, path); err == nil {
			t.Errorf("%s: expected error", path)
		}
	}
}

func TestAddDefinitionsNoField(t *testing.T) {
	_, c := newMemCase(t, 3, 2)
	defs := &Definitions{Probes: []Definition{{Coord: []float64{0, 0}}}}
	if _, err := c.AddDefinitions(defs); err == nil {
		t.Error("expected error for probe without field")
	}
	if len(c.Probes()) != 0 {
		t.Errorf("expected no probes, got %d", len(c.Probes()))
	}
}
