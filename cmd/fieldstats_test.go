package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/pders01/foamkit/internal/probe"
	"github.com/pders01/foamkit/internal/testutil"
)

func resetFieldstatsFlags() {
	fieldstatsTime = -1
	fieldstatsJSON = false
	fieldstatsToon = false
}

func TestFieldstatsLatest(t *testing.T) {
	_, out := useMemCase(t, 3, 2, "1", "2")
	resetFieldstatsFlags()

	if err := runFieldstats(nil, []string{"T"}); err != nil {
		t.Fatalf("fieldstats command failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"DIMENSION 0", "T at t ~= 2", "6 elements.", "0 NaN.", "Min: 200", "Max: 205", " 50: 202.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "DIMENSION 1") {
		t.Error("scalar field should have one dimension")
	}
}

func TestFieldstatsVectorNearest(t *testing.T) {
	_, out := useMemCase(t, 3, 2, "1", "2")
	resetFieldstatsFlags()
	fieldstatsTime = 1.2
	fieldstatsJSON = true

	if err := runFieldstats(nil, []string{"U"}); err != nil {
		t.Fatal(err)
	}
	var report fieldStatsReport
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if report.Time != "1" || len(report.Components) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	// Components of U at t=1 are (1, cell, -cell).
	x, y, z := report.Components[0], report.Components[1], report.Components[2]
	if x.Min != 1 || x.Max != 1 || y.Min != 0 || y.Max != 5 || z.Min != -5 || z.Max != 0 {
		t.Errorf("unexpected component ranges %+v", report.Components)
	}
}

func TestFieldstatsJSONAllNaN(t *testing.T) {
	tc, out := useMemCase(t, 2, 2, "1")
	tc.CreateFile("3/T", testutil.Header("volScalarField", "T")+
		"dimensions      [0 0 0 1 0 0 0];\n\ninternalField   uniform nan;\n\nboundaryField\n{\n}\n")
	resetFieldstatsFlags()
	fieldstatsJSON = true

	if err := runFieldstats(nil, []string{"T"}); err != nil {
		t.Fatalf("fieldstats command failed: %v", err)
	}
	var report struct {
		Time       string                   `json:"time"`
		Components []map[string]interface{} `json:"components"`
	}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if report.Time != "3" || len(report.Components) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	c := report.Components[0]
	if c["nan"] != float64(1) || c["min"] != nil || c["max"] != nil {
		t.Errorf("expected null min and max for an all-NaN field, got %v", c)
	}
}

func TestFieldstatsToon(t *testing.T) {
	_, out := useMemCase(t, 2, 2, "1")
	resetFieldstatsFlags()
	fieldstatsToon = true

	if err := runFieldstats(nil, []string{"T"}); err != nil {
		t.Fatal(err)
	}
	if out.Len() == 0 || strings.Contains(out.String(), "DIMENSION") {
		t.Errorf("expected toon output, got:\n%s", out.String())
	}
}

func TestFieldstatsUnknownField(t *testing.T) {
	useMemCase(t, 2, 2, "1")
	resetFieldstatsFlags()

	err := runFieldstats(nil, []string{"p"})
	if !errors.Is(err, probe.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if !strings.Contains(err.Error(), "Available fields: T, U") {
		t.Errorf("error should list the fields: %v", err)
	}
}
