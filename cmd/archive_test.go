package cmd

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/archive"
	"github.com/pders01/foamkit/internal/field"
	"github.com/pders01/foamkit/internal/testutil"
)

func resetZiptimesFlags() {
	ziptimesTMin = 0
	ziptimesTMax = 100000
	ziptimesDelete = false
	ziptimesOutputDir = ""
}

func resetDecompressFlags() {
	decompressTMin = 0
	decompressTMax = 1e6
	decompressExtension = archive.Extension
	decompressMock = false
}

func TestZiptimes(t *testing.T) {
	tc, out := useMemCase(t, 2, 2, "1", "2")
	resetZiptimesFlags()
	ziptimesOutputDir = "/archive"

	if err := runZiptimes(nil, nil); err != nil {
		t.Fatalf("ziptimes command failed: %v", err)
	}
	if !strings.Contains(out.String(), "[1/2] /case/1 -> /archive/1.tar.gz") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	// The range is open at tmin, so the initial directory 0 is not archived.
	for name, want := range map[string]bool{"1.tar.gz": true, "2.tar.gz": true, "0.tar.gz": false} {
		if ok, _ := afero.Exists(tc.Fs, "/archive/"+name); ok != want {
			t.Errorf("%s: expected exists=%v", name, want)
		}
	}
	names, err := archive.List(tc.Fs, "/archive/2.tar.gz")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(names, ",") != "2/,2/T,2/U" {
		t.Errorf("unexpected members %v", names)
	}
	if !tc.Exists("1") {
		t.Error("time directory should be kept without --delete")
	}
}

func TestZiptimesDelete(t *testing.T) {
	tc, _ := useMemCase(t, 2, 2, "1", "2", "3")
	resetZiptimesFlags()
	ziptimesTMin, ziptimesTMax = 1, 2
	ziptimesDelete = true

	if err := runZiptimes(nil, nil); err != nil {
		t.Fatal(err)
	}
	if !tc.Exists("2.tar.gz") || tc.Exists("1.tar.gz") || tc.Exists("3.tar.gz") {
		t.Error("only 2 should be archived next to the case")
	}
	if tc.Exists("2") {
		t.Error("archived directory should be deleted")
	}
	if !tc.Exists("1") || !tc.Exists("3") {
		t.Error("directories outside the range should be kept")
	}
}

func TestDecompress(t *testing.T) {
	tc, out := useMemCase(t, 2, 2, "1", "2")
	resetZiptimesFlags()
	ziptimesOutputDir = "/archive"
	ziptimesDelete = true
	if err := runZiptimes(nil, nil); err != nil {
		t.Fatal(err)
	}
	out.Reset()

	resetDecompressFlags()
	decompressTMin = 1
	if err := runDecompress(nil, []string{"T", "/archive"}); err != nil {
		t.Fatalf("decompress command failed: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "/case/2/T" {
		t.Errorf("unexpected output %q", got)
	}
	if tc.Exists("1/T") || tc.Exists("2/U") {
		t.Error("only T of time 2 should be extracted")
	}

	f, err := field.Read(tc.Fs, "/case", "2", "T")
	if err != nil {
		t.Fatal(err)
	}
	row, ok := f.Row(3)
	if !ok || row[0] != testutil.ScalarValue(2, 3) {
		t.Errorf("expected %v, got %v", testutil.ScalarValue(2, 3), row)
	}
}

func TestDecompressMockAndMissing(t *testing.T) {
	tc, out := useMemCase(t, 2, 2, "1")
	if err := archive.CreateDir(tc.Fs, "/archive/1.tar.gz", "/case/1"); err != nil {
		t.Fatal(err)
	}

	resetDecompressFlags()
	decompressMock = true
	if err := runDecompress(nil, []string{"U", "/archive"}); err != nil {
		t.Fatal(err)
	}
	if want := "mock extract 1/U from 1.tar.gz to /case/1/U\n"; out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}

	resetDecompressFlags()
	if err := runDecompress(nil, []string{"p", "/archive"}); err == nil {
		t.Error("expected error for a field missing from the archive")
	}
}

func TestPrune(t *testing.T) {
	tc, out := useMemCase(t, 2, 2, "1", "5", "10")
	tc.CreateFile("processor0/7/T", "x")
	tc.CreateFile("processor0/2/T", "x")

	pruneForce = false
	if err := runPrune(nil, []string{"4"}); err != nil {
		t.Fatalf("prune command failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"/case/5", "/case/10", "/case/processor0/7", "This is a dry run"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "processor0/2") || !tc.Exists("5") {
		t.Error("dry run should list only later times and delete nothing")
	}

	out.Reset()
	pruneForce = true
	if err := runPrune(nil, []string{"4"}); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]bool{"1": true, "5": false, "10": false, "processor0/2": true, "processor0/7": false} {
		if tc.Exists(name) != want {
			t.Errorf("%s: expected exists=%v", name, want)
		}
	}
	if !strings.Contains(out.String(), "Pruned 3") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	out.Reset()
	if err := runPrune(nil, []string{"100"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No time directories after 100") {
		t.Errorf("unexpected output %q", out.String())
	}
	if err := runPrune(nil, []string{"soon"}); err == nil {
		t.Error("expected error for an invalid time")
	}
}
