package cmd

import (
	"testing"

	"github.com/pders01/foamkit/internal/archive"
)

func resetTdirsFlags() {
	tdirsTMin = 0
	tdirsTMax = 10000
	tdirsFiles = false
	tdirsExtension = archive.Extension
}

func TestTdirs(t *testing.T) {
	tc, out := useMemCase(t, 2, 2, "0.5", "10", "2", "20000")
	tc.CreateFile("constant/transportProperties", "nu 1e-05;\n")
	tc.CreateFile("1.5.orig/README", "not a time directory\n")

	resetTdirsFlags()
	if err := runTdirs(nil, nil); err != nil {
		t.Fatalf("tdirs command failed: %v", err)
	}
	if got, want := out.String(), "0\n0.5\n2\n10\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	out.Reset()
	resetTdirsFlags()
	tdirsTMin, tdirsTMax = 0.5, 2
	if err := runTdirs(nil, nil); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "0.5\n2\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	out.Reset()
	resetTdirsFlags()
	tdirsTMin, tdirsTMax = 100, 200
	if err := runTdirs(nil, nil); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestTdirsFiles(t *testing.T) {
	tc, out := useMemCase(t, 2, 2)
	tc.CreateFile("3.tar.gz", "x")
	tc.CreateFile("1.5.tar.gz", "x")
	tc.CreateFile("notes.tar.gz", "x")
	tc.CreateFile("4.zip", "x")

	resetTdirsFlags()
	tdirsFiles = true
	if err := runTdirs(nil, nil); err != nil {
		t.Fatal(err)
	}
	if got, want := out.String(), "1.5.tar.gz\n3.tar.gz\n"; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
