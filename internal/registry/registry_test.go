package registry

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/pders01/foamkit/internal/logging"
)

const seed = `{
    "registry": [
        {"name": "runA", "root": "a", "fs": 10, "color": "red",
         "dimensions": [1, 0.5], "source": [0.2, 0.25], "fields": ["S1"]},
        {"name": "runB", "root": "b", "fs": 20, "color": "blue",
         "dimensions": [1, 0.5], "source": [0.2, 0.25], "fields": ["S1", "S2"]}
    ],
    "root": "/store"
}`

func setup(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/reg/simulations.json":      seed,
		"/cases/runC/probe.t.p":      "times",
		"/cases/runC/probe.data.npy": "data",
		"/cases/runC/other.txt":      "ignored",
	}
	for p, content := range files {
		if err := afero.WriteFile(fs, p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func newItem() Item {
	return Item{
		Name:       "runC",
		Root:       "c",
		Fs:         50,
		Dimensions: []float64{1.2, 0.5},
		Source:     []float64{0.2, 0.25},
		Fields:     []string{"S1"},
	}
}

func TestFileFor(t *testing.T) {
	tests := []struct {
		typ     string
		want    string
		wantErr bool
	}{
		{"sim", "/reg/simulations.json", false},
		{"rec", "/reg/recordings.json", false},
		{"extra.json", "/reg/extra.json", false},
		{"other", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			got, err := FileFor("/reg", tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if tt.wantErr && !errors.Is(err, ErrInvalidType) {
				t.Errorf("expected ErrInvalidType, got %v", err)
			}
		})
	}
}

func TestParseArray(t *testing.T) {
	got, err := ParseArray("[1.2, 0.5]")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []float64{1.2, 0.5}) {
		t.Errorf("unexpected %v", got)
	}
	if got, _ := ParseArray("[]"); len(got) != 0 {
		t.Errorf("expected empty array, got %v", got)
	}
	if _, err := ParseArray("[1, x]"); err == nil {
		t.Error("expected error for non-numeric element")
	}
}

func TestParseFields(t *testing.T) {
	if got := ParseFields("S1, S2,,"); !reflect.DeepEqual(got, []string{"S1", "S2"}) {
		t.Errorf("unexpected %v", got)
	}
}

func TestRegisterCopiesAndWrites(t *testing.T) {
	fs := setup(t)
	res, err := Register(fs, "/reg/simulations.json", newItem(), RegisterOptions{
		SourceDir: "/cases/runC",
		Log:       logging.Discard(),
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if !res.Written || len(res.Copied) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	for _, name := range []string{"/store/c/probe.t.p", "/store/c/probe.data.npy"} {
		if ok, _ := afero.Exists(fs, name); !ok {
			t.Errorf("expected %s to be copied", name)
		}
	}
	if ok, _ := afero.Exists(fs, "/store/c/other.txt"); ok {
		t.Error("non-probe files must not be copied")
	}

	reg, err := Load(fs, "/reg/simulations.json")
	if err != nil {
		t.Fatal(err)
	}
	if len(reg.Items) != 3 || reg.Root != "/store" {
		t.Fatalf("unexpected registry %+v", reg)
	}
	last := reg.Items[2]
	if last.Name != "runC" || last.Color != DefaultColor {
		t.Errorf("unexpected new item %+v", last)
	}

	raw, _ := afero.ReadFile(fs, "/reg/simulations.json")
	if !strings.Contains(string(raw), "\n    \"registry\": [") {
		t.Errorf("expected four space indentation:\n%s", raw)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	fs := setup(t)
	item := newItem()
	item.Name, item.Root = "runA", "a"

	_, err := Register(fs, "/reg/simulations.json", item, RegisterOptions{NoCopy: true})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	res, err := Register(fs, "/reg/simulations.json", item, RegisterOptions{NoCopy: true, Overwrite: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Replaced) != 1 {
		t.Errorf("expected one replaced item, got %d", len(res.Replaced))
	}
	reg, _ := Load(fs, "/reg/simulations.json")
	if len(reg.Items) != 2 {
		t.Fatalf("expected 2 items after overwrite, got %d", len(reg.Items))
	}
	if reg.Items[1].Name != "runA" || reg.Items[1].Fs != 50 {
		t.Errorf("overwritten item should be appended last: %+v", reg.Items)
	}
}

func TestRegisterSameNameDifferentRoot(t *testing.T) {
	fs := setup(t)
	item := newItem()
	item.Name = "runA"
	if _, err := Register(fs, "/reg/simulations.json", item, RegisterOptions{NoCopy: true}); err != nil {
		t.Fatalf("different root should not collide: %v", err)
	}
}

func TestRegisterMock(t *testing.T) {
	fs := setup(t)
	res, err := Register(fs, "/reg/simulations.json", newItem(), RegisterOptions{NoCopy: true, Mock: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Written {
		t.Error("mock run must not write")
	}
	reg, _ := Load(fs, "/reg/simulations.json")
	if len(reg.Items) != 2 {
		t.Errorf("registry should be unchanged, got %d items", len(reg.Items))
	}
}

func TestLoadInvalidItem(t *testing.T) {
	fs := afero.NewMemMapFs()
	afero.WriteFile(fs, "/r.json", []byte(`{"root": "/x", "registry": [{"name": "a"}]}`), 0644)
	if _, err := Load(fs, "/r.json"); !errors.Is(err, ErrInvalidItem) {
		t.Errorf("expected ErrInvalidItem, got %v", err)
	}
}

func TestUnregister(t *testing.T) {
	fs := setup(t)

	removed, err := Unregister(fs, "/reg/simulations.json", "a", false, logging.Discard())
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0].Name != "runA" {
		t.Fatalf("unexpected removed items %+v", removed)
	}
	reg, _ := Load(fs, "/reg/simulations.json")
	if len(reg.Items) != 2 {
		t.Fatal("dry run must not modify the registry")
	}

	if _, err := Unregister(fs, "/reg/simulations.json", "a", true, logging.Discard()); err != nil {
		t.Fatal(err)
	}
	reg, _ = Load(fs, "/reg/simulations.json")
	if len(reg.Items) != 1 || reg.Items[0].Root != "b" {
		t.Errorf("unexpected registry after unregister %+v", reg.Items)
	}
}
