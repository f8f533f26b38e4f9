package cmd

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/pders01/foamkit/internal/config"
	"github.com/pders01/foamkit/internal/logging"
	"github.com/pders01/foamkit/internal/testutil"
)

// useFs points the commands at fs with default settings and captures
// their output.
func useFs(t *testing.T, fs afero.Fs) *bytes.Buffer {
	t.Helper()
	oldFs, oldOut, oldLogger := appFs, stdout, logger
	var buf bytes.Buffer
	appFs, stdout, logger = fs, &buf, logging.Discard()

	viper.Reset()
	config.SetDefaults()
	t.Cleanup(func() {
		appFs, stdout, logger = oldFs, oldOut, oldLogger
		viper.Reset()
	})
	return &buf
}

// useMemCase creates an nx by ny case at /case in memory, with the given
// time directories besides 0, and makes it the current case.
func useMemCase(t *testing.T, nx, ny int, times ...string) (*testutil.TempCase, *bytes.Buffer) {
	t.Helper()
	fs := afero.NewMemMapFs()
	out := useFs(t, fs)
	tc := testutil.NewTempCase(t, fs, "/case", nx, ny)
	for _, name := range times {
		tc.AddTime(name)
	}
	viper.Set("case.root", tc.Path)
	return tc, out
}
