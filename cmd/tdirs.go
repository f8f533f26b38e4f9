package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/timedir"
)

var (
	tdirsTMin      float64
	tdirsTMax      float64
	tdirsFiles     bool
	tdirsExtension string
)

var tdirsCmd = &cobra.Command{
	Use:   "tdirs",
	Short: "List the time directories of the case",
	Long: `List the time directories of the case in ascending time order, one per
line. Only times with tmin <= t <= tmax are listed.

With --files, compressed time archives (files ending in --extension) are
listed instead of directories.

Examples:
  foamkit tdirs
  foamkit tdirs --tmin 10 --tmax 20
  foamkit tdirs --files --extension .tar.gz`,
	Args: cobra.NoArgs,
	RunE: runTdirs,
}

func init() {
	rootCmd.AddCommand(tdirsCmd)

	tdirsCmd.Flags().Float64Var(&tdirsTMin, "tmin", 0, "Minimum time to list")
	tdirsCmd.Flags().Float64Var(&tdirsTMax, "tmax", 10000, "Maximum time to list")
	tdirsCmd.Flags().BoolVar(&tdirsFiles, "files", false, "List time archives instead of directories")
	tdirsCmd.Flags().StringVar(&tdirsExtension, "extension", ".tar.gz", "Archive extension used with --files")
}

func runTdirs(cmd *cobra.Command, args []string) error {
	var (
		entries []timedir.Entry
		err     error
	)
	if tdirsFiles {
		entries, err = timedir.DiscoverFiles(appFs, casePath(), tdirsExtension)
	} else {
		entries, err = timedir.Discover(appFs, casePath())
	}
	if err != nil {
		return err
	}

	selected := timedir.Filter(entries, tdirsTMin, tdirsTMax, timedir.Closed)
	if len(selected) == 0 {
		return nil
	}
	fmt.Fprintln(stdout, strings.Join(timedir.Names(selected), "\n"))
	return nil
}
