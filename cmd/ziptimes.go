package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/archive"
	"github.com/pders01/foamkit/internal/timedir"
)

var (
	ziptimesTMin      float64
	ziptimesTMax      float64
	ziptimesDelete    bool
	ziptimesOutputDir string
)

var ziptimesCmd = &cobra.Command{
	Use:   "ziptimes",
	Short: "Bundle time directories as tar.gz archives",
	Long: `Create <t>.tar.gz for every time directory t of the case with
tmin < t <= tmax. Members are stored as <t>/<file>, so archives unpack
back into time directories.

Examples:
  foamkit ziptimes --tmin 0 --tmax 10
  foamkit ziptimes --delete
  foamkit ziptimes --output-dir /archive/run1`,
	Args: cobra.NoArgs,
	RunE: runZiptimes,
}

func init() {
	rootCmd.AddCommand(ziptimesCmd)

	ziptimesCmd.Flags().Float64Var(&ziptimesTMin, "tmin", 0, "Times > tmin are archived")
	ziptimesCmd.Flags().Float64Var(&ziptimesTMax, "tmax", 100000, "Times <= tmax are archived")
	ziptimesCmd.Flags().BoolVar(&ziptimesDelete, "delete", false, "Delete each directory after archiving it")
	ziptimesCmd.Flags().StringVar(&ziptimesOutputDir, "output-dir", "", "Directory for the archives (default: the case directory)")
}

func runZiptimes(cmd *cobra.Command, args []string) error {
	root := casePath()
	all, err := timedir.Discover(appFs, root)
	if err != nil {
		return err
	}
	logger.Info("Found %d total time directories.", len(all))

	use := timedir.Filter(all, ziptimesTMin, ziptimesTMax, timedir.LeftOpen)
	if len(use) == 0 {
		logger.Info("No time directories found in range.")
		return nil
	}
	logger.Info("%d directories included.", len(use))
	logger.Info("First: %8s", use[0].Name)
	logger.Info("Last:  %8s", use[len(use)-1].Name)

	outDir := ziptimesOutputDir
	if outDir == "" {
		outDir = root
	}
	if err := appFs.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	for i, e := range use {
		src := filepath.Join(root, e.Name)
		dst := filepath.Join(outDir, e.Name+archive.Extension)
		fmt.Fprintf(stdout, "[%d/%d] %s -> %s\n", i+1, len(use), src, dst)
		if err := archive.CreateDir(appFs, dst, src); err != nil {
			return err
		}
		if ziptimesDelete {
			if err := appFs.RemoveAll(src); err != nil {
				return fmt.Errorf("failed to delete %s: %w", src, err)
			}
			fmt.Fprintf(stdout, "  deleted %s\n", src)
		}
	}
	logger.Success("Archived %d time directories to %s.", len(use), outDir)
	return nil
}
