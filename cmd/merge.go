package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/merge"
	"github.com/pders01/foamkit/internal/models"
)

var (
	mergeSource string
	mergeOutput string
)

var mergeCmd = &cobra.Command{
	Use:   "merge [dir...]",
	Short: "Merge probe captures from overlapping time windows",
	Long: `Join probe datasets captured over different, possibly overlapping, time
windows into one continuous series. All datasets must probe exactly the
same coordinates.

Without arguments the datasets in --source are used: every
<prefix>probe.coords.p with matching <prefix>probe.t.p and
<prefix>probe.data.npy is one dataset. With arguments each directory
holds one dataset.

The merged dataset is written to <source>/merged unless --output is set.
Nothing is written when the datasets do not fit together.

Examples:
  foamkit merge
  foamkit merge run1 run2 run3 --output combined`,
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)

	mergeCmd.Flags().StringVar(&mergeSource, "source", ".", "Directory holding prefixed datasets")
	mergeCmd.Flags().StringVar(&mergeOutput, "output", "", "Output directory (default: <source>/merged)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	var (
		found []models.Artifacts
		err   error
	)
	if len(args) > 0 {
		found, err = merge.FromDirs(appFs, args)
	} else {
		found, err = merge.Discover(appFs, mergeSource)
	}
	if err != nil {
		return err
	}
	if len(found) == 0 {
		return merge.ErrNoSources
	}
	for _, a := range found {
		logger.Info("Found dataset %s.", a)
	}

	sources, err := merge.LoadSources(appFs, found)
	if err != nil {
		return err
	}
	merged, err := merge.Merge(sources, logger)
	if err != nil {
		return fmt.Errorf("failed to merge: %w", err)
	}

	outDir := mergeOutput
	if outDir == "" {
		outDir = filepath.Join(mergeSource, models.MergedDir)
	}
	out, err := merge.Write(appFs, outDir, merged, found)
	if err != nil {
		return err
	}
	logger.Info("%s", merge.Summarize(merged))
	logger.Success("Wrote merged dataset to %s.", out)
	return nil
}
