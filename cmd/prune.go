package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/timedir"
)

var pruneForce bool

var pruneCmd = &cobra.Command{
	Use:   "prune <after>",
	Short: "Remove time directories later than a given time",
	Long: `Find every time directory in the case, at any depth, whose time is
greater than <after>. Processor directories such as processor0/12.5 are
included.

Without --force only the directories that would be removed are listed.

Example:
  foamkit prune 10              # Show what would be removed
  foamkit prune 10 --force      # Actually remove the directories`,
	Args: cobra.ExactArgs(1),
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().BoolVar(&pruneForce, "force", false, "Actually delete the directories")
}

func runPrune(cmd *cobra.Command, args []string) error {
	after, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", args[0], err)
	}

	candidates, err := findLaterTimes(appFs, casePath(), after)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		fmt.Fprintf(stdout, "No time directories after %g\n", after)
		return nil
	}

	fmt.Fprintf(stdout, "Time directories after %g (%d):\n\n", after, len(candidates))
	for _, c := range candidates {
		fmt.Fprintf(stdout, "  %s\n", c)
	}

	if !pruneForce {
		fmt.Fprintln(stdout, "\nThis is a dry run. Use --force to actually delete them.")
		return nil
	}

	fmt.Fprintln(stdout, "\nDeleting...")
	failed := 0
	for _, c := range candidates {
		if err := appFs.RemoveAll(c); err != nil {
			fmt.Fprintf(stdout, "  Error deleting %s: %v\n", c, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "  ✓ Deleted %s\n", c)
	}
	if failed > 0 {
		return fmt.Errorf("failed to delete %d of %d directories", failed, len(candidates))
	}
	fmt.Fprintf(stdout, "\n✓ Pruned %d time director(ies)\n", len(candidates))
	return nil
}

// findLaterTimes walks root and returns the time directories with a value
// greater than after. The contents of a returned directory are not
// searched further.
func findLaterTimes(fs afero.Fs, root string, after float64) ([]string, error) {
	var found []string
	err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() || p == root {
			return nil
		}
		if v, ok := timedir.Parse(info.Name()); ok && v > after {
			found = append(found, p)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	return found, nil
}
