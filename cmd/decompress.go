package cmd

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/archive"
	"github.com/pders01/foamkit/internal/timedir"
)

var (
	decompressTMin      float64
	decompressTMax      float64
	decompressExtension string
	decompressMock      bool
)

var decompressCmd = &cobra.Command{
	Use:   "decompress <field> <source>",
	Short: "Extract one field from compressed time archives",
	Long: `Extract <t>/<field> from every time archive <source>/<t><extension> with
tmin < t <= tmax into the case directory. Other fields stay compressed.

Examples:
  foamkit decompress T /archive/run1
  foamkit decompress U /archive/run1 --tmin 10 --tmax 20
  foamkit decompress T /archive/run1 --mock`,
	Args: cobra.ExactArgs(2),
	RunE: runDecompress,
}

func init() {
	rootCmd.AddCommand(decompressCmd)

	decompressCmd.Flags().Float64Var(&decompressTMin, "tmin", 0, "Times > tmin are extracted")
	decompressCmd.Flags().Float64Var(&decompressTMax, "tmax", 1e6, "Times <= tmax are extracted")
	decompressCmd.Flags().StringVar(&decompressExtension, "extension", archive.Extension, "Archive file extension")
	decompressCmd.Flags().BoolVar(&decompressMock, "mock", false, "Only print what would be extracted")
}

func runDecompress(cmd *cobra.Command, args []string) error {
	fieldName, source := args[0], args[1]

	all, err := timedir.DiscoverFiles(appFs, source, decompressExtension)
	if err != nil {
		return err
	}
	logger.Info("Found %d total compressed files.", len(all))

	use := timedir.Filter(all, decompressTMin, decompressTMax, timedir.LeftOpen)
	logger.Info("Found %d files for the time interval (%.3f - %.3f].", len(use), decompressTMin, decompressTMax)
	if len(use) == 0 {
		return nil
	}
	logger.Info("First: %16s", use[0].Name)
	logger.Info(" Last: %16s", use[len(use)-1].Name)

	dest := casePath()
	failed := 0
	for _, e := range use {
		dir := strings.TrimSuffix(e.Name, decompressExtension)
		member := path.Join(dir, fieldName)
		target := filepath.Join(dest, dir, fieldName)
		if decompressMock {
			fmt.Fprintf(stdout, "mock extract %s from %s to %s\n", member, e.Name, target)
			continue
		}
		if err := archive.ExtractMember(appFs, filepath.Join(source, e.Name), member, target); err != nil {
			logger.Error("%v", err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "%s\n", target)
	}
	if failed > 0 {
		return fmt.Errorf("failed to extract %s from %d of %d archives", fieldName, failed, len(use))
	}
	return nil
}
