package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/models"
	"github.com/pders01/foamkit/internal/probe"
)

var (
	metaPrefix string
	metaJSON   bool
	metaToon   bool
)

var metaCmd = &cobra.Command{
	Use:   "meta [dir]",
	Short: "Show the capture metadata of a probe dataset",
	Long: `Display probe.meta.json of the dataset in dir (default: the current
directory).

Examples:
  foamkit meta
  foamkit meta merged --json
  foamkit meta runs --prefix run1. --toon`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMeta,
}

func init() {
	rootCmd.AddCommand(metaCmd)

	metaCmd.Flags().StringVar(&metaPrefix, "prefix", "", "File name prefix of the dataset")
	metaCmd.Flags().BoolVar(&metaJSON, "json", false, "Output as JSON")
	metaCmd.Flags().BoolVar(&metaToon, "toon", false, "Output in LLM-friendly toon format")
}

func runMeta(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	a := models.Artifacts{Dir: dir, Prefix: metaPrefix}

	metadata, err := probe.ReadMeta(appFs, a.Meta())
	if err != nil {
		return err
	}
	if done, err := printStructured(metadata, metaJSON, metaToon); done {
		return err
	}

	fmt.Fprintf(stdout, "Dataset: %s\n\n", a)
	fmt.Fprintf(stdout, "Run ID:     %s\n", metadata.RunID)
	fmt.Fprintf(stdout, "Created:    %s\n", metadata.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(stdout, "Mode:       %s\n", metadata.Mode)
	if metadata.Case != "" {
		fmt.Fprintf(stdout, "Case:       %s (%s)\n", metadata.Case, metadata.CasePath)
	}
	if metadata.Field != "" {
		fmt.Fprintf(stdout, "Field:      %s\n", metadata.Field)
	}
	fmt.Fprintf(stdout, "Times:      %d (%g - %g)\n", metadata.TimeCount, metadata.TMin, metadata.TMax)
	fmt.Fprintf(stdout, "Probes:     %d\n", len(metadata.Probes))

	if len(metadata.Sources) > 0 {
		fmt.Fprintf(stdout, "\nSources:\n")
		for _, s := range metadata.Sources {
			fmt.Fprintf(stdout, "  %s\n", s)
		}
	}
	if len(metadata.BadDirs) > 0 {
		fmt.Fprintf(stdout, "\nBad time directories (%d):\n", len(metadata.BadDirs))
		for _, b := range metadata.BadDirs {
			fmt.Fprintf(stdout, "  %-12s %s\n", b.Dir, b.Reason)
		}
	}
	if metadata.Notes != "" {
		fmt.Fprintf(stdout, "\nNotes:\n%s\n", metadata.Notes)
	}
	return nil
}
