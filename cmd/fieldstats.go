package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/config"
	"github.com/pders01/foamkit/internal/field"
	"github.com/pders01/foamkit/internal/probe"
	"github.com/pders01/foamkit/internal/timedir"
)

var (
	fieldstatsTime float64
	fieldstatsJSON bool
	fieldstatsToon bool
)

var fieldstatsCmd = &cobra.Command{
	Use:   "fieldstats <field>",
	Short: "Show value statistics of a field at one time",
	Long: `Print, for each component of the field, the number of cells, the number
of NaN values, the minimum, the 1st, 5th, 25th, 50th, 75th, 95th and 99th
percentiles, and the maximum. Useful to check that a field is well-behaved
and to pick colour ranges for plots.

The time directory closest to --time is used; by default the latest.

Examples:
  foamkit fieldstats T
  foamkit fieldstats U --time 0.1
  foamkit fieldstats T --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFieldstats,
}

func init() {
	rootCmd.AddCommand(fieldstatsCmd)

	fieldstatsCmd.Flags().Float64Var(&fieldstatsTime, "time", -1, "Time to examine (default: latest)")
	fieldstatsCmd.Flags().BoolVar(&fieldstatsJSON, "json", false, "Output as JSON")
	fieldstatsCmd.Flags().BoolVar(&fieldstatsToon, "toon", false, "Output in LLM-friendly toon format")
}

type fieldStatsReport struct {
	Field      string        `json:"field"`
	Time       string        `json:"time"`
	Components []field.Stats `json:"components"`
}

func runFieldstats(cmd *cobra.Command, args []string) error {
	name := args[0]
	c, err := probe.Open(appFs, casePath(), probe.Options{
		Snapshot:   config.GetMeshSnapshot(),
		InitialDir: config.GetInitialDir(),
		Log:        logger,
	})
	if err != nil {
		return err
	}
	if c.FieldDim(name) == 0 {
		return fmt.Errorf("%w '%s'. Available fields: %s", probe.ErrUnknownField, name, strings.Join(c.Fields(), ", "))
	}

	times := c.Times()
	if len(times) == 0 {
		return fmt.Errorf("no time directories in %s", c.Path())
	}
	entry := times[len(times)-1]
	if fieldstatsTime > 0 {
		entry = times[timedir.Nearest(times, fieldstatsTime)]
	}
	logger.Info("Computing stats for t ~= %s", entry.Name)

	f, err := field.Read(appFs, c.Path(), entry.Name, name)
	if err != nil {
		return err
	}

	report := fieldStatsReport{Field: name, Time: entry.Name}
	for d := 0; d < f.Dim; d++ {
		report.Components = append(report.Components, field.Describe(f.Column(d)))
	}
	if done, err := printStructured(report, fieldstatsJSON, fieldstatsToon); done {
		return err
	}

	rule := strings.Repeat("*", 40)
	for d, s := range report.Components {
		fmt.Fprintln(stdout, rule)
		fmt.Fprintf(stdout, "DIMENSION %d\n", d)
		fmt.Fprintf(stdout, "%s at t ~= %s\n", name, entry.Name)
		fmt.Fprintln(stdout, strings.Repeat("-", 40))
		fmt.Fprintf(stdout, "%d elements.\n", s.Count)
		fmt.Fprintf(stdout, "%d NaN.\n", s.NaN)
		fmt.Fprintf(stdout, "Min: %g\n", s.Min)
		for _, p := range s.Percentiles {
			fmt.Fprintf(stdout, "%3g: %g\n", p.P, p.Value)
		}
		fmt.Fprintf(stdout, "Max: %g\n", s.Max)
	}
	return nil
}
