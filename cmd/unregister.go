package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/registry"
)

var unregisterApply bool

var unregisterCmd = &cobra.Command{
	Use:   "unregister <root> <jsonpath>",
	Short: "Remove datasets from a registry file",
	Long: `Remove every item whose root equals <root> from the registry file
<jsonpath>. Without --unregister the matching items are only listed.

Example:
  foamkit unregister run1 plumes/simulations.json
  foamkit unregister run1 plumes/simulations.json --unregister`,
	Args: cobra.ExactArgs(2),
	RunE: runUnregister,
}

func init() {
	rootCmd.AddCommand(unregisterCmd)

	unregisterCmd.Flags().BoolVar(&unregisterApply, "unregister", false, "Actually rewrite the registry")
}

func runUnregister(cmd *cobra.Command, args []string) error {
	removed, err := registry.Unregister(appFs, args[1], args[0], unregisterApply, logger)
	if err != nil {
		return err
	}
	for _, it := range removed {
		verb := "Would remove"
		if unregisterApply {
			verb = "Removed"
		}
		fmt.Fprintf(stdout, "%s %s (root %s)\n", verb, it.Name, it.Root)
	}
	if len(removed) == 0 {
		fmt.Fprintf(stdout, "No items with root %s\n", args[0])
	}
	return nil
}
