package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/config"
	"github.com/pders01/foamkit/internal/logging"
	"github.com/pders01/foamkit/internal/mesh"
)

var savemeshOutput string

var savemeshCmd = &cobra.Command{
	Use:   "savemesh",
	Short: "Build the mesh cell centers and save a snapshot",
	Long: `Read constant/polyMesh of the case, compute the cell centers and save
them as a snapshot. Later commands load the snapshot instead of parsing
the mesh again.

The snapshot is written to <case>/<mesh.snapshot> unless --output is set.

Examples:
  foamkit savemesh
  foamkit savemesh --output /scratch/run1.mesh.gob`,
	Args: cobra.NoArgs,
	RunE: runSavemesh,
}

func init() {
	rootCmd.AddCommand(savemeshCmd)

	savemeshCmd.Flags().StringVar(&savemeshOutput, "output", "", "Snapshot file (default: <case>/<mesh.snapshot>)")
}

func runSavemesh(cmd *cobra.Command, args []string) error {
	m, err := mesh.Load(appFs, casePath(), logger)
	if err != nil {
		return err
	}

	out := savemeshOutput
	if out == "" {
		out = filepath.Join(casePath(), config.GetMeshSnapshot())
	}
	if err := m.Save(appFs, out); err != nil {
		return err
	}
	logger.Success("Saved mesh snapshot with %s cells to %s.", logging.Count(m.Len()), out)
	return nil
}
