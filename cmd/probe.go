package cmd

import (
	"fmt"
	"strings"

	"github.com/gosuri/uiprogress"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pders01/foamkit/internal/config"
	"github.com/pders01/foamkit/internal/models"
	"github.com/pders01/foamkit/internal/probe"
)

var (
	probeNX           int
	probeNY           int
	probeXMin         string
	probeXMax         string
	probeYMin         string
	probeYMax         string
	probeCoords       string
	probeFrom         string
	probeMesh         string
	probeMock         bool
	probeBar          bool
	probeOutputDir    string
	probePrefix       string
	probeCoordMode    = coordModeValue(probe.Relative)
	probeDecompressor = decompressorValue(decompressGzip)
)

var probeCmd = &cobra.Command{
	Use:   "probe [field]",
	Short: "Capture field time series at probe locations",
	Long: `Place probes on the mesh of the case and read the value of a field at
each probe for every time directory. The result is written as
probe.coords.p, probe.t.p and probe.data.npy plus probe.meta.json.

Probe locations come from one of:
  a grid      --nx by --ny points spread over [xmin, xmax] x [ymin, ymax]
  a list      --coords "(x1, y1) (x2, y2) ..."
  a file      --from probes.yaml

Without a field argument the fields listed in probe.fields are probed at
the same locations. All probed fields must have the same number of
components. Coordinates are absolute, or a percentage of the mesh range
when suffixed with %. Times tmin <= t <= tmax are read; the first time directory of the
case (the initial conditions) is skipped.

Examples:
  foamkit probe T
  foamkit probe T --nx 21 --ny 5 --xmin 10% --xmax 90%
  foamkit probe U --coords "(2.1, 40%) (3.0, 0.25)" --tmin 100
  foamkit probe --from probes.yaml --bar
  foamkit probe T --mock`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().IntVar(&probeNX, "nx", 11, "Number of x coordinates")
	probeCmd.Flags().IntVar(&probeNY, "ny", 11, "Number of y coordinates")
	probeCmd.Flags().StringVar(&probeXMin, "xmin", "0%", "Minimum x coordinate, absolute or % of the mesh range")
	probeCmd.Flags().StringVar(&probeXMax, "xmax", "100%", "Maximum x coordinate, absolute or % of the mesh range")
	probeCmd.Flags().StringVar(&probeYMin, "ymin", "0%", "Minimum y coordinate, absolute or % of the mesh range")
	probeCmd.Flags().StringVar(&probeYMax, "ymax", "100%", "Maximum y coordinate, absolute or % of the mesh range")
	probeCmd.Flags().StringVar(&probeCoords, "coords", "", `Explicit coordinates "(x1, y1) (x2, y2) ..."`)
	probeCmd.Flags().StringVar(&probeFrom, "from", "", "YAML file with probe definitions")
	probeCmd.Flags().StringVar(&probeMesh, "mesh", "", "Mesh snapshot file or case directory to take the mesh from")
	probeCmd.Flags().BoolVar(&probeMock, "mock", false, "Place the probes and write coordinates without reading data")
	probeCmd.Flags().BoolVar(&probeBar, "bar", false, "Show a progress bar while reading")
	probeCmd.Flags().StringVar(&probeOutputDir, "output-dir", ".", "Directory for the probe files")
	probeCmd.Flags().StringVar(&probePrefix, "prefix", "", "Prefix for the probe file names")
	probeCmd.Flags().Var(&probeCoordMode, "coord-mode", "Mode for --from entries without one: relative|absolute")
	probeCmd.Flags().Var(&probeDecompressor, "decompressor", "How compressed fields are expanded: gzip|gunzip")
	probeCmd.Flags().Float64("tmin", 0, "Minimum time to probe")
	probeCmd.Flags().Float64("tmax", 1e6, "Maximum time to probe")
	probeCmd.Flags().Float64("min-distance", probe.DefaultMinDistance, "Minimum distance between probes of the same field")
	probeCmd.Flags().Duration("progress", probe.DefaultProgressInterval, "Minimum interval between progress lines")

	viper.BindPFlag("probe.tmin", probeCmd.Flags().Lookup("tmin"))
	viper.BindPFlag("probe.tmax", probeCmd.Flags().Lookup("tmax"))
	viper.BindPFlag("probe.min_distance", probeCmd.Flags().Lookup("min-distance"))
	viper.BindPFlag("probe.progress_interval", probeCmd.Flags().Lookup("progress"))
	viper.BindPFlag("probe.decompressor", probeCmd.Flags().Lookup("decompressor"))
}

func runProbe(cmd *cobra.Command, args []string) error {
	settings, err := config.Probe()
	if err != nil {
		return err
	}
	fieldNames := settings.Fields
	if len(args) > 0 {
		fieldNames = args[:1]
	}
	if len(fieldNames) == 0 && probeFrom == "" {
		return fmt.Errorf("a field name is required unless --from or probe.fields is given")
	}
	if probeFrom == "" && probeCoords == "" && (probeNX < 1 || probeNY < 1) {
		return fmt.Errorf("invalid grid %dx%d: --nx and --ny must be at least 1", probeNX, probeNY)
	}

	c, err := probe.Open(appFs, casePath(), probe.Options{
		MeshPath:   probeMesh,
		Snapshot:   config.GetMeshSnapshot(),
		InitialDir: config.GetInitialDir(),
		Log:        logger,
	})
	if err != nil {
		return err
	}

	if probeFrom != "" {
		var fieldName string
		if len(fieldNames) > 0 {
			fieldName = fieldNames[0]
		}
		err = addFromFile(c, fieldName, settings)
	} else {
		err = addFromFlags(c, fieldNames, settings)
	}
	if err != nil {
		return err
	}
	if len(c.Probes()) == 0 {
		return fmt.Errorf("no probes were placed")
	}
	if _, err := c.Dim(); err != nil {
		return err
	}

	out := models.Artifacts{Dir: probeOutputDir, Prefix: probePrefix}
	mode := models.ModeCapture
	var (
		dataset *probe.Dataset
		report  *probe.ReadReport
	)
	opts := probe.ReadOptions{
		SkipFirst:        settings.SkipFirst,
		TMin:             settings.TMin,
		TMax:             settings.TMax,
		ProgressInterval: settings.ProgressInterval,
		CompressedExt:    settings.CompressedExt,
	}

	if probeMock {
		logger.Info("Mock mode, so no probe data was read.")
		mode = models.ModeMock
		dataset = &probe.Dataset{Coords: c.Coords()}
	} else {
		if opts.Decompressor, err = newDecompressor(appFs, settings.Decompressor); err != nil {
			return err
		}
		if probeBar {
			stop := attachBar(&opts, len(c.SelectTimes(opts)))
			report, err = c.ReadProbes(opts)
			stop()
		} else {
			report, err = c.ReadProbes(opts)
		}
		if err != nil {
			return err
		}
		if dataset, err = c.Dataset(); err != nil {
			return err
		}
	}

	if err := probe.Save(appFs, out, dataset); err != nil {
		return err
	}
	if err := probe.WriteMeta(appFs, out.Meta(), c.Metadata(mode, strings.Join(fieldNames, ","), opts, report)); err != nil {
		return err
	}
	logger.Success("Wrote %d probes to %s.", len(dataset.Coords), out)
	return nil
}

func addFromFile(c *probe.Case, fieldName string, settings config.ProbeSettings) error {
	defs, err := probe.LoadDefinitions(appFs, probeFrom)
	if err != nil {
		return err
	}
	if defs.Field == "" {
		defs.Field = fieldName
	}
	if defs.Mode == "" {
		defs.Mode = probe.CoordMode(probeCoordMode)
	}
	if defs.MinDistance == 0 {
		defs.MinDistance = settings.MinDistance
	}
	logger.Info("Placing %d probes from %s.", len(defs.Probes), probeFrom)
	_, err = c.AddDefinitions(defs)
	return err
}

func addFromFlags(c *probe.Case, fieldNames []string, settings config.ProbeSettings) error {
	m := c.Mesh()
	xr, err := probe.Span(probeXMin, probeXMax, m.Range(0))
	if err != nil {
		return fmt.Errorf("invalid x range: %w", err)
	}
	logger.Info("xrange: [%g, %g]", xr[0], xr[1])
	yr, err := probe.Span(probeYMin, probeYMax, m.Range(1))
	if err != nil {
		return fmt.Errorf("invalid y range: %w", err)
	}
	logger.Info("yrange: [%g, %g]", yr[0], yr[1])

	var coords []probe.Coord
	if probeCoords != "" {
		logger.Info("Parsing coordinates from: %s", probeCoords)
		if coords, err = probe.ParseCoordList(probeCoords, xr, yr); err != nil {
			return err
		}
	} else {
		coords = probe.Grid(xr, yr, probeNX, probeNY)
	}

	for _, fieldName := range fieldNames {
		logger.Info("Probing field %s at %d coordinates.", fieldName, len(coords))
		for _, coord := range coords {
			if _, err := c.AddProbe(fieldName, coord, probe.AddOptions{
				Mode:        probe.Absolute,
				MinDistance: settings.MinDistance,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// attachBar drives a terminal progress bar from the read loop and returns
// a function that stops it.
func attachBar(opts *probe.ReadOptions, total int) func() {
	p := uiprogress.New()
	p.SetOut(stdout)
	bar := p.AddBar(total).AppendCompleted().PrependElapsed()
	p.Start()
	opts.OnStep = func(done, _ int) {
		bar.Set(done)
	}
	return p.Stop
}
