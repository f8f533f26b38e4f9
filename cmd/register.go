package cmd

import (
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/config"
	"github.com/pders01/foamkit/internal/registry"
)

var (
	registerSource    string
	registerColor     string
	registerJSONPath  string
	registerOverwrite bool
	registerNoCopy    bool
	registerMock      bool
)

var registerCmd = &cobra.Command{
	Use:   "register <name> <type> <dest> <fs> <dims> <source> <fields>",
	Short: "Add a probe dataset to the registry",
	Long: `Register a captured probe dataset in a registry file and copy its
probe files below the registry root.

Arguments:
  name     name of the case
  type     "sim" (simulations.json), "rec" (recordings.json) or a json file name
  dest     folder below the registry root that receives the probe files
  fs       sample rate in Hz
  dims     domain dimensions, e.g. "[1.2, 0.5]"
  source   plume source location, e.g. "[0.2, 0.25]"
  fields   comma separated field names, e.g. "S1,S2"

An item with the same name and dest is only replaced with --overwrite.

Examples:
  foamkit register run1 sim run1 10 "[1.2, 0.5]" "[0.2, 0.25]" S1,S2
  foamkit register run1 rec rec/run1 50 "[1, 1]" "[0.5, 0]" S1 --nocopy --mock`,
	Args: cobra.ExactArgs(7),
	RunE: runRegister,
}

func init() {
	rootCmd.AddCommand(registerCmd)

	registerCmd.Flags().StringVar(&registerSource, "source", "", "Folder containing the probe files (default: <name>)")
	registerCmd.Flags().StringVar(&registerColor, "colour", registry.DefaultColor, "Display colour of the dataset")
	registerCmd.Flags().StringVar(&registerJSONPath, "jsonpath", "", "Directory with the registry files (default: registry.path)")
	registerCmd.Flags().BoolVar(&registerOverwrite, "overwrite", false, "Replace an existing item with the same name and dest")
	registerCmd.Flags().BoolVar(&registerNoCopy, "nocopy", false, "Do not copy the probe files")
	registerCmd.Flags().BoolVar(&registerMock, "mock", false, "Do not write the registry")
}

func runRegister(cmd *cobra.Command, args []string) error {
	name, typ, dest := args[0], args[1], args[2]

	dir := registerJSONPath
	if dir == "" {
		dir = config.GetRegistryPath()
	}
	path, err := registry.FileFor(dir, typ)
	if err != nil {
		return err
	}

	rate, err := cast.ToFloat64E(args[3])
	if err != nil {
		return err
	}
	dims, err := registry.ParseArray(args[4])
	if err != nil {
		return err
	}
	source, err := registry.ParseArray(args[5])
	if err != nil {
		return err
	}

	item := registry.Item{
		Name:       name,
		Root:       dest,
		Fs:         rate,
		Color:      registerColor,
		Dimensions: dims,
		Source:     source,
		Fields:     registry.ParseFields(args[6]),
	}
	_, err = registry.Register(appFs, path, item, registry.RegisterOptions{
		SourceDir: registerSource,
		Overwrite: registerOverwrite,
		NoCopy:    registerNoCopy,
		Mock:      registerMock,
		Log:       logger,
	})
	return err
}
