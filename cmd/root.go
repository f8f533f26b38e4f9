package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pders01/foamkit/internal/config"
	"github.com/pders01/foamkit/internal/logging"
)

var (
	cfgFile string
	caseDir string
	verbose bool

	// appFs and stdout are swapped out by tests.
	appFs  afero.Fs  = afero.NewOsFs()
	stdout io.Writer = os.Stdout
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "foamkit",
	Short: "Probe extraction and time directory tooling for OpenFOAM cases",
	Long: `foamkit works on OpenFOAM case directories:
  - place probes on the mesh and capture field time series
  - merge captures taken over overlapping time windows
  - list, archive, extract and prune time directories
  - keep a registry of captured datasets

Every command operates on the case given by --case (default: the
current directory).`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogger,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Close()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/foamkit/config.toml)")
	rootCmd.PersistentFlags().StringVar(&caseDir, "case", "", "case directory (default is case.root from the config, or .)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")

	viper.BindPFlag("case.root", rootCmd.PersistentFlags().Lookup("case"))
	viper.BindPFlag("log.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		configDir, err := defaultConfigDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		viper.AddConfigPath(configDir)
		viper.SetConfigType("toml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	config.SetDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "foamkit"), nil
}

func setupLogger(cmd *cobra.Command, args []string) error {
	l, err := logging.New(logging.Options{
		Color:   logging.ColorMode(config.GetLogColor()),
		File:    config.GetLogFile(),
		Verbose: config.GetLogVerbose(),
		Out:     stdout,
	})
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// casePath returns the case directory the command works on.
func casePath() string {
	if root := config.GetCaseRoot(); root != "" {
		return root
	}
	return "."
}
