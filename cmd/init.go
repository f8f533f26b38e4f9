package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/pders01/foamkit/internal/config"
)

var (
	initOutput string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Create the configuration file with every setting at its default value.

The file is written to $HOME/.config/foamkit/config.toml unless --output
is given. An existing file is kept unless --force is set.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVar(&initOutput, "output", "", "Config file to write (default is $HOME/.config/foamkit/config.toml)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := initOutput
	if configPath == "" {
		configDir, err := defaultConfigDir()
		if err != nil {
			return err
		}
		configPath = filepath.Join(configDir, "config.toml")
	}

	if ok, _ := afero.Exists(appFs, configPath); ok && !initForce {
		fmt.Fprintf(stdout, "Config already exists: %s\n", configPath)
		return nil
	}

	if err := appFs.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config.Default()); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := afero.WriteFile(appFs, configPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	fmt.Fprintf(stdout, "✓ Created default config: %s\n", configPath)
	return nil
}
