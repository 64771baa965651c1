package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk worker configuration.
type Config struct {
	LogLevel     string `yaml:"log_level"`
	LogJSON      bool   `yaml:"log_json"`
	MetricsAddr  string `yaml:"metrics_addr"`
	ControllerFD int    `yaml:"controller_fd"`
	RelayTimeout string `yaml:"relay_timeout"`
}

func defaultConfig() Config {
	return Config{
		LogLevel:     "info",
		MetricsAddr:  "",
		ControllerFD: 0,
		RelayTimeout: "10s",
	}
}

// settings maps the config to viper keys.
func (c Config) settings() map[string]interface{} {
	return map[string]interface{}{
		"log_level":     c.LogLevel,
		"log_json":      c.LogJSON,
		"metrics_addr":  c.MetricsAddr,
		"controller_fd": c.ControllerFD,
		"relay_timeout": c.RelayTimeout,
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage procworker configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Long:  `Write a default configuration to $HOME/.procworker/config.yaml, or to stdout with --stdout.`,
	RunE:  runConfigInit,
}

var configStdout bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolVar(&configStdout, "stdout", false, "print the config instead of writing it")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	data, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	if configStdout {
		fmt.Print(string(data))
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("find home directory: %w", err)
	}
	dir := filepath.Join(home, ".procworker")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
