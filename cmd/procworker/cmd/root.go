package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/procworker/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	logJSON  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "procworker",
	Short: "Per-job process-isolation worker runtime",
	Long: `procworker runs jobs in disposable child processes.

The worker command supervises an unbounded sequence of jobs on one
long-lived process, spawning a fresh slave process per job; the slave
command runs exactly one job and exits with a classified code. Exit codes
are the contract with the owning supervisor (see "procworker codes").`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.procworker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}
		viper.AddConfigPath(filepath.Join(home, ".procworker"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("PROCWORKER")
	viper.AutomaticEnv()

	for key, value := range defaultConfig().settings() {
		viper.SetDefault(key, value)
	}

	// A missing config file is fine; flags and env cover everything.
	_ = viper.ReadInConfig()

	if logLevel == "" {
		logLevel = viper.GetString("log_level")
	}
	if !logJSON {
		logJSON = viper.GetBool("log_json")
	}
}

// newLogger builds the process logger from the resolved configuration.
func newLogger() *logging.Logger {
	return logging.New(logging.ParseLevel(logLevel), logJSON)
}
