package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/psantana5/procworker/internal/job"
	"github.com/psantana5/procworker/internal/slave"
)

var slaveCmd = &cobra.Command{
	Use:   "slave",
	Short: "Run exactly one job and exit",
	Long: `Run one job in this process and exit with a classified code.

The worker command spawns this internally, one process per job. It is also
the uniform fallback where the supervisor prefers to spawn a fresh process
image per job itself: stdin carries two frames (the restorable worker state,
then the job request) and stdout receives exactly one result frame.`,
	RunE: runSlave,
}

func init() {
	rootCmd.AddCommand(slaveCmd)
}

func runSlave(cmd *cobra.Command, args []string) error {
	log := newLogger().WithField("component", "slave")

	os.Exit(slave.Run(slave.Options{
		Requests: os.Stdin,
		Results:  os.Stdout,
		Registry: job.Default(),
		Log:      log,
	}))
	return nil
}
