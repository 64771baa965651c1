package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/psantana5/procworker/internal/monitor"
	"github.com/psantana5/procworker/internal/relay"
	"github.com/psantana5/procworker/internal/report"
	"github.com/psantana5/procworker/internal/worker"
)

var (
	controllerFD int
	metricsAddr  string
	relayTimeout time.Duration
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the long-lived worker lifecycle loop",
	Long: `Run the worker lifecycle loop: read the restorable state preamble and then
one framed job request at a time from stdin, spawning a disposable slave
process per job. Result frames are written by the slaves directly to stdout.

The worker's own exit code mirrors the terminal condition, so the owning
supervisor can wait on it unmodified. Pass --controller-fd to receive framed
termination records for abnormal slave exits on that descriptor.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)

	workerCmd.Flags().IntVar(&controllerFD, "controller-fd", 0, "descriptor for termination records (0=disabled)")
	workerCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the monitor HTTP server (empty=disabled)")
	workerCmd.Flags().DurationVar(&relayTimeout, "relay-timeout", relay.DefaultTimeout, "bound on one controller write")
}

func runWorker(cmd *cobra.Command, args []string) error {
	log := newLogger().WithField("component", "worker")

	if metricsAddr == "" {
		metricsAddr = viper.GetString("metrics_addr")
	}
	if controllerFD == 0 {
		controllerFD = viper.GetInt("controller_fd")
	}

	var controller io.Writer
	if controllerFD > 0 {
		controller = os.NewFile(uintptr(controllerFD), "controller")
	}

	var srv *monitor.Server
	if metricsAddr != "" {
		registry := prometheus.NewRegistry()
		registry.MustRegister(
			report.NewCollector(report.Global()),
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		srv = monitor.New(metricsAddr, registry, log)
		if err := srv.Start(); err != nil {
			return err
		}
	}

	w := worker.New(worker.Options{
		Requests:     os.Stdin,
		Results:      os.Stdout,
		Controller:   controller,
		RelayTimeout: relayTimeout,
		Log:          log,
	})

	code := w.Run()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = srv.Shutdown(ctx)
		cancel()
	}

	os.Exit(code)
	return nil
}
