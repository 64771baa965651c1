package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/procworker/internal/status"
	"github.com/psantana5/procworker/internal/storefault"
)

var codesCmd = &cobra.Command{
	Use:   "codes",
	Short: "Show the exit-code contract",
	Long:  `Print the exit codes a slave or worker process can terminate with and what each one means to the owning supervisor.`,
	RunE:  runCodes,
}

func init() {
	rootCmd.AddCommand(codesCmd)
}

func runCodes(cmd *cobra.Command, args []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Code", "Meaning")

	table.Append(fmt.Sprintf("%d", status.CodeSuccess), "job completed normally")
	table.Append(fmt.Sprintf("%d", status.CodeNoJob), "request channel closed before a job was read (expected shutdown)")
	table.Append(fmt.Sprintf("%d", status.CodeUncaughtFault), "uncaught fault during job execution, or slave was signaled")
	table.Append(fmt.Sprintf("%d", status.CodeStopped), "slave was stopped (job-control signal)")
	for _, c := range storefault.Categories() {
		table.Append(fmt.Sprintf("%d", c.ExitCode()), "backing store fault: "+c.String())
	}

	return table.Render()
}
