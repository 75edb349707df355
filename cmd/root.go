package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "matbench",
	Short: "Dense matrix multiplication benchmark and energy log integrator",
	Long: `matbench times the naive N×N float32 matrix product under each of the six
loop orders, profiles and sweeps those runs, and integrates power logs into
total energy with the trapezoidal rule.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

const p = string(os.PathSeparator)

// Execute adds all child commands to the root command and sets Flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	err := RootCmd.Execute()
	if err != nil {
		println("Failed to execute command: " + err.Error())
		os.Exit(1)
	}
}
