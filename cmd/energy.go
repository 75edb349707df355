package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"matbench/energy"

	"github.com/spf13/cobra"
)

var energyCmd = &cobra.Command{
	Use:   "energy <logfile>",
	Short: "Integrate a time/power log into total energy",
	Long: `Reads lines of the form "<date> <HH:MM:SS.sss> <power>" and sums the
trapezia between consecutive samples. The log must cover a single day;
a timestamp that goes backwards (e.g. across midnight) is integrated as is
and reported as a warning.`,
	Aliases: []string{"e"},
	RunE:    runEnergyCmd,
}

// EnergySettings configure an energy integration.
type EnergySettings struct {
	Path   string
	Trace  bool
	Strict bool
	Sarif  string // SARIF report path, empty for none
}

// ErrUsage is returned when a command is called with the wrong arguments.
var ErrUsage = errors.New("wrong arguments")

func init() {
	energyCmd.Flags().BoolP("trace", "t", false, "Print every pair of points and the running total")
	energyCmd.Flags().BoolP("strict", "s", false, "Fail on the first truncated or corrupt line")
	energyCmd.Flags().StringP("sarif", "", "", "Write skipped lines and warnings as a SARIF report to this file")
	RootCmd.AddCommand(energyCmd)
}

func runEnergyCmd(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		fmt.Fprintf(cmd.OutOrStdout(), "%s requires name of file as sole parameter\n", cmd.CommandPath())
		return ErrUsage
	}
	var s EnergySettings
	s.Path = args[0]
	s.Trace, _ = cmd.Flags().GetBool("trace")
	s.Strict, _ = cmd.Flags().GetBool("strict")
	s.Sarif, _ = cmd.Flags().GetString("sarif")

	_, err := RunEnergy(s, cmd.OutOrStdout(), cmd.ErrOrStderr())
	return err
}

// RunEnergy integrates the log at s.Path. The totals go to out, skipped lines
// and warnings to errOut.
func RunEnergy(s EnergySettings, out, errOut io.Writer) (*energy.Result, error) {
	var opts []energy.Option
	if s.Trace {
		opts = append(opts, energy.WithTrace(out))
	}
	if s.Strict {
		opts = append(opts, energy.WithStrict())
	}
	res, err := energy.IntegrateFile(s.Path, opts...)
	if errors.Is(err, energy.ErrFileOpen) {
		fmt.Fprintf(out, "Cannot open file %s\n", s.Path)
		return nil, err
	}
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", s.Path, err)
		return nil, err
	}

	for _, le := range res.Skipped {
		if le.Kind == energy.KindBlank || le.Kind == energy.KindComment {
			continue
		}
		fmt.Fprintf(errOut, "skipped %v\n", le)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(errOut, "warning: line %d: %s: %s\n", w.Line, w.Kind, w.Message)
	}

	if s.Sarif != "" {
		f, err := os.Create(s.Sarif)
		if err != nil {
			return nil, fmt.Errorf("creating SARIF file: %w", err)
		}
		err = energy.WriteSARIF(f, s.Path, res)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, err
		}
	}

	fmt.Fprintf(out, "Read %d pairs of points.\nTotal energy = %f Joules\n", res.Pairs, res.TotalEnergy)
	return res, nil
}
