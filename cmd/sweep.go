package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"matbench/cmd/util"
	"matbench/helper"
	"matbench/matmul"
	"matbench/matrix"
	"matbench/reduce"
	"matbench/sysinfo"
	"matbench/verify"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [N]",
	Short: "Run every loop order on the same operands and rank them",
	Long: `Multiplies the same A and B once per loop order, ranks the orders by
elapsed time, checks that all of them produced the same C, and stores the
results (and optionally one CPU profile per order) under <output>/<id>.`,
	Aliases: []string{"s"},
	RunE:    runSweepCmd,
}

// SweepSettings configure a loop-order sweep.
type SweepSettings struct {
	Matmul    MatmulSettings
	Orders    []matmul.LoopOrder
	Tolerance float64
	Id        string
	TmpRoot   string
	Output    string
	Profile   bool
}

// ErrOrdersDisagree is returned when a loop order's C differs from the first
// order's C by more than the tolerance in any element.
var ErrOrdersDisagree = errors.New("loop orders disagree")

func init() {
	sweepCmd.Flags().StringP("orders", "", "", "Comma separated loop orders to run (default all six)")
	sweepCmd.Flags().StringP("fill", "f", "sequence", "How to fill A and B: sequence or random")
	sweepCmd.Flags().Float32P("seed-a", "a", 20, "Sequence seed for A")
	sweepCmd.Flags().Float32P("seed-b", "b", 5, "Sequence seed for B")
	sweepCmd.Flags().Int64P("rng-seed", "s", 101, "PRNG seed for the random fill")
	sweepCmd.Flags().IntP("workers", "w", 1, "Goroutines sharing the columns of C")
	sweepCmd.Flags().Int64P("memory-limit", "", 0, "Refuse buffers larger than this many bytes (0 for no limit)")
	sweepCmd.Flags().Float64P("tolerance", "d", 1e-5, "Largest elementwise relative error between the C of two orders")
	sweepCmd.Flags().StringP("name", "n", "", "The id of the run (default a fresh UUID)")
	sweepCmd.Flags().StringP("output", "o", "_data", "The path to the output folder")
	sweepCmd.Flags().StringP("tmp", "", "_tmp", "The folder runs are staged in")
	sweepCmd.Flags().BoolP("profile", "p", false, "Record a CPU profile per loop order")
	RootCmd.AddCommand(sweepCmd)
}

func runSweepCmd(cmd *cobra.Command, args []string) error {
	ms, err := matmulSettings(cmd, args)
	if err != nil {
		return err
	}
	s := SweepSettings{Matmul: ms}
	flags := cmd.Flags()
	orders, _ := flags.GetString("orders")
	if s.Orders, err = matmul.ParseLoopOrders(orders); err != nil {
		return err
	}
	s.Tolerance, _ = flags.GetFloat64("tolerance")
	s.Id, _ = flags.GetString("name")
	s.Output, _ = flags.GetString("output")
	s.TmpRoot, _ = flags.GetString("tmp")
	s.Profile, _ = flags.GetBool("profile")

	_, err = RunSweep(s, cmd.OutOrStdout())
	return err
}

// RunSweep times every configured loop order on one pair of operands. The
// table and profiles are staged in TmpRoot/<id> and copied to Output/<id>.
func RunSweep(s SweepSettings, out io.Writer) (util.OrderTimeArray, error) {
	if len(s.Orders) == 0 {
		s.Orders = matmul.AllOrders()
	}
	// Generate a UUID if no Id is provided
	if len(s.Id) == 0 {
		u := uuid.New()
		s.Id = u.String()
	}
	if s.TmpRoot == "" {
		s.TmpRoot = "_tmp"
	}
	tmpPath := s.TmpRoot + p + s.Id
	if err := util.CleanOrCreateTempFolder(tmpPath); err != nil {
		return nil, err
	}

	fmt.Fprintf(out, "Run %s on %s\n", s.Id, sysinfo.Describe())
	a, b, c, err := newOperands(s.Matmul, out)
	if err != nil {
		return nil, err
	}

	var ref *matrix.Buffer
	results := make(util.OrderTimeArray, 0, len(s.Orders))
	for _, order := range s.Orders {
		c.FillZero()
		r := util.OrderTimePair{Order: order}

		var stop func() error
		if s.Profile {
			r.Profile = order.String() + "-cpu.pprof"
			if stop, err = helper.StartCPUProfile(filepath.Join(tmpPath, r.Profile)); err != nil {
				return nil, err
			}
		}
		start := time.Now()
		err = matmul.MultiplyInto(c, a, b, order, matmul.WithWorkers(s.Matmul.Workers))
		r.Time = time.Since(start)
		if stop != nil {
			if serr := stop(); serr != nil && err == nil {
				err = serr
			}
		}
		if err != nil {
			return nil, fmt.Errorf("loop order %s: %w", order, err)
		}
		r.Norm = reduce.Frobenius(c)
		if ref == nil {
			if ref, err = matrix.New(c.N(), matrix.WithMemoryLimit(s.Matmul.MemoryLimit)); err != nil {
				return nil, err
			}
			copy(ref.Data(), c.Data())
		} else if r.MaxError, err = verify.MaxRelativeError(c, ref); err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "%s done in %v\n", order, r.Time)
		results = append(results, r)
	}

	sort.Sort(results)

	var table bytes.Buffer
	fmt.Fprintf(&table, "N=%d fill=%s workers=%d\n", s.Matmul.N, s.Matmul.Fill, s.Matmul.Workers)
	fmt.Fprintf(&table, "%s\n", sysinfo.Describe())
	fmt.Fprintf(&table, "%-5s %14s %10s %16s %12s  %s\n", "order", "time", "GFLOP/s", "frobenius", "max error", "profile")
	for _, r := range results {
		fmt.Fprintf(&table, "%-5s %14v %10.3f %16g %12g  %s\n", r.Order, r.Time, r.GFlops(s.Matmul.N), r.Norm, r.MaxError, r.Profile)
	}
	fmt.Fprintf(&table, "max relative element error: %g\n", results.MaxError())
	if _, err := out.Write(table.Bytes()); err != nil {
		return nil, err
	}
	if err := util.WriteFile(tmpPath, "results.txt", table.Bytes()); err != nil {
		return nil, err
	}

	if s.Output != "" {
		dst, err := util.CopyToOutput(tmpPath, s.Output, s.Id)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "Results written to %s\n", dst)
	}

	return results, checkAgreement(results, s.Tolerance)
}

// checkAgreement fails with ErrOrdersDisagree naming the first order whose
// error is above tol or NaN.
func checkAgreement(results util.OrderTimeArray, tol float64) error {
	for _, r := range results {
		if !(r.MaxError <= tol) {
			return fmt.Errorf("%w: %s differs by %g (tolerance %g)", ErrOrdersDisagree, r.Order, r.MaxError, tol)
		}
	}
	return nil
}
