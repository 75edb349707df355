package cmd

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"matbench/helper"
	"matbench/matmul"
	"matbench/matrix"
	"matbench/reduce"
	"matbench/verify"

	"github.com/spf13/cobra"
)

// DefaultSize is N when no size argument is given.
const DefaultSize = 1024

var matmulCmd = &cobra.Command{
	Use:   "matmul [N]",
	Short: "Multiply two N×N matrices with one loop order",
	Long: `Allocates A, B and C as N×N column-major float32 buffers, fills A and B,
computes C = A·B with the chosen loop order and prints the selected
summary of C. N defaults to 1024.`,
	Aliases: []string{"mm"},
	RunE:    runMatmulCmd,
}

// MatmulSettings collects the flags of a single multiplication run.
type MatmulSettings struct {
	N           int
	Order       matmul.LoopOrder
	Fill        string
	SeedA       float32
	SeedB       float32
	RNGSeed     int64
	Report      reduce.Mode
	Verbose     bool
	Workers     int
	Verify      verify.Backend
	Tolerance   float64
	CPUProfile  string
	Timing      bool
	MemoryLimit int64
}

// MatmulResult is what a run leaves behind for callers such as sweep.
type MatmulResult struct {
	C        *matrix.Buffer
	Elapsed  time.Duration
	MaxError float64 // relative error against the reference, when verified
}

// ErrVerifyFailed is returned when the product differs from the reference
// by more than the tolerance.
var ErrVerifyFailed = errors.New("result does not match reference")

func init() {
	matmulCmd.Flags().StringP("order", "l", "ijk", "Loop order: ijk, ikj, jik, jki, kij or kji")
	matmulCmd.Flags().StringP("fill", "f", "sequence", "How to fill A and B: sequence or random")
	matmulCmd.Flags().Float32P("seed-a", "a", 20, "Sequence seed for A")
	matmulCmd.Flags().Float32P("seed-b", "b", 5, "Sequence seed for B")
	matmulCmd.Flags().Int64P("rng-seed", "s", 101, "PRNG seed for the random fill")
	matmulCmd.Flags().StringP("report", "r", "frobenius", "Summary of C: frobenius, sample or full")
	matmulCmd.Flags().BoolP("verbose", "v", false, "Print A and B, and C in full")
	matmulCmd.Flags().IntP("workers", "w", 1, "Goroutines sharing the columns of C")
	matmulCmd.Flags().StringP("verify", "", "none", "Check C against a library product: none, blas or tensor")
	matmulCmd.Flags().Float64P("tolerance", "", 1e-4, "Largest relative error accepted by --verify")
	matmulCmd.Flags().StringP("cpuprofile", "", "", "Write a CPU profile of the multiplication to this file")
	matmulCmd.Flags().BoolP("timing", "t", false, "Print elapsed time and GFLOP/s")
	matmulCmd.Flags().Int64P("memory-limit", "", 0, "Refuse buffers larger than this many bytes (0 for no limit)")
	RootCmd.AddCommand(matmulCmd)
}

// parseSize reads N from the first argument, the way the benchmark has always
// taken it; further arguments are ignored with a note.
func parseSize(args []string, out io.Writer) (int, error) {
	if len(args) == 0 {
		return DefaultSize, nil
	}
	if len(args) > 1 {
		fmt.Fprintln(out, "(ignoring other parameters)")
	}
	n, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("matrix size %q: %w", args[0], matrix.ErrInvalidDimension)
	}
	return n, nil
}

// matmulSettings reads the shared operand flags; sweep registers the same names.
func matmulSettings(cmd *cobra.Command, args []string) (MatmulSettings, error) {
	var s MatmulSettings
	var err error
	if s.N, err = parseSize(args, cmd.OutOrStdout()); err != nil {
		return s, err
	}
	flags := cmd.Flags()
	if s.Fill, err = flags.GetString("fill"); err != nil {
		return s, err
	}
	if s.SeedA, err = flags.GetFloat32("seed-a"); err != nil {
		return s, err
	}
	if s.SeedB, err = flags.GetFloat32("seed-b"); err != nil {
		return s, err
	}
	if s.RNGSeed, err = flags.GetInt64("rng-seed"); err != nil {
		return s, err
	}
	if s.Workers, err = flags.GetInt("workers"); err != nil {
		return s, err
	}
	if s.MemoryLimit, err = flags.GetInt64("memory-limit"); err != nil {
		return s, err
	}
	return s, nil
}

func runMatmulCmd(cmd *cobra.Command, args []string) error {
	s, err := matmulSettings(cmd, args)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	order, _ := flags.GetString("order")
	if s.Order, err = matmul.ParseLoopOrder(order); err != nil {
		return err
	}
	report, _ := flags.GetString("report")
	if s.Report, err = reduce.ParseMode(report); err != nil {
		return err
	}
	backend, _ := flags.GetString("verify")
	if s.Verify, err = verify.ParseBackend(backend); err != nil {
		return err
	}
	s.Verbose, _ = flags.GetBool("verbose")
	s.Tolerance, _ = flags.GetFloat64("tolerance")
	s.CPUProfile, _ = flags.GetString("cpuprofile")
	s.Timing, _ = flags.GetBool("timing")

	_, err = RunMatmul(s, cmd.OutOrStdout())
	return err
}

// newOperands allocates and fills A and B, and allocates a zeroed C.
// Progress lines go to out exactly as the benchmark prints them.
func newOperands(s MatmulSettings, out io.Writer) (a, b, c *matrix.Buffer, err error) {
	fmt.Fprintf(out, "Each array is %d by %d\n", s.N, s.N)
	limit := matrix.WithMemoryLimit(s.MemoryLimit)
	if a, err = matrix.New(s.N, limit); err == nil {
		if b, err = matrix.New(s.N, limit); err == nil {
			c, err = matrix.New(s.N, limit)
		}
	}
	if err != nil {
		fmt.Fprintf(out, "\n ***FAILURE*** to allocate arrays: %v\n", err)
		return nil, nil, nil, err
	}
	fmt.Fprintln(out, "malloc complete")

	switch strings.ToLower(s.Fill) {
	case "", "sequence", "seq":
		a.FillSequence(s.SeedA)
		b.FillSequence(s.SeedB)
	case "random", "rand":
		rng := rand.New(rand.NewSource(s.RNGSeed))
		a.FillRandomFrom(rng)
		b.FillRandomFrom(rng)
	default:
		err = fmt.Errorf("unknown fill %q (want sequence or random)", s.Fill)
		fmt.Fprintf(out, "\n ***FAILURE*** to init arrays: %v\n", err)
		return nil, nil, nil, err
	}
	c.FillZero()
	fmt.Fprintln(out, "init complete")
	return a, b, c, nil
}

// RunMatmul performs one multiplication run and writes its report to out.
func RunMatmul(s MatmulSettings, out io.Writer) (*MatmulResult, error) {
	a, b, c, err := newOperands(s, out)
	if err != nil {
		return nil, err
	}
	if s.Verbose {
		fmt.Fprintln(out, "matrix A")
		if err := a.Print(out); err != nil {
			return nil, err
		}
		fmt.Fprintln(out, "matrix B")
		if err := b.Print(out); err != nil {
			return nil, err
		}
	}

	var stop func() error
	if s.CPUProfile != "" {
		if stop, err = helper.StartCPUProfile(s.CPUProfile); err != nil {
			return nil, err
		}
	}
	start := time.Now()
	err = matmul.MultiplyInto(c, a, b, s.Order, matmul.WithWorkers(s.Workers))
	elapsed := time.Since(start)
	if stop != nil {
		if serr := stop(); serr != nil && err == nil {
			err = serr
		}
	}
	if err != nil {
		return nil, err
	}
	res := &MatmulResult{C: c, Elapsed: elapsed}

	mode := s.Report
	if s.Verbose {
		mode = reduce.ModeFull
	}
	if err := reduce.Report(out, c, mode); err != nil {
		return nil, err
	}
	if s.Timing {
		fmt.Fprintf(out, "Loop order %s took %v (%.3f GFLOP/s)\n", s.Order, elapsed, gflops(s.N, elapsed))
	}
	if s.CPUProfile != "" {
		fmt.Fprintf(out, "CPU profile written to %s\n", s.CPUProfile)
	}

	if s.Verify != verify.None {
		ref, err := verify.Reference(a, b, s.Verify)
		if err != nil {
			return nil, err
		}
		res.MaxError, err = verify.MaxRelativeError(c, ref)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(out, "max relative error vs %s: %g\n", s.Verify, res.MaxError)
		if res.MaxError > s.Tolerance {
			return res, fmt.Errorf("%w: %s error %g exceeds %g", ErrVerifyFailed, s.Verify, res.MaxError, s.Tolerance)
		}
	}
	return res, nil
}

func gflops(n int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return matmul.FlopCount(n) / d.Seconds() / 1e9
}
