package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"matbench/cmd/util"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the Multiply benchmarks with go test and rank them",
	Long: `Runs go test -bench on the matmul package of this module, parses the
benchmark lines and prints them fastest first. With --profile the CPU
profile is stored under _tmp/<id> and its hottest functions are listed.`,
	Aliases: []string{"b"},
	Args:    cobra.NoArgs,
	RunE:    runBenchCmd,
}

func init() {
	benchCmd.Flags().StringP("benchname", "b", "Multiply", "The name of the benchmark to run")
	benchCmd.Flags().StringP("package", "", "matmul", "The package directory holding the benchmark")
	benchCmd.Flags().IntP("count", "c", 1, "The number of times to run the benchmark")
	benchCmd.Flags().StringP("cpuprofile", "", "", "Write the benchmark CPU profile to this file")
	benchCmd.Flags().BoolP("profile", "p", false, "Record a CPU profile under _tmp/<id>")
	benchCmd.Flags().IntP("top", "", 10, "Functions listed from the profile")
	benchCmd.Flags().StringSliceP("flags", "", nil, "Any flags to pass to go test")
	RootCmd.AddCommand(benchCmd)
}

func runBenchCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	var s util.BenchSettings
	s.Bench, _ = flags.GetString("benchname")
	s.Package, _ = flags.GetString("package")
	s.Count, _ = flags.GetInt("count")
	s.CPUProfile, _ = flags.GetString("cpuprofile")
	s.Flags, _ = flags.GetStringSlice("flags")
	profile, _ := flags.GetBool("profile")
	top, _ := flags.GetInt("top")

	if profile && s.CPUProfile == "" {
		id := uuid.New().String()
		tmpPath := "_tmp" + p + id
		if err := util.CleanOrCreateTempFolder(tmpPath); err != nil {
			return err
		}
		s.CPUProfile = filepath.Join(tmpPath, "cpu.pprof")
	}
	return RunBench(s, top, cmd.OutOrStdout())
}

// RunBench runs the benchmarks described by s and prints them ranked. When a
// CPU profile was recorded its top functions follow.
func RunBench(s util.BenchSettings, top int, out io.Writer) error {
	fmt.Fprintf(out, "go test -bench=%s ./%s\n", s.Bench, s.Package)
	output, set, err := util.RunBenchmark(s)
	if err != nil {
		fmt.Fprint(out, output)
		return err
	}
	ranked := util.RankBenchmarks(set)
	if len(ranked) == 0 {
		fmt.Fprintln(out, "No benchmarks matched "+s.Bench)
		return nil
	}
	fastest := ranked[0].NsPerOp
	for _, b := range ranked {
		ratio := 0.0
		if fastest > 0 {
			ratio = b.NsPerOp / fastest
		}
		fmt.Fprintf(out, "%-40s %10d %16.0f ns/op %8.2fx\n", b.Name, b.N, b.NsPerOp, ratio)
	}

	if s.CPUProfile == "" {
		return nil
	}
	fmt.Fprintf(out, "CPU profile written to %s\n", s.CPUProfile)
	g, err := util.GetGraphFromFile(s.CPUProfile, "")
	if err != nil {
		return err
	}
	printHotspots(out, g, g.Top(top))
	return nil
}
