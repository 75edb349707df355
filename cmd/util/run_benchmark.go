package util

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"golang.org/x/mod/modfile"
	"golang.org/x/tools/benchmark/parse"
)

const p = string(os.PathSeparator)

// ErrNoModule is returned when no go.mod is found above the start directory.
var ErrNoModule = errors.New("no go.mod found")

// BenchSettings describe one `go test -bench` run.
type BenchSettings struct {
	Root       string // module root; found from the working directory when empty
	Package    string // package directory relative to Root, e.g. "matmul"
	Bench      string // -bench regexp
	Count      int
	CPUProfile string // -cpuprofile path, empty for none
	Flags      []string
}

// FindModuleRoot walks up from start until it finds a go.mod and returns the
// directory holding it together with the module path declared in it.
func FindModuleRoot(start string) (dir string, modulePath string, err error) {
	dir, err = filepath.Abs(start)
	if err != nil {
		return "", "", err
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			modulePath = modfile.ModulePath(data)
			if modulePath == "" {
				return "", "", fmt.Errorf("%s%sgo.mod has no module line", dir, p)
			}
			return dir, modulePath, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("%w above %s", ErrNoModule, start)
		}
		dir = parent
	}
}

// benchArgs builds the argument list for the go command. Only benchmarks are
// run; normal tests are skipped with -run=NONE.
func benchArgs(s BenchSettings) []string {
	// set up all the arguments in an array, to allow for conditional arguments
	args := make([]string, 0, 8+len(s.Flags))
	args = append(args, "test")
	args = append(args, s.Flags...)
	args = append(args, "-bench="+s.Bench)
	args = append(args, "-run=NONE")
	args = append(args, "-benchmem")
	if s.Count > 0 {
		args = append(args, fmt.Sprintf("-count=%d", s.Count))
	}
	if s.CPUProfile != "" {
		args = append(args, "-cpuprofile", s.CPUProfile)
	}
	args = append(args, "."+p+s.Package)
	return args
}

// RunBenchmark runs `go test -bench` on the configured package and returns
// the raw output together with the parsed benchmark lines.
func RunBenchmark(s BenchSettings) (string, parse.Set, error) {
	if s.Root == "" {
		root, _, err := FindModuleRoot(".")
		if err != nil {
			return "", nil, err
		}
		s.Root = root
	}
	if s.CPUProfile != "" && !filepath.IsAbs(s.CPUProfile) {
		abs, err := filepath.Abs(s.CPUProfile)
		if err != nil {
			return "", nil, err
		}
		s.CPUProfile = abs
	}

	cmd := exec.Command("go", benchArgs(s)...)
	cmd.Dir = s.Root
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), nil, fmt.Errorf("go test -bench=%s: %w", s.Bench, err)
	}
	set, err := parse.ParseSet(bytes.NewReader(output))
	if err != nil {
		return string(output), nil, fmt.Errorf("parsing benchmark output: %w", err)
	}
	return string(output), set, nil
}

// RankBenchmarks flattens set and sorts it fastest first.
func RankBenchmarks(set parse.Set) []*parse.Benchmark {
	ranked := make([]*parse.Benchmark, 0, len(set))
	for _, runs := range set {
		ranked = append(ranked, runs...)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].NsPerOp != ranked[j].NsPerOp {
			return ranked[i].NsPerOp < ranked[j].NsPerOp
		}
		if ranked[i].Name != ranked[j].Name {
			return ranked[i].Name < ranked[j].Name
		}
		return ranked[i].Ord < ranked[j].Ord
	})
	return ranked
}
