package util

import (
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"matbench/matmul"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/benchmark/parse"
)

func TestCleanOrCreateTempFolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "_tmp", "run")
	require.NoError(t, CleanOrCreateTempFolder(dir))
	require.DirExists(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("x"), 0o644))
	require.NoError(t, CleanOrCreateTempFolder(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCopyToOutput(t *testing.T) {
	base := t.TempDir()
	src := filepath.Join(base, "_tmp", "abc")
	require.NoError(t, CleanOrCreateTempFolder(src))
	require.NoError(t, WriteFile(src, "results.txt", []byte("ijk 1s\n")))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "profiles"), 0o755))
	require.NoError(t, WriteFile(filepath.Join(src, "profiles"), "ijk.pprof", []byte("p")))

	dst, err := CopyToOutput(src, filepath.Join(base, "_data"), "abc")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(base, "_data", "abc"), dst)

	data, err := os.ReadFile(filepath.Join(dst, "results.txt"))
	require.NoError(t, err)
	require.Equal(t, "ijk 1s\n", string(data))
	require.FileExists(t, filepath.Join(dst, "profiles", "ijk.pprof"))
}

func TestFindModuleRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/bench\n\ngo 1.21\n"), 0o644))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	dir, mod, err := FindModuleRoot(nested)
	require.NoError(t, err)
	require.Equal(t, root, dir)
	require.Equal(t, "example.com/bench", mod)
}

func TestFindModuleRootNoModuleLine(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("go 1.21\n"), 0o644))
	_, _, err := FindModuleRoot(root)
	require.Error(t, err)
}

func TestFindModuleRootFromThisPackage(t *testing.T) {
	dir, mod, err := FindModuleRoot(".")
	require.NoError(t, err)
	require.Equal(t, "matbench", mod)
	require.FileExists(t, filepath.Join(dir, "matmul", "multiply.go"))
}

func TestBenchArgs(t *testing.T) {
	args := benchArgs(BenchSettings{
		Package:    "matmul",
		Bench:      "Multiply",
		Count:      3,
		CPUProfile: "/tmp/cpu.pprof",
		Flags:      []string{"-v"},
	})
	require.Equal(t, []string{
		"test", "-v", "-bench=Multiply", "-run=NONE", "-benchmem", "-count=3",
		"-cpuprofile", "/tmp/cpu.pprof", "." + p + "matmul",
	}, args)

	args = benchArgs(BenchSettings{Package: "matmul", Bench: "."})
	require.NotContains(t, strings.Join(args, " "), "-count")
	require.NotContains(t, args, "-cpuprofile")
}

func TestRankBenchmarks(t *testing.T) {
	out := `goos: linux
goarch: amd64
pkg: matbench/matmul
BenchmarkMultiply/ijk-8         	      10	 120000000 ns/op	       0 B/op	       0 allocs/op
BenchmarkMultiply/jki-8         	      50	  20000000 ns/op	       0 B/op	       0 allocs/op
BenchmarkMultiply/kij-8         	      20	  60000000 ns/op	       0 B/op	       0 allocs/op
PASS
ok  	matbench/matmul	4.1s
`
	set, err := parse.ParseSet(strings.NewReader(out))
	require.NoError(t, err)
	ranked := RankBenchmarks(set)
	require.Len(t, ranked, 3)
	assert.Equal(t, "BenchmarkMultiply/jki-8", ranked[0].Name)
	assert.Equal(t, "BenchmarkMultiply/kij-8", ranked[1].Name)
	assert.Equal(t, "BenchmarkMultiply/ijk-8", ranked[2].Name)
	assert.Equal(t, 2e7, ranked[0].NsPerOp)
}

func TestOrderTimeArray(t *testing.T) {
	runs := OrderTimeArray{
		{Order: matmul.IJK, Time: 3 * time.Second, Norm: 100},
		{Order: matmul.JKI, Time: time.Second, Norm: 100, MaxError: 0.01},
		{Order: matmul.KIJ, Time: 2 * time.Second, Norm: 100, MaxError: 0.002},
	}
	require.Equal(t, 0.01, runs.MaxError())

	sort.Sort(runs)
	require.Equal(t, matmul.JKI, runs[0].Order)
	require.Equal(t, matmul.KIJ, runs[1].Order)
	require.Equal(t, matmul.IJK, runs[2].Order)

	require.InDelta(t, 2.0, runs[0].GFlops(1000), 1e-9)
	require.Zero(t, OrderTimePair{}.GFlops(10))
	require.Zero(t, OrderTimeArray{}.MaxError())

	runs[1].MaxError = math.NaN()
	require.True(t, math.IsNaN(runs.MaxError()))
}

func TestGetGraphFromFileErrors(t *testing.T) {
	_, err := GetGraphFromFile(filepath.Join(t.TempDir(), "none.pprof"), "")
	require.Error(t, err)
}
