// Package sysinfo describes the machine a benchmark ran on.
package sysinfo

import (
	"fmt"
	"runtime"
	"strings"

	"golang.org/x/sys/cpu"
)

// Info is the subset of machine details recorded with each run.
type Info struct {
	GOOS     string
	GOARCH   string
	NumCPU   int
	Features []string
}

// Collect reads the current machine details.
func Collect() Info {
	return Info{
		GOOS:     runtime.GOOS,
		GOARCH:   runtime.GOARCH,
		NumCPU:   runtime.NumCPU(),
		Features: features(),
	}
}

// features lists the vector extensions relevant to float32 loops.
func features() []string {
	var out []string
	add := func(ok bool, name string) {
		if ok {
			out = append(out, name)
		}
	}
	switch runtime.GOARCH {
	case "amd64", "386":
		add(cpu.X86.HasSSE2, "sse2")
		add(cpu.X86.HasSSE41, "sse4.1")
		add(cpu.X86.HasAVX, "avx")
		add(cpu.X86.HasAVX2, "avx2")
		add(cpu.X86.HasFMA, "fma")
		add(cpu.X86.HasAVX512F, "avx512f")
	case "arm64":
		add(cpu.ARM64.HasASIMD, "asimd")
		add(cpu.ARM64.HasFPHP, "fphp")
		add(cpu.ARM64.HasASIMDHP, "asimdhp")
		add(cpu.ARM64.HasSVE, "sve")
	}
	return out
}

func (i Info) String() string {
	feats := "none"
	if len(i.Features) > 0 {
		feats = strings.Join(i.Features, ",")
	}
	return fmt.Sprintf("%s/%s, %d CPUs, features: %s", i.GOOS, i.GOARCH, i.NumCPU, feats)
}

// Describe is shorthand for Collect().String().
func Describe() string {
	return Collect().String()
}
