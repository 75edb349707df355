package util

import (
	"fmt"
	"regexp"

	"matbench/graph"
	"matbench/helper"
)

// GetGraphFromFile reads a CPU profile and builds its call graph. With a
// non-empty focus, frames above the first match of the regexp are dropped
// from every sample first, so the graph starts at the focused function.
func GetGraphFromFile(path, focus string) (*graph.Graph, error) {
	prof, err := helper.ReadProfile(path)
	if err != nil {
		return nil, err
	}
	if focus != "" {
		re, err := regexp.Compile(focus)
		if err != nil {
			return nil, fmt.Errorf("focus: %w", err)
		}
		if !prof.ShowFrom(re) {
			return nil, fmt.Errorf("focus %q matched no function in %s", focus, path)
		}
	}
	return graph.FromProfile(prof), nil
}
