package main

import "matbench/cmd"

// Commands:
// - matmul: multiply two N×N matrices with one loop order and summarise C
// - sweep: time every loop order on the same operands, store the ranking
// - bench: run the Multiply benchmarks through go test and rank them
// - hotspots: list or walk the hottest functions of a CPU profile
// - energy: integrate a time/power log into joules
func main() {
	cmd.Execute()
}
