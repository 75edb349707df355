package util

import (
	"math"
	"time"

	"matbench/matmul"
)

// OrderTimePair is the outcome of one loop order in a sweep.
type OrderTimePair struct {
	Order    matmul.LoopOrder
	Time     time.Duration
	Norm     float64
	MaxError float64 // elementwise relative error against the first order's C
	Profile  string  // cpu profile file name, empty when not recorded
}

// GFlops is the throughput of an n×n multiply that took Time.
func (o OrderTimePair) GFlops(n int) float64 {
	if o.Time <= 0 {
		return 0
	}
	return matmul.FlopCount(n) / o.Time.Seconds() / 1e9
}

type OrderTimeArray []OrderTimePair

func (l OrderTimeArray) Len() int {
	return len(l)
}

func (l OrderTimeArray) Less(i, j int) bool {
	// fastest first
	if l[i].Time != l[j].Time {
		return l[i].Time < l[j].Time
	}
	return l[i].Order < l[j].Order
}

func (l OrderTimeArray) Swap(i, j int) {
	l[i], l[j] = l[j], l[i]
}

// MaxError is the largest elementwise relative error recorded in any entry.
// A NaN error wins over every number.
func (l OrderTimeArray) MaxError() float64 {
	worst := 0.0
	for _, o := range l {
		if o.MaxError > worst || math.IsNaN(o.MaxError) {
			worst = o.MaxError
		}
		if math.IsNaN(worst) {
			break
		}
	}
	return worst
}
