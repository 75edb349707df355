package matrix

import (
	"math"
	"math/rand"
)

// asymmetry keeps FillSequence short of +seed, so a filled matrix never
// mirrors itself and orientation bugs stay visible.
const asymmetry = 0.95

// FillSequence writes a deterministic ramp from -seed towards +seed in storage
// order: element idx gets -seed + idx*step with step = 0.95*2*seed/(n*n-1).
// For n == 1 the step is zero and the only element is -seed.
func (b *Buffer) FillSequence(seed float32) {
	var step float32
	if last := len(b.data) - 1; last > 0 {
		step = float32(asymmetry * (2.0 * float64(seed) / float64(last)))
	}
	for idx := range b.data {
		b.data[idx] = -seed + float32(idx)*step
	}
}

// FillRandom fills the buffer from a generator seeded with seed.
// The same seed always gives the same buffer.
func (b *Buffer) FillRandom(seed int64) {
	b.FillRandomFrom(rand.New(rand.NewSource(seed)))
}

// FillRandomFrom fills the buffer from rng, consuming one value per element.
// Values are 0.0001*r - 0.00005*MaxInt32 for r in [0, MaxInt32), which
// centers them on zero.
func (b *Buffer) FillRandomFrom(rng *rand.Rand) {
	const mid = 0.00005 * math.MaxInt32
	for idx := range b.data {
		b.data[idx] = float32(0.0001*float64(rng.Int31()) - mid)
	}
}

// FillZero sets every element to 0.
func (b *Buffer) FillZero() {
	for idx := range b.data {
		b.data[idx] = 0
	}
}
