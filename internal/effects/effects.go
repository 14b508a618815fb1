// Package effects implements the per-voice and master-bus effects:
// the biquad filter family, tremolo, and supplemental time-domain
// effects. Everything operates on the engine's mono sample stream.
package effects

// Effect processes one mono sample at a time. Reset clears internal
// state (delay lines, LFO phase, filter history) so a retriggered note
// does not inherit the tail of the previous one.
type Effect interface {
	Process(sample float32) float32
	Reset()
}

// Chain applies a sequence of effects front to back; order changes the
// result. A Chain is immutable after construction so it can be swapped
// behind an atomic pointer while audio is running.
type Chain struct {
	effects []Effect
}

func NewChain(effects ...Effect) *Chain {
	return &Chain{effects: effects}
}

func (c *Chain) Process(sample float32) float32 {
	for _, e := range c.effects {
		sample = e.Process(sample)
	}
	return sample
}

func (c *Chain) Reset() {
	for _, e := range c.effects {
		e.Reset()
	}
}

func (c *Chain) Len() int { return len(c.effects) }

// Effects returns the chain's effect list. Callers must not mutate it.
func (c *Chain) Effects() []Effect { return c.effects }

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
