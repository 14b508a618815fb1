package effects

import (
	"math"
	"sync/atomic"

	"github.com/nonchang-net/mysound-go/internal/music"
	"github.com/nonchang-net/mysound-go/internal/osc"
)

// Tremolo modulates amplitude with its own LFO oscillator. The LFO runs
// on an independent sample counter, so tremolo phase is unaffected by
// note retriggers unless Reset is called.
type Tremolo struct {
	sampleRate float64
	rateBits   atomic.Uint64
	depthBits  atomic.Uint64
	lfo        *osc.Oscillator
	counter    uint64
}

// NewTremolo returns a 5 Hz, 50% depth, sine tremolo.
func NewTremolo(sampleRate int) *Tremolo {
	t := &Tremolo{
		sampleRate: float64(sampleRate),
		lfo:        osc.New(music.Sine, 5),
	}
	t.rateBits.Store(math.Float64bits(5))
	t.depthBits.Store(math.Float64bits(0.5))
	return t
}

// SetRate clamps to [0.1, 20] Hz.
func (t *Tremolo) SetRate(rateHz float64) {
	rateHz = clamp64(rateHz, 0.1, 20)
	t.rateBits.Store(math.Float64bits(rateHz))
	t.lfo.SetFrequency(rateHz)
}

func (t *Tremolo) Rate() float64 { return math.Float64frombits(t.rateBits.Load()) }

// SetDepth clamps to [0, 1]. Zero leaves the signal untouched; one
// follows the LFO fully.
func (t *Tremolo) SetDepth(depth float64) {
	t.depthBits.Store(math.Float64bits(clamp64(depth, 0, 1)))
}

func (t *Tremolo) Depth() float64 { return math.Float64frombits(t.depthBits.Load()) }

func (t *Tremolo) SetWaveType(wave music.WaveType) { t.lfo.SetWaveType(wave) }
func (t *Tremolo) WaveType() music.WaveType        { return t.lfo.WaveType() }

func (t *Tremolo) Process(input float32) float32 {
	rate := t.Rate()
	phase := math.Mod(float64(t.counter)*rate/t.sampleRate, 1)
	lfoUnipolar := (t.lfo.Generate(phase) + 1) / 2
	depth := t.Depth()
	modulation := 1 - depth + depth*lfoUnipolar
	t.counter++
	return input * float32(modulation)
}

func (t *Tremolo) Reset() {
	t.counter = 0
}
