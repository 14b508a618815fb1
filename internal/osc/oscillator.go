// Package osc implements the waveform generator shared by voices and
// effect LFOs.
package osc

import (
	"math"
	"sync/atomic"

	"github.com/nonchang-net/mysound-go/internal/music"
)

// LCG parameters for the Noise waveform (Numerical Recipes).
const (
	DefaultNoiseSeed = 0x12345678
	lcgMultiplier    = 1664525
	lcgIncrement     = 1013904223
)

// Oscillator produces one sample per call from a phase in [0,1).
// Every waveform except Noise is a pure function of phase; Noise steps
// an LCG on each call and ignores phase entirely.
//
// Wave type and frequency may be changed from a control goroutine while
// the audio goroutine calls Generate, so both live behind atomics.
type Oscillator struct {
	wave       atomic.Int32
	freqBits   atomic.Uint64
	noiseState atomic.Uint32
}

func New(wave music.WaveType, frequency float64) *Oscillator {
	o := &Oscillator{}
	o.wave.Store(int32(wave))
	o.freqBits.Store(math.Float64bits(frequency))
	o.noiseState.Store(DefaultNoiseSeed)
	return o
}

func (o *Oscillator) SetWaveType(wave music.WaveType) { o.wave.Store(int32(wave)) }
func (o *Oscillator) WaveType() music.WaveType        { return music.WaveType(o.wave.Load()) }

func (o *Oscillator) SetFrequency(frequency float64) {
	o.freqBits.Store(math.Float64bits(frequency))
}

func (o *Oscillator) Frequency() float64 {
	return math.Float64frombits(o.freqBits.Load())
}

// SetNoiseSeed reseeds the noise generator. Two oscillators seeded
// identically produce identical noise streams.
func (o *Oscillator) SetNoiseSeed(seed uint32) { o.noiseState.Store(seed) }

// Generate returns the waveform value in [-1,1] for the given phase.
func (o *Oscillator) Generate(phase float64) float64 {
	switch music.WaveType(o.wave.Load()) {
	case music.Sine:
		return math.Sin(2 * math.Pi * phase)
	case music.Square:
		if phase < 0.5 {
			return 1
		}
		return -1
	case music.Sawtooth:
		return 2*phase - 1
	case music.Noise:
		return o.generateNoise()
	default:
		return 0
	}
}

func (o *Oscillator) generateNoise() float64 {
	state := o.noiseState.Load()*lcgMultiplier + lcgIncrement
	o.noiseState.Store(state)
	// Reinterpret as signed and normalize by 2^31.
	return float64(int32(state)) / 2147483648.0
}
