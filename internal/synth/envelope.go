// Package synth implements the per-voice synthesis core: the ADSR
// envelope and the Voice that combines an oscillator, an envelope, and
// an effect chain into a mono sample generator.
package synth

import (
	"math"
	"sync/atomic"
)

// Default ADSR times in seconds and sustain level.
const (
	DefaultAttackTime   = 0.01
	DefaultDecayTime    = 0.1
	DefaultSustainLevel = 0.7
	DefaultReleaseTime  = 0.2
)

// EnvelopeState is the current ADSR phase.
type EnvelopeState int32

const (
	EnvIdle EnvelopeState = iota
	EnvAttack
	EnvDecay
	EnvSustain
	EnvRelease
)

// Envelope is a four-phase gain state machine driven once per sample.
//
// Attack and Decay ramp linearly; Release shrinks the level held at
// noteOff by a per-sample multiplicative factor, which gives it an
// exponential-style tail deliberately asymmetric with the linear
// Attack. ADSR parameters are atomics because they may be edited from
// a control goroutine mid-note; the level and phase themselves belong
// to the audio goroutine.
type Envelope struct {
	attackBits  atomic.Uint64
	decayBits   atomic.Uint64
	sustainBits atomic.Uint64
	releaseBits atomic.Uint64

	state        atomic.Int32
	currentLevel float64
	releaseLevel float64
}

func NewEnvelope() *Envelope {
	e := &Envelope{}
	e.SetADSR(DefaultAttackTime, DefaultDecayTime, DefaultSustainLevel, DefaultReleaseTime)
	return e
}

func (e *Envelope) SetADSR(attack, decay, sustain, release float64) {
	e.SetAttackTime(attack)
	e.SetDecayTime(decay)
	e.SetSustainLevel(sustain)
	e.SetReleaseTime(release)
}

func (e *Envelope) SetAttackTime(t float64)  { e.attackBits.Store(math.Float64bits(t)) }
func (e *Envelope) SetDecayTime(t float64)   { e.decayBits.Store(math.Float64bits(t)) }
func (e *Envelope) SetReleaseTime(t float64) { e.releaseBits.Store(math.Float64bits(t)) }

func (e *Envelope) SetSustainLevel(level float64) {
	e.sustainBits.Store(math.Float64bits(clamp(level, 0, 1)))
}

func (e *Envelope) AttackTime() float64   { return math.Float64frombits(e.attackBits.Load()) }
func (e *Envelope) DecayTime() float64    { return math.Float64frombits(e.decayBits.Load()) }
func (e *Envelope) SustainLevel() float64 { return math.Float64frombits(e.sustainBits.Load()) }
func (e *Envelope) ReleaseTime() float64  { return math.Float64frombits(e.releaseBits.Load()) }

func (e *Envelope) State() EnvelopeState { return EnvelopeState(e.state.Load()) }

// NoteOn restarts the Attack phase from level zero, discarding any
// Decay or Release in progress. Audio-goroutine only.
func (e *Envelope) NoteOn() {
	e.state.Store(int32(EnvAttack))
	e.currentLevel = 0
}

// NoteOff enters Release from whatever level is currently held. A
// noteOff on an idle envelope is a no-op. Audio-goroutine only.
func (e *Envelope) NoteOff() {
	if EnvelopeState(e.state.Load()) != EnvIdle {
		e.state.Store(int32(EnvRelease))
		e.releaseLevel = e.currentLevel
	}
}

// Process advances the envelope by one sample and returns the gain in [0,1].
func (e *Envelope) Process(sampleRate int) float64 {
	dt := 1.0 / float64(sampleRate)

	switch EnvelopeState(e.state.Load()) {
	case EnvIdle:
		return 0

	case EnvAttack:
		if attack := e.AttackTime(); attack > 0 {
			e.currentLevel += dt / attack
			if e.currentLevel >= 1 {
				e.currentLevel = 1
				e.state.Store(int32(EnvDecay))
			}
		} else {
			e.currentLevel = 1
			e.state.Store(int32(EnvDecay))
		}
		return e.currentLevel

	case EnvDecay:
		sustain := e.SustainLevel()
		if decay := e.DecayTime(); decay > 0 {
			e.currentLevel -= dt * (1 - sustain) / decay
			if e.currentLevel <= sustain {
				e.currentLevel = sustain
				e.state.Store(int32(EnvSustain))
			}
		} else {
			e.currentLevel = sustain
			e.state.Store(int32(EnvSustain))
		}
		return e.currentLevel

	case EnvSustain:
		return e.SustainLevel()

	case EnvRelease:
		if release := e.ReleaseTime(); release > 0 {
			e.currentLevel = e.releaseLevel * (1 - dt/release)
			e.releaseLevel = e.currentLevel
			if e.currentLevel <= 0 {
				e.currentLevel = 0
				e.state.Store(int32(EnvIdle))
			}
		} else {
			e.currentLevel = 0
			e.state.Store(int32(EnvIdle))
		}
		return e.currentLevel

	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
