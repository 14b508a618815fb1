package effects

import (
	"math"
	"sync/atomic"
)

// FilterType selects the biquad response.
type FilterType int32

const (
	Lowpass FilterType = iota
	Highpass
	Bandpass
	Notch
	Allpass
	Peaking
	Lowshelf
	Highshelf
)

// Biquad is a second-order IIR filter, Direct Form I, with coefficients
// from the Bristow-Johnson audio EQ cookbook.
//
// Parameters are stored behind atomics so they can be edited while the
// audio goroutine is processing; coefficients are recomputed inside
// Process, and only when a parameter actually changed.
type Biquad struct {
	sampleRate float64

	typ        atomic.Int32
	freqBits   atomic.Uint64
	qBits      atomic.Uint64
	gainBits   atomic.Uint64
	detuneBits atomic.Uint64

	// Audio-goroutine cache of the parameters the current coefficients
	// were derived from.
	cTyp    FilterType
	cFreq   float64
	cQ      float64
	cGain   float64
	cDetune float64

	b0, b1, b2 float64
	a0, a1, a2 float64
	x1, x2     float32
	y1, y2     float32
}

// NewBiquad returns a lowpass filter at 1 kHz, Q 1.0.
func NewBiquad(sampleRate int) *Biquad {
	f := &Biquad{sampleRate: float64(sampleRate)}
	f.typ.Store(int32(Lowpass))
	f.freqBits.Store(math.Float64bits(1000))
	f.qBits.Store(math.Float64bits(1))
	f.gainBits.Store(math.Float64bits(0))
	f.detuneBits.Store(math.Float64bits(0))
	f.cFreq = -1 // force the first Process to derive coefficients
	return f
}

func (f *Biquad) SetType(t FilterType) { f.typ.Store(int32(t)) }
func (f *Biquad) Type() FilterType     { return FilterType(f.typ.Load()) }

// SetFrequency clamps to [10 Hz, Nyquist-1].
func (f *Biquad) SetFrequency(frequency float64) {
	nyquist := f.sampleRate / 2
	f.freqBits.Store(math.Float64bits(clamp64(frequency, 10, nyquist-1)))
}

func (f *Biquad) Frequency() float64 { return math.Float64frombits(f.freqBits.Load()) }

// SetQ clamps to [0.0001, 1000].
func (f *Biquad) SetQ(q float64) {
	f.qBits.Store(math.Float64bits(clamp64(q, 0.0001, 1000)))
}

func (f *Biquad) Q() float64 { return math.Float64frombits(f.qBits.Load()) }

// SetGain clamps to +/-40 dB. Only Peaking and the shelf types use it.
func (f *Biquad) SetGain(gainDB float64) {
	f.gainBits.Store(math.Float64bits(clamp64(gainDB, -40, 40)))
}

func (f *Biquad) Gain() float64 { return math.Float64frombits(f.gainBits.Load()) }

// SetDetune clamps to +/-1200 cents (one octave) and shifts the
// effective frequency by freq * 2^(cents/1200).
func (f *Biquad) SetDetune(cents float64) {
	f.detuneBits.Store(math.Float64bits(clamp64(cents, -1200, 1200)))
}

func (f *Biquad) Detune() float64 { return math.Float64frombits(f.detuneBits.Load()) }

func (f *Biquad) Process(input float32) float32 {
	f.refreshCoefficients()

	output := float32((f.b0/f.a0)*float64(input) +
		(f.b1/f.a0)*float64(f.x1) +
		(f.b2/f.a0)*float64(f.x2) -
		(f.a1/f.a0)*float64(f.y1) -
		(f.a2/f.a0)*float64(f.y2))

	f.x2 = f.x1
	f.x1 = input
	f.y2 = f.y1
	f.y1 = output
	return output
}

// Reset zeroes the two-sample history, used on retrigger so ringing
// does not bleed across notes.
func (f *Biquad) Reset() {
	f.x1, f.x2 = 0, 0
	f.y1, f.y2 = 0, 0
}

func (f *Biquad) detunedFrequency(freq, detune float64) float64 {
	if detune == 0 {
		return freq
	}
	return freq * math.Pow(2, detune/1200)
}

func (f *Biquad) refreshCoefficients() {
	typ := f.Type()
	freq := f.Frequency()
	q := f.Q()
	gain := f.Gain()
	detune := f.Detune()
	if typ == f.cTyp && freq == f.cFreq && q == f.cQ && gain == f.cGain && detune == f.cDetune {
		return
	}
	f.cTyp, f.cFreq, f.cQ, f.cGain, f.cDetune = typ, freq, q, gain, detune

	w0 := 2 * math.Pi * f.detunedFrequency(freq, detune) / f.sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)
	bigA := math.Pow(10, gain/40)

	switch typ {
	case Lowpass:
		f.b0 = (1 - cosW0) / 2
		f.b1 = 1 - cosW0
		f.b2 = (1 - cosW0) / 2
		f.a0 = 1 + alpha
		f.a1 = -2 * cosW0
		f.a2 = 1 - alpha

	case Highpass:
		f.b0 = (1 + cosW0) / 2
		f.b1 = -(1 + cosW0)
		f.b2 = (1 + cosW0) / 2
		f.a0 = 1 + alpha
		f.a1 = -2 * cosW0
		f.a2 = 1 - alpha

	case Bandpass:
		// constant skirt gain, peak gain = Q
		f.b0 = alpha
		f.b1 = 0
		f.b2 = -alpha
		f.a0 = 1 + alpha
		f.a1 = -2 * cosW0
		f.a2 = 1 - alpha

	case Notch:
		f.b0 = 1
		f.b1 = -2 * cosW0
		f.b2 = 1
		f.a0 = 1 + alpha
		f.a1 = -2 * cosW0
		f.a2 = 1 - alpha

	case Allpass:
		f.b0 = 1 - alpha
		f.b1 = -2 * cosW0
		f.b2 = 1 + alpha
		f.a0 = 1 + alpha
		f.a1 = -2 * cosW0
		f.a2 = 1 - alpha

	case Peaking:
		f.b0 = 1 + alpha*bigA
		f.b1 = -2 * cosW0
		f.b2 = 1 - alpha*bigA
		f.a0 = 1 + alpha/bigA
		f.a1 = -2 * cosW0
		f.a2 = 1 - alpha/bigA

	case Lowshelf:
		sqrtA := math.Sqrt(bigA)
		f.b0 = bigA * ((bigA + 1) - (bigA-1)*cosW0 + 2*sqrtA*alpha)
		f.b1 = 2 * bigA * ((bigA - 1) - (bigA+1)*cosW0)
		f.b2 = bigA * ((bigA + 1) - (bigA-1)*cosW0 - 2*sqrtA*alpha)
		f.a0 = (bigA + 1) + (bigA-1)*cosW0 + 2*sqrtA*alpha
		f.a1 = -2 * ((bigA - 1) + (bigA+1)*cosW0)
		f.a2 = (bigA + 1) + (bigA-1)*cosW0 - 2*sqrtA*alpha

	case Highshelf:
		sqrtA := math.Sqrt(bigA)
		f.b0 = bigA * ((bigA + 1) + (bigA-1)*cosW0 + 2*sqrtA*alpha)
		f.b1 = -2 * bigA * ((bigA - 1) + (bigA+1)*cosW0)
		f.b2 = bigA * ((bigA + 1) + (bigA-1)*cosW0 - 2*sqrtA*alpha)
		f.a0 = (bigA + 1) - (bigA-1)*cosW0 + 2*sqrtA*alpha
		f.a1 = 2 * ((bigA - 1) - (bigA+1)*cosW0)
		f.a2 = (bigA + 1) - (bigA-1)*cosW0 - 2*sqrtA*alpha
	}
}
