package synth

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/nonchang-net/mysound-go/internal/effects"
	"github.com/nonchang-net/mysound-go/internal/music"
	"github.com/nonchang-net/mysound-go/internal/osc"
)

// Voice combines one oscillator, one envelope, and an ordered effect
// chain into a mono sample generator. Control calls (NoteOn, NoteOff)
// are queued on a bounded ring and applied at the top of the next
// GenerateSamples call, so the audio goroutine never contends with the
// callers. One voice plays one note at a time; a NoteOn while sounding
// retriggers the envelope and cuts the note in progress.
type Voice struct {
	sampleRate int
	oscillator *osc.Oscillator
	envelope   *Envelope

	ring   *commandRing
	chain  atomic.Pointer[effects.Chain]
	editMu sync.Mutex

	counter       atomic.Uint64 // samples since last note-on
	masterVolBits atomic.Uint64
	noteVolBits   atomic.Uint64
	noteDurBits   atomic.Uint64 // seconds; 0 = until NoteOff
	gate          atomic.Bool
	playing       atomic.Bool
}

func NewVoice(sampleRate int) *Voice {
	v := &Voice{
		sampleRate: sampleRate,
		oscillator: osc.New(music.Sine, music.DefaultFrequency),
		envelope:   NewEnvelope(),
		ring:       newCommandRing(64),
	}
	v.masterVolBits.Store(math.Float64bits(music.DefaultVolume))
	v.noteVolBits.Store(math.Float64bits(music.DefaultVolume))
	return v
}

func (v *Voice) SampleRate() int             { return v.sampleRate }
func (v *Voice) Oscillator() *osc.Oscillator { return v.oscillator }
func (v *Voice) Envelope() *Envelope         { return v.envelope }

func (v *Voice) SetVolume(volume float64) {
	v.masterVolBits.Store(math.Float64bits(clamp(volume, 0, 1)))
}

func (v *Voice) Volume() float64 {
	return math.Float64frombits(v.masterVolBits.Load())
}

// NoteOn starts a note. duration 0 means the note sounds until NoteOff.
// The note becomes audible on the next generated buffer.
func (v *Voice) NoteOn(frequency, duration, volume float64) {
	v.ring.push(command{
		kind:      cmdNoteOn,
		frequency: frequency,
		duration:  duration,
		volume:    clamp(volume, 0, 1),
	})
}

// NoteOff releases the current note.
func (v *Voice) NoteOff() {
	v.ring.push(command{kind: cmdNoteOff})
}

// IsPlaying reports whether the voice is sounding or releasing.
func (v *Voice) IsPlaying() bool { return v.playing.Load() }

// Update performs per-frame housekeeping: auto note-off once a finite
// duration has elapsed, and clearing the playing flag once the envelope
// has fully released. It never produces samples.
func (v *Voice) Update() {
	if !v.playing.Load() {
		return
	}
	duration := math.Float64frombits(v.noteDurBits.Load())
	if v.gate.Load() && duration > 0 {
		elapsed := float64(v.counter.Load()) / float64(v.sampleRate)
		if elapsed >= duration {
			v.NoteOff()
		}
	}
	if !v.gate.Load() && v.envelope.State() == EnvIdle {
		v.playing.Store(false)
	}
}

// AddEffect appends an effect to the chain. The chain is swapped in
// atomically; an in-flight generation call keeps the chain it started
// with.
func (v *Voice) AddEffect(e effects.Effect) {
	if e == nil {
		return
	}
	v.editMu.Lock()
	defer v.editMu.Unlock()
	old := v.chain.Load()
	var list []effects.Effect
	if old != nil {
		list = append(list, old.Effects()...)
	}
	list = append(list, e)
	v.chain.Store(effects.NewChain(list...))
}

func (v *Voice) ClearEffects() {
	v.editMu.Lock()
	defer v.editMu.Unlock()
	v.chain.Store(nil)
}

func (v *Voice) EffectCount() int {
	if c := v.chain.Load(); c != nil {
		return c.Len()
	}
	return 0
}

// GenerateSamples fills dst with mono samples. Called from the audio
// goroutine only; it drains pending commands first, so every command
// takes effect at a buffer boundary.
func (v *Voice) GenerateSamples(dst []float32) {
	v.ring.drain(v.apply)

	if !v.playing.Load() {
		for i := range dst {
			dst[i] = 0
		}
		return
	}

	chain := v.chain.Load()
	rate := float64(v.sampleRate)
	noteVol := math.Float64frombits(v.noteVolBits.Load())
	masterVol := v.Volume()
	n := v.counter.Load()

	for i := range dst {
		env := v.envelope.Process(v.sampleRate)
		freq := v.oscillator.Frequency()
		phase := math.Mod(float64(n)*freq/rate, 1)
		sample := float32(v.oscillator.Generate(phase) * env * noteVol * masterVol)
		if chain != nil {
			sample = chain.Process(sample)
		}
		if sample > 1 {
			sample = 1
		}
		if sample < -1 {
			sample = -1
		}
		dst[i] = sample
		n++
	}
	v.counter.Store(n)
}

func (v *Voice) apply(c command) {
	switch c.kind {
	case cmdNoteOn:
		v.oscillator.SetFrequency(c.frequency)
		v.counter.Store(0)
		// Clear filter history so the previous note does not ring into
		// this one.
		if chain := v.chain.Load(); chain != nil {
			chain.Reset()
		}
		v.noteDurBits.Store(math.Float64bits(c.duration))
		v.noteVolBits.Store(math.Float64bits(c.volume))
		v.gate.Store(true)
		v.playing.Store(true)
		v.envelope.NoteOn()
	case cmdNoteOff:
		if v.gate.Load() {
			v.gate.Store(false)
			v.envelope.NoteOff()
		}
	}
}
