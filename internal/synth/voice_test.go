package synth

import (
	"math"
	"testing"

	"github.com/nonchang-net/mysound-go/internal/effects"
	"github.com/nonchang-net/mysound-go/internal/music"
)

func renderVoice(v *Voice, frames int) []float32 {
	buf := make([]float32, frames)
	v.GenerateSamples(buf)
	return buf
}

func peak(buf []float32) float32 {
	var p float32
	for _, s := range buf {
		if a := float32(math.Abs(float64(s))); a > p {
			p = a
		}
	}
	return p
}

func TestVoiceSilentBeforeNoteOn(t *testing.T) {
	v := NewVoice(testRate)
	buf := renderVoice(v, 512)
	if peak(buf) != 0 {
		t.Error("voice should be silent before any note")
	}
}

func TestVoiceProducesSoundAfterNoteOn(t *testing.T) {
	v := NewVoice(testRate)
	v.NoteOn(440, 0, 1)
	buf := renderVoice(v, 4096)
	if peak(buf) < 0.1 {
		t.Errorf("peak = %f, want audible output", peak(buf))
	}
	if !v.IsPlaying() {
		t.Error("IsPlaying should be true after note-on buffer")
	}
}

func TestVoiceCommandVisibleAtBufferBoundary(t *testing.T) {
	v := NewVoice(testRate)
	// The note-on queued here must not sound until the next generation
	// call drains it; nothing has been generated yet, so IsPlaying is
	// still false.
	v.NoteOn(440, 0, 1)
	if v.IsPlaying() {
		t.Error("note should not be live before a generation call")
	}
	renderVoice(v, 64)
	if !v.IsPlaying() {
		t.Error("note should be live after a generation call")
	}
}

func TestVoiceOutputClipped(t *testing.T) {
	v := NewVoice(testRate)
	v.NoteOn(440, 0, 1)
	buf := renderVoice(v, 8192)
	for i, s := range buf {
		if s > 1 || s < -1 {
			t.Fatalf("sample %d = %f out of [-1,1]", i, s)
		}
	}
}

func TestVoiceAutoNoteOff(t *testing.T) {
	v := NewVoice(testRate)
	v.Envelope().SetADSR(0.001, 0.01, 0.7, 0.001)
	v.NoteOn(440, 0.05, 1)
	// Render well past the note duration plus the release underflow,
	// calling Update between buffers the way a frame loop would.
	for i := 0; i < 80; i++ {
		renderVoice(v, 1024)
		v.Update()
	}
	if v.IsPlaying() {
		t.Error("voice should have auto-released and gone idle")
	}
	buf := renderVoice(v, 256)
	if peak(buf) != 0 {
		t.Error("voice should be silent after auto note-off release")
	}
}

func TestVoiceNoteVolumeScalesOutput(t *testing.T) {
	loud := NewVoice(testRate)
	quiet := NewVoice(testRate)
	loud.NoteOn(440, 0, 1)
	quiet.NoteOn(440, 0, 0.25)
	pl := peak(renderVoice(loud, 4096))
	pq := peak(renderVoice(quiet, 4096))
	if pq >= pl {
		t.Errorf("quiet peak %f should be below loud peak %f", pq, pl)
	}
}

func TestVoiceMasterVolumeClamped(t *testing.T) {
	v := NewVoice(testRate)
	v.SetVolume(3)
	if got := v.Volume(); got != 1 {
		t.Errorf("volume clamped to %f, want 1", got)
	}
	v.SetVolume(-1)
	if got := v.Volume(); got != 0 {
		t.Errorf("volume clamped to %f, want 0", got)
	}
}

func TestVoiceEffectChain(t *testing.T) {
	v := NewVoice(testRate)
	if v.EffectCount() != 0 {
		t.Fatal("new voice should have no effects")
	}
	f := effects.NewBiquad(testRate)
	f.SetType(effects.Lowpass)
	f.SetFrequency(500)
	v.AddEffect(f)
	v.AddEffect(effects.NewTremolo(testRate))
	if v.EffectCount() != 2 {
		t.Errorf("EffectCount() = %d, want 2", v.EffectCount())
	}
	v.NoteOn(440, 0, 1)
	buf := renderVoice(v, 4096)
	if peak(buf) < 0.01 {
		t.Error("voice with effects should still produce output")
	}
	v.ClearEffects()
	if v.EffectCount() != 0 {
		t.Errorf("EffectCount() after clear = %d, want 0", v.EffectCount())
	}
}

func TestVoicePhaseContinuityAcrossFrequencyChange(t *testing.T) {
	v := NewVoice(testRate)
	v.Oscillator().SetWaveType(music.Sine)
	v.Envelope().SetADSR(0, 0, 1, 0.1)
	v.NoteOn(440, 0, 1)
	renderVoice(v, 1000)
	// Changing the oscillator frequency mid-note must not reset the
	// sample counter; output continues without a discontinuity larger
	// than one sample step allows.
	before := renderVoice(v, 1)[0]
	v.Oscillator().SetFrequency(441)
	after := renderVoice(v, 1)[0]
	if math.Abs(float64(after-before)) > 0.2 {
		t.Errorf("discontinuity across frequency change: %f -> %f", before, after)
	}
}

func TestVoiceRetriggerCutsNote(t *testing.T) {
	v := NewVoice(testRate)
	v.NoteOn(440, 0, 1)
	renderVoice(v, 4096)
	v.NoteOn(880, 0, 1)
	renderVoice(v, 64)
	if v.Envelope().State() != EnvAttack && v.Envelope().State() != EnvDecay {
		t.Errorf("retrigger should restart the envelope, state = %d", v.Envelope().State())
	}
	if got := v.Oscillator().Frequency(); got != 880 {
		t.Errorf("frequency after retrigger = %f, want 880", got)
	}
}

func TestCommandRingDropsWhenFull(t *testing.T) {
	r := newCommandRing(4)
	for i := 0; i < 4; i++ {
		if !r.push(command{kind: cmdNoteOff}) {
			t.Fatalf("push %d should succeed", i)
		}
	}
	if r.push(command{kind: cmdNoteOff}) {
		t.Error("push onto a full ring should be dropped")
	}
	n := 0
	r.drain(func(command) { n++ })
	if n != 4 {
		t.Errorf("drained %d commands, want 4", n)
	}
	if !r.push(command{kind: cmdNoteOff}) {
		t.Error("push after drain should succeed")
	}
}
