package synth

import (
	"math"
	"testing"
)

const testRate = 44100

func TestEnvelopeIdleIsSilent(t *testing.T) {
	e := NewEnvelope()
	for i := 0; i < 100; i++ {
		if got := e.Process(testRate); got != 0 {
			t.Fatalf("idle envelope output = %f, want 0", got)
		}
	}
}

func TestEnvelopeOutputBounded(t *testing.T) {
	e := NewEnvelope()
	e.NoteOn()
	for i := 0; i < testRate; i++ {
		out := e.Process(testRate)
		if out < 0 || out > 1 {
			t.Fatalf("sample %d: output %f out of [0,1]", i, out)
		}
		if i == testRate/2 {
			e.NoteOff()
		}
	}
}

func TestEnvelopeConvergesToSustain(t *testing.T) {
	e := NewEnvelope()
	e.SetADSR(0.01, 0.1, 0.7, 0.2)
	e.NoteOn()
	// Hold past attack+decay.
	samples := int(0.2 * testRate)
	var out float64
	for i := 0; i < samples; i++ {
		out = e.Process(testRate)
	}
	if math.Abs(out-0.7) > 0.001 {
		t.Errorf("held envelope = %f, want sustain 0.7", out)
	}
	if e.State() != EnvSustain {
		t.Errorf("state = %d, want Sustain", e.State())
	}
}

func TestEnvelopeAttackRampsLinearly(t *testing.T) {
	e := NewEnvelope()
	e.SetADSR(0.1, 0.1, 0.7, 0.2)
	e.NoteOn()
	// After half the attack time the level should be about half way up.
	half := int(0.05 * testRate)
	var out float64
	for i := 0; i < half; i++ {
		out = e.Process(testRate)
	}
	if math.Abs(out-0.5) > 0.01 {
		t.Errorf("mid-attack level = %f, want ~0.5", out)
	}
}

func TestEnvelopeReleaseReachesIdle(t *testing.T) {
	e := NewEnvelope()
	e.SetADSR(0.001, 0.01, 0.7, 0.001)
	e.NoteOn()
	for i := 0; i < int(0.1*testRate); i++ {
		e.Process(testRate)
	}
	e.NoteOff()
	if e.State() != EnvRelease {
		t.Fatalf("state after NoteOff = %d, want Release", e.State())
	}
	// The multiplicative release only reaches zero when the float
	// underflows, so give it plenty of samples.
	for i := 0; i < 2*testRate; i++ {
		e.Process(testRate)
		if e.State() == EnvIdle {
			return
		}
	}
	t.Error("envelope never returned to Idle after release")
}

func TestEnvelopeReleaseShrinksMonotonically(t *testing.T) {
	e := NewEnvelope()
	e.NoteOn()
	for i := 0; i < int(0.2*testRate); i++ {
		e.Process(testRate)
	}
	e.NoteOff()
	prev := 1.0
	for i := 0; i < 1000; i++ {
		out := e.Process(testRate)
		if out > prev {
			t.Fatalf("sample %d: release level rose from %f to %f", i, prev, out)
		}
		prev = out
	}
}

func TestEnvelopeNoteOffWhileIdleIsNoOp(t *testing.T) {
	e := NewEnvelope()
	e.NoteOff()
	if e.State() != EnvIdle {
		t.Errorf("state = %d, want Idle", e.State())
	}
}

func TestEnvelopeRetriggerRestartsAttack(t *testing.T) {
	e := NewEnvelope()
	e.NoteOn()
	for i := 0; i < int(0.05*testRate); i++ {
		e.Process(testRate)
	}
	e.NoteOn()
	if e.State() != EnvAttack {
		t.Fatalf("state after retrigger = %d, want Attack", e.State())
	}
	if out := e.Process(testRate); out > 0.01 {
		t.Errorf("first sample after retrigger = %f, want near 0", out)
	}
}

func TestEnvelopeZeroAttackJumpsToDecay(t *testing.T) {
	e := NewEnvelope()
	e.SetADSR(0, 0.1, 0.7, 0.2)
	e.NoteOn()
	if out := e.Process(testRate); out != 1 {
		t.Errorf("zero-attack first sample = %f, want 1", out)
	}
	if e.State() != EnvDecay {
		t.Errorf("state = %d, want Decay", e.State())
	}
}

func TestEnvelopeSustainClamped(t *testing.T) {
	e := NewEnvelope()
	e.SetSustainLevel(2)
	if got := e.SustainLevel(); got != 1 {
		t.Errorf("sustain clamped to %f, want 1", got)
	}
	e.SetSustainLevel(-1)
	if got := e.SustainLevel(); got != 0 {
		t.Errorf("sustain clamped to %f, want 0", got)
	}
}
