// Package music holds the note-level data model shared by the parser,
// sequencer, and synthesis packages: pitch names, wave types, note data,
// and the frequency/duration math derived from them.
package music

import "math"

// Engine-wide defaults.
const (
	DefaultSampleRate = 44100
	DefaultBPM        = 120.0
	DefaultVolume     = 1.0
	DefaultFrequency  = 440.0 // A4
	DefaultOctave     = 4
	DefaultNoteLength = 4 // quarter note
)

// Note is a semitone within one octave, twelve-tone equal temperament.
type Note int

const (
	C Note = iota
	Cs
	D
	Ds
	E
	F
	Fs
	G
	Gs
	A
	As
	B
)

// WaveType selects the oscillator waveform.
type WaveType int

const (
	Sine WaveType = iota
	Square
	Sawtooth
	Noise
)

// NoteData is one scheduled note (or rest). Immutable once produced.
type NoteData struct {
	Note     Note
	Octave   int
	Duration float64 // seconds
	IsRest   bool
	Wave     WaveType
	Volume   float64 // 0..1
}

// NewNoteData returns a NoteData with the engine defaults filled in:
// C4, half a second, sounding, sine, full volume.
func NewNoteData() NoteData {
	return NoteData{
		Note:     C,
		Octave:   DefaultOctave,
		Duration: 0.5,
		Wave:     Sine,
		Volume:   DefaultVolume,
	}
}

// Frequency returns the pitch in Hz, A4 = 440 Hz reference.
// Rests have no pitch and return 0.
func (n NoteData) Frequency() float64 {
	if n.IsRest {
		return 0
	}
	return NoteFrequency(n.Note, n.Octave)
}

// NoteFrequency converts a pitch name and octave to Hz:
// 440 * 2^((12*(octave-4) + semitone-9) / 12).
func NoteFrequency(note Note, octave int) float64 {
	semitonesFromA4 := (octave-4)*12 + (int(note) - 9)
	return 440.0 * math.Pow(2, float64(semitonesFromA4)/12.0)
}

// NoteDuration returns the length in seconds of a note at the given tempo.
// division is the note fraction (4 = quarter, 8 = eighth); dotted notes
// are half again as long.
func NoteDuration(bpm float64, division int, dotted bool) float64 {
	quarter := 60.0 / bpm
	duration := quarter * 4.0 / float64(division)
	if dotted {
		duration *= 1.5
	}
	return duration
}
