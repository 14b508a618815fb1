// Package mml compiles compact note-language text into a bounded note
// sequence.
//
// Grammar: case-insensitive, whitespace-insignificant.
//
//	t<int>      tempo in BPM
//	l<int>      default note length (4 = quarter)
//	o<int>      octave 0-8
//	@<0-3>      wave type: 0 sine, 1 square, 2 sawtooth, 3 noise
//	v<0-15>     volume, mapped linearly to 0..1
//	> <         octave up / down, clamped to 0-8
//	r[len][.]   rest
//	a-g[+#-][len][.]  note with optional accidental, length, and dot
//
// Unrecognized characters are skipped silently; the parser never fails.
package mml

import (
	"github.com/nonchang-net/mysound-go/internal/music"
)

var noteNames = map[byte]music.Note{
	'c': music.C, 'd': music.D, 'e': music.E, 'f': music.F,
	'g': music.G, 'a': music.A, 'b': music.B,
}

type ParserConfig struct {
	DefaultBPM    float64
	DefaultLength int
	DefaultOctave int
	DefaultVolume float64
}

func DefaultParserConfig() ParserConfig {
	return ParserConfig{
		DefaultBPM:    music.DefaultBPM,
		DefaultLength: music.DefaultNoteLength,
		DefaultOctave: music.DefaultOctave,
		DefaultVolume: music.DefaultVolume,
	}
}

type Parser struct{ cfg ParserConfig }

func NewParser(cfg ParserConfig) *Parser { return &Parser{cfg: cfg} }

// parseState carries the five mutable scanner fields; each token either
// emits a note or mutates one of them.
type parseState struct {
	bpm        float64
	defaultLen int
	octave     int
	wave       music.WaveType
	volume     float64
}

// Parse compiles input into a note sequence. It is a pure function of
// the input text; running it ahead of time yields a reusable sequence.
func (p *Parser) Parse(input string) *music.Sequence {
	st := parseState{
		bpm:        p.cfg.DefaultBPM,
		defaultLen: p.cfg.DefaultLength,
		octave:     p.cfg.DefaultOctave,
		wave:       music.Sine,
		volume:     p.cfg.DefaultVolume,
	}
	seq := &music.Sequence{}

	i := 0
	for i < len(input) {
		ch := lower(input[i])

		if isSpace(ch) {
			i++
			continue
		}

		switch {
		case ch == 't':
			val, next := parseNumber(input, i+1)
			if val > 0 {
				st.bpm = float64(val)
			}
			i = next

		case ch == 'l':
			val, next := parseNumber(input, i+1)
			if val > 0 {
				st.defaultLen = val
			}
			i = next

		case ch == 'o':
			val, next := parseNumber(input, i+1)
			if val >= 0 && val <= 8 {
				st.octave = val
			}
			i = next

		case ch == '@':
			val, next := parseNumber(input, i+1)
			switch val {
			case 0:
				st.wave = music.Sine
			case 1:
				st.wave = music.Square
			case 2:
				st.wave = music.Sawtooth
			case 3:
				st.wave = music.Noise
			}
			i = next

		case ch == 'v':
			val, next := parseNumber(input, i+1)
			st.volume = clampFloat(float64(val)/15.0, 0, 1)
			i = next

		case ch == '>':
			if st.octave < 8 {
				st.octave++
			}
			i++

		case ch == '<':
			if st.octave > 0 {
				st.octave--
			}
			i++

		case ch == 'r':
			length, dotted, next := parseLength(input, i+1, st.defaultLen)
			seq.Append(music.NoteData{
				Note:     music.C,
				Octave:   0,
				Duration: music.NoteDuration(st.bpm, length, dotted),
				IsRest:   true,
				Wave:     st.wave,
				Volume:   st.volume,
			})
			i = next

		case isNoteName(ch):
			note := noteNames[ch]
			i++
			if i < len(input) && (input[i] == '+' || input[i] == '#') {
				note = music.Note((int(note) + 1) % 12)
				i++
			} else if i < len(input) && input[i] == '-' {
				note = music.Note((int(note) + 11) % 12)
				i++
			}
			length, dotted, next := parseLength(input, i, st.defaultLen)
			seq.Append(music.NoteData{
				Note:     note,
				Octave:   st.octave,
				Duration: music.NoteDuration(st.bpm, length, dotted),
				Wave:     st.wave,
				Volume:   st.volume,
			})
			i = next

		default:
			// Unknown characters are skipped, by design of the format.
			i++
		}
	}
	return seq
}

// parseLength reads an optional length number and trailing dot after a
// note or rest letter.
func parseLength(s string, at int, defaultLen int) (length int, dotted bool, next int) {
	length = defaultLen
	i := at
	if i < len(s) && isDigit(s[i]) {
		length, i = parseNumber(s, i)
	}
	if i < len(s) && s[i] == '.' {
		dotted = true
		i++
	}
	return length, dotted, i
}

// parseNumber reads a run of digits. Returns 0 if no digits follow.
func parseNumber(s string, at int) (int, int) {
	i, val := at, 0
	for i < len(s) && isDigit(s[i]) {
		val = val*10 + int(s[i]-'0')
		i++
	}
	return val, i
}

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + 32
	}
	return b
}

func isSpace(b byte) bool { return b == ' ' || b == '\n' || b == '\r' || b == '\t' || b == '\f' || b == '\v' }
func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isNoteName(b byte) bool { _, ok := noteNames[b]; return ok }

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
