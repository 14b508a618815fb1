package mysound

import (
	"fmt"
	"io"

	wav "github.com/youpy/go-wav"

	"github.com/nonchang-net/mysound-go/internal/music"
	"github.com/nonchang-net/mysound-go/internal/synth"
)

// releaseTailSeconds bounds how long an offline render waits for the
// final release to decay.
const releaseTailSeconds = 0.5

// RenderNotes renders a note list through a fresh voice without a
// hardware device, returning mono samples. The last note's release
// tail is included.
func RenderNotes(notes []music.NoteData, sampleRate int) []float32 {
	v := synth.NewVoice(sampleRate)
	buf := make([]float32, 512)
	var out []float32
	for _, n := range notes {
		if n.IsRest {
			v.NoteOff()
		} else {
			v.Oscillator().SetWaveType(n.Wave)
			v.NoteOn(n.Frequency(), 0, n.Volume)
		}
		frames := int(n.Duration * float64(sampleRate))
		for frames > 0 {
			c := min(frames, len(buf))
			v.GenerateSamples(buf[:c])
			out = append(out, buf[:c]...)
			frames -= c
		}
	}
	v.NoteOff()
	tail := int(releaseTailSeconds * float64(sampleRate))
	for tail > 0 {
		c := min(tail, len(buf))
		v.GenerateSamples(buf[:c])
		out = append(out, buf[:c]...)
		tail -= c
		v.Update()
		if !v.IsPlaying() {
			break
		}
	}
	return out
}

// RenderMML compiles one note-language string and renders it offline.
func RenderMML(text string, sampleRate int) []float32 {
	return RenderNotes(Compile(text).Notes(), sampleRate)
}

// WriteWAV encodes samples as 16-bit PCM. channels is 1 for mono
// buffers or 2 for interleaved stereo.
func WriteWAV(w io.Writer, samples []float32, sampleRate, channels int) error {
	if channels != 1 && channels != 2 {
		return fmt.Errorf("unsupported channel count %d", channels)
	}
	frames := len(samples) / channels
	enc := wav.NewWriter(w, uint32(frames), uint16(channels), uint32(sampleRate), 16)
	const chunk = 2048
	buf := make([]wav.Sample, 0, chunk)
	for f := 0; f < frames; f++ {
		var s wav.Sample
		for ch := 0; ch < channels; ch++ {
			s.Values[ch] = pcm16(samples[f*channels+ch])
		}
		buf = append(buf, s)
		if len(buf) == chunk {
			if err := enc.WriteSamples(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		return enc.WriteSamples(buf)
	}
	return nil
}

func pcm16(v float32) int {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int(v * 32767)
}
