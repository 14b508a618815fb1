package sequencer

import (
	"time"

	"github.com/nonchang-net/mysound-go/internal/effects"
	"github.com/nonchang-net/mysound-go/internal/mixer"
	"github.com/nonchang-net/mysound-go/internal/music"
	"github.com/nonchang-net/mysound-go/internal/synth"
)

// MultiTrack runs N voice/sequencer pairs in parallel behind one
// stereo mixer, giving every ensemble a shared master volume, a shared
// master effect chain, and per-track panning. Loop and update-interval
// settings broadcast uniformly to all tracks.
type MultiTrack struct {
	voices []*synth.Voice
	seqs   []*Sequencer
	mix    *mixer.Mixer
	paused bool
}

func NewMultiTrack(trackCount, sampleRate int) *MultiTrack {
	if trackCount < 1 {
		trackCount = 1
	}
	mt := &MultiTrack{
		voices: make([]*synth.Voice, trackCount),
		seqs:   make([]*Sequencer, trackCount),
		mix:    mixer.New(sampleRate, 2),
	}
	for i := range mt.voices {
		v := synth.NewVoice(sampleRate)
		mt.voices[i] = v
		mt.seqs[i] = New(v)
		mt.mix.AddSource(v)
	}
	return mt
}

func (mt *MultiTrack) TrackCount() int    { return len(mt.voices) }
func (mt *MultiTrack) Mixer() *mixer.Mixer { return mt.mix }

// Voice returns the synthesizer for one track, or nil for a bad index.
func (mt *MultiTrack) Voice(i int) *synth.Voice {
	if i < 0 || i >= len(mt.voices) {
		return nil
	}
	return mt.voices[i]
}

// Track returns the sequencer for one track, or nil for a bad index.
func (mt *MultiTrack) Track(i int) *Sequencer {
	if i < 0 || i >= len(mt.seqs) {
		return nil
	}
	return mt.seqs[i]
}

// SetTrackSequence assigns a note list to one track. Bad indices no-op.
func (mt *MultiTrack) SetTrackSequence(i int, seq *music.Sequence) {
	if s := mt.Track(i); s != nil {
		s.SetSequence(seq)
	}
}

// SetTrackPan positions one track in the stereo field.
func (mt *MultiTrack) SetTrackPan(i int, pan float64) {
	mt.mix.SetPan(i, pan)
}

// Play restarts every track from its first note.
func (mt *MultiTrack) Play() {
	mt.paused = false
	for _, s := range mt.seqs {
		s.Play()
	}
}

// Stop halts every track.
func (mt *MultiTrack) Stop() {
	mt.paused = false
	for _, s := range mt.seqs {
		s.Stop()
	}
}

// Pause halts playback. The exact position is not kept; Resume
// restarts every track from the beginning.
func (mt *MultiTrack) Pause() {
	if !mt.IsPlaying() {
		return
	}
	for _, s := range mt.seqs {
		s.Stop()
	}
	mt.paused = true
}

// Resume restarts a paused ensemble from the top.
func (mt *MultiTrack) Resume() {
	if !mt.paused {
		return
	}
	mt.Play()
}

// IsPlaying reports whether any track is scheduled or still sounding.
func (mt *MultiTrack) IsPlaying() bool {
	for _, s := range mt.seqs {
		if s.IsPlaying() {
			return true
		}
	}
	for _, v := range mt.voices {
		if v.IsPlaying() {
			return true
		}
	}
	return false
}

// SetLoop broadcasts loop configuration to all tracks.
func (mt *MultiTrack) SetLoop(enabled bool, count int) {
	for _, s := range mt.seqs {
		s.SetLoop(enabled, count)
	}
}

// SetUpdateInterval broadcasts the scheduling tick period to all
// tracks.
func (mt *MultiTrack) SetUpdateInterval(d time.Duration) {
	for _, s := range mt.seqs {
		s.SetUpdateInterval(d)
	}
}

func (mt *MultiTrack) SetMasterVolume(volume float64) { mt.mix.SetMasterVolume(volume) }
func (mt *MultiTrack) MasterVolume() float64          { return mt.mix.MasterVolume() }

// AddMasterEffect appends an effect to the mixer's shared chain.
func (mt *MultiTrack) AddMasterEffect(e effects.Effect) { mt.mix.AddMasterEffect(e) }

// Update runs per-frame voice housekeeping for every track.
func (mt *MultiTrack) Update() {
	for _, v := range mt.voices {
		v.Update()
	}
}

// Process fills dst with interleaved stereo samples through the mixer.
func (mt *MultiTrack) Process(dst []float32) { mt.mix.MixSamples(dst) }
