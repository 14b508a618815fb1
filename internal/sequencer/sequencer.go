// Package sequencer turns ordered note lists into timed note-on and
// note-off calls against voices. A Sequencer drives one voice; a
// MultiTrack runs several voice/sequencer pairs in parallel behind a
// shared mixer.
package sequencer

import (
	"sync"
	"time"

	"github.com/nonchang-net/mysound-go/internal/music"
	"github.com/nonchang-net/mysound-go/internal/synth"
)

// DefaultUpdateInterval is the scheduling tick period. 15 ms is finer
// than a 32nd note at typical tempos.
const DefaultUpdateInterval = 15 * time.Millisecond

// LoopInfinite makes SetLoop repeat until Stop.
const LoopInfinite = -1

// Sequencer steps through a note sequence on its own ticker goroutine,
// issuing note-on and note-off against one voice. Each tick measures
// the real elapsed time, and when a note's duration is exceeded the
// overflow carries into the next note, so polling granularity never
// accumulates drift.
type Sequencer struct {
	voice *synth.Voice

	mu          sync.Mutex
	sequence    *music.Sequence
	index       int
	elapsed     float64
	playing     bool
	loopEnabled bool
	loopCount   int
	currentLoop int
	volume      float64
	interval    time.Duration
	stopCh      chan struct{}
}

func New(voice *synth.Voice) *Sequencer {
	return &Sequencer{
		voice:     voice,
		sequence:  &music.Sequence{},
		loopCount: LoopInfinite,
		volume:    music.DefaultVolume,
		interval:  DefaultUpdateInterval,
	}
}

func (s *Sequencer) Voice() *synth.Voice { return s.voice }

// SetSequence replaces the note list. When not playing, the playback
// position resets to the start.
func (s *Sequencer) SetSequence(seq *music.Sequence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq == nil {
		seq = &music.Sequence{}
	}
	s.sequence = seq
	if !s.playing {
		s.index = 0
		s.elapsed = 0
	}
}

// AddNote appends a note computed from tempo, division, and dotting,
// using the sequence-building defaults for wave and volume.
func (s *Sequencer) AddNote(note music.Note, octave int, bpm float64, division int, dotted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd := music.NewNoteData()
	nd.Note = note
	nd.Octave = octave
	nd.Duration = music.NoteDuration(bpm, division, dotted)
	s.sequence.Append(nd)
}

// AddRest appends a rest of the given musical length.
func (s *Sequencer) AddRest(bpm float64, division int, dotted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	nd := music.NewNoteData()
	nd.IsRest = true
	nd.Duration = music.NoteDuration(bpm, division, dotted)
	s.sequence.Append(nd)
}

// Clear stops playback and empties the note list.
func (s *Sequencer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	s.sequence.Clear()
	s.index = 0
	s.elapsed = 0
}

// SetLoop configures end-of-list handling. count is the number of
// repeats after the first traversal; LoopInfinite repeats until Stop.
func (s *Sequencer) SetLoop(enabled bool, count int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loopEnabled = enabled
	s.loopCount = count
}

// CurrentLoop reports how many traversals have completed since Play.
func (s *Sequencer) CurrentLoop() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLoop
}

// SetVolume scales every note's volume on this track.
func (s *Sequencer) SetVolume(volume float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = clampFloat(volume, 0, 1)
}

func (s *Sequencer) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// SetUpdateInterval changes the scheduling tick period. Takes effect
// on the next Play.
func (s *Sequencer) SetUpdateInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d < time.Millisecond {
		d = time.Millisecond
	}
	s.interval = d
}

func (s *Sequencer) UpdateInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Sequencer) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Play restarts playback from the first note and arms the scheduling
// ticker. The first note triggers immediately.
func (s *Sequencer) Play() {
	s.mu.Lock()
	s.stopLocked()
	if s.sequence.Empty() {
		s.mu.Unlock()
		return
	}
	s.playing = true
	s.index = 0
	s.elapsed = 0
	s.currentLoop = 0
	s.triggerLocked()
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	interval := s.interval
	s.mu.Unlock()
	go s.run(stopCh, interval)
}

// Stop disarms the ticker and releases the current note. Safe to call
// repeatedly and concurrently with a generation call in flight.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Sequencer) stopLocked() {
	if !s.playing {
		return
	}
	s.playing = false
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	s.voice.NoteOff()
}

func (s *Sequencer) run(stopCh chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			s.advance(stopCh, now.Sub(last).Seconds())
			last = now
		}
	}
}

// advance moves playback forward by dt seconds, issuing note events
// for every boundary crossed.
func (s *Sequencer) advance(stopCh chan struct{}, dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing || (stopCh != nil && s.stopCh != stopCh) {
		return
	}
	s.elapsed += dt
	for {
		if s.index >= s.sequence.Len() {
			s.stopLocked()
			return
		}
		duration := s.sequence.At(s.index).Duration
		if s.elapsed < duration {
			return
		}
		// Subtract rather than reset so the tick overflow carries over.
		s.elapsed -= duration
		s.index++
		if s.index >= s.sequence.Len() {
			if !s.loopEnabled {
				s.stopLocked()
				return
			}
			if s.loopCount >= 0 {
				s.currentLoop++
				if s.currentLoop > s.loopCount {
					s.stopLocked()
					return
				}
			}
			s.index = 0
			s.elapsed = 0
		}
		s.triggerLocked()
	}
}

func (s *Sequencer) triggerLocked() {
	n := s.sequence.At(s.index)
	if n.IsRest {
		s.voice.NoteOff()
		return
	}
	s.voice.Oscillator().SetWaveType(n.Wave)
	s.voice.NoteOn(n.Frequency(), n.Duration, n.Volume*s.volume)
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
