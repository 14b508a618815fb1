// Package mixer sums mono sources into a multi-channel output with
// per-source send levels, equal-power panning, and a master effect
// chain.
package mixer

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/nonchang-net/mysound-go/internal/effects"
	"github.com/nonchang-net/mysound-go/internal/music"
)

// Source is a mono sample generator pulled by the mixer.
type Source interface {
	GenerateSamples(dst []float32)
}

// scratchFrames bounds the per-source chunk pulled in one pass, so the
// scratch buffer is sized once regardless of how much the host asks for.
const scratchFrames = 2048

type channelSource struct {
	src   Source
	sends atomic.Pointer[[]float32]
}

// Mixer routes N mono sources into M interleaved channels. The source
// list and per-source send levels are swapped copy-on-write behind
// atomic pointers; MixSamples never locks.
type Mixer struct {
	sampleRate int
	channels   int

	sources atomic.Pointer[[]*channelSource]
	chain   atomic.Pointer[effects.Chain]
	editMu  sync.Mutex

	masterVolBits atomic.Uint64
	scratch       []float32
}

func New(sampleRate, channels int) *Mixer {
	if channels < 1 {
		channels = 1
	}
	m := &Mixer{
		sampleRate: sampleRate,
		channels:   channels,
		scratch:    make([]float32, scratchFrames),
	}
	m.masterVolBits.Store(math.Float64bits(music.DefaultVolume))
	return m
}

func (m *Mixer) SampleRate() int   { return m.sampleRate }
func (m *Mixer) ChannelCount() int { return m.channels }

// defaultSends spreads a mono source evenly across the output
// channels: mono passes through, stereo gets equal-power center, and
// wider layouts get 1/sqrt(N) per channel.
func defaultSends(channels int) []float32 {
	sends := make([]float32, channels)
	var level float32
	switch channels {
	case 1:
		level = 1
	default:
		level = float32(1 / math.Sqrt(float64(channels)))
	}
	for i := range sends {
		sends[i] = level
	}
	return sends
}

// AddSource registers a mono source with default send levels and
// returns its index.
func (m *Mixer) AddSource(src Source) int {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	cs := &channelSource{src: src}
	sends := defaultSends(m.channels)
	cs.sends.Store(&sends)
	old := m.sources.Load()
	var list []*channelSource
	if old != nil {
		list = append(list, *old...)
	}
	list = append(list, cs)
	m.sources.Store(&list)
	return len(list) - 1
}

func (m *Mixer) ClearSources() {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	m.sources.Store(nil)
}

func (m *Mixer) SourceCount() int {
	if list := m.sources.Load(); list != nil {
		return len(*list)
	}
	return 0
}

// SetSendLevels replaces the per-channel gains for one source. Extra
// levels are dropped; missing ones default to 0. Bad indices no-op.
func (m *Mixer) SetSendLevels(i int, levels []float32) {
	cs := m.source(i)
	if cs == nil {
		return
	}
	sends := make([]float32, m.channels)
	copy(sends, levels)
	cs.sends.Store(&sends)
}

// SendLevels returns a copy of one source's send levels, or nil for a
// bad index.
func (m *Mixer) SendLevels(i int) []float32 {
	cs := m.source(i)
	if cs == nil {
		return nil
	}
	sends := *cs.sends.Load()
	out := make([]float32, len(sends))
	copy(out, sends)
	return out
}

// SetPan positions a source in a stereo field with the equal-power
// law: pan -1 is hard left, 0 is center, +1 is hard right. Layouts
// with fewer than two channels are left untouched.
func (m *Mixer) SetPan(i int, pan float64) {
	if m.channels < 2 {
		return
	}
	cs := m.source(i)
	if cs == nil {
		return
	}
	pan = clampFloat(pan, -1, 1)
	theta := (pan + 1) * math.Pi / 4
	sends := make([]float32, m.channels)
	copy(sends, *cs.sends.Load())
	sends[0] = float32(math.Cos(theta))
	sends[1] = float32(math.Sin(theta))
	cs.sends.Store(&sends)
}

func (m *Mixer) source(i int) *channelSource {
	list := m.sources.Load()
	if list == nil || i < 0 || i >= len(*list) {
		return nil
	}
	return (*list)[i]
}

func (m *Mixer) SetMasterVolume(volume float64) {
	m.masterVolBits.Store(math.Float64bits(clampFloat(volume, 0, 1)))
}

func (m *Mixer) MasterVolume() float64 {
	return math.Float64frombits(m.masterVolBits.Load())
}

// AddMasterEffect appends an effect to the chain applied to the summed
// output.
func (m *Mixer) AddMasterEffect(e effects.Effect) {
	if e == nil {
		return
	}
	m.editMu.Lock()
	defer m.editMu.Unlock()
	old := m.chain.Load()
	var list []effects.Effect
	if old != nil {
		list = append(list, old.Effects()...)
	}
	list = append(list, e)
	m.chain.Store(effects.NewChain(list...))
}

func (m *Mixer) ClearMasterEffects() {
	m.editMu.Lock()
	defer m.editMu.Unlock()
	m.chain.Store(nil)
}

func (m *Mixer) MasterEffectCount() int {
	if c := m.chain.Load(); c != nil {
		return c.Len()
	}
	return 0
}

// MixSamples fills dst (interleaved, ChannelCount channels) by summing
// every source weighted by its send levels, then applies the master
// chain and master volume and clips. Called from the audio goroutine
// only.
func (m *Mixer) MixSamples(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	if list := m.sources.Load(); list != nil {
		frames := len(dst) / m.channels
		for off := 0; off < frames; off += scratchFrames {
			n := min(scratchFrames, frames-off)
			mono := m.scratch[:n]
			for _, cs := range *list {
				cs.src.GenerateSamples(mono)
				sends := *cs.sends.Load()
				for f := 0; f < n; f++ {
					base := (off + f) * m.channels
					for ch := 0; ch < m.channels; ch++ {
						dst[base+ch] += mono[f] * sends[ch]
					}
				}
			}
		}
	}
	chain := m.chain.Load()
	vol := float32(m.MasterVolume())
	for i := range dst {
		s := dst[i]
		if chain != nil {
			s = chain.Process(s)
		}
		s *= vol
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		dst[i] = s
	}
}

// Process satisfies the audio stream's pull interface.
func (m *Mixer) Process(dst []float32) { m.MixSamples(dst) }

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
