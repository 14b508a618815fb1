// Package mysound is a real-time software synthesis, sequencing, and
// mixing engine. Songs are written in a compact note language, compiled
// into bounded note sequences, and played through multi-track ensembles
// or the background-music manager with timed crossfades.
package mysound

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nonchang-net/mysound-go/internal/audio"
	"github.com/nonchang-net/mysound-go/internal/bgm"
	"github.com/nonchang-net/mysound-go/internal/effects"
	"github.com/nonchang-net/mysound-go/internal/mml"
	"github.com/nonchang-net/mysound-go/internal/music"
	"github.com/nonchang-net/mysound-go/internal/sequencer"
	"github.com/nonchang-net/mysound-go/internal/synth"
)

// DefaultSampleRate is the engine-wide output rate.
const DefaultSampleRate = music.DefaultSampleRate

// housekeepingInterval paces the frame-style Update loop the Player
// and BGM run internally (auto note-off, fade interpolation).
const housekeepingInterval = 16 * time.Millisecond

// Compile parses note-language text into a reusable note sequence.
// The parser never fails; unrecognized characters are skipped.
func Compile(text string) *music.Sequence {
	return mml.NewParser(mml.DefaultParserConfig()).Parse(text)
}

type PlayerOption func(*playerConfig)

type playerConfig struct {
	tracks         int
	loopEnabled    bool
	loopCount      int
	updateInterval time.Duration
	parserCfg      mml.ParserConfig
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		tracks:         4,
		loopCount:      sequencer.LoopInfinite,
		updateInterval: sequencer.DefaultUpdateInterval,
		parserCfg:      mml.DefaultParserConfig(),
	}
}

// WithTracks sets how many parallel voice/sequencer pairs the player
// builds.
func WithTracks(n int) PlayerOption {
	return func(cfg *playerConfig) { cfg.tracks = n }
}

// WithLoop configures end-of-song handling for every track. count is
// the number of repeats after the first pass; sequencer.LoopInfinite
// repeats until Stop.
func WithLoop(enabled bool, count int) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopEnabled = enabled
		cfg.loopCount = count
	}
}

// WithUpdateInterval sets the sequencer scheduling tick period.
func WithUpdateInterval(d time.Duration) PlayerOption {
	return func(cfg *playerConfig) { cfg.updateInterval = d }
}

// WithParserConfig overrides the note-language defaults (tempo,
// length, octave, volume).
func WithParserConfig(pc mml.ParserConfig) PlayerOption {
	return func(cfg *playerConfig) { cfg.parserCfg = pc }
}

// Player plays note-language songs through a multi-track ensemble on
// the hardware output. A housekeeping goroutine stands in for the game
// frame loop the engine is normally embedded in.
type Player struct {
	mu         sync.Mutex
	sampleRate int
	parser     *mml.Parser
	ensemble   *sequencer.MultiTrack
	audio      *audio.Player
	stopCh     chan struct{}
	closeOnce  sync.Once
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	ensemble := sequencer.NewMultiTrack(cfg.tracks, sampleRate)
	ensemble.SetLoop(cfg.loopEnabled, cfg.loopCount)
	ensemble.SetUpdateInterval(cfg.updateInterval)
	backend, err := audio.NewPlayer(sampleRate, ensemble)
	if err != nil {
		return nil, err
	}
	p := &Player{
		sampleRate: sampleRate,
		parser:     mml.NewParser(cfg.parserCfg),
		ensemble:   ensemble,
		audio:      backend,
		stopCh:     make(chan struct{}),
	}
	go p.housekeeping()
	return p, nil
}

func (p *Player) housekeeping() {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.ensemble.Update()
		}
	}
}

// PlayMML compiles one note-language string per track and starts
// playback. Passing fewer strings than tracks leaves the remaining
// tracks silent.
func (p *Player) PlayMML(tracks ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(tracks) > p.ensemble.TrackCount() {
		return fmt.Errorf("%d track strings for %d tracks", len(tracks), p.ensemble.TrackCount())
	}
	p.ensemble.Stop()
	for i := 0; i < p.ensemble.TrackCount(); i++ {
		if i < len(tracks) {
			p.ensemble.SetTrackSequence(i, p.parser.Parse(tracks[i]))
		} else {
			p.ensemble.SetTrackSequence(i, nil)
		}
	}
	p.ensemble.Play()
	p.audio.Play()
	return nil
}

// Play restarts the current song from the top.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensemble.Play()
	p.audio.Play()
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensemble.Stop()
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensemble.Pause()
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ensemble.Resume()
}

func (p *Player) IsPlaying() bool { return p.ensemble.IsPlaying() }

func (p *Player) SetMasterVolume(volume float64) { p.ensemble.SetMasterVolume(volume) }
func (p *Player) MasterVolume() float64          { return p.ensemble.MasterVolume() }

// SetTrackPan positions one track in the stereo field, -1 left to +1
// right.
func (p *Player) SetTrackPan(i int, pan float64) { p.ensemble.SetTrackPan(i, pan) }

// AddMasterEffect appends an effect to the shared output chain.
func (p *Player) AddMasterEffect(e effects.Effect) { p.ensemble.AddMasterEffect(e) }

// Ensemble exposes the underlying multi-track for direct control.
func (p *Player) Ensemble() *sequencer.MultiTrack { return p.ensemble }

// Voice returns one track's synthesizer, or nil for a bad index.
func (p *Player) Voice(i int) *synth.Voice { return p.ensemble.Voice(i) }

// Track returns one track's sequencer, or nil for a bad index.
func (p *Player) Track(i int) *sequencer.Sequencer { return p.ensemble.Track(i) }

// Close stops playback and releases the hardware output.
func (p *Player) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.ensemble.Stop()
		close(p.stopCh)
		err = p.audio.Stop()
	})
	return err
}

// BGM plays registered songs through the background-music manager,
// with hard switches or timed crossfades between them. It owns the
// hardware output and drives fade interpolation internally.
type BGM struct {
	mu         sync.Mutex
	manager    *bgm.Manager
	parser     *mml.Parser
	sampleRate int
	audio      *audio.Player
	stopCh     chan struct{}
	closeOnce  sync.Once
}

func NewBGM(sampleRate int) (*BGM, error) {
	if sampleRate <= 0 {
		return nil, errors.New("sampleRate must be positive")
	}
	manager := bgm.NewManager()
	backend, err := audio.NewPlayer(sampleRate, manager)
	if err != nil {
		return nil, err
	}
	b := &BGM{
		manager:    manager,
		parser:     mml.NewParser(mml.DefaultParserConfig()),
		sampleRate: sampleRate,
		audio:      backend,
		stopCh:     make(chan struct{}),
	}
	backend.Play()
	go b.housekeeping()
	return b, nil
}

func (b *BGM) housekeeping() {
	ticker := time.NewTicker(housekeepingInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-b.stopCh:
			return
		case now := <-ticker.C:
			b.manager.Update(now.Sub(last).Seconds())
			last = now
		}
	}
}

// Register compiles one note-language string per track into a looping
// song under the given id.
func (b *BGM) Register(id string, tracks ...string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	song := sequencer.NewMultiTrack(len(tracks), b.sampleRate)
	song.SetLoop(true, sequencer.LoopInfinite)
	for i, text := range tracks {
		song.SetTrackSequence(i, b.parser.Parse(text))
	}
	b.manager.Register(id, song)
}

// RegisterSong registers a pre-built ensemble under an id.
func (b *BGM) RegisterSong(id string, song *sequencer.MultiTrack) {
	b.manager.Register(id, song)
}

func (b *BGM) Play(id string) bool { return b.manager.Play(id) }

func (b *BGM) PlayWithCrossfade(id string, seconds float64) bool {
	return b.manager.PlayWithCrossfade(id, seconds)
}

func (b *BGM) Stop()   { b.manager.Stop() }
func (b *BGM) Pause()  { b.manager.Pause() }
func (b *BGM) Resume() { b.manager.Resume() }

func (b *BGM) IsPlaying() bool   { return b.manager.IsPlaying() }
func (b *BGM) CurrentID() string { return b.manager.CurrentID() }
func (b *BGM) IDs() []string     { return b.manager.IDs() }

func (b *BGM) SetMasterVolume(volume float64) { b.manager.SetMasterVolume(volume) }
func (b *BGM) MasterVolume() float64          { return b.manager.MasterVolume() }

// Manager exposes the underlying registry for direct control.
func (b *BGM) Manager() *bgm.Manager { return b.manager }

// Close stops everything and releases the hardware output.
func (b *BGM) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.manager.Stop()
		close(b.stopCh)
		err = b.audio.Stop()
	})
	return err
}
