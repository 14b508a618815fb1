// Package bgm manages a registry of background songs and performs
// timed crossfades between them.
package bgm

import (
	"sync"

	"github.com/nonchang-net/mysound-go/internal/sequencer"
)

// fadeState tracks one in-flight volume ramp. Two can be live at once,
// a fade-in and a fade-out. The song id is the stable handle; the
// registry is append-only for the process lifetime, so the resolved
// pointer cannot dangle.
type fadeState struct {
	active   bool
	id       string
	song     *sequencer.MultiTrack
	from     float64
	target   float64
	duration float64
	elapsed  float64
}

// Manager owns the id to song registry and the final output mix. Its
// summation path is independent of the per-song mixers: while a fade is
// active it sums the fading-in and fading-out songs; otherwise it pulls
// the plain current song. No master effect chain applies at this stage.
type Manager struct {
	mu      sync.Mutex
	songs   map[string]*sequencer.MultiTrack
	order   []string
	current string
	master  float64
	playing bool
	fadeIn  fadeState
	fadeOut fadeState
	scratch []float32
}

func NewManager() *Manager {
	return &Manager{
		songs:  make(map[string]*sequencer.MultiTrack),
		master: 1,
	}
}

// Register adds a song under an id. Re-registering an id replaces the
// song but keeps its position in the listing order.
func (m *Manager) Register(id string, song *sequencer.MultiTrack) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.songs[id]; !ok {
		m.order = append(m.order, id)
	}
	m.songs[id] = song
}

// IDs returns the registered ids in registration order.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Song looks up a registered song.
func (m *Manager) Song(id string) (*sequencer.MultiTrack, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	song, ok := m.songs[id]
	return song, ok
}

// CurrentID returns the id of the song most recently started, or ""
// when nothing has played yet.
func (m *Manager) CurrentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *Manager) IsPlaying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing || m.fadeIn.active || m.fadeOut.active
}

// Play cuts straight to a song at full master volume, stopping
// whatever is audible. Playing the current id restarts it. Returns
// false for an unknown id.
func (m *Manager) Play(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	song, ok := m.songs[id]
	if !ok {
		return false
	}
	m.cancelFadesLocked()
	if cur, ok := m.songs[m.current]; ok && m.current != id {
		cur.Stop()
	}
	song.SetMasterVolume(m.master)
	song.Play()
	m.current = id
	m.playing = true
	return true
}

// PlayWithCrossfade fades the current song out and the requested song
// in over the given duration. Fading to the already-current song is a
// no-op returning true. Returns false for an unknown id.
func (m *Manager) PlayWithCrossfade(id string, seconds float64) bool {
	m.mu.Lock()
	if id == m.current && m.playing {
		m.mu.Unlock()
		return true
	}
	song, ok := m.songs[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	if seconds <= 0 {
		m.mu.Unlock()
		return m.Play(id)
	}
	m.cancelFadesLocked()
	if cur, ok := m.songs[m.current]; ok && m.playing {
		m.fadeOut = fadeState{
			active:   true,
			id:       m.current,
			song:     cur,
			from:     m.master,
			target:   0,
			duration: seconds,
		}
	}
	song.SetMasterVolume(0)
	song.Play()
	m.fadeIn = fadeState{
		active:   true,
		id:       id,
		song:     song,
		from:     0,
		target:   m.master,
		duration: seconds,
	}
	m.current = id
	m.playing = true
	m.mu.Unlock()
	return true
}

// Stop silences everything and disarms any fade in flight. Idempotent.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelFadesLocked()
	if cur, ok := m.songs[m.current]; ok {
		cur.Stop()
	}
	m.playing = false
}

func (m *Manager) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.songs[m.current]; ok {
		cur.Pause()
	}
}

func (m *Manager) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.songs[m.current]; ok {
		cur.Resume()
	}
}

// SetMasterVolume sets the target playback level. An in-flight fade-in
// retargets to the new level; a plainly playing song changes volume
// immediately.
func (m *Manager) SetMasterVolume(volume float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}
	m.master = volume
	if m.fadeIn.active {
		m.fadeIn.target = volume
	} else if cur, ok := m.songs[m.current]; ok && m.playing {
		cur.SetMasterVolume(volume)
	}
}

func (m *Manager) MasterVolume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.master
}

// Update advances fade interpolation by dt seconds and runs per-frame
// voice housekeeping for every registered song. Call it once per
// application frame.
func (m *Manager) Update(dt float64) {
	m.mu.Lock()
	m.advanceFadeLocked(&m.fadeIn, dt)
	m.advanceFadeLocked(&m.fadeOut, dt)
	songs := make([]*sequencer.MultiTrack, 0, len(m.order))
	for _, id := range m.order {
		songs = append(songs, m.songs[id])
	}
	m.mu.Unlock()
	for _, song := range songs {
		song.Update()
	}
}

func (m *Manager) advanceFadeLocked(f *fadeState, dt float64) {
	if !f.active {
		return
	}
	f.elapsed += dt
	progress := 1.0
	if f.duration > 0 {
		progress = f.elapsed / f.duration
	}
	if progress >= 1 {
		f.song.SetMasterVolume(f.target)
		if f.target == 0 {
			f.song.Stop()
		}
		f.active = false
		return
	}
	f.song.SetMasterVolume(f.from + (f.target-f.from)*progress)
}

func (m *Manager) cancelFadesLocked() {
	if m.fadeOut.active {
		m.fadeOut.song.Stop()
		m.fadeOut.active = false
	}
	if m.fadeIn.active {
		m.fadeIn.song.SetMasterVolume(m.fadeIn.target)
		m.fadeIn.active = false
	}
}

// Process fills dst with interleaved stereo samples. It sums the
// fading-in song, the fading-out song, and, only when no fade is
// active, the plain current song.
func (m *Manager) Process(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}
	m.mu.Lock()
	var pulls [2]*sequencer.MultiTrack
	n := 0
	if m.fadeIn.active {
		pulls[n] = m.fadeIn.song
		n++
	}
	if m.fadeOut.active {
		pulls[n] = m.fadeOut.song
		n++
	}
	if n == 0 && m.playing {
		if cur, ok := m.songs[m.current]; ok {
			pulls[n] = cur
			n++
		}
	}
	if cap(m.scratch) < len(dst) {
		m.scratch = make([]float32, len(dst))
	}
	scratch := m.scratch[:len(dst)]
	for i := 0; i < n; i++ {
		pulls[i].Process(scratch)
		for j := range dst {
			dst[j] += scratch[j]
		}
	}
	m.mu.Unlock()
	for i, s := range dst {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		dst[i] = s
	}
}
