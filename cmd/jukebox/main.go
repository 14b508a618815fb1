// Command jukebox is a small terminal UI over the background-music
// manager: pick a song, cut or crossfade to it, adjust the volume.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nonchang-net/mysound-go"
)

// Built-in demo songs, one note-language string per track.
var demoSongs = []struct {
	id     string
	tracks []string
}{
	{"title", []string{
		"t100 o4 l4 c e g e c e g e c e g e",
		"t100 o3 l2 c g a- g",
	}},
	{"field", []string{
		"t120 o5 l8 @2 e d c d e e e4 d d d4 e g g4",
		"t120 o3 l4 c g c g a e g g",
	}},
	{"battle", []string{
		"t160 o5 l16 @1 c c r c e- c r c f c r c e- c r c",
		"t160 o2 l8 @2 c c g g c c b- b-",
	}},
	{"gameover", []string{
		"t60 o4 l4 e c2. r4",
		"t60 o3 l2 a- g2.",
	}},
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	playingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

type model struct {
	bgm    *mysound.BGM
	ids    []string
	cursor int
	fade   float64
	status string
}

func newModel(bgm *mysound.BGM, fade float64) model {
	return model{
		bgm:    bgm,
		ids:    bgm.IDs(),
		fade:   fade,
		status: "pick a song",
	}
}

func (m model) Init() tea.Cmd {
	return tickCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tickCmd()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.ids)-1 {
				m.cursor++
			}
		case "enter":
			id := m.ids[m.cursor]
			m.bgm.Play(id)
			m.status = "playing " + id
		case "c":
			id := m.ids[m.cursor]
			if m.bgm.PlayWithCrossfade(id, m.fade) {
				m.status = fmt.Sprintf("crossfading to %s over %.1fs", id, m.fade)
			}
		case "s":
			m.bgm.Stop()
			m.status = "stopped"
		case "+", "=":
			m.bgm.SetMasterVolume(m.bgm.MasterVolume() + 0.1)
		case "-":
			m.bgm.SetMasterVolume(m.bgm.MasterVolume() - 0.1)
		}
	}
	return m, nil
}

func (m model) View() string {
	s := titleStyle.Render("jukebox") + "\n\n"
	current := m.bgm.CurrentID()
	for i, id := range m.ids {
		line := "  " + id
		if id == current && m.bgm.IsPlaying() {
			line = playingStyle.Render("♪ " + id)
		}
		if i == m.cursor {
			line = selectedStyle.Render("> " + id)
		}
		s += line + "\n"
	}
	s += "\n" + m.status + "\n"
	s += fmt.Sprintf("volume %.1f\n", m.bgm.MasterVolume())
	s += dimStyle.Render("enter play · c crossfade · s stop · +/- volume · q quit") + "\n"
	return s
}

func main() {
	var (
		sampleRate = flag.Int("sample-rate", mysound.DefaultSampleRate, "output sample rate")
		fade       = flag.Float64("fade", 2.0, "crossfade duration in seconds")
	)
	flag.Parse()

	bgm, err := mysound.NewBGM(*sampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "audio init: %v\n", err)
		os.Exit(1)
	}
	defer bgm.Close()
	for _, song := range demoSongs {
		bgm.Register(song.id, song.tracks...)
	}

	p := tea.NewProgram(newModel(bgm, *fade))
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
