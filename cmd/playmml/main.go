// Command playmml plays note-language songs on the default audio
// device, renders them to WAV files, or runs an interactive prompt.
//
// Tracks are separated by ';' in the input text, one voice per track.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/nonchang-net/mysound-go"
)

const defaultSong = "t120 o4 l8 c e g > c < g e c4 ; t120 o3 l4 c g c g"

func main() {
	var (
		sampleRate = flag.Int("sample-rate", mysound.DefaultSampleRate, "output sample rate")
		mmlPath    = flag.String("file", "", "path to a note-language file")
		mmlInline  = flag.String("mml", "", "inline note-language string")
		loop       = flag.Bool("loop", false, "loop playback until interrupted")
		loops      = flag.Int("loops", -1, "with -loop, extra repeats before stopping (-1 = forever)")
		volume     = flag.Float64("volume", 1.0, "master volume 0..1")
		wavPath    = flag.String("wav", "", "render the first track offline to this WAV file and exit")
		repl       = flag.Bool("repl", false, "interactive prompt; each line plays as a song")
	)
	flag.Parse()

	text, err := resolveInput(*mmlPath, *mmlInline)
	if err != nil {
		log.Fatal(err)
	}

	if *wavPath != "" {
		if err := renderToWAV(text, *sampleRate, *wavPath); err != nil {
			log.Fatal(err)
		}
		return
	}

	tracks := splitTracks(text)
	pl, err := mysound.NewPlayer(*sampleRate,
		mysound.WithTracks(maxInt(len(tracks), 1)),
		mysound.WithLoop(*loop, *loops),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer pl.Close()
	pl.SetMasterVolume(*volume)

	if *repl {
		runREPL(pl)
		return
	}

	if err := pl.PlayMML(tracks...); err != nil {
		log.Fatal(err)
	}
	waitForEnd(pl)
}

func resolveInput(path, inline string) (string, error) {
	if strings.TrimSpace(inline) != "" {
		return inline, nil
	}
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	return defaultSong, nil
}

func splitTracks(text string) []string {
	parts := strings.Split(text, ";")
	tracks := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			tracks = append(tracks, p)
		}
	}
	return tracks
}

func renderToWAV(text string, sampleRate int, path string) error {
	first := splitTracks(text)
	if len(first) == 0 {
		return fmt.Errorf("nothing to render")
	}
	samples := mysound.RenderMML(first[0], sampleRate)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := mysound.WriteWAV(f, samples, sampleRate, 1); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%.2fs)\n", path, float64(len(samples))/float64(sampleRate))
	return nil
}

func waitForEnd(pl *mysound.Player) {
	for pl.IsPlaying() {
		time.Sleep(50 * time.Millisecond)
	}
	// Let the driver drain its last buffer.
	time.Sleep(200 * time.Millisecond)
}

// runREPL reads one song per line. Lines starting with ':' are control
// commands; everything else is note-language text.
func runREPL(pl *mysound.Player) {
	rl, err := readline.New("mml> ")
	if err != nil {
		log.Fatal(err)
	}
	defer rl.Close()

	fmt.Println("enter note-language text; :stop, :vol <0..1>, :pan <track> <-1..1>, :quit")
	for {
		line, err := rl.Readline()
		if err == io.EOF || err == readline.ErrInterrupt {
			return
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := runCommand(pl, line); quit {
				return
			}
			continue
		}
		if err := pl.PlayMML(splitTracks(line)...); err != nil {
			fmt.Println(err)
		}
	}
}

func runCommand(pl *mysound.Player, line string) (quit bool) {
	fields := strings.Fields(line)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":stop":
		pl.Stop()
	case ":vol":
		if len(fields) < 2 {
			fmt.Println("usage: :vol <0..1>")
			return false
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			fmt.Println(err)
			return false
		}
		pl.SetMasterVolume(v)
	case ":pan":
		if len(fields) < 3 {
			fmt.Println("usage: :pan <track> <-1..1>")
			return false
		}
		track, err1 := strconv.Atoi(fields[1])
		pan, err2 := strconv.ParseFloat(fields[2], 64)
		if err1 != nil || err2 != nil {
			fmt.Println("usage: :pan <track> <-1..1>")
			return false
		}
		pl.SetTrackPan(track, pan)
	default:
		fmt.Printf("unknown command %s\n", fields[0])
	}
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
