package sequencer

import (
	"math"
	"testing"
	"time"

	"github.com/nonchang-net/mysound-go/internal/effects"
)

func newTestMultiTrack(tracks int) *MultiTrack {
	mt := NewMultiTrack(tracks, testRate)
	mt.SetUpdateInterval(time.Hour)
	return mt
}

func TestMultiTrackBadIndexAccessors(t *testing.T) {
	mt := newTestMultiTrack(2)
	if mt.Voice(-1) != nil || mt.Voice(2) != nil {
		t.Error("out-of-range Voice should return nil")
	}
	if mt.Track(-1) != nil || mt.Track(2) != nil {
		t.Error("out-of-range Track should return nil")
	}
	// Bad-index mutations are no-ops.
	mt.SetTrackSequence(5, noteSeq(1))
	mt.SetTrackPan(5, -1)
}

func TestMultiTrackDefaultStereoSends(t *testing.T) {
	mt := newTestMultiTrack(1)
	sends := mt.Mixer().SendLevels(0)
	center := float32(math.Sqrt2 / 2)
	if len(sends) != 2 {
		t.Fatalf("send count = %d, want 2", len(sends))
	}
	for ch, s := range sends {
		if math.Abs(float64(s-center)) > 0.001 {
			t.Errorf("channel %d default send = %f, want ~0.707", ch, s)
		}
	}
}

func TestMultiTrackPanExtremes(t *testing.T) {
	mt := newTestMultiTrack(2)
	mt.SetTrackPan(0, -1)
	mt.SetTrackPan(1, 1)
	left := mt.Mixer().SendLevels(0)
	right := mt.Mixer().SendLevels(1)
	if math.Abs(float64(left[0])-1) > 0.001 || math.Abs(float64(left[1])) > 0.001 {
		t.Errorf("hard left sends = %v, want ~[1,0]", left)
	}
	if math.Abs(float64(right[0])) > 0.001 || math.Abs(float64(right[1])-1) > 0.001 {
		t.Errorf("hard right sends = %v, want ~[0,1]", right)
	}
}

func TestMultiTrackPlayAndStop(t *testing.T) {
	mt := newTestMultiTrack(2)
	mt.SetTrackSequence(0, noteSeq(10))
	mt.SetTrackSequence(1, noteSeq(10))
	mt.Play()
	if !mt.IsPlaying() {
		t.Fatal("ensemble should be playing")
	}
	mt.Stop()
	if mt.IsPlaying() {
		t.Error("ensemble should be stopped")
	}
	mt.Stop() // idempotent
}

func TestMultiTrackPauseResume(t *testing.T) {
	mt := newTestMultiTrack(1)
	mt.SetTrackSequence(0, noteSeq(10))
	mt.Resume() // not paused, no-op
	if mt.IsPlaying() {
		t.Fatal("Resume without Pause should not start playback")
	}
	mt.Play()
	mt.Pause()
	if mt.IsPlaying() {
		t.Error("ensemble should be silent while paused")
	}
	// Resume restarts from the top; the exact position is not kept.
	mt.Resume()
	if !mt.IsPlaying() {
		t.Error("Resume after Pause should restart playback")
	}
	mt.Stop()
}

func TestMultiTrackProcessProducesStereoAudio(t *testing.T) {
	mt := newTestMultiTrack(1)
	mt.SetTrackSequence(0, noteSeq(10))
	mt.Play()
	defer mt.Stop()
	buf := make([]float32, 8192)
	mt.Process(buf)
	if peak(buf) < 0.01 {
		t.Errorf("peak = %f, want audible stereo output", peak(buf))
	}
}

func TestMultiTrackMasterVolumeSilences(t *testing.T) {
	mt := newTestMultiTrack(1)
	mt.SetTrackSequence(0, noteSeq(10))
	mt.SetMasterVolume(0)
	mt.Play()
	defer mt.Stop()
	buf := make([]float32, 4096)
	mt.Process(buf)
	if peak(buf) != 0 {
		t.Errorf("peak = %f, want silence at master volume 0", peak(buf))
	}
}

func TestMultiTrackMasterEffectChain(t *testing.T) {
	mt := newTestMultiTrack(1)
	f := effects.NewBiquad(testRate)
	f.SetType(effects.Lowpass)
	mt.AddMasterEffect(f)
	if got := mt.Mixer().MasterEffectCount(); got != 1 {
		t.Errorf("MasterEffectCount() = %d, want 1", got)
	}
}

func TestMultiTrackLoopBroadcast(t *testing.T) {
	mt := newTestMultiTrack(3)
	for i := 0; i < 3; i++ {
		mt.SetTrackSequence(i, noteSeq(0.1))
	}
	mt.SetLoop(true, LoopInfinite)
	mt.Play()
	defer mt.Stop()
	for i := 0; i < 3; i++ {
		mt.Track(i).advance(nil, 0.5)
	}
	if !mt.IsPlaying() {
		t.Error("looping ensemble should still be playing past its total duration")
	}
}

func TestMultiTrackMinimumOneTrack(t *testing.T) {
	mt := newTestMultiTrack(0)
	if mt.TrackCount() != 1 {
		t.Errorf("TrackCount() = %d, want 1", mt.TrackCount())
	}
}
