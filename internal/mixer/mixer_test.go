package mixer

import (
	"math"
	"testing"
)

// constSource fills every sample with a fixed value.
type constSource struct{ value float32 }

func (c *constSource) GenerateSamples(dst []float32) {
	for i := range dst {
		dst[i] = c.value
	}
}

// halver is a minimal effect for observing the master chain.
type halver struct{}

func (halver) Process(s float32) float32 { return s / 2 }
func (halver) Reset()                    {}

func approx(a, b float64) bool { return math.Abs(a-b) < 0.001 }

func TestDefaultSendsByChannelCount(t *testing.T) {
	tests := []struct {
		channels int
		want     float64
	}{
		{1, 1.0},
		{2, math.Sqrt2 / 2},
		{4, 0.5},
	}
	for _, tt := range tests {
		m := New(44100, tt.channels)
		i := m.AddSource(&constSource{})
		sends := m.SendLevels(i)
		if len(sends) != tt.channels {
			t.Fatalf("%d channels: send count = %d", tt.channels, len(sends))
		}
		for ch, s := range sends {
			if !approx(float64(s), tt.want) {
				t.Errorf("%d channels: send[%d] = %f, want %f", tt.channels, ch, s, tt.want)
			}
		}
	}
}

func TestSetPanEqualPowerLaw(t *testing.T) {
	m := New(44100, 2)
	i := m.AddSource(&constSource{})

	m.SetPan(i, -1)
	sends := m.SendLevels(i)
	if !approx(float64(sends[0]), 1) || !approx(float64(sends[1]), 0) {
		t.Errorf("pan -1 sends = %v, want ~[1,0]", sends)
	}

	m.SetPan(i, 1)
	sends = m.SendLevels(i)
	if !approx(float64(sends[0]), 0) || !approx(float64(sends[1]), 1) {
		t.Errorf("pan +1 sends = %v, want ~[0,1]", sends)
	}

	m.SetPan(i, 0)
	sends = m.SendLevels(i)
	center := math.Sqrt2 / 2
	if !approx(float64(sends[0]), center) || !approx(float64(sends[1]), center) {
		t.Errorf("pan 0 sends = %v, want ~[0.707,0.707]", sends)
	}

	// Out-of-range pan clamps to the extremes.
	m.SetPan(i, -5)
	sends = m.SendLevels(i)
	if !approx(float64(sends[0]), 1) {
		t.Errorf("pan -5 left send = %f, want ~1", sends[0])
	}
}

func TestSetPanIgnoredOnMono(t *testing.T) {
	m := New(44100, 1)
	i := m.AddSource(&constSource{})
	m.SetPan(i, -1)
	if sends := m.SendLevels(i); !approx(float64(sends[0]), 1) {
		t.Errorf("mono send = %f, want unchanged 1", sends[0])
	}
}

func TestMixSamplesSumsWeightedSources(t *testing.T) {
	m := New(44100, 2)
	m.AddSource(&constSource{value: 0.2})
	m.AddSource(&constSource{value: 0.1})
	buf := make([]float32, 8)
	m.MixSamples(buf)
	want := 0.3 * math.Sqrt2 / 2
	for i, s := range buf {
		if !approx(float64(s), want) {
			t.Fatalf("sample %d = %f, want %f", i, s, want)
		}
	}
}

func TestMixSamplesClipsOutput(t *testing.T) {
	m := New(44100, 2)
	i := m.AddSource(&constSource{value: 1})
	j := m.AddSource(&constSource{value: 1})
	m.SetSendLevels(i, []float32{1, 1})
	m.SetSendLevels(j, []float32{1, 1})
	buf := make([]float32, 8)
	m.MixSamples(buf)
	for idx, s := range buf {
		if s > 1 {
			t.Fatalf("sample %d = %f, want clipped to 1", idx, s)
		}
	}
	if !approx(float64(buf[0]), 1) {
		t.Errorf("overdriven mix = %f, want 1", buf[0])
	}
}

func TestMasterVolumeAndChain(t *testing.T) {
	m := New(44100, 1)
	i := m.AddSource(&constSource{value: 0.8})
	m.SetSendLevels(i, []float32{1})
	m.SetMasterVolume(0.5)
	m.AddMasterEffect(halver{})
	buf := make([]float32, 4)
	m.MixSamples(buf)
	// Chain first, then master volume: 0.8/2*0.5.
	if !approx(float64(buf[0]), 0.2) {
		t.Errorf("mixed sample = %f, want 0.2", buf[0])
	}
	m.ClearMasterEffects()
	if m.MasterEffectCount() != 0 {
		t.Error("ClearMasterEffects should empty the chain")
	}
}

func TestMasterVolumeClamped(t *testing.T) {
	m := New(44100, 1)
	m.SetMasterVolume(2)
	if got := m.MasterVolume(); got != 1 {
		t.Errorf("master volume clamped to %f, want 1", got)
	}
	m.SetMasterVolume(-1)
	if got := m.MasterVolume(); got != 0 {
		t.Errorf("master volume clamped to %f, want 0", got)
	}
}

func TestSendLevelsPaddedAndTruncated(t *testing.T) {
	m := New(44100, 2)
	i := m.AddSource(&constSource{})
	m.SetSendLevels(i, []float32{0.5})
	sends := m.SendLevels(i)
	if sends[0] != 0.5 || sends[1] != 0 {
		t.Errorf("padded sends = %v, want [0.5,0]", sends)
	}
	m.SetSendLevels(i, []float32{0.1, 0.2, 0.3})
	sends = m.SendLevels(i)
	if len(sends) != 2 || sends[0] != 0.1 || sends[1] != 0.2 {
		t.Errorf("truncated sends = %v, want [0.1,0.2]", sends)
	}
}

func TestBadIndexNoOps(t *testing.T) {
	m := New(44100, 2)
	if m.SendLevels(0) != nil {
		t.Error("SendLevels on empty mixer should return nil")
	}
	m.SetPan(3, 0)
	m.SetSendLevels(-1, []float32{1, 1})
}

func TestClearSourcesSilences(t *testing.T) {
	m := New(44100, 2)
	m.AddSource(&constSource{value: 0.5})
	if m.SourceCount() != 1 {
		t.Fatalf("SourceCount() = %d, want 1", m.SourceCount())
	}
	m.ClearSources()
	if m.SourceCount() != 0 {
		t.Fatalf("SourceCount() after clear = %d, want 0", m.SourceCount())
	}
	buf := []float32{9, 9, 9, 9}
	m.MixSamples(buf)
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d = %f, want 0 after ClearSources", i, s)
		}
	}
}

func TestMixLargerThanScratch(t *testing.T) {
	m := New(44100, 2)
	m.AddSource(&constSource{value: 0.1})
	buf := make([]float32, (scratchFrames+100)*2)
	m.MixSamples(buf)
	want := 0.1 * math.Sqrt2 / 2
	if !approx(float64(buf[len(buf)-1]), want) {
		t.Errorf("tail sample = %f, want %f (chunking must cover the whole buffer)", buf[len(buf)-1], want)
	}
}
