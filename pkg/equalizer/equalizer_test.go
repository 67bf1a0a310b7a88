package equalizer

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"within range", 5, 5},
		{"zero", 0, 0},
		{"above max", 15, MaxGain},
		{"below min", -30, MinGain},
		{"at max", MaxGain, MaxGain},
		{"at min", MinGain, MinGain},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.in))
		})
	}
}

func TestPresetsSortedWithoutCustom(t *testing.T) {
	names := Presets()
	assert.True(t, sort.StringsAreSorted(names))
	assert.NotContains(t, names, PresetCustom)
	assert.Contains(t, names, "flat")
	assert.Contains(t, names, "rock")
}

func TestControlDefaults(t *testing.T) {
	c := NewControl()
	assert.False(t, c.Enabled())
	assert.Equal(t, "flat", c.Preset())
	assert.Equal(t, [BandCount]float64{}, c.Gains())
}

func TestControlSetBandSwitchesToCustom(t *testing.T) {
	c := NewControl()
	require.NoError(t, c.ApplyPreset("rock"))

	rock, ok := PresetGains("rock")
	require.True(t, ok)
	require.Equal(t, rock, c.Gains())

	applied, err := c.SetBand(3, -5)
	require.NoError(t, err)
	assert.Equal(t, -5.0, applied)

	assert.Equal(t, PresetCustom, c.Preset())
	want := rock
	want[3] = -5
	assert.Equal(t, want, c.Gains(), "other bands keep the preset values")
}

func TestControlSetBandClamps(t *testing.T) {
	c := NewControl()

	applied, err := c.SetBand(0, 99)
	require.NoError(t, err)
	assert.Equal(t, MaxGain, applied)

	applied, err = c.SetBand(0, -99)
	require.NoError(t, err)
	assert.Equal(t, MinGain, applied)
}

func TestControlBandIndexErrors(t *testing.T) {
	c := NewControl()

	_, err := c.SetBand(-1, 0)
	assert.ErrorIs(t, err, ErrBandIndex)
	_, err = c.SetBand(BandCount, 0)
	assert.ErrorIs(t, err, ErrBandIndex)
	_, err = c.Band(BandCount)
	assert.ErrorIs(t, err, ErrBandIndex)
}

func TestControlEnableDisableKeepsStoredCurve(t *testing.T) {
	var live [][BandCount]float64
	c := NewControl()
	c.Bind(func(g [BandCount]float64) { live = append(live, g) })

	require.NoError(t, c.ApplyPreset("rock"))
	rock, _ := PresetGains("rock")

	c.SetEnabled(true)
	require.NotEmpty(t, live)
	assert.Equal(t, rock, live[len(live)-1])

	c.SetEnabled(false)
	assert.Equal(t, [BandCount]float64{}, live[len(live)-1], "disable flattens the live curve")
	assert.Equal(t, rock, c.Gains(), "stored curve survives disable")

	c.SetEnabled(true)
	assert.Equal(t, rock, live[len(live)-1])
}

func TestControlCustomCurveSurvivesPresetRoundTrip(t *testing.T) {
	c := NewControl()

	_, err := c.SetBand(2, 6)
	require.NoError(t, err)
	require.Equal(t, PresetCustom, c.Preset())

	require.NoError(t, c.ApplyPreset("jazz"))
	require.NoError(t, c.ApplyPreset(PresetCustom))

	assert.Equal(t, 6.0, c.Gains()[2])
}

func TestControlApplyPresetUnknown(t *testing.T) {
	c := NewControl()
	assert.ErrorIs(t, c.ApplyPreset("bogus"), ErrUnknownPreset)
}

func TestControlLoadClampsAndFallsBackToCustom(t *testing.T) {
	c := NewControl()

	var curve [BandCount]float64
	curve[0] = 99
	curve[1] = 3
	c.Load(true, "no-such-preset", curve)

	assert.True(t, c.Enabled())
	assert.Equal(t, PresetCustom, c.Preset())
	assert.Equal(t, MaxGain, c.Gains()[0])
	assert.Equal(t, 3.0, c.Gains()[1])
}

func TestControlLoadKnownPreset(t *testing.T) {
	c := NewControl()
	rock, _ := PresetGains("rock")
	c.Load(false, "rock", rock)

	assert.False(t, c.Enabled())
	assert.Equal(t, "rock", c.Preset())
	assert.Equal(t, [BandCount]float64{}, c.EffectiveGains(), "disabled control runs flat")
}

// constStreamer emits a fixed stereo sample forever.
type constStreamer struct{ v float64 }

func (c constStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		samples[i] = [2]float64{c.v, c.v}
	}
	return len(samples), true
}

func (c constStreamer) Err() error { return nil }

// sineStreamer emits a stereo sine wave.
type sineStreamer struct {
	freq, rate, amp float64
	n               int
}

func (s *sineStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		v := s.amp * math.Sin(2*math.Pi*s.freq*float64(s.n)/s.rate)
		samples[i] = [2]float64{v, v}
		s.n++
	}
	return len(samples), true
}

func (s *sineStreamer) Err() error { return nil }

func TestStreamerFlatCurveIsBypass(t *testing.T) {
	s := NewStreamer(constStreamer{v: 0.25}, 48000, [BandCount]float64{})

	buf := make([][2]float64, 256)
	n, ok := s.Stream(buf)
	require.True(t, ok)
	require.Equal(t, 256, n)
	for _, smp := range buf {
		assert.Equal(t, 0.25, smp[0])
		assert.Equal(t, 0.25, smp[1])
	}
}

func TestStreamerBoostRaisesBandLevel(t *testing.T) {
	const rate = 48000
	src := &sineStreamer{freq: 1000, rate: rate, amp: 0.1}

	var gains [BandCount]float64
	gains[5] = 12 // 1 kHz band
	s := NewStreamer(src, rate, gains)

	// Let the filter settle for a second, then measure.
	buf := make([][2]float64, rate)
	_, _ = s.Stream(buf)
	n, ok := s.Stream(buf)
	require.True(t, ok)
	require.Equal(t, rate, n)

	var sum float64
	for _, smp := range buf {
		sum += smp[0] * smp[0]
	}
	rms := math.Sqrt(sum / float64(n))
	source := 0.1 / math.Sqrt2

	assert.Greater(t, rms, source*2, "a +12 dB band should clearly amplify its center frequency")
}

func TestStreamerSetGainClampsAndIgnoresBadIndex(t *testing.T) {
	s := NewStreamer(constStreamer{}, 48000, [BandCount]float64{})

	s.SetGain(-1, 6)
	s.SetGain(BandCount, 6)
	for i := 0; i < BandCount; i++ {
		assert.Zero(t, s.Gain(i))
	}

	s.SetGain(4, 30)
	assert.Equal(t, MaxGain, s.Gain(4))
	assert.Zero(t, s.Gain(-1))
}
