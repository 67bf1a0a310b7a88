package equalizer

import "sort"

// BandCount is the number of equalizer bands.
const BandCount = 10

// BandFrequencies lists the fixed center frequency of each band in Hz.
var BandFrequencies = [BandCount]float64{31, 62, 125, 250, 500, 1000, 2000, 4000, 8000, 16000}

// Gain bounds in dB. Values outside this range are clamped, never
// rejected.
const (
	MinGain = -24.0
	MaxGain = 12.0
)

// PresetCustom is the implicit preset adopted as soon as a band is edited
// manually. Its curve is whatever the user last dialed in.
const PresetCustom = "custom"

var presets = map[string][BandCount]float64{
	"flat":         {0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	"rock":         {4, 3, -2, -3, -1, 2, 4, 5, 5, 5},
	"pop":          {-1, 2, 4, 4, 1, -1, -1, 0, 2, 3},
	"jazz":         {3, 2, 1, 2, -2, -2, 0, 1, 2, 3},
	"classical":    {4, 3, 2, 1, -1, -1, 0, 1, 3, 4},
	"speech":       {-3, -2, 1, 3, 4, 4, 3, 1, -1, -2},
	"bass-boost":   {6, 5, 4, 2, 0, 0, 0, 0, 0, 0},
	"treble-boost": {0, 0, 0, 0, 0, 2, 4, 5, 6, 6},
}

// Presets returns the built-in preset names in sorted order, without the
// dynamic custom preset.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetGains returns the static gain curve for a built-in preset.
func PresetGains(name string) ([BandCount]float64, bool) {
	curve, ok := presets[name]
	return curve, ok
}

// Clamp bounds a gain to the supported dB range.
func Clamp(gain float64) float64 {
	if gain < MinGain {
		return MinGain
	}
	if gain > MaxGain {
		return MaxGain
	}
	return gain
}
