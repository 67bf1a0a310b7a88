// Package equalizer implements the 10-band equalizer: stored band state
// with preset handling, and the live DSP node inserted into the playback
// graph.
package equalizer

import (
	"errors"
	"fmt"
)

// Band state errors
var (
	ErrBandIndex     = errors.New("band index out of range")
	ErrUnknownPreset = errors.New("unknown preset")
)

// Control owns the equalizer's stored state and pushes changes to the live
// graph node through a bound apply function. It is confined to the engine
// loop and does no locking of its own; the apply function is responsible
// for bracketing the actual parameter writes with the sink lock.
//
// Disabling zeroes the live gains but keeps the stored curve; manual band
// edits while a built-in preset is active switch the preset to custom,
// retaining the other bands' then-current values.
type Control struct {
	enabled bool
	preset  string
	gains   [BandCount]float64
	custom  [BandCount]float64
	apply   func([BandCount]float64)
}

// NewControl returns a disabled control on the flat preset.
func NewControl() *Control {
	return &Control{preset: "flat"}
}

// Load restores persisted state. Unknown presets fall back to custom so a
// stored curve is never silently discarded.
func (c *Control) Load(enabled bool, preset string, gains [BandCount]float64) {
	for i, g := range gains {
		gains[i] = Clamp(g)
	}
	if _, ok := presets[preset]; !ok {
		preset = PresetCustom
	}
	c.enabled = enabled
	c.preset = preset
	c.gains = gains
	c.custom = gains
	c.pushLive()
}

// Bind attaches the live apply function for the current graph and pushes
// the effective curve. Bind(nil) detaches.
func (c *Control) Bind(apply func([BandCount]float64)) {
	c.apply = apply
	c.pushLive()
}

func (c *Control) pushLive() {
	if c.apply == nil {
		return
	}
	c.apply(c.EffectiveGains())
}

// EffectiveGains returns the curve the live node should run: the stored
// curve when enabled, all zeroes when disabled.
func (c *Control) EffectiveGains() [BandCount]float64 {
	if !c.enabled {
		return [BandCount]float64{}
	}
	return c.gains
}

// Enabled reports whether the equalizer is active.
func (c *Control) Enabled() bool {
	return c.enabled
}

// SetEnabled toggles the equalizer. Disabling resets the live gains to
// 0 dB without discarding stored values; enabling reapplies the active
// preset or custom curve.
func (c *Control) SetEnabled(on bool) {
	if c.enabled == on {
		return
	}
	c.enabled = on
	c.pushLive()
}

// Preset returns the active preset name.
func (c *Control) Preset() string {
	return c.preset
}

// Gains returns the stored curve. It reflects the saved values even while
// the equalizer is disabled.
func (c *Control) Gains() [BandCount]float64 {
	return c.gains
}

// Band returns the stored gain of one band.
func (c *Control) Band(index int) (float64, error) {
	if index < 0 || index >= BandCount {
		return 0, fmt.Errorf("%w: %d", ErrBandIndex, index)
	}
	return c.gains[index], nil
}

// SetBand stores a clamped gain for one band and applies it live when
// enabled. Editing a band while a built-in preset is active switches the
// active preset to custom, retaining the other bands' current values.
// The clamped gain is returned.
func (c *Control) SetBand(index int, gain float64) (float64, error) {
	if index < 0 || index >= BandCount {
		return 0, fmt.Errorf("%w: %d", ErrBandIndex, index)
	}
	gain = Clamp(gain)
	if c.preset != PresetCustom {
		c.custom = c.gains
		c.preset = PresetCustom
	}
	c.gains[index] = gain
	c.custom[index] = gain
	if c.enabled {
		c.pushLive()
	}
	return gain, nil
}

// ApplyPreset activates a built-in curve, or the stored custom curve for
// PresetCustom. Applies live when enabled.
func (c *Control) ApplyPreset(name string) error {
	if name == PresetCustom {
		c.preset = name
		c.gains = c.custom
	} else {
		curve, ok := PresetGains(name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
		}
		c.preset = name
		c.gains = curve
	}
	if c.enabled {
		c.pushLive()
	}
	return nil
}
