package commands

import (
	"strconv"
	"strings"

	"github.com/funkwelle/funkwelle/pkg/equalizer"
)

// EqualizerCommand controls the 10 band equalizer.
func EqualizerCommand(ctx *Context, args []string) {
	if len(args) == 0 {
		eqShow(ctx)
		return
	}
	switch strings.ToLower(args[0]) {
	case "on":
		ctx.Engine.SetEqualizerEnabled(true)
		persistEqualizer(ctx)
		ctx.Printf("Equalizer enabled (preset: %s)\n", ctx.Engine.Preset())
	case "off":
		ctx.Engine.SetEqualizerEnabled(false)
		persistEqualizer(ctx)
		ctx.Printf("Equalizer disabled.\n")
	case "preset":
		eqPreset(ctx, args[1:])
	case "band":
		eqBand(ctx, args[1:])
	case "show":
		eqShow(ctx)
	default:
		ctx.Printf("Usage: eq <on | off | preset <name> | band <0-9> <dB> | show>\n")
	}
}

func eqPreset(ctx *Context, args []string) {
	if len(args) < 1 {
		ctx.Printf("Presets: %s\n", strings.Join(equalizer.Presets(), ", "))
		return
	}
	name := strings.ToLower(args[0])
	if err := ctx.Engine.ApplyPreset(name); err != nil {
		ctx.Printf("Failed to apply preset: %v\n", err)
		return
	}
	persistEqualizer(ctx)
	ctx.Printf("Preset %q applied.\n", name)
}

func eqBand(ctx *Context, args []string) {
	if len(args) < 2 {
		ctx.Printf("Usage: eq band <0-9> <gain dB>\n")
		return
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		ctx.Printf("Usage: eq band <0-9> <gain dB>\n")
		return
	}
	gain, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		ctx.Printf("Usage: eq band <0-9> <gain dB>\n")
		return
	}

	applied, err := ctx.Engine.SetBand(index, gain)
	if err != nil {
		ctx.Printf("Failed to set band: %v\n", err)
		return
	}
	persistEqualizer(ctx)
	ctx.Printf("Band %d (%.0f Hz) set to %+.1f dB\n", index, equalizer.BandFrequencies[index], applied)
}

func eqShow(ctx *Context) {
	st := ctx.Engine.Status()
	state := "off"
	if st.EqualizerEnabled {
		state = "on"
	}
	ctx.Printf("Equalizer: %s (preset: %s)\n", state, st.Preset)

	gains := ctx.Engine.Gains()
	for i, g := range gains {
		ctx.Printf("  band %d  %7.0f Hz  %+5.1f dB\n", i, equalizer.BandFrequencies[i], g)
	}
	ctx.Printf("Presets: %s\n", strings.Join(equalizer.Presets(), ", "))
}

func persistEqualizer(ctx *Context) {
	ctx.Settings.Equalizer.Enabled = ctx.Engine.EqualizerEnabled()
	ctx.Settings.Equalizer.Preset = ctx.Engine.Preset()
	ctx.Settings.Equalizer.Gains = ctx.Engine.Gains()
	ctx.SaveSettings()
}
