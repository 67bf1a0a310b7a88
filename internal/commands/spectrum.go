package commands

import "strings"

// spectrumBarWidth is the widest bar rendered for a 0 dB band.
const spectrumBarWidth = 40

// SpectrumCommand toggles the analyzer branch and renders the latest
// frame as text bars.
func SpectrumCommand(ctx *Context, args []string) {
	if len(args) == 0 {
		spectrumShow(ctx)
		return
	}
	switch strings.ToLower(args[0]) {
	case "on":
		ctx.Engine.SetSpectrumEnabled(true)
		ctx.Printf("Spectrum analyzer enabled.\n")
	case "off":
		ctx.Engine.SetSpectrumEnabled(false)
		ctx.SetSpectrumFrame(nil)
		ctx.Printf("Spectrum analyzer disabled.\n")
	case "show":
		spectrumShow(ctx)
	default:
		ctx.Printf("Usage: spectrum <on | off | show>\n")
	}
}

func spectrumShow(ctx *Context) {
	if !ctx.Engine.SpectrumEnabled() {
		ctx.Printf("Spectrum analyzer is off. Try: spectrum on\n")
		return
	}
	frame := ctx.SpectrumFrame()
	if frame == nil {
		ctx.Printf("No spectrum frame yet.\n")
		return
	}
	for i, db := range frame {
		// Bands are dB levels in [-90, 0].
		width := int((db + 90) / 90 * spectrumBarWidth)
		if width < 0 {
			width = 0
		}
		if width > spectrumBarWidth {
			width = spectrumBarWidth
		}
		ctx.Printf("%2d %6.1f dB |%s\n", i, db, strings.Repeat("#", width))
	}
}
