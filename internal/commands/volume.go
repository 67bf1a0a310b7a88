package commands

import "strconv"

// VolumeCommand shows or sets the playback volume.
func VolumeCommand(ctx *Context, args []string) {
	if len(args) == 0 {
		ctx.Printf("Volume: %d%%\n", ctx.Engine.Volume())
		return
	}

	percent, err := strconv.Atoi(args[0])
	if err != nil {
		ctx.Printf("Usage: volume [0-100]\n")
		return
	}

	applied := ctx.Engine.SetVolume(percent)
	ctx.Settings.Volume = applied
	ctx.SaveSettings()
	ctx.Printf("Volume set to %d%%\n", applied)
}
