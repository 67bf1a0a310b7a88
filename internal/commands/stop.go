package commands

import "github.com/funkwelle/funkwelle/pkg/player"

// StopCommand stops playback. Any active recording is finalized by the
// engine and reported through the recording-stopped event.
func StopCommand(ctx *Context) {
	if ctx.Engine.State() == player.StateStopped {
		ctx.Printf("Nothing is playing.\n")
		return
	}
	if err := ctx.Engine.Stop(); err != nil {
		ctx.Printf("Failed to stop: %v\n", err)
		return
	}
	ctx.Printf("Playback stopped.\n")
}
