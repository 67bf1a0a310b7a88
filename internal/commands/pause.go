package commands

import "github.com/funkwelle/funkwelle/pkg/player"

// PauseCommand pauses the current playback.
func PauseCommand(ctx *Context) {
	switch ctx.Engine.State() {
	case player.StatePaused:
		ctx.Printf("Playback is already paused.\n")
	case player.StatePlaying:
		if err := ctx.Engine.Pause(); err != nil {
			ctx.Printf("Failed to pause: %v\n", err)
			return
		}
		ctx.Printf("Playback paused.\n")
	default:
		ctx.Printf("Nothing is playing.\n")
	}
}
