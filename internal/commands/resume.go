package commands

import "github.com/funkwelle/funkwelle/pkg/player"

// ResumeCommand resumes paused playback.
func ResumeCommand(ctx *Context) {
	switch ctx.Engine.State() {
	case player.StatePlaying:
		ctx.Printf("Playback is already running.\n")
	case player.StatePaused:
		if err := ctx.Engine.Resume(); err != nil {
			ctx.Printf("Failed to resume: %v\n", err)
			return
		}
		ctx.Printf("Playback resumed.\n")
	default:
		ctx.Printf("Nothing is paused.\n")
	}
}
