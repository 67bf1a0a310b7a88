package handlers

import (
	"time"

	"github.com/funkwelle/funkwelle/internal/commands"
	"github.com/funkwelle/funkwelle/pkg/player"
)

// NewEventPrinter returns an event handler narrating engine events on
// the shell output. Callbacks run on the engine loop goroutine, so
// anything shared with command handlers goes through the Context
// accessors.
func NewEventPrinter(ctx *commands.Context) player.EventHandler {
	return player.EventHandler{
		StateChanged: func(change player.StateChange) {
			ctx.Printf("[%s -> %s] %s\n", change.From, change.To, change.Reason)
		},
		Error: func(err *player.Error) {
			ctx.Printf("[%s] %v\n", err.Category, err)
		},
		Buffering: func(percent int) {
			// The graph reports 5% steps; a quarter of that is plenty
			// for a terminal.
			if percent%25 == 0 {
				ctx.Printf("Buffering %d%%\n", percent)
			}
		},
		TagsChanged: func(tags map[string]string) {
			title, ok := tags["title"]
			if !ok || title == "" {
				return
			}
			ctx.Printf("Now playing: %s\n", title)
			if ctx.History != nil {
				if st := ctx.NowPlaying(); st.URI != "" {
					ctx.History.UpdateTitle(st.URI, title)
				}
			}
		},
		RecordingStarted: func(path string) {
			ctx.Printf("Recording started: %s\n", path)
		},
		RecordingStopped: func(path string, duration time.Duration) {
			ctx.Printf("Recording stopped: %s (%s)\n", path, duration.Round(time.Second))
		},
		SpectrumFrame: func(bins []float64) {
			ctx.SetSpectrumFrame(bins)
		},
		SleepTimer: func(ev player.SleepEvent) {
			switch ev.Kind {
			case player.SleepWarning:
				ctx.Printf("Sleep timer: %s remaining\n", ev.Remaining.Round(time.Second))
			case player.SleepFired:
				ctx.Printf("Sleep timer fired: %s\n", ev.Action)
			}
		},
	}
}
