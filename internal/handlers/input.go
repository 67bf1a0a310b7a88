package handlers

import (
	"strings"

	"github.com/funkwelle/funkwelle/internal/commands"
)

// HandleInput dispatches one shell line to its command handler. It
// returns false when the shell should exit.
func HandleInput(ctx *commands.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]

	switch verb {
	case "play", "p":
		commands.PlayCommand(ctx, args)
	case "pause":
		commands.PauseCommand(ctx)
	case "resume":
		commands.ResumeCommand(ctx)
	case "stop":
		commands.StopCommand(ctx)
	case "volume", "vol":
		commands.VolumeCommand(ctx, args)
	case "reconnect":
		commands.ReconnectCommand(ctx, args)
	case "record", "rec":
		commands.RecordCommand(ctx, args)
	case "eq", "equalizer":
		commands.EqualizerCommand(ctx, args)
	case "tags", "np", "nowplaying":
		commands.TagsCommand(ctx)
	case "spectrum":
		commands.SpectrumCommand(ctx, args)
	case "sleep":
		commands.SleepCommand(ctx, args)
	case "playlist", "pl":
		commands.PlaylistCommand(ctx, args)
	case "history", "hist":
		commands.HistoryCommand(ctx, args)
	case "fav", "favorite", "favourites":
		commands.FavoriteCommand(ctx, args)
	case "probe":
		commands.ProbeCommand(ctx, args)
	case "status":
		commands.StatusCommand(ctx)
	case "help", "h", "?":
		commands.HelpCommand(ctx)
	case "quit", "exit", "q":
		return false
	default:
		ctx.Printf("Unknown command %q. Try help.\n", verb)
	}
	return true
}
