package commands

import (
	"strings"

	"github.com/funkwelle/funkwelle/pkg/playlist"
)

// PlaylistCommand loads, saves and lists station playlists.
func PlaylistCommand(ctx *Context, args []string) {
	if len(args) == 0 {
		playlistShow(ctx)
		return
	}
	switch strings.ToLower(args[0]) {
	case "load":
		playlistLoad(ctx, args[1:])
	case "save":
		playlistSave(ctx, args[1:])
	case "show", "list":
		playlistShow(ctx)
	default:
		ctx.Printf("Usage: playlist <load <file> | save <file> | show>\n")
	}
}

func playlistLoad(ctx *Context, args []string) {
	if len(args) < 1 {
		ctx.Printf("Usage: playlist load <file.m3u|file.pls>\n")
		return
	}
	stations, err := playlist.Load(args[0])
	if err != nil {
		ctx.Printf("Failed to load playlist: %v\n", err)
		return
	}
	ctx.SetStations(stations)
	ctx.Printf("Loaded %d stations from %s\n", len(stations), args[0])
	playlistShow(ctx)
}

// playlistSave writes the loaded playlist, falling back to the station
// currently playing when nothing is loaded.
func playlistSave(ctx *Context, args []string) {
	if len(args) < 1 {
		ctx.Printf("Usage: playlist save <file.m3u|file.pls>\n")
		return
	}

	stations := ctx.Stations()
	if len(stations) == 0 {
		if station, ok := ctx.Engine.CurrentStation(); ok {
			stations = []playlist.Station{{
				Name:     station.Name,
				URI:      station.URI,
				Genre:    station.Genre,
				Homepage: station.Homepage,
			}}
		}
	}
	if len(stations) == 0 {
		ctx.Printf("Nothing to save: no playlist loaded and nothing playing.\n")
		return
	}

	if err := playlist.Save(args[0], stations); err != nil {
		ctx.Printf("Failed to save playlist: %v\n", err)
		return
	}
	ctx.Printf("Saved %d stations to %s\n", len(stations), args[0])
}

func playlistShow(ctx *Context) {
	stations := ctx.Stations()
	if len(stations) == 0 {
		ctx.Printf("No playlist loaded. Try: playlist load <file.m3u>\n")
		return
	}
	for i, s := range stations {
		name := s.Name
		if s.Genre != "" {
			name += " [" + s.Genre + "]"
		}
		ctx.Printf("%3d. %s\n     %s\n", i+1, name, s.URI)
	}
}
