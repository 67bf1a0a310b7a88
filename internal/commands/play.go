package commands

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/funkwelle/funkwelle/pkg/player"
	"github.com/funkwelle/funkwelle/pkg/station"
)

// resolveTimeout bounds the video page lookup; live streams are not
// affected, they connect asynchronously inside the engine.
const resolveTimeout = 30 * time.Second

// PlayCommand starts playback of a stream URL or a numbered entry from
// the loaded playlist. Video page URLs are resolved to a direct audio
// stream first.
func PlayCommand(ctx *Context, args []string) {
	if len(args) < 1 {
		ctx.Printf("Usage: play <url> [station name]  or  play <playlist entry number>\n")
		return
	}

	input := args[0]
	name := strings.Join(args[1:], " ")

	// A bare number picks an entry from the loaded playlist.
	if n, err := strconv.Atoi(input); err == nil {
		stations := ctx.Stations()
		if n < 1 || n > len(stations) {
			ctx.Printf("Playlist has %d entries.\n", len(stations))
			return
		}
		s := stations[n-1]
		startPlayback(ctx, player.Station{
			Name:     s.Name,
			URI:      s.URI,
			Genre:    s.Genre,
			Homepage: s.Homepage,
		})
		return
	}

	rctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancel()

	res, err := ctx.Resolver.Resolve(rctx, input)
	if err != nil {
		ctx.Printf("Failed to resolve %s: %v\n", input, err)
		return
	}

	st := player.Station{Name: name, URI: res.URI}
	if res.Resolved {
		ctx.Printf("Resolved to audio stream: %s\n", res.Title)
		st.Homepage = input
		if st.Name == "" {
			st.Name = res.Title
		}
	}
	if st.Name == "" {
		st.Name = stationNameFromURL(input)
	}
	startPlayback(ctx, st)
}

func startPlayback(ctx *Context, st player.Station) {
	if err := ctx.Engine.Play(st); err != nil {
		ctx.Printf("Failed to start playback: %v\n", err)
		return
	}
	ctx.SetNowPlaying(st)
	if ctx.History != nil {
		ctx.History.Add(station.HistoryEntry{
			Name:     st.Name,
			URI:      st.URI,
			Genre:    st.Genre,
			Homepage: st.Homepage,
		})
	}
	ctx.Printf("Playing %s\n", st.Name)
}
