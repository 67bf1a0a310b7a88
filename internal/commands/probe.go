package commands

import (
	"context"
	"io"
	"os/exec"
	"sort"
	"time"

	"github.com/funkwelle/funkwelle/pkg/graph"
)

const (
	probeTimeout  = 15 * time.Second
	probeHeadSize = 512
)

// ProbeCommand dials a stream URL without starting playback and reports
// what the transport and the format sniffer see. Useful when a station
// refuses to play and the playback error alone does not say why.
func ProbeCommand(ctx *Context, args []string) {
	if len(args) < 1 {
		ctx.Printf("Usage: probe <url>\n")
		return
	}
	uri := args[0]

	pctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	tags := make(map[string]string)
	opener := graph.NewURIOpener(ctx.UserAgent)

	start := time.Now()
	src, err := opener.Open(pctx, uri, func(t map[string]string) {
		for k, v := range t {
			tags[k] = v
		}
	})
	if err != nil {
		ctx.Printf("Connect failed: %v\n", err)
		return
	}
	defer src.Close()
	ctx.Printf("Connected in %s\n", time.Since(start).Round(time.Millisecond))

	head := make([]byte, probeHeadSize)
	n, err := io.ReadFull(src, head)
	if n == 0 {
		ctx.Printf("Stream closed before any data arrived: %v\n", err)
		return
	}
	for _, pad := range graph.Sniff(head[:n]) {
		ctx.Printf("Pad: %s (%s)\n", pad.Kind, pad.Media)
	}

	if len(tags) > 0 {
		keys := make([]string, 0, len(tags))
		for k := range tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ctx.Printf("Tag: %s = %s\n", k, tags[k])
		}
	}

	// mp3 and flac recording shell out to ffmpeg, so report whether it
	// is reachable while we are diagnosing anyway.
	ffmpeg := ctx.FFmpegPath
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	if path, err := exec.LookPath(ffmpeg); err == nil {
		ctx.Printf("ffmpeg: %s\n", path)
	} else {
		ctx.Printf("ffmpeg not found (mp3 and flac recording unavailable)\n")
	}
}
