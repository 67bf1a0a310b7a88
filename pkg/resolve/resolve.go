// Package resolve turns third-party video page URLs into direct audio
// stream URLs.
//
// The playback engine only consumes playable URIs, so the shell runs
// every input through Resolve before handing it over: video page URLs
// are resolved to their best audio-only stream, everything else passes
// through untouched.
package resolve

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/rs/zerolog"
)

// Result describes the outcome of resolving one URI.
type Result struct {
	// URI is the playable stream URL, or the input when Resolved is false.
	URI      string
	Title    string
	Author   string
	Duration time.Duration
	Resolved bool
}

// Resolver maps video page URLs to playable audio URLs.
type Resolver struct {
	client youtube.Client
	log    zerolog.Logger
}

// NewResolver creates a resolver logging through log.
func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{
		log: log.With().Str("component", "resolver").Logger(),
	}
}

// IsVideoURL reports whether uri points at a video page the resolver
// understands.
func IsVideoURL(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtu.be":
		return true
	}
	return false
}

// Resolve returns a direct audio stream URL for video page URLs and
// passes every other URI through untouched.
func (r *Resolver) Resolve(ctx context.Context, uri string) (Result, error) {
	if !IsVideoURL(uri) {
		return Result{URI: uri}, nil
	}

	video, err := r.client.GetVideoContext(ctx, uri)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch video info: %w", err)
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return Result{}, fmt.Errorf("no audio format available for %q", video.Title)
	}

	streamURL, err := r.client.GetStreamURLContext(ctx, video, format)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve stream URL: %w", err)
	}

	r.log.Info().
		Str("title", video.Title).
		Str("mime", format.MimeType).
		Int("bitrate", format.Bitrate).
		Msg("Resolved video page to audio stream")

	return Result{
		URI:      streamURL,
		Title:    video.Title,
		Author:   video.Author,
		Duration: video.Duration,
		Resolved: true,
	}, nil
}

// bestAudioFormat picks the highest-bitrate audio-only format,
// preferring opus over AAC over the rest. Videos without a dedicated
// audio rendition fall back to muxed formats carrying audio channels.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	candidates := formats.Type("audio")
	if len(candidates) == 0 {
		candidates = formats.WithAudioChannels()
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		ri, rj := codecRank(candidates[i].MimeType), codecRank(candidates[j].MimeType)
		if ri != rj {
			return ri < rj
		}
		return candidates[i].Bitrate > candidates[j].Bitrate
	})
	return &candidates[0]
}

func codecRank(mime string) int {
	switch {
	case strings.Contains(mime, "opus"):
		return 0
	case strings.Contains(mime, "mp4a"):
		return 1
	default:
		return 2
	}
}
