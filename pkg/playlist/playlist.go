// Package playlist reads and writes station playlists in the M3U and
// PLS formats.
//
// Import returns the stations found in a file and export writes them
// back out, so lists can be exchanged with other players. Parsing is
// lenient: unknown directives are skipped and an entry only needs a
// stream URL to be kept. The format is picked from the file extension,
// defaulting to M3U.
package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fallbackName is used for entries that carry a URL but no title.
const fallbackName = "Unknown Station"

// Station is a single playlist entry.
type Station struct {
	Name     string
	URI      string
	Genre    string
	Homepage string
}

// Format identifies a playlist file format.
type Format int

const (
	// FormatM3U is the extended M3U format (#EXTM3U).
	FormatM3U Format = iota
	// FormatPLS is the INI-style [playlist] format.
	FormatPLS
)

// String returns the conventional file extension for the format.
func (f Format) String() string {
	switch f {
	case FormatM3U:
		return "m3u"
	case FormatPLS:
		return "pls"
	default:
		return "unknown"
	}
}

// FormatForPath picks the playlist format from the file extension.
// Unrecognized extensions fall back to M3U.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pls":
		return FormatPLS
	default:
		return FormatM3U
	}
}

// Load reads the playlist at path in the format matching its extension.
func Load(path string) ([]Station, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open playlist: %w", err)
	}
	defer f.Close()

	if FormatForPath(path) == FormatPLS {
		return ParsePLS(f)
	}
	return ParseM3U(f)
}

// Save writes stations to path in the format matching its extension.
func Save(path string, stations []Station) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}

	var werr error
	if FormatForPath(path) == FormatPLS {
		werr = WritePLS(f, stations)
	} else {
		werr = WriteM3U(f, stations)
	}
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return werr
}
