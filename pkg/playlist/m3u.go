package playlist

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseM3U reads a plain or extended M3U playlist. #EXTINF supplies the
// station name, #EXTGENRE and #EXTALB carry genre and homepage, any
// other directive is skipped, and every non-comment line is taken as a
// stream URL that completes the pending entry.
func ParseM3U(r io.Reader) ([]Station, error) {
	var (
		stations []Station
		current  Station
		first    = true
	)

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		switch {
		case line == "" || line == "#EXTM3U":
			continue
		case strings.HasPrefix(line, "#EXTINF:"):
			// #EXTINF:duration,title with duration -1 for live streams.
			if _, title, ok := strings.Cut(line, ","); ok {
				current.Name = strings.TrimSpace(title)
			}
		case strings.HasPrefix(line, "#EXTGENRE:"):
			current.Genre = strings.TrimSpace(line[len("#EXTGENRE:"):])
		case strings.HasPrefix(line, "#EXTALB:"):
			current.Homepage = strings.TrimSpace(line[len("#EXTALB:"):])
		case strings.HasPrefix(line, "#"):
			continue
		default:
			current.URI = line
			if current.Name == "" {
				current.Name = fallbackName
			}
			stations = append(stations, current)
			current = Station{}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	return stations, nil
}

// WriteM3U writes stations as an extended M3U playlist.
func WriteM3U(w io.Writer, stations []Station) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#EXTM3U")
	for _, s := range stations {
		fmt.Fprintf(bw, "#EXTINF:-1,%s\n", s.Name)
		if s.Genre != "" {
			fmt.Fprintf(bw, "#EXTGENRE:%s\n", s.Genre)
		}
		if s.Homepage != "" {
			fmt.Fprintf(bw, "#EXTALB:%s\n", s.Homepage)
		}
		fmt.Fprintln(bw, s.URI)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}
