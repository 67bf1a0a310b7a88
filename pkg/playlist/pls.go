package playlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// ErrNotPLS reports a file that lacks the [playlist] section header.
var ErrNotPLS = errors.New("missing [playlist] header")

// ParsePLS reads a PLS playlist. The [playlist] header is required;
// FileN and TitleN keys are matched case-insensitively and entries come
// back in numeric order.
func ParsePLS(r io.Reader) ([]Station, error) {
	entries := make(map[int]*Station)
	sawHeader := false

	sc := bufio.NewScanner(r)
	first := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") {
			if strings.EqualFold(line, "[playlist]") {
				sawHeader = true
			}
			continue
		}
		if !sawHeader {
			return nil, ErrNotPLS
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		name, index := splitKeyIndex(strings.TrimSpace(key))
		if index == 0 {
			// NumberOfEntries, Version and friends.
			continue
		}
		st := entries[index]
		if st == nil {
			st = &Station{}
			entries[index] = st
		}
		switch strings.ToLower(name) {
		case "file":
			st.URI = strings.TrimSpace(value)
		case "title":
			st.Name = strings.TrimSpace(value)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	if !sawHeader {
		return nil, ErrNotPLS
	}

	indexes := make([]int, 0, len(entries))
	for i := range entries {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	stations := make([]Station, 0, len(entries))
	for _, i := range indexes {
		st := entries[i]
		if st.URI == "" {
			continue
		}
		if st.Name == "" {
			st.Name = fallbackName
		}
		stations = append(stations, *st)
	}
	return stations, nil
}

// splitKeyIndex separates the trailing entry number from a PLS key,
// "File12" becoming ("File", 12). Keys without a number return 0.
func splitKeyIndex(key string) (string, int) {
	i := len(key)
	for i > 0 && key[i-1] >= '0' && key[i-1] <= '9' {
		i--
	}
	if i == len(key) {
		return key, 0
	}
	n, err := strconv.Atoi(key[i:])
	if err != nil || n <= 0 {
		return key, 0
	}
	return key[:i], n
}

// WritePLS writes stations as a version 2 PLS playlist.
func WritePLS(w io.Writer, stations []Station) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "[playlist]")
	for i, s := range stations {
		fmt.Fprintf(bw, "File%d=%s\n", i+1, s.URI)
		fmt.Fprintf(bw, "Title%d=%s\n", i+1, s.Name)
		fmt.Fprintf(bw, "Length%d=-1\n", i+1)
	}
	fmt.Fprintf(bw, "NumberOfEntries=%d\n", len(stations))
	fmt.Fprintln(bw, "Version=2")
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write playlist: %w", err)
	}
	return nil
}
