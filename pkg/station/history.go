package station

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// historyLimit caps the history document size.
	historyLimit = 500
	// historyRetention drops entries older than this when the store is
	// opened.
	historyRetention = 90 * 24 * time.Hour
	// repeatWindow merges repeat plays of the same station into the
	// existing entry with a bumped play count.
	repeatWindow = time.Hour
)

// HistoryEntry is one station in the listening history.
type HistoryEntry struct {
	Name       string    `json:"name"`
	URI        string    `json:"uri"`
	Genre      string    `json:"genre,omitempty"`
	Homepage   string    `json:"homepage,omitempty"`
	LastTitle  string    `json:"last_title,omitempty"`
	PlayCount  int       `json:"play_count"`
	LastPlayed time.Time `json:"last_played"`
}

// History records which stations were played when, most recent first.
type History struct {
	path string
	now  func() time.Time
	log  zerolog.Logger

	mu      sync.Mutex
	entries []HistoryEntry
}

// NewHistory opens the history store at path ("" selects the default
// location) and prunes entries past the retention window.
func NewHistory(path string, log zerolog.Logger) (*History, error) {
	if path == "" {
		var err error
		path, err = defaultPath("history.json")
		if err != nil {
			return nil, err
		}
	}

	h := &History{
		path: path,
		now:  time.Now,
		log:  log.With().Str("component", "history").Str("path", path).Logger(),
	}
	if err := readJSON(path, &h.entries); err != nil {
		h.log.Warn().Err(err).Msg("Starting with empty history")
		h.entries = nil
	}
	if removed := h.prune(); removed > 0 {
		h.log.Debug().Int("removed", removed).Msg("Pruned old history entries")
	}
	return h, nil
}

// Add records a play of the given station. A repeat play within an hour
// updates the existing entry instead of inserting a new one.
func (h *History) Add(entry HistoryEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	entry.LastPlayed = now
	if entry.PlayCount <= 0 {
		entry.PlayCount = 1
	}

	if i := h.indexOf(entry.URI); i >= 0 && now.Sub(h.entries[i].LastPlayed) <= repeatWindow {
		h.entries[i].PlayCount++
		h.entries[i].LastPlayed = now
		if entry.LastTitle != "" {
			h.entries[i].LastTitle = entry.LastTitle
		}
		h.saveLocked()
		return
	}

	h.entries = append([]HistoryEntry{entry}, h.entries...)
	if len(h.entries) > historyLimit {
		h.entries = h.entries[:historyLimit]
	}
	h.saveLocked()
}

// UpdateTitle stores the latest stream title on the most recent entry
// for uri.
func (h *History) UpdateTitle(uri, title string) {
	if uri == "" || title == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	i := h.indexOf(uri)
	if i < 0 || h.entries[i].LastTitle == title {
		return
	}
	h.entries[i].LastTitle = title
	h.saveLocked()
}

// Recent returns up to limit entries, most recent first.
func (h *History) Recent(limit int) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	if limit <= 0 || limit > len(h.entries) {
		limit = len(h.entries)
	}
	out := make([]HistoryEntry, limit)
	copy(out, h.entries[:limit])
	return out
}

// MostPlayed returns up to limit entries ordered by play count.
func (h *History) MostPlayed(limit int) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]HistoryEntry, len(h.entries))
	copy(out, h.entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PlayCount > out[j].PlayCount
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Search returns entries whose name or genre contains query,
// case-insensitively.
func (h *History) Search(query string) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()

	query = strings.ToLower(query)
	var out []HistoryEntry
	for _, e := range h.entries {
		if strings.Contains(strings.ToLower(e.Name), query) ||
			strings.Contains(strings.ToLower(e.Genre), query) {
			out = append(out, e)
		}
	}
	return out
}

// Count returns the number of history entries.
func (h *History) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Clear removes all history entries.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
	return writeJSON(h.path, []HistoryEntry{})
}

// indexOf returns the most recent entry for uri, or -1. Callers hold mu.
func (h *History) indexOf(uri string) int {
	for i := range h.entries {
		if h.entries[i].URI == uri {
			return i
		}
	}
	return -1
}

// prune drops entries past the retention window, returning how many
// were removed.
func (h *History) prune() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := h.now().Add(-historyRetention)
	kept := h.entries[:0]
	for _, e := range h.entries {
		if e.LastPlayed.After(cutoff) {
			kept = append(kept, e)
		}
	}
	removed := len(h.entries) - len(kept)
	h.entries = kept
	if removed > 0 {
		h.saveLocked()
	}
	return removed
}

// saveLocked persists the entries. Callers hold mu.
func (h *History) saveLocked() {
	if err := writeJSON(h.path, h.entries); err != nil {
		h.log.Error().Err(err).Msg("Failed to save history")
	}
}
