package station

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Favorite is one bookmarked station.
type Favorite struct {
	Name     string    `json:"name"`
	URI      string    `json:"uri"`
	Genre    string    `json:"genre,omitempty"`
	Homepage string    `json:"homepage,omitempty"`
	AddedAt  time.Time `json:"added_at"`
}

// Favorites is the bookmarked station list, in insertion order.
type Favorites struct {
	path string
	now  func() time.Time
	log  zerolog.Logger

	mu   sync.Mutex
	list []Favorite
}

// NewFavorites opens the favorites store at path ("" selects the
// default location).
func NewFavorites(path string, log zerolog.Logger) (*Favorites, error) {
	if path == "" {
		var err error
		path, err = defaultPath("favorites.json")
		if err != nil {
			return nil, err
		}
	}

	f := &Favorites{
		path: path,
		now:  time.Now,
		log:  log.With().Str("component", "favorites").Str("path", path).Logger(),
	}
	if err := readJSON(path, &f.list); err != nil {
		f.log.Warn().Err(err).Msg("Starting with empty favorites")
		f.list = nil
	}
	return f, nil
}

// Add bookmarks a station. It reports false when the URI is already
// bookmarked.
func (f *Favorites) Add(fav Favorite) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.indexOf(fav.URI) >= 0 {
		return false
	}
	fav.AddedAt = f.now()
	f.list = append(f.list, fav)
	f.saveLocked()
	return true
}

// RemoveAt deletes the favorite at the given position (counting from 0).
func (f *Favorites) RemoveAt(index int) (Favorite, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if index < 0 || index >= len(f.list) {
		return Favorite{}, false
	}
	fav := f.list[index]
	f.list = append(f.list[:index], f.list[index+1:]...)
	f.saveLocked()
	return fav, true
}

// Remove deletes the favorite with the given URI.
func (f *Favorites) Remove(uri string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.indexOf(uri)
	if i < 0 {
		return false
	}
	f.list = append(f.list[:i], f.list[i+1:]...)
	f.saveLocked()
	return true
}

// Contains reports whether the URI is bookmarked.
func (f *Favorites) Contains(uri string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.indexOf(uri) >= 0
}

// Count returns the number of favorites.
func (f *Favorites) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.list)
}

// All returns the favorites in insertion order.
func (f *Favorites) All() []Favorite {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Favorite, len(f.list))
	copy(out, f.list)
	return out
}

// Search returns favorites whose name or genre contains query,
// case-insensitively.
func (f *Favorites) Search(query string) []Favorite {
	f.mu.Lock()
	defer f.mu.Unlock()

	query = strings.ToLower(query)
	var out []Favorite
	for _, fav := range f.list {
		if strings.Contains(strings.ToLower(fav.Name), query) ||
			strings.Contains(strings.ToLower(fav.Genre), query) {
			out = append(out, fav)
		}
	}
	return out
}

// indexOf returns the favorite position for uri, or -1. Callers hold mu.
func (f *Favorites) indexOf(uri string) int {
	for i := range f.list {
		if f.list[i].URI == uri {
			return i
		}
	}
	return -1
}

// saveLocked persists the list. Callers hold mu.
func (f *Favorites) saveLocked() {
	if err := writeJSON(f.path, f.list); err != nil {
		f.log.Error().Err(err).Msg("Failed to save favorites")
	}
}
