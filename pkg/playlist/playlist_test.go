package playlist

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseM3U(t *testing.T) {
	input := "\ufeff#EXTM3U\n" +
		"#EXTINF:-1,Groove Salad\n" +
		"#EXTGENRE:ambient\n" +
		"#EXTALB:https://somafm.com\n" +
		"http://ice1.somafm.com/groovesalad-256-mp3\n" +
		"\n" +
		"#EXTINF:123,Artist, The - Morning Show\n" +
		"http://example.com/morning.aac\n" +
		"#PLAYLIST:ignored directive\n" +
		"http://example.com/bare.mp3\n"

	stations, err := ParseM3U(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, stations, 3)

	assert.Equal(t, Station{
		Name:     "Groove Salad",
		URI:      "http://ice1.somafm.com/groovesalad-256-mp3",
		Genre:    "ambient",
		Homepage: "https://somafm.com",
	}, stations[0])

	assert.Equal(t, "Artist, The - Morning Show", stations[1].Name,
		"the title is everything after the first comma")
	assert.Equal(t, "http://example.com/morning.aac", stations[1].URI)
	assert.Empty(t, stations[1].Genre, "directives do not leak across entries")

	assert.Equal(t, fallbackName, stations[2].Name)
	assert.Equal(t, "http://example.com/bare.mp3", stations[2].URI)
}

func TestParseM3UPlainList(t *testing.T) {
	input := "http://a.example/1\nhttp://b.example/2\n"

	stations, err := ParseM3U(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, stations, 2)
	for _, s := range stations {
		assert.Equal(t, fallbackName, s.Name)
	}
}

func TestParseM3UEmpty(t *testing.T) {
	stations, err := ParseM3U(strings.NewReader("#EXTM3U\n"))
	require.NoError(t, err)
	assert.Empty(t, stations)
}

func TestWriteM3URoundTrip(t *testing.T) {
	want := []Station{
		{Name: "Groove Salad", URI: "http://ice1.somafm.com/gs", Genre: "ambient", Homepage: "https://somafm.com"},
		{Name: "Bare Minimum", URI: "http://example.com/bare"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteM3U(&buf, want))
	assert.True(t, strings.HasPrefix(buf.String(), "#EXTM3U\n"))

	got, err := ParseM3U(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParsePLS(t *testing.T) {
	input := "\ufeff[playlist]\n" +
		"; a comment\n" +
		"NumberOfEntries=3\n" +
		"File2=http://example.com/second\n" +
		"Title2=Second\n" +
		"FILE1=http://example.com/first\n" +
		"title1=First\n" +
		"File3=http://example.com/untitled\n" +
		"Length3=-1\n" +
		"Title9=an orphan title without a file\n" +
		"Version=2\n"

	stations, err := ParsePLS(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, stations, 3)

	assert.Equal(t, Station{Name: "First", URI: "http://example.com/first"}, stations[0],
		"entries come back in numeric order and keys match case-insensitively")
	assert.Equal(t, Station{Name: "Second", URI: "http://example.com/second"}, stations[1])
	assert.Equal(t, Station{Name: fallbackName, URI: "http://example.com/untitled"}, stations[2])
}

func TestParsePLSHeaderVariants(t *testing.T) {
	stations, err := ParsePLS(strings.NewReader("[Playlist]\nFile1=http://x\n"))
	require.NoError(t, err)
	require.Len(t, stations, 1)

	_, err = ParsePLS(strings.NewReader("File1=http://x\n[playlist]\n"))
	assert.ErrorIs(t, err, ErrNotPLS, "keys before the header are rejected")

	_, err = ParsePLS(strings.NewReader("#EXTM3U\nhttp://x\n"))
	assert.ErrorIs(t, err, ErrNotPLS)

	_, err = ParsePLS(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotPLS)
}

func TestSplitKeyIndex(t *testing.T) {
	tests := []struct {
		key       string
		wantName  string
		wantIndex int
	}{
		{"File1", "File", 1},
		{"Title12", "Title", 12},
		{"length3", "length", 3},
		{"Version", "Version", 0},
		{"NumberOfEntries", "NumberOfEntries", 0},
		{"File0", "File0", 0},
	}
	for _, tt := range tests {
		name, index := splitKeyIndex(tt.key)
		assert.Equal(t, tt.wantName, name, "key %q", tt.key)
		assert.Equal(t, tt.wantIndex, index, "key %q", tt.key)
	}
}

func TestWritePLSRoundTrip(t *testing.T) {
	want := []Station{
		{Name: "First", URI: "http://example.com/first"},
		{Name: "Second", URI: "http://example.com/second"},
	}

	var buf bytes.Buffer
	require.NoError(t, WritePLS(&buf, want))
	assert.Contains(t, buf.String(), "NumberOfEntries=2")
	assert.Contains(t, buf.String(), "Version=2")

	got, err := ParsePLS(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatPLS, FormatForPath("stations.pls"))
	assert.Equal(t, FormatPLS, FormatForPath("STATIONS.PLS"))
	assert.Equal(t, FormatM3U, FormatForPath("stations.m3u"))
	assert.Equal(t, FormatM3U, FormatForPath("stations.m3u8"))
	assert.Equal(t, FormatM3U, FormatForPath("no-extension"))

	assert.Equal(t, "m3u", FormatM3U.String())
	assert.Equal(t, "pls", FormatPLS.String())
}

func TestLoadSave(t *testing.T) {
	dir := t.TempDir()
	stations := []Station{
		{Name: "Drone Zone", URI: "http://ice1.somafm.com/dronezone-256-mp3"},
		{Name: "Deep Space One", URI: "http://ice1.somafm.com/deepspaceone-128-mp3"},
	}

	for _, name := range []string{"list.m3u", "list.pls"} {
		path := filepath.Join(dir, name)
		require.NoError(t, Save(path, stations))

		got, err := Load(path)
		require.NoError(t, err, name)
		assert.Equal(t, stations, got, name)
	}

	_, err := Load(filepath.Join(dir, "missing.m3u"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
