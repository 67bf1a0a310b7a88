package recorder

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Supported recording formats, selected by the target file extension.
const (
	FormatWAV  = "wav"
	FormatMP3  = "mp3"
	FormatFLAC = "flac"
	FormatOgg  = "ogg"

	// DefaultFormat is used when the target extension names no known
	// encoder.
	DefaultFormat = FormatMP3
)

// Formats lists the supported recording formats.
func Formats() []string {
	return []string{FormatFLAC, FormatMP3, FormatOgg, FormatWAV}
}

// FormatForPath selects the encoder format for a target path. Unknown or
// missing extensions fall back to DefaultFormat.
func FormatForPath(path string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case FormatWAV, FormatMP3, FormatFLAC, FormatOgg:
		return ext
	default:
		return DefaultFormat
	}
}

// encoder turns frame chunks into bytes on disk. Implementations are
// driven by a single session goroutine: write calls are sequential and
// close is the last call.
type encoder interface {
	write(frames [][2]float64) error
	close() error
}

func newEncoder(format, path string, opts Options) (encoder, error) {
	switch format {
	case FormatWAV:
		return newWAVEncoder(path, opts.SampleRate)
	case FormatOgg:
		return newOggEncoder(path, opts.SampleRate, opts.Bitrate)
	case FormatMP3, FormatFLAC:
		return newFFmpegEncoder(path, format, opts)
	default:
		return nil, fmt.Errorf("unsupported recording format %q", format)
	}
}

// sampleToInt16 clips one float sample into the 16 bit PCM range.
func sampleToInt16(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}
