// Package recorder captures the audio fan-out to disk. A Session owns one
// output file: it drains a branch queue on its own goroutine, encodes into
// the format selected by the target extension and acknowledges the final
// flush by closing Done. Sessions never touch the playback path; a slow
// encoder loses frames on its own branch instead of stalling audio.
package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTemplate is the filename template applied when none is
// configured.
const DefaultTemplate = "{station}_{date}_{time}"

// maxNameLength caps one sanitized filename component.
const maxNameLength = 100

// collisionLimit bounds the numeric suffix search for a free filename.
const collisionLimit = 1000

// Options parameterizes one recording session.
type Options struct {
	// Path is the requested output file. Its extension selects the
	// encoder; the final path may differ by a numeric suffix when the
	// requested file already exists.
	Path string

	// SampleRate of the incoming frames.
	SampleRate int

	// Bitrate in kbit/s for the lossy encoders.
	Bitrate int

	// FFmpegPath is the encoder binary used for mp3 and flac output.
	FFmpegPath string
}

// Session is one recording in progress. Start consumes a branch queue
// until it closes; Done is closed after the encoder has flushed and the
// file is final.
type Session struct {
	id     string
	path   string
	format string
	enc    encoder
	now    func() time.Time
	log    zerolog.Logger

	started  time.Time
	done     chan struct{}
	duration time.Duration
	err      error
}

// NewSession plans the output path and opens the encoder. A collision on
// the requested path is resolved by appending _1, _2 and so on before the
// extension. On error nothing is left attached and no partial file
// remains.
func NewSession(opts Options, now func() time.Time, log zerolog.Logger) (*Session, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("recording path is empty")
	}
	if opts.SampleRate <= 0 {
		opts.SampleRate = 48000
	}
	if opts.Bitrate <= 0 {
		opts.Bitrate = 320
	}
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if now == nil {
		now = time.Now
	}

	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create recording directory: %w", err)
		}
	}
	path, err := resolveCollision(opts.Path)
	if err != nil {
		return nil, err
	}

	format := FormatForPath(path)
	enc, err := newEncoder(format, path, opts)
	if err != nil {
		return nil, fmt.Errorf("open %s encoder: %w", format, err)
	}

	id := uuid.NewString()
	return &Session{
		id:     id,
		path:   path,
		format: format,
		enc:    enc,
		now:    now,
		log: log.With().
			Str("component", "recorder").
			Str("session_id", id).
			Str("path", path).
			Logger(),
		done: make(chan struct{}),
	}, nil
}

// Path returns the resolved output path.
func (s *Session) Path() string { return s.path }

// Format returns the encoder format in use.
func (s *Session) Format() string { return s.format }

// Start begins draining the frame queue on a new goroutine. The session
// ends when the queue is closed or the encoder fails.
func (s *Session) Start(frames <-chan [][2]float64) {
	s.started = s.now()
	s.log.Info().Str("format", s.format).Msg("Recording started")
	go s.run(frames)
}

// Done is closed once the encoder has flushed and the output file is
// final. Duration and Err are valid afterwards.
func (s *Session) Done() <-chan struct{} { return s.done }

// Duration returns the realized wall-clock recording time.
func (s *Session) Duration() time.Duration { return s.duration }

// Err returns the first encoder failure, or nil for a clean session.
func (s *Session) Err() error { return s.err }

func (s *Session) run(frames <-chan [][2]float64) {
	defer close(s.done)

	samples := 0
	for chunk := range frames {
		if err := s.enc.write(chunk); err != nil {
			s.err = fmt.Errorf("write %s: %w", s.path, err)
			break
		}
		samples += len(chunk)
	}
	if err := s.enc.close(); err != nil && s.err == nil {
		s.err = fmt.Errorf("finalize %s: %w", s.path, err)
	}
	s.duration = s.now().Sub(s.started)

	if s.err != nil {
		s.log.Error().Err(s.err).Msg("Recording session failed")
		return
	}
	s.log.Info().
		Int("samples", samples).
		Dur("duration", s.duration).
		Msg("Recording finalized")
}

// resolveCollision returns the requested path if free, otherwise the
// first path with an _N suffix that does not exist yet.
func resolveCollision(path string) (string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; i <= collisionLimit; i++ {
		candidate := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free filename for %s after %d attempts", path, collisionLimit)
}

// SanitizeName makes a string safe as a filename component: path and
// shell-hostile characters become underscores, surrounding dots and
// spaces are trimmed and the length is capped. An empty result falls
// back to "recording".
func SanitizeName(name string) string {
	s := sanitize(name)
	if s == "" {
		return "recording"
	}
	return s
}

var nameReplacer = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_", "\n", "_", "\r", "_",
)

func sanitize(name string) string {
	s := nameReplacer.Replace(name)
	s = strings.Trim(s, ". ")
	if len(s) > maxNameLength {
		s = s[:maxNameLength]
	}
	return s
}

// BuildFilename expands a filename template into a file name with the
// given format extension. Supported placeholders: {station}, {date},
// {time}, {title}, {artist}. Tag placeholders expand to the sanitized tag
// value or to nothing when the tag is absent.
func BuildFilename(template, station string, tags map[string]string, now time.Time, format string) string {
	if template == "" {
		template = DefaultTemplate
	}
	name := template
	name = strings.ReplaceAll(name, "{station}", SanitizeName(station))
	name = strings.ReplaceAll(name, "{date}", now.Format("2006-01-02"))
	name = strings.ReplaceAll(name, "{time}", now.Format("15-04-05"))
	name = strings.ReplaceAll(name, "{title}", sanitize(tags["title"]))
	name = strings.ReplaceAll(name, "{artist}", sanitize(tags["artist"]))
	if name == "" {
		name = "recording"
	}
	return name + "." + format
}

// DefaultDirectory returns the conventional recording location under the
// user's music directory, or a relative fallback when the home directory
// cannot be resolved.
func DefaultDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Recordings"
	}
	return filepath.Join(home, "Music", "Recordings")
}
