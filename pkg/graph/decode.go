package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
)

// rejoinReader glues the sniffed head bytes back onto the stream body so
// the decoder sees the stream from byte zero.
type rejoinReader struct {
	io.Reader
	io.Closer
}

func rejoin(head []byte, rest io.ReadCloser) io.ReadCloser {
	return rejoinReader{io.MultiReader(bytes.NewReader(head), rest), rest}
}

// newDecoder returns a streamer for the sniffed media kind. Native
// decoders cover mp3, ogg vorbis, flac and wav; aac, multiplexed
// containers and unrecognized payloads fall back to an ffmpeg child
// process emitting raw PCM.
func newDecoder(kind MediaKind, src io.ReadCloser, ffmpegPath string, rate int) (beep.StreamCloser, beep.Format, error) {
	switch kind {
	case KindMP3:
		return mp3.Decode(src)
	case KindOggVorbis:
		return vorbis.Decode(src)
	case KindFLAC:
		return flac.Decode(src)
	case KindWAV:
		return wav.Decode(src)
	default:
		return newFFmpegDecoder(src, ffmpegPath, rate)
	}
}

// ffmpegStreamer decodes an arbitrary container through an ffmpeg child
// process: source bytes are piped to stdin and interleaved s16le PCM is
// read back from stdout. Video elementary streams are dropped with -vn,
// which is how the discard pad materializes on this path.
type ffmpegStreamer struct {
	pcm  pcmStreamer
	cmd  *exec.Cmd
	src  io.ReadCloser
	once sync.Once
}

func newFFmpegDecoder(src io.ReadCloser, binary string, rate int) (beep.StreamCloser, beep.Format, error) {
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.Command(binary,
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(rate),
		"-ac", "2",
		"pipe:1",
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ffmpeg stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("ffmpeg stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, beep.Format{}, fmt.Errorf("start ffmpeg: %w", err)
	}

	go func() {
		// A source error or ffmpeg exit both end the copy; the decode
		// side observes either as EOF on stdout.
		io.Copy(stdin, src)
		stdin.Close()
	}()

	f := &ffmpegStreamer{
		pcm: pcmStreamer{r: stdout},
		cmd: cmd,
		src: src,
	}
	format := beep.Format{
		SampleRate:  beep.SampleRate(rate),
		NumChannels: 2,
		Precision:   2,
	}
	return f, format, nil
}

func (f *ffmpegStreamer) Stream(samples [][2]float64) (int, bool) {
	return f.pcm.Stream(samples)
}

func (f *ffmpegStreamer) Err() error {
	return f.pcm.Err()
}

func (f *ffmpegStreamer) Close() error {
	f.once.Do(func() {
		f.src.Close()
		if f.cmd.Process != nil {
			f.cmd.Process.Kill()
		}
		f.cmd.Wait()
	})
	return nil
}

// pcmStreamer adapts an interleaved s16le stereo byte stream to a
// beep.Streamer.
type pcmStreamer struct {
	r   io.Reader
	buf []byte
	err error
}

func (p *pcmStreamer) Stream(samples [][2]float64) (int, bool) {
	if p.err != nil {
		return 0, false
	}
	need := len(samples) * 4
	if cap(p.buf) < need {
		p.buf = make([]byte, need)
	}
	buf := p.buf[:need]

	read, err := io.ReadFull(p.r, buf)
	frames := read / 4
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		right := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		samples[i][0] = float64(left) / 32768
		samples[i][1] = float64(right) / 32768
	}
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		p.err = err
	}
	if frames == 0 {
		return 0, false
	}
	return frames, true
}

func (p *pcmStreamer) Err() error {
	return p.err
}
