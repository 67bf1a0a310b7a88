package recorder

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// ffmpegEncoder shells out for the formats without a usable pure Go
// encoder. Raw PCM goes to the child's stdin; the child owns the output
// file and finalizes it on stdin close. Waiting for the child to exit is
// the flush acknowledgement.
type ffmpegEncoder struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr bytes.Buffer
	buf    []byte
}

func newFFmpegEncoder(path, format string, opts Options) (*ffmpegEncoder, error) {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "s16le",
		"-ar", strconv.Itoa(opts.SampleRate),
		"-ac", "2",
		"-i", "pipe:0",
	}
	switch format {
	case FormatFLAC:
		args = append(args, "-codec:a", "flac")
	default:
		args = append(args, "-codec:a", "libmp3lame", "-b:a", fmt.Sprintf("%dk", opts.Bitrate))
	}
	args = append(args, path)

	e := &ffmpegEncoder{cmd: exec.Command(opts.FFmpegPath, args...)}
	e.cmd.Stderr = &e.stderr
	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	e.stdin = stdin
	if err := e.cmd.Start(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *ffmpegEncoder) write(frames [][2]float64) error {
	if cap(e.buf) < len(frames)*4 {
		e.buf = make([]byte, len(frames)*4)
	}
	buf := e.buf[:len(frames)*4]
	for i, s := range frames {
		binary.LittleEndian.PutUint16(buf[i*4:], uint16(sampleToInt16(s[0])))
		binary.LittleEndian.PutUint16(buf[i*4+2:], uint16(sampleToInt16(s[1])))
	}
	_, err := e.stdin.Write(buf)
	return err
}

func (e *ffmpegEncoder) close() error {
	e.stdin.Close()
	if err := e.cmd.Wait(); err != nil {
		if msg := strings.TrimSpace(e.stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
