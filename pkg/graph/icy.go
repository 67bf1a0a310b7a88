package graph

import (
	"bufio"
	"io"
	"strings"
)

// icyReader strips ICY inline metadata from a radio stream. The server
// interleaves a length-prefixed metadata block after every metaint audio
// bytes; a nonempty block carries StreamTitle='...'; which is parsed into
// tag updates.
type icyReader struct {
	src       io.ReadCloser
	br        *bufio.Reader
	metaint   int
	remain    int
	onTags    func(map[string]string)
	lastTitle string
}

func newICYReader(src io.ReadCloser, metaint int, onTags func(map[string]string)) *icyReader {
	return &icyReader{
		src:     src,
		br:      bufio.NewReaderSize(src, 32*1024),
		metaint: metaint,
		remain:  metaint,
		onTags:  onTags,
	}
}

func (r *icyReader) Read(p []byte) (int, error) {
	if r.remain == 0 {
		if err := r.readMeta(); err != nil {
			return 0, err
		}
		r.remain = r.metaint
	}
	if len(p) > r.remain {
		p = p[:r.remain]
	}
	n, err := r.br.Read(p)
	r.remain -= n
	return n, err
}

func (r *icyReader) Close() error {
	return r.src.Close()
}

// readMeta consumes one metadata block: a length byte (x16) followed by
// that many bytes of NUL-padded text.
func (r *icyReader) readMeta() error {
	lenByte, err := r.br.ReadByte()
	if err != nil {
		return err
	}
	metaLen := int(lenByte) * 16
	if metaLen == 0 {
		return nil
	}
	buf := make([]byte, metaLen)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return err
	}
	r.handleMeta(string(buf))
	return nil
}

func (r *icyReader) handleMeta(meta string) {
	title := parseStreamTitle(meta)
	if title == "" || title == r.lastTitle {
		return
	}
	r.lastTitle = title
	if r.onTags == nil {
		return
	}
	tags := map[string]string{"title": title}
	if artist, track, ok := splitStreamTitle(title); ok {
		tags["artist"] = artist
		tags["title"] = track
	}
	r.onTags(tags)
}

// parseStreamTitle extracts the StreamTitle value from an ICY metadata
// block.
func parseStreamTitle(meta string) string {
	const marker = "StreamTitle='"
	start := strings.Index(meta, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(meta[start:], "';")
	if end < 0 {
		return ""
	}
	return strings.TrimSpace(strings.Trim(meta[start:start+end], "\x00"))
}

// splitStreamTitle splits the conventional "Artist - Title" form.
func splitStreamTitle(s string) (artist, title string, ok bool) {
	parts := strings.SplitN(s, " - ", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	artist = strings.TrimSpace(parts[0])
	title = strings.TrimSpace(parts[1])
	if artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}
