package recorder

import (
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	opus "gopkg.in/hraban/opus.v2"
)

// oggEncoder writes Opus frames into an Ogg container. Incoming samples
// are regrouped into 20 ms Opus frames; the container granule positions
// are derived from the frame timestamps.
type oggEncoder struct {
	writer    *oggwriter.OggWriter
	enc       *opus.Encoder
	frameSize int // samples per channel per 20 ms frame
	pcm       []int16
	buf       []byte
	seq       uint16
	timestamp uint32
}

func newOggEncoder(path string, sampleRate, bitrate int) (*oggEncoder, error) {
	enc, err := opus.NewEncoder(sampleRate, 2, opus.AppAudio)
	if err != nil {
		return nil, err
	}
	if err := enc.SetBitrate(bitrate * 1000); err != nil {
		return nil, err
	}
	w, err := oggwriter.New(path, uint32(sampleRate), 2)
	if err != nil {
		return nil, err
	}
	return &oggEncoder{
		writer:    w,
		enc:       enc,
		frameSize: sampleRate / 50,
		buf:       make([]byte, 4000),
	}, nil
}

func (o *oggEncoder) write(frames [][2]float64) error {
	for _, s := range frames {
		o.pcm = append(o.pcm, sampleToInt16(s[0]), sampleToInt16(s[1]))
	}
	stride := o.frameSize * 2
	for len(o.pcm) >= stride {
		if err := o.writeFrame(o.pcm[:stride]); err != nil {
			return err
		}
		o.pcm = o.pcm[:copy(o.pcm, o.pcm[stride:])]
	}
	return nil
}

func (o *oggEncoder) writeFrame(chunk []int16) error {
	n, err := o.enc.Encode(chunk, o.buf)
	if err != nil {
		return err
	}
	o.seq++
	o.timestamp += uint32(o.frameSize)
	return o.writer.WriteRTP(&rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			SequenceNumber: o.seq,
			Timestamp:      o.timestamp,
		},
		Payload: o.buf[:n],
	})
}

func (o *oggEncoder) close() error {
	var firstErr error
	// Pad the final partial frame with silence so no tail is lost.
	if len(o.pcm) > 0 {
		chunk := make([]int16, o.frameSize*2)
		copy(chunk, o.pcm)
		if err := o.writeFrame(chunk); err != nil {
			firstErr = err
		}
	}
	if err := o.writer.Close(); firstErr == nil {
		firstErr = err
	}
	return firstErr
}
