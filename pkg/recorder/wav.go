package recorder

import (
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavEncoder writes uncompressed 16 bit PCM. The wav container needs a
// seekable target for its final header rewrite, so this encoder works on
// the file directly.
type wavEncoder struct {
	file   *os.File
	enc    *wav.Encoder
	format *audio.Format
}

func newWAVEncoder(path string, sampleRate int) (*wavEncoder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &wavEncoder{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, 16, 2, 1),
		format: &audio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
	}, nil
}

func (w *wavEncoder) write(frames [][2]float64) error {
	data := make([]int, len(frames)*2)
	for i, s := range frames {
		data[i*2] = int(sampleToInt16(s[0]))
		data[i*2+1] = int(sampleToInt16(s[1]))
	}
	return w.enc.Write(&audio.IntBuffer{
		Format:         w.format,
		Data:           data,
		SourceBitDepth: 16,
	})
}

func (w *wavEncoder) close() error {
	encErr := w.enc.Close()
	if err := w.file.Close(); encErr == nil {
		encErr = err
	}
	return encErr
}
