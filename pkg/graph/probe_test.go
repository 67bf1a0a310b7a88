package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSniffKind(t *testing.T) {
	tsHead := make([]byte, 189)
	tsHead[0] = 0x47
	tsHead[188] = 0x47

	mp4Head := append([]byte{0x00, 0x00, 0x00, 0x20}, []byte("ftypisom")...)

	tests := []struct {
		name string
		head []byte
		want MediaKind
	}{
		{"id3 tag", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"), KindMP3},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, KindMP3},
		{"ogg", []byte("OggS\x00\x02"), KindOggVorbis},
		{"flac", []byte("fLaC\x00\x00\x00\x22"), KindFLAC},
		{"riff wave", []byte("RIFF\x24\x00\x00\x00WAVEfmt "), KindWAV},
		{"riff without wave", []byte("RIFF\x24\x00\x00\x00AVI fmt "), KindUnknown},
		{"adts aac", []byte{0xFF, 0xF1, 0x50, 0x80}, KindAAC},
		{"ebml", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x01}, KindContainer},
		{"mp4 ftyp", mp4Head, KindContainer},
		{"flv", []byte("FLV\x01\x05"), KindContainer},
		{"mpeg-ts", tsHead, KindContainer},
		{"too short", []byte{0xFF}, KindUnknown},
		{"garbage", []byte("hello world, not audio"), KindUnknown},
		{"empty", nil, KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sniffKind(tt.head))
		})
	}
}

func TestSniffPads(t *testing.T) {
	pads := Sniff([]byte("ID3\x04\x00\x00\x00\x00\x00\x00"))
	require.Len(t, pads, 1)
	assert.Equal(t, Pad{Kind: PadAudio, Media: KindMP3}, pads[0])

	pads = Sniff([]byte{0x1A, 0x45, 0xDF, 0xA3, 0x01})
	require.Len(t, pads, 2)
	assert.Equal(t, Pad{Kind: PadAudio, Media: KindContainer}, pads[0])
	assert.Equal(t, Pad{Kind: PadVideo, Media: KindContainer}, pads[1])

	pads = Sniff([]byte("not a known signature at all"))
	require.Len(t, pads, 1)
	assert.Equal(t, KindUnknown, pads[0].Media, "unknown data still exposes an audio pad")
}

func TestResolvePadIdempotence(t *testing.T) {
	audio := Pad{Kind: PadAudio, Media: KindMP3}
	video := Pad{Kind: PadVideo, Media: KindContainer}

	tests := []struct {
		name  string
		pad   Pad
		flags linkFlags
		want  LinkAction
	}{
		{"first audio pad links", audio, linkFlags{}, LinkAudio},
		{"second audio pad ignored", audio, linkFlags{audio: true}, LinkIgnore},
		{"first video pad discards", video, linkFlags{}, LinkDiscard},
		{"second video pad ignored", video, linkFlags{video: true}, LinkIgnore},
		{"audio after video still links", audio, linkFlags{video: true}, LinkAudio},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolvePad(tt.pad, tt.flags))
		})
	}
}

func TestMediaKindString(t *testing.T) {
	assert.Equal(t, "mp3", KindMP3.String())
	assert.Equal(t, "container", KindContainer.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "audio", PadAudio.String())
	assert.Equal(t, "video", PadVideo.String())
}
