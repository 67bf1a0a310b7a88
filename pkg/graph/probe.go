package graph

import "bytes"

// MediaKind tags a pad discovered during format probing.
type MediaKind int

const (
	KindUnknown MediaKind = iota
	KindMP3
	KindOggVorbis
	KindFLAC
	KindWAV
	KindAAC
	// KindContainer marks a multiplexed container (mp4, webm, mkv, ts)
	// that may carry both audio and video elementary streams.
	KindContainer
)

func (k MediaKind) String() string {
	switch k {
	case KindMP3:
		return "mp3"
	case KindOggVorbis:
		return "ogg"
	case KindFLAC:
		return "flac"
	case KindWAV:
		return "wav"
	case KindAAC:
		return "aac"
	case KindContainer:
		return "container"
	default:
		return "unknown"
	}
}

// PadKind is the negotiated media type of a pad.
type PadKind int

const (
	PadAudio PadKind = iota
	PadVideo
)

func (k PadKind) String() string {
	if k == PadVideo {
		return "video"
	}
	return "audio"
}

// Pad is a capability-tagged stream endpoint exposed once probing
// completes.
type Pad struct {
	Kind  PadKind
	Media MediaKind
}

// sniffLen is how many leading bytes Sniff needs to classify a stream.
const sniffLen = 512

// Sniff classifies the leading bytes of a stream and returns the pads the
// source exposes. Multiplexed containers expose an audio pad and a video
// pad; everything else exposes a single audio pad. Unrecognized data is
// reported as an unknown audio pad so the decode layer can still try it.
func Sniff(head []byte) []Pad {
	kind := sniffKind(head)
	if kind == KindContainer {
		return []Pad{
			{Kind: PadAudio, Media: KindContainer},
			{Kind: PadVideo, Media: KindContainer},
		}
	}
	return []Pad{{Kind: PadAudio, Media: kind}}
}

func sniffKind(head []byte) MediaKind {
	if len(head) < 4 {
		return KindUnknown
	}

	switch {
	case bytes.HasPrefix(head, []byte("OggS")):
		return KindOggVorbis
	case bytes.HasPrefix(head, []byte("fLaC")):
		return KindFLAC
	case bytes.HasPrefix(head, []byte("RIFF")) && len(head) >= 12 && bytes.Equal(head[8:12], []byte("WAVE")):
		return KindWAV
	case bytes.HasPrefix(head, []byte("ID3")):
		return KindMP3
	case bytes.HasPrefix(head, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		// EBML, so webm or mkv.
		return KindContainer
	case len(head) >= 12 && bytes.Equal(head[4:8], []byte("ftyp")):
		return KindContainer
	case bytes.HasPrefix(head, []byte("FLV")):
		return KindContainer
	case head[0] == 0x47 && len(head) > 188 && head[188] == 0x47:
		// MPEG-TS sync bytes one packet apart.
		return KindContainer
	case head[0] == 0xFF && head[1]&0xF6 == 0xF0:
		// ADTS sync with layer bits zero.
		return KindAAC
	case head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return KindMP3
	default:
		return KindUnknown
	}
}

// LinkAction is the outcome of resolving a pad against the current branch
// flags.
type LinkAction int

const (
	// LinkIgnore drops the pad notification; the relevant input is
	// already linked.
	LinkIgnore LinkAction = iota
	// LinkAudio connects the pad to the conversion input.
	LinkAudio
	// LinkDiscard routes the pad to the discard sink.
	LinkDiscard
)

func (a LinkAction) String() string {
	switch a {
	case LinkAudio:
		return "link-audio"
	case LinkDiscard:
		return "link-discard"
	default:
		return "ignore"
	}
}

// linkFlags tracks which graph inputs have been connected for the current
// source. Plain booleans make the pad-resolution idempotence a pure
// predicate instead of live graph inspection.
type linkFlags struct {
	audio bool
	video bool
}

// resolvePad decides what to do with a newly exposed pad. Audio links once
// into the conversion input; video goes to the discard sink once; repeat
// notifications are ignored.
func resolvePad(pad Pad, flags linkFlags) LinkAction {
	switch pad.Kind {
	case PadAudio:
		if flags.audio {
			return LinkIgnore
		}
		return LinkAudio
	case PadVideo:
		if flags.video {
			return LinkIgnore
		}
		return LinkDiscard
	default:
		return LinkIgnore
	}
}
