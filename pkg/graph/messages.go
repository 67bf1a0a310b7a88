package graph

// MessageType discriminates bus messages posted by the graph.
type MessageType int

const (
	// MsgStreamStarted fires once per source attach, after the audio pad is
	// linked and the sink begins pulling.
	MsgStreamStarted MessageType = iota
	// MsgBuffering carries prebuffer progress, percent 0 to 100.
	MsgBuffering
	// MsgTags carries connection-time or in-stream metadata.
	MsgTags
	// MsgEOS signals a clean end of stream.
	MsgEOS
	// MsgError signals a transport or decode failure.
	MsgError
)

func (t MessageType) String() string {
	switch t {
	case MsgStreamStarted:
		return "stream-started"
	case MsgBuffering:
		return "buffering"
	case MsgTags:
		return "tags"
	case MsgEOS:
		return "eos"
	case MsgError:
		return "error"
	default:
		return "unknown"
	}
}

// Message is an asynchronous notification from the graph to its owner.
// Messages are posted from the graph's connection goroutine and from the
// sink's audio callback; the owner serializes them on its own loop.
type Message struct {
	Type    MessageType
	Err     error
	Tags    map[string]string
	Percent int
}

// Bus receives graph messages. Implementations must not block: a full
// owner queue drops the message rather than stalling the audio path.
type Bus func(Message)
