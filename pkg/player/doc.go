// Package player provides the playback engine for live internet radio
// streams: a five-state state machine over a dynamically built audio
// graph, with real-time equalization, simultaneous disk recording off a
// shared fan-out and automatic reconnection with exponential backoff.
//
// # Core Components
//
// The engine is built from a few cooperating pieces:
//
//   - Engine: the orchestrator owning the graph handle, the state
//     machine and the observer registry
//   - ReconnectPolicy: backoff arithmetic and the retry budget applied
//     after transport failures
//   - EventHandler: typed observer callbacks for state changes, errors,
//     buffering progress, stream tags, recording lifecycle, spectrum
//     frames and the sleep timer
//   - Error: classified engine errors (config, transport, terminal,
//     recording, equalizer) with severity and retryability
//
// # Concurrency Model
//
// A single loop goroutine owns every piece of mutable engine state.
// Public methods marshal commands onto the loop and wait for them;
// graph notifications arrive through a generation-stamped bus; timer
// fires and branch acknowledgements come back as loop events. Because
// everything serializes on one loop, a scheduled reconnect can never
// race a concurrent Stop, and observer callbacks see transitions in
// exactly the order they happened.
//
// # Usage Example
//
//	cfg := player.DefaultConfig()
//	engine, err := player.New(cfg, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer engine.Close()
//
//	engine.Subscribe(player.EventHandler{
//		StateChanged: func(change player.StateChange) {
//			fmt.Println("state:", change.To)
//		},
//		TagsChanged: func(tags map[string]string) {
//			fmt.Println("now playing:", tags["title"])
//		},
//	})
//
//	err = engine.Play(player.Station{
//		Name: "Example FM",
//		URI:  "https://stream.example.fm/high",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # States
//
// Playback moves through five states: Stopped (initial and terminal),
// Playing, Paused, Buffering and Error. Transport errors enter Error and
// trigger the reconnect cycle; an exhausted attempt budget settles the
// engine in Stopped with a terminal report. End of stream and explicit
// Stop both settle in Stopped.
//
// # Recording
//
// StartRecording attaches an encoder branch to the graph's fan-out, so
// capture runs beside playback without touching the audible path. At
// most one session is open at a time; StopRecording waits for the
// encoder's flush acknowledgement and returns the realized duration.
//
// # Testing
//
// The Backend seam injects the stream opener, the audio sink, the timer
// scheduler and the clock, which lets tests run the complete engine,
// graph included, against fakes and a synthetic clock.
package player
