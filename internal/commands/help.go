package commands

// HelpCommand lists the available shell commands.
func HelpCommand(ctx *Context) {
	ctx.Printf(`Playback:
  play <url> [name]       Play a stream URL (video pages are resolved)
  play <n>                Play entry n of the loaded playlist
  pause / resume          Pause or resume playback
  stop                    Stop playback
  volume [0-100]          Show or set the volume
  reconnect [on|off]      Show or toggle automatic reconnection

Recording:
  record start [path]     Record the stream (default name from template)
  record stop             Finish the recording and report the file
  record status           Show the active recording

Equalizer:
  eq on / eq off          Enable or disable the equalizer
  eq preset <name>        Apply a preset
  eq band <0-9> <dB>      Set one band's gain
  eq show                 Show bands, gains and presets

More:
  tags                    Show current stream metadata
  spectrum on|off|show    Control the spectrum analyzer
  sleep <min> [action]    Arm the sleep timer (stop, pause or quit)
  sleep off / status      Cancel or inspect the sleep timer
  playlist load <file>    Load an M3U or PLS playlist
  playlist save <file>    Save the loaded playlist
  history [top|search]    Show listening history
  fav [add|remove|play]   Manage and play favorites
  probe <url>             Inspect a stream without playing it
  status                  Show the full player status
  help                    Show this help
  quit                    Exit the player
`)
}
