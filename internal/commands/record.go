package commands

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/funkwelle/funkwelle/pkg/recorder"
)

// RecordCommand controls the recording branch.
func RecordCommand(ctx *Context, args []string) {
	if len(args) == 0 {
		recordStatus(ctx)
		return
	}
	switch strings.ToLower(args[0]) {
	case "start":
		recordStart(ctx, args[1:])
	case "stop":
		recordStop(ctx)
	case "status":
		recordStatus(ctx)
	default:
		ctx.Printf("Usage: record <start [path] | stop | status>\n")
	}
}

// recordStart begins a recording, deriving the target path from the
// filename template when none is given.
func recordStart(ctx *Context, args []string) {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		station, _ := ctx.Engine.CurrentStation()
		name := recorder.BuildFilename(
			ctx.Settings.Recording.Template,
			station.Name,
			ctx.Engine.Tags(),
			time.Now(),
			ctx.Settings.Recording.Format,
		)
		path = filepath.Join(recordingDirectory(ctx), name)
	}

	resolved, err := ctx.Engine.StartRecording(path)
	if err != nil {
		ctx.Printf("Failed to start recording: %v\n", err)
		return
	}
	ctx.Printf("Recording to %s\n", resolved)
}

func recordStop(ctx *Context) {
	path, duration, err := ctx.Engine.StopRecording()
	if err != nil {
		ctx.Printf("Failed to stop recording: %v\n", err)
		return
	}
	ctx.Printf("Recording saved: %s (%s)\n", path, duration.Round(time.Second))
}

func recordStatus(ctx *Context) {
	st := ctx.Engine.Status()
	if st.Recording {
		ctx.Printf("Recording to %s\n", st.RecordingPath)
		return
	}
	ctx.Printf("Not recording.\n")
}

// recordingDirectory resolves the target directory: environment
// override first, then the settings store, then the music directory.
func recordingDirectory(ctx *Context) string {
	if ctx.RecordingDir != "" {
		return ctx.RecordingDir
	}
	if dir := ctx.Settings.Recording.Directory; dir != "" {
		return dir
	}
	return recorder.DefaultDirectory()
}
