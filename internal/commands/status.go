package commands

import "time"

// StatusCommand prints a full snapshot of the player.
func StatusCommand(ctx *Context) {
	st := ctx.Engine.Status()

	ctx.Printf("State:          %s\n", st.State)
	if st.Station.URI != "" {
		ctx.Printf("Station:        %s\n", st.Station.Name)
		ctx.Printf("URL:            %s\n", st.Station.URI)
	}
	if title := st.Tags["title"]; title != "" {
		ctx.Printf("Now playing:    %s\n", title)
	}
	ctx.Printf("Volume:         %d%%\n", st.Volume)

	reconnect := "off"
	if st.AutoReconnect {
		reconnect = "on"
	}
	ctx.Printf("Auto-reconnect: %s\n", reconnect)
	if st.ReconnectAttempts > 0 {
		ctx.Printf("Reconnecting:   attempt %d\n", st.ReconnectAttempts)
	}

	eq := "off"
	if st.EqualizerEnabled {
		eq = "on (preset: " + st.Preset + ")"
	}
	ctx.Printf("Equalizer:      %s\n", eq)

	if st.Recording {
		ctx.Printf("Recording:      %s\n", st.RecordingPath)
	}
	if st.SpectrumEnabled {
		ctx.Printf("Spectrum:       on\n")
	}
	if st.SleepActive {
		ctx.Printf("Sleep timer:    %s remaining, then %s\n",
			st.SleepRemaining.Round(time.Second), st.SleepAction)
	}
}
