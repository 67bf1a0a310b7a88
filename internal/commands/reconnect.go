package commands

import "strings"

// ReconnectCommand shows or toggles automatic reconnection.
func ReconnectCommand(ctx *Context, args []string) {
	if len(args) == 0 {
		state := "off"
		if ctx.Engine.AutoReconnect() {
			state = "on"
		}
		ctx.Printf("Auto-reconnect: %s\n", state)
		return
	}

	switch strings.ToLower(args[0]) {
	case "on":
		ctx.Engine.SetAutoReconnect(true)
		ctx.Settings.AutoReconnect = true
		ctx.SaveSettings()
		ctx.Printf("Auto-reconnect enabled.\n")
	case "off":
		ctx.Engine.SetAutoReconnect(false)
		ctx.Settings.AutoReconnect = false
		ctx.SaveSettings()
		ctx.Printf("Auto-reconnect disabled.\n")
	default:
		ctx.Printf("Usage: reconnect [on|off]\n")
	}
}
