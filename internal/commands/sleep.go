package commands

import (
	"strconv"
	"strings"
	"time"

	"github.com/funkwelle/funkwelle/pkg/player"
)

// SleepCommand arms, cancels or shows the sleep timer.
func SleepCommand(ctx *Context, args []string) {
	if len(args) == 0 {
		sleepStatus(ctx)
		return
	}

	switch strings.ToLower(args[0]) {
	case "off", "cancel":
		if ctx.Engine.CancelSleepTimer() {
			ctx.Printf("Sleep timer cancelled.\n")
		} else {
			ctx.Printf("No sleep timer armed.\n")
		}
		return
	case "status":
		sleepStatus(ctx)
		return
	}

	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes <= 0 {
		ctx.Printf("Usage: sleep <minutes> [stop|pause|quit]  or  sleep <off | status>\n")
		return
	}

	action := player.SleepStop
	if len(args) > 1 {
		switch strings.ToLower(args[1]) {
		case "stop":
			action = player.SleepStop
		case "pause":
			action = player.SleepPause
		case "quit":
			action = player.SleepQuit
		default:
			ctx.Printf("Unknown sleep action %q (stop, pause or quit).\n", args[1])
			return
		}
	}

	applied := ctx.Engine.StartSleepTimer(time.Duration(minutes)*time.Minute, action)
	ctx.Printf("Sleep timer armed: %s, then %s.\n", applied, action)
}

func sleepStatus(ctx *Context) {
	remaining, action, active := ctx.Engine.SleepRemaining()
	if !active {
		ctx.Printf("No sleep timer armed.\n")
		return
	}
	ctx.Printf("Sleep timer: %s remaining, then %s.\n", remaining.Round(time.Second), action)
}
