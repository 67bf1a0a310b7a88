package commands

import (
	"strconv"
	"strings"

	"github.com/funkwelle/funkwelle/pkg/station"
)

const historyDefaultLimit = 10

// HistoryCommand shows and manages the listening history.
func HistoryCommand(ctx *Context, args []string) {
	if ctx.History == nil {
		ctx.Printf("History is not available.\n")
		return
	}
	if len(args) == 0 {
		printHistory(ctx, ctx.History.Recent(historyDefaultLimit))
		return
	}

	switch args[0] {
	case "recent":
		limit := historyDefaultLimit
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				ctx.Printf("Usage: history recent [count]\n")
				return
			}
			limit = n
		}
		printHistory(ctx, ctx.History.Recent(limit))
	case "top":
		printHistory(ctx, ctx.History.MostPlayed(historyDefaultLimit))
	case "search":
		if len(args) < 2 {
			ctx.Printf("Usage: history search <text>\n")
			return
		}
		printHistory(ctx, ctx.History.Search(strings.Join(args[1:], " ")))
	case "clear":
		if err := ctx.History.Clear(); err != nil {
			ctx.Printf("Failed to clear history: %v\n", err)
			return
		}
		ctx.Printf("History cleared.\n")
	default:
		ctx.Printf("Usage: history [recent [count] | top | search <text> | clear]\n")
	}
}

func printHistory(ctx *Context, entries []station.HistoryEntry) {
	if len(entries) == 0 {
		ctx.Printf("No history entries.\n")
		return
	}
	for i, e := range entries {
		ctx.Printf("%3d. %s", i+1, e.Name)
		if e.Genre != "" {
			ctx.Printf(" [%s]", e.Genre)
		}
		ctx.Printf("  (played %d, last %s)\n", e.PlayCount, e.LastPlayed.Format("2006-01-02 15:04"))
		if e.LastTitle != "" {
			ctx.Printf("     last title: %s\n", e.LastTitle)
		}
	}
}
