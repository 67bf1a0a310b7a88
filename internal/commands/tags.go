package commands

import "sort"

// TagsCommand prints the stream metadata received so far.
func TagsCommand(ctx *Context) {
	tags := ctx.Engine.Tags()
	if len(tags) == 0 {
		ctx.Printf("No stream metadata yet.\n")
		return
	}

	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctx.Printf("%-14s %s\n", k, tags[k])
	}
}
