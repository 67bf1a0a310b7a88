package commands

import (
	"strconv"

	"github.com/funkwelle/funkwelle/pkg/player"
	"github.com/funkwelle/funkwelle/pkg/station"
)

// FavoriteCommand manages the favorites list: add the current station,
// list, remove by number, or start playback of a numbered favorite.
func FavoriteCommand(ctx *Context, args []string) {
	if ctx.Favorites == nil {
		ctx.Printf("Favorites are not available.\n")
		return
	}
	if len(args) == 0 {
		printFavorites(ctx, ctx.Favorites.All())
		return
	}

	switch args[0] {
	case "add":
		favoriteAdd(ctx)
	case "remove", "rm":
		if len(args) < 2 {
			ctx.Printf("Usage: fav remove <number>\n")
			return
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			ctx.Printf("Usage: fav remove <number>\n")
			return
		}
		removed, ok := ctx.Favorites.RemoveAt(n - 1)
		if !ok {
			ctx.Printf("Favorites list has %d entries.\n", ctx.Favorites.Count())
			return
		}
		ctx.Printf("Removed %s from favorites.\n", removed.Name)
	case "play":
		if len(args) < 2 {
			ctx.Printf("Usage: fav play <number>\n")
			return
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			ctx.Printf("Usage: fav play <number>\n")
			return
		}
		favs := ctx.Favorites.All()
		if n < 1 || n > len(favs) {
			ctx.Printf("Favorites list has %d entries.\n", len(favs))
			return
		}
		f := favs[n-1]
		startPlayback(ctx, player.Station{
			Name:     f.Name,
			URI:      f.URI,
			Genre:    f.Genre,
			Homepage: f.Homepage,
		})
	default:
		ctx.Printf("Usage: fav [add | remove <number> | play <number>]\n")
	}
}

func favoriteAdd(ctx *Context) {
	st := ctx.NowPlaying()
	if st.URI == "" {
		ctx.Printf("Nothing is playing.\n")
		return
	}
	added := ctx.Favorites.Add(station.Favorite{
		Name:     st.Name,
		URI:      st.URI,
		Genre:    st.Genre,
		Homepage: st.Homepage,
	})
	if !added {
		ctx.Printf("%s is already a favorite.\n", st.Name)
		return
	}
	ctx.Printf("Added %s to favorites.\n", st.Name)
}

func printFavorites(ctx *Context, favs []station.Favorite) {
	if len(favs) == 0 {
		ctx.Printf("No favorites yet. Use 'fav add' while a station is playing.\n")
		return
	}
	for i, f := range favs {
		ctx.Printf("%3d. %s", i+1, f.Name)
		if f.Genre != "" {
			ctx.Printf(" [%s]", f.Genre)
		}
		ctx.Printf("\n     %s\n", f.URI)
	}
}
