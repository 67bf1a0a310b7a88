package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"github.com/funkwelle/funkwelle/internal/commands"
	"github.com/funkwelle/funkwelle/internal/config"
	"github.com/funkwelle/funkwelle/internal/handlers"
	"github.com/funkwelle/funkwelle/pkg/player"
	"github.com/funkwelle/funkwelle/pkg/resolve"
	"github.com/funkwelle/funkwelle/pkg/settings"
	"github.com/funkwelle/funkwelle/pkg/station"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	// User preferences survive restarts in the settings store.
	store, err := settings.NewStore(cfg.SettingsPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open settings store")
	}
	prefs, err := store.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Falling back to default settings")
	}

	pcfg := player.DefaultConfig()
	pcfg.InitialVolume = prefs.Volume
	if cfg.UserAgent != "" {
		pcfg.UserAgent = cfg.UserAgent
	}
	if cfg.FFmpegPath != "" {
		pcfg.Graph.FFmpegPath = cfg.FFmpegPath
	}

	engine, err := player.New(pcfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create playback engine")
	}
	defer engine.Close()

	engine.SetAutoReconnect(prefs.AutoReconnect)
	engine.LoadEqualizer(prefs.Equalizer.Enabled, prefs.Equalizer.Preset, prefs.Equalizer.Gains)

	history, err := station.NewHistory("", log)
	if err != nil {
		log.Warn().Err(err).Msg("Listening history disabled")
	}
	favorites, err := station.NewFavorites("", log)
	if err != nil {
		log.Warn().Err(err).Msg("Favorites disabled")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "funkwelle> ",
		HistoryFile:     historyFile(),
		InterruptPrompt: "^C",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize readline")
	}
	defer rl.Close()

	ctx := &commands.Context{
		Engine:       engine,
		Store:        store,
		Settings:     &prefs,
		Resolver:     resolve.NewResolver(log),
		History:      history,
		Favorites:    favorites,
		RecordingDir: cfg.RecordingDir,
		UserAgent:    pcfg.UserAgent,
		FFmpegPath:   pcfg.Graph.FFmpegPath,
		Out:          rl.Stdout(),
		Log:          log,
	}

	// Narrate engine events above the prompt.
	engine.Subscribe(handlers.NewEventPrinter(ctx))

	// A sleep timer armed with the quit action ends the shell: closing
	// the readline instance unblocks Readline below with io.EOF.
	engine.Subscribe(player.EventHandler{
		SleepTimer: func(ev player.SleepEvent) {
			if ev.Kind == player.SleepFired && ev.Action == player.SleepQuit {
				rl.Close()
			}
		},
	})

	fmt.Fprintln(rl.Stdout(), "funkwelle streaming radio player. Type help for commands.")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			}
			continue
		}
		if err != nil {
			break
		}
		if !handlers.HandleInput(ctx, line) {
			break
		}
	}

	// Cleanly shut the engine down; an active recording is flushed and
	// reported before the loop exits.
	if err := engine.Close(); err != nil {
		log.Error().Err(err).Msg("Engine shutdown failed")
	}
}

// historyFile keeps shell history next to the settings document.
func historyFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "funkwelle", "history")
}
