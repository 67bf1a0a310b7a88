package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config carries process-level knobs read from the environment. User
// preferences (volume, equalizer, recording format) live in the
// settings store instead.
type Config struct {
	LogLevel     string
	SettingsPath string
	RecordingDir string
	FFmpegPath   string
	UserAgent    string
}

// LoadConfig reads FUNKWELLE_* environment variables, loading a .env
// file first when one exists. Empty values mean "use the built-in
// default" and are resolved by the consumer.
func LoadConfig() (*Config, error) {
	// Load environment variables from a .env file when present.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return &Config{
		LogLevel:     getEnv("FUNKWELLE_LOG_LEVEL", "info"),
		SettingsPath: os.Getenv("FUNKWELLE_SETTINGS_PATH"),
		RecordingDir: os.Getenv("FUNKWELLE_RECORDING_DIR"),
		FFmpegPath:   os.Getenv("FUNKWELLE_FFMPEG_PATH"),
		UserAgent:    os.Getenv("FUNKWELLE_USER_AGENT"),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
