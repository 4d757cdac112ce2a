package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	DefaultMusicDir    = "music"
	DefaultCatalogFile = "songs.json"
	DefaultPort        = 3000
	defaultCORSOrigins = "http://localhost:3000,http://localhost:5173"
)

// Config holds the resolved runtime settings
type Config struct {
	MusicDir    string   // directory scanned on first build
	CatalogFile string   // persisted catalog
	Port        int      // listening port
	CORSOrigins []string // allowed browser origins
	GinMode     string
	LogLevel    string
	LogFile     string // empty logs to stdout only
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// LoadDotEnv reads a .env file from the working directory if there is one.
// Variables already present in the environment win.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load resolves configuration from the environment and defaults
func Load() *Config {
	return &Config{
		MusicDir:    getEnv("MUSIC_DIR", DefaultMusicDir),
		CatalogFile: getEnv("CATALOG_FILE", DefaultCatalogFile),
		Port:        getEnvInt("SERVER_PORT", DefaultPort),
		CORSOrigins: splitOrigins(getEnv("CORS_ORIGINS", defaultCORSOrigins)),
		GinMode:     os.Getenv("GIN_MODE"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     os.Getenv("LOG_FILE"),
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
