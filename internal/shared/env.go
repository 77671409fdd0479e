package shared

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// LoadEnv loads variables from a dotenv file without overriding ones already set.
//
// A missing file is not an error.
func LoadEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides credentials and bucket settings from the environment.
//
// SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET take precedence over the
// lowercase client_id and client_secret names used by older deployments.
func (c *Config) ApplyEnv() {
	if v := firstEnv("SPOTIFY_CLIENT_ID", "client_id"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := firstEnv("SPOTIFY_CLIENT_SECRET", "client_secret"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("ETL_BUCKET"); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv("ETL_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("ETL_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
