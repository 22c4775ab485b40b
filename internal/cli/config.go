package cli

import (
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL   string
	Competition string
	CachePath   string
	TextsPath   string
	Output      string
	TermsURL    string
	PrivacyURL  string
	Verbose     bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:   getEnvOrDefault("LEADERBOARD_SERVER", "http://localhost:8080"),
		Competition: getEnvOrDefault("LEADERBOARD_COMPETITION", "default"),
		CachePath:   getEnvOrDefault("LEADERBOARD_CACHE", defaultCachePath()),
		TextsPath:   os.Getenv("LEADERBOARD_TEXTS"),
		Output:      "text",
		TermsURL:    os.Getenv("LEADERBOARD_TERMS_URL"),
		PrivacyURL:  os.Getenv("LEADERBOARD_PRIVACY_URL"),
		Verbose:     false,
	}
}

// ensureCacheDir creates the directory holding the cache file
func (c *Config) ensureCacheDir() error {
	dir := filepath.Dir(c.CachePath)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0700)
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".leaderboard/cache.db"
	}
	return filepath.Join(home, ".leaderboard", "cache.db")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
