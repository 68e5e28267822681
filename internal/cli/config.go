package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mcoot/wordduel/internal/model"
)

// Config holds CLI configuration
type Config struct {
	ServerURL    string
	Identity     string
	IdentityFile string
	Output       string
	Verbose      bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:    getEnvOrDefault("WORDDUEL_SERVER", "http://localhost:8080"),
		Identity:     os.Getenv("WORDDUEL_IDENTITY"),
		IdentityFile: getEnvOrDefault("WORDDUEL_IDENTITY_FILE", defaultIdentityFile()),
		Output:       "text",
		Verbose:      false,
	}
}

// LoadIdentity loads the identity from file if not already set
func (c *Config) LoadIdentity() error {
	if c.Identity != "" {
		return nil
	}

	data, err := os.ReadFile(c.IdentityFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // first run
		}
		return err
	}

	c.Identity = strings.TrimSpace(string(data))
	return nil
}

// SaveIdentity saves the identity to the identity file
func (c *Config) SaveIdentity(id model.PlayerID) error {
	c.Identity = string(id)

	dir := filepath.Dir(c.IdentityFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.IdentityFile, []byte(id), 0600)
}

// WebSocketURL returns the websocket endpoint for the configured server
func (c *Config) WebSocketURL() string {
	base := strings.TrimSuffix(c.ServerURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func defaultIdentityFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wordduel/identity"
	}
	return filepath.Join(home, ".wordduel", "identity")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
