package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/deevus/bhs-tui/internal/bhs"
)

// DefaultServerName is the profile used when no config file exists.
const DefaultServerName = "default"

// Config is the top-level configuration.
type Config struct {
	Servers map[string]ServerConfig `toml:"servers"`
}

// ServerConfig holds connection details for one Block Headers Service.
// Tokens are deliberately absent: they are only ever typed at the login prompt.
type ServerConfig struct {
	BaseURL            string     `toml:"base_url"`
	InsecureSkipVerify bool       `toml:"insecure_skip_verify"`
	SSH                *SSHConfig `toml:"ssh"`
}

// SSHConfig holds optional SSH tunnel details for reaching the API.
type SSHConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	Username           string `toml:"username"`
	PrivateKeyPath     string `toml:"private_key_path"`
	HostKeyFingerprint string `toml:"host_key_fingerprint"`
}

// DefaultPath returns the default config file path using XDG conventions.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "bhs-tui", "config.toml")
}

// DefaultLogPath returns where the UI writes its log, since the terminal is taken.
func DefaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "bhs-tui", "bhs-tui.log")
}

// Default returns a config with a single profile pointing at the public service.
func Default() *Config {
	return &Config{
		Servers: map[string]ServerConfig{
			DefaultServerName: {BaseURL: bhs.DefaultBaseURL},
		},
	}
}

// Load reads the config at path, falling back to Default when the file does not exist.
func Load(path string) (*Config, error) {
	cfg, err := LoadFrom(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFrom reads and parses the config file at the given path.
// It applies defaults for base URL and SSH fields after parsing.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if len(cfg.Servers) == 0 {
		return nil, fmt.Errorf("config has no servers defined")
	}
	for name, server := range cfg.Servers {
		if server.BaseURL == "" {
			server.BaseURL = bhs.DefaultBaseURL
		}
		u, err := url.Parse(server.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("server %q: invalid base_url %q", name, server.BaseURL)
		}
		if server.SSH != nil {
			if server.SSH.Port == 0 {
				server.SSH.Port = 22
			}
			if server.SSH.Host == "" {
				server.SSH.Host = u.Hostname()
			}
			if server.SSH.Username == "" {
				server.SSH.Username = os.Getenv("USER")
			}
			server.SSH.PrivateKeyPath = expandPath(server.SSH.PrivateKeyPath)
		}
		cfg.Servers[name] = server
	}
	return &cfg, nil
}

// expandPath expands ~ to $HOME and then expands all environment variables.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = "$HOME" + path[1:]
	}
	return os.ExpandEnv(path)
}

// ServerNames returns the sorted list of server profile names.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
