package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	appConfDir  = ".letstore"
	appConfFile = "config.toml"
	// DefaultInstance is the mDNS instance name looked up when discovery is enabled
	DefaultInstance = "letstore"
)

var (
	ErrNoConfig = errors.New("config must be loaded")
)

// Duration lets toml decode values like "15s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return fmt.Errorf("parsing duration %q: %w", string(b), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type ServerConfig struct {
	// BaseURL of the storage REST API, e.g. http://localhost:8000/api
	BaseURL string `toml:"base_url"`
	// PublicOrigin is prefixed to generated public links, falls back to BaseURL's origin
	PublicOrigin string   `toml:"public_origin"`
	Timeout      Duration `toml:"timeout"`
	// Discover resolves BaseURL through mDNS on the local network
	Discover bool   `toml:"discover"`
	Instance string `toml:"instance"`
}

type ReceiveConfig struct {
	DownloadFolder string `toml:"download_folder"`
}

type ShareConfig struct {
	// DefaultExpiryDays pre-fills the public link dialog, 0 means no expiration
	DefaultExpiryDays int `toml:"default_expiry_days"`
}

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Receive ReceiveConfig `toml:"receive"`
	Share   ShareConfig   `toml:"share"`
}

var (
	mu     sync.Mutex
	config *Config
)

// Get returns the lastest loaded/saved user's config,
// if it returns ErrNoConfig, Load OR Save must be called.
func Get() (Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if config != nil {
		return *config, nil
	}
	return Config{}, ErrNoConfig
}

// Load loads the configuration from the user's config file.
// if not exists, it creates a new config file with default values.
func Load() (Config, error) {
	f, err := getUserConfigFile()
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("opening config file: %w", err)
		}
		cfg, err := defaultConfig()
		if err != nil {
			return Config{}, fmt.Errorf("getting default config: %w", err)
		}
		if err = Save(cfg); err != nil {
			return Config{}, fmt.Errorf("config file not exists, writing defaults: %w", err)
		}
		return cfg, nil
	}
	defer f.Close()

	cfg, err := readConfig(f)
	if err != nil {
		return Config{}, err
	}
	cfg.fillDefaults()
	mu.Lock()
	defer mu.Unlock()
	config = &cfg

	return cfg, nil
}

// Save saves the configuration to the user's config file.
func Save(c Config) error {
	f, err := createConfigFile()
	if err != nil {
		return fmt.Errorf("creating/truncating config file: %w", err)
	}
	defer f.Close()
	if err = writeConfig(f, c); err != nil {
		return fmt.Errorf("writing new config to file: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	config = &c

	return nil
}

// Origin returns the origin used when composing public links.
func (c Config) Origin() string {
	if c.Server.PublicOrigin != "" {
		return strings.TrimRight(c.Server.PublicOrigin, "/")
	}
	return originOf(c.Server.BaseURL)
}

// originOf keeps scheme://host[:port] of rawURL, http when no scheme is given.
func originOf(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.TrimRight(rawURL, "/")
	}
	return u.Scheme + "://" + u.Host
}

func (c *Config) fillDefaults() {
	if c.Server.Timeout.Duration <= 0 {
		c.Server.Timeout.Duration = 30 * time.Second
	}
	if c.Server.Instance == "" {
		c.Server.Instance = DefaultInstance
	}
	if c.Share.DefaultExpiryDays < 0 {
		c.Share.DefaultExpiryDays = 0
	}
}

func defaultConfig() (Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("user home directory look-up: %w", err)
	}
	downPath := filepath.Join(homeDir, "Downloads")
	if err = os.MkdirAll(downPath, 0o750); err != nil {
		return Config{}, fmt.Errorf("creating download folder: %w", err)
	}
	cfg := Config{
		Server: ServerConfig{
			BaseURL:  "http://localhost:8000/api",
			Timeout:  Duration{30 * time.Second},
			Instance: DefaultInstance,
		},
		Receive: ReceiveConfig{
			DownloadFolder: filepath.ToSlash(downPath),
		},
		Share: ShareConfig{
			DefaultExpiryDays: 7,
		},
	}
	return cfg, nil
}

// GetDir returns the app directory under the user config dir, creating it
// when missing. Config, session and log files live there.
func GetDir() (string, error) {
	d, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("looking up user config directory: %w", err)
	}
	d = filepath.Join(d, confDirName())
	if err = os.MkdirAll(d, 0o750); err != nil {
		return "", fmt.Errorf("creating app config directory: %w", err)
	}
	return d, nil
}

func getUserConfigFile() (*os.File, error) {
	cfgPath, err := GetDir()
	if err != nil {
		return nil, err
	}
	cfgPath = filepath.Join(cfgPath, appConfFile)
	var f *os.File
	if f, err = os.Open(cfgPath); err != nil {
		return nil, fmt.Errorf("opening app config file: %w", err)
	}
	return f, nil
}

func createConfigFile() (*os.File, error) {
	cfgPath, err := GetDir()
	if err != nil {
		return nil, err
	}
	cfgPath = filepath.Join(cfgPath, appConfFile)
	f, err := os.Create(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("creating app config file: %w", err)
	}
	return f, nil
}

func readConfig(r io.Reader) (Config, error) {
	cfg := new(Config)
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config file: %w", err)
	}
	return *cfg, nil
}

func writeConfig(w io.Writer, c Config) error {
	if err := toml.NewEncoder(w).Encode(c); err != nil {
		return fmt.Errorf("encoding config file: %w", err)
	}
	return nil
}
