package config

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const (
	appName    = "hostbridge"
	configFile = "config.json"
)

// Permissions are the grants the host reports for device capabilities.
type Permissions struct {
	Camera     bool `json:"camera"`
	Location   bool `json:"location"`
	Microphone bool `json:"microphone"`
}

type Config struct {
	DataDir     string      `json:"data_dir"`
	StartURL    string      `json:"start_url"`
	Legacy      bool        `json:"legacy"`
	AutoReadyMS int         `json:"auto_ready_ms"`
	Permissions Permissions `json:"permissions"`

	// SessionToken and SessionUser seed the keyring session at startup.
	// They come from the environment only and are never written to disk.
	SessionToken string `json:"-"`
	SessionUser  string `json:"-"`
}

func Load() (*Config, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(filepath.Join(configDir, appName))
}

// LoadFrom reads config.json from appDir, writing a default one when it
// does not exist, then applies environment overrides.
func LoadFrom(appDir string) (*Config, error) {
	path := filepath.Join(appDir, configFile)
	var cfg Config

	data, err := os.ReadFile(path)
	if err == nil {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else {
		cfg = defaults(appDir)
		if err := os.MkdirAll(appDir, 0700); err != nil {
			return nil, err
		}
		out, _ := json.MarshalIndent(cfg, "", "  ")
		_ = os.WriteFile(path, out, 0600)
		log.Printf("Generated new config at: %s", path)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(appDir, "data")
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaults(appDir string) Config {
	return Config{
		DataDir:     filepath.Join(appDir, "data"),
		AutoReadyMS: 100,
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HOSTBRIDGE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("HOSTBRIDGE_START_URL"); v != "" {
		cfg.StartURL = v
	}
	if v := os.Getenv("HOSTBRIDGE_LEGACY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Legacy = b
		}
	}
	if v := os.Getenv("HOSTBRIDGE_TOKEN"); v != "" {
		cfg.SessionToken = v
	}
	if v := os.Getenv("HOSTBRIDGE_USER"); v != "" {
		cfg.SessionUser = v
	}
	if v := os.Getenv("HOSTBRIDGE_AUTO_READY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.AutoReadyMS = n
		}
	}
}
