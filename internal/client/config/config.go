// Package config loads the command-line client's settings.
//
// Sources, later ones overriding earlier ones: built-in defaults, an
// optional JSON file, BLOOMBUDDY_* environment variables. Command-line
// flags are applied by the cobra commands on top.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/bloombuddy/internal/timex"
)

type Config struct {
	ServerEndpointAddr string
	// SessionDir is created under the working directory and holds the
	// saved tokens.
	SessionDir     string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.SessionDir = ".bloombuddy"
	c.RequestTimeout = 15 * time.Second
	c.UploadTimeout = 2 * time.Minute
}

type jsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	SessionDir         string         `json:"session_dir"`
	RequestTimeout     timex.Duration `json:"request_timeout"`
	UploadTimeout      timex.Duration `json:"upload_timeout"`
}

// Load builds the configuration. path may be empty; lookup is usually
// os.LookupEnv.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path != "" {
		if err := cfg.overlayJSON(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.overlayEnv(lookup); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if jc.ServerEndpointAddr != "" {
		c.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.SessionDir != "" {
		c.SessionDir = jc.SessionDir
	}
	if jc.RequestTimeout.Duration > 0 {
		c.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.UploadTimeout.Duration > 0 {
		c.UploadTimeout = jc.UploadTimeout.Duration
	}
	return nil
}

func (c *Config) overlayEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	if v, ok := lookup("BLOOMBUDDY_SERVER"); ok && v != "" {
		c.ServerEndpointAddr = v
	}
	if v, ok := lookup("BLOOMBUDDY_SESSION_DIR"); ok && v != "" {
		c.SessionDir = v
	}
	if v, ok := lookup("BLOOMBUDDY_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BLOOMBUDDY_REQUEST_TIMEOUT: %w", err)
		}
		c.RequestTimeout = d
	}
	return nil
}
