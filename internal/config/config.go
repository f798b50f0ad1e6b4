package config

import (
	"fmt"
)

type Config struct {
	Server  ServerConfig
	Gemini  GeminiConfig
	Publish PublishConfig
	Storage StorageConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type GeminiConfig struct {
	BaseURL string
	Model   string
	APIKey  string
}

type PublishConfig struct {
	Endpoint   string
	Author     string
	Visibility string
	ShareBase  string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Gemini: GeminiConfig{
			BaseURL: "https://generativelanguage.googleapis.com",
			Model:   "gemini-2.5-flash",
		},
		Publish: PublishConfig{
			Endpoint:   "https://jsonplaceholder.typicode.com/posts",
			Author:     "urn:li:person:UNKNOWN_USER",
			Visibility: "PUBLIC",
			ShareBase:  "https://www.linkedin.com/feed/",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/pulsedesk/config.json, applies PULSEDESK_* environment
// overrides, and falls back to the secrets file for the Gemini API key.
func Load() (Config, error) {
	return loadWith(newFileBackend(), keychainReader{})
}

// keychain abstracts secret lookup for testing.
type keychain interface {
	Get(service, account string) (string, error)
}

func loadWith(b ConfigBackend, kc keychain) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Gemini.APIKey == "" {
		if key, err := kc.Get("pulsedesk", "gemini_api_key"); err == nil && key != "" {
			cfg.Gemini.APIKey = key
		}
	}

	if cfg.Gemini.APIKey == "" {
		return Config{}, fmt.Errorf("missing required config: Gemini API key. " +
			"Set it via environment variable PULSEDESK_GEMINI_API_KEY")
	}

	if v := cfg.Publish.Visibility; v != "PUBLIC" && v != "CONNECTIONS" {
		return Config{}, fmt.Errorf("invalid publish.visibility %q: must be PUBLIC or CONNECTIONS", v)
	}

	return cfg, nil
}

// keychainReader reads from the local secrets file.
type keychainReader struct{}

func (keychainReader) Get(service, account string) (string, error) {
	out, err := secretGet(service, account)
	if err != nil {
		return "", err
	}
	return out, nil
}
