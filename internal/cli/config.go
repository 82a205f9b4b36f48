// Package cli holds the admin CLI's profile file and output formatting.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by GetProfile.
const (
	EnvConfigPath = "INTERCEPTOR_CONFIG"
	EnvBaseURL    = "INTERCEPTOR_BASE_URL"
	EnvAPIKey     = "INTERCEPTOR_API_KEY"
)

// Config represents the CLI configuration
type Config struct {
	DefaultProfile string             `yaml:"default_profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is one server the CLI can talk to
type Profile struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// GetConfigPath returns the path to the config file: $INTERCEPTOR_CONFIG when
// set, otherwise ~/.interceptor/config.yaml.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".interceptor", "config.yaml"), nil
}

// LoadConfig loads the configuration from file
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{
				DefaultProfile: "local",
				Profiles:       make(map[string]Profile),
			}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to file
func SaveConfig(cfg *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetProfile resolves the server to talk to.
// Priority: command flags > environment variables > config file.
// Returns the profile and the effective profile name.
func GetProfile(name, baseURLFlag, apiKeyFlag string) (*Profile, string, error) {
	envBaseURL := os.Getenv(EnvBaseURL)
	envAPIKey := os.Getenv(EnvAPIKey)

	// Flags or environment alone are enough; no file needed
	baseURL := firstNonEmpty(baseURLFlag, envBaseURL)
	apiKey := firstNonEmpty(apiKeyFlag, envAPIKey)
	if baseURL != "" && apiKey != "" {
		if name == "" {
			name = "adhoc"
		}
		return &Profile{BaseURL: baseURL, APIKey: apiKey}, name, nil
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, "", err
	}

	if name == "" {
		name = cfg.DefaultProfile
	}

	p, ok := cfg.Profiles[name]
	if !ok {
		return nil, "", fmt.Errorf("profile '%s' not found in config", name)
	}

	if baseURL != "" {
		p.BaseURL = baseURL
	}
	if apiKey != "" {
		p.APIKey = apiKey
	}

	if p.BaseURL == "" || p.APIKey == "" {
		return nil, "", fmt.Errorf("base_url and api_key must be configured for profile '%s'", name)
	}

	return &p, name, nil
}

// InitConfig creates a default config file
func InitConfig() error {
	cfg := &Config{
		DefaultProfile: "local",
		Profiles: map[string]Profile{
			"local": {
				BaseURL: "http://localhost:8080",
				APIKey:  "admin-123",
			},
			"prod": {
				BaseURL: "https://interceptor.example.com",
				APIKey:  "change-me",
			},
		},
	}

	return SaveConfig(cfg)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
