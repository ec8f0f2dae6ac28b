package cli

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds CLI configuration. Flags override the environment
type Config struct {
	ServerURL string `env:"DOMON_SERVER" envDefault:"http://localhost:8080"`
	Token     string `env:"DOMON_TOKEN"`
	User      string `env:"DOMON_USER"`
	Name      string `env:"DOMON_NAME"`
	Channel   string `env:"DOMON_CHANNEL" envDefault:"general"`
	Scope     string `env:"DOMON_SCOPE"`
	Output    string `env:"DOMON_OUTPUT" envDefault:"text"`
	Verbose   bool   `env:"DOMON_VERBOSE"`
}

// LoadConfig reads the CLI configuration from the environment
func LoadConfig() (*Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &c, nil
}

// DisplayName returns the name to act under, falling back to the user id
func (c *Config) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.User
}

// BattleScope returns the scope battles are looked up in
func (c *Config) BattleScope() string {
	if c.Scope != "" {
		return c.Scope
	}
	return c.Channel
}

func (c *Config) requireUser() error {
	if c.User == "" {
		return fmt.Errorf("--user is required (env: DOMON_USER)")
	}
	return nil
}
