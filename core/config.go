package core

import (
	"fmt"
	"strings"
)

type AuthPromptsConfig struct {
	Password        string `koanf:"password" mapstructure:"password"`
	InvalidPassword string `koanf:"invalid_password" mapstructure:"invalid_password"`
}

type PromptsConfig struct {
	Auth AuthPromptsConfig `koanf:"auth" mapstructure:"auth"`
}

type SessionConfig struct {
	// SkipAuth pre-authenticates every session created without an explicit
	// per-session override.
	SkipAuth bool `koanf:"skip_auth" mapstructure:"skip_auth"`
}

type Config struct {
	ServiceName string        `koanf:"service_name" mapstructure:"service_name"`
	Prompts     PromptsConfig `koanf:"prompts" mapstructure:"prompts"`
	Session     SessionConfig `koanf:"session" mapstructure:"session"`
}

func DefaultConfig() Config {
	return Config{
		ServiceName: "vmauth",
		Prompts: PromptsConfig{
			Auth: AuthPromptsConfig{
				Password:        "vm-password",
				InvalidPassword: "vm-incorrect",
			},
		},
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.ServiceName) == "" {
		return fmt.Errorf("core: service_name is required")
	}
	if strings.TrimSpace(c.Prompts.Auth.Password) == "" {
		return fmt.Errorf("core: prompts.auth.password is required")
	}
	if strings.TrimSpace(c.Prompts.Auth.InvalidPassword) == "" {
		return fmt.Errorf("core: prompts.auth.invalid_password is required")
	}
	return nil
}
