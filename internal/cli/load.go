package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/wikimend/internal/model"
)

// loadConfig builds the effective configuration: defaults, overlaid by
// the config file, with secrets pulled from the environment. Secrets
// never live in the config file.
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvSecrets(cfg)
	return cfg, nil
}

func applyEnvSecrets(cfg *model.Config) {
	switch cfg.Agent.Provider {
	case "openai":
		cfg.Agent.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic", "claude":
		cfg.Agent.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "ollama":
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Agent.BaseURL = baseURL
		}
	}

	cfg.Wikipedia.Username = os.Getenv("WIKIMEND_USERNAME")
	cfg.Wikipedia.Password = os.Getenv("WIKIMEND_PASSWORD")
	cfg.Sources.SemanticScholarAPIKey = os.Getenv("SEMANTIC_SCHOLAR_API_KEY")
}

// requireAgentKey fails early when the configured provider needs an
// API key that is not set.
func requireAgentKey(cfg *model.Config) error {
	switch cfg.Agent.Provider {
	case "openai":
		if cfg.Agent.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.Agent.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	}
	return nil
}
