package focuspulse

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// TelexWebhookURL may be empty; the agent then logs notifications
	// instead of delivering them.
	TelexWebhookURL string `envconfig:"TELEX_WEBHOOK_URL"`

	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
	OpenAIModel  string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`

	Port              int `envconfig:"FOCUSPULSE_PORT" default:"8090"`
	DigestPollSeconds int `envconfig:"FOCUSPULSE_DIGEST_POLL_SECONDS" default:"30"`
}

func LoadConfig() (Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}

	if cfg.OpenAIAPIKey == "" {
		return Config{}, fmt.Errorf("required environment variable: OPENAI_API_KEY")
	}
	return cfg, nil
}
