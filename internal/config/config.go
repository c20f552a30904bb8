package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries the messaging service and engine settings, populated from
// the environment (optionally seeded from a .env file).
type Config struct {
	Port          string `envconfig:"PORT" default:"8083"`
	PublicBaseURL string `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8083"`
	Environment   string `envconfig:"ENVIRONMENT" default:"dev"`

	DBDSN string `envconfig:"DB_DSN"`

	JWTSecret string `envconfig:"JWT_SECRET" default:"dev-secret"`

	AMQPURL      string `envconfig:"AMQP_URL"`
	AMQPExchange string `envconfig:"AMQP_EXCHANGE" default:"chat_sync_events"`

	OTLPEndpoint string `envconfig:"OTLP_ENDPOINT"`

	UploadDir      string `envconfig:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes int64  `envconfig:"MAX_UPLOAD_BYTES" default:"5242880"`

	DebugRoutes bool `envconfig:"DEBUG_ROUTES"`
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	return cfg, nil
}
