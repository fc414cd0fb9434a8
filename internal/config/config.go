package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Penny"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"penny"`
	}

	Server struct {
		Timeout time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
	}

	// API is where the TUI client reaches the running server.
	API struct {
		URL   string `envconfig:"PENNY_API_URL" default:"http://localhost:8080"`
		Token string `envconfig:"PENNY_API_TOKEN"`
	}

	Gemini struct {
		APIKey  string        `envconfig:"GEMINI_API_KEY"`
		Model   string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
		Timeout time.Duration `envconfig:"GEMINI_TIMEOUT" default:"60s"`
	}

	Cognito struct {
		Region     string `envconfig:"AWS_REGION" default:"us-east-1"`
		UserPoolID string `envconfig:"COGNITO_USER_POOL_ID"`
		ClientID   string `envconfig:"COGNITO_CLIENT_ID"`
	}

	Log struct {
		Level string `envconfig:"LOG_LEVEL" default:"info"`
		JSON  bool   `envconfig:"LOG_JSON" default:"false"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
