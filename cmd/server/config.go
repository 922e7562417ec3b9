package main

import (
	"fmt"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// AppConfig is read once at startup from the environment (a .env file is
// honored in development) and never mutated after.
type AppConfig struct {
	Addr  string `env:"SERVER_ADDR,default=:8080"`
	Debug bool   `env:"DEBUG,default=false"`

	DB struct {
		Driver string `env:"DB_DRIVER,default=sqlite"`
		DSN    string `env:"DB_DSN,default=file:notice.db?cache=shared&_fk=1"`
	}

	JWT struct {
		SigningKey string        `env:"JWT_SIGNING_KEY,required"`
		Expiration time.Duration `env:"JWT_EXPIRATION,default=24h"`
		Issuer     string        `env:"JWT_ISSUER,default=notice-server"`
	}

	Firebase struct {
		ProjectID string `env:"FIREBASE_PROJECT_ID"`
	}

	SMTP struct {
		Host     string `env:"SMTP_HOST"`
		Port     int    `env:"SMTP_PORT,default=587"`
		Username string `env:"SMTP_USERNAME"`
		Password string `env:"SMTP_PASSWORD"`
		From     string `env:"SMTP_FROM"`
	}
}

func loadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	cfg := &AppConfig{}
	if err := envdecode.StrictDecode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}

// tokenConfig adapts AppConfig to the getter interface the auth package
// expects.
type tokenConfig struct {
	cfg *AppConfig
}

func (t tokenConfig) GetSigningKey() string { return t.cfg.JWT.SigningKey }

func (t tokenConfig) GetTokenExpiration() int {
	return int(t.cfg.JWT.Expiration / time.Hour)
}

func (t tokenConfig) GetIssuer() string { return t.cfg.JWT.Issuer }
