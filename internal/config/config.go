package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env          string `yaml:"env" env-default:"local"`
	Tokens       `yaml:"tokens"`
	OTP          `yaml:"otp"`
	Registration `yaml:"registration"`
	Postgres     `yaml:"postgres"`
	RabbitMQ     `yaml:"rabbitmq"`
	Email        `yaml:"email"`
	HTTPServer   `yaml:"http_server"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env-default:"postgres"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"password" env-required:"true"`
	DBName   string `yaml:"dbname" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disabled"`
}

type Tokens struct {
	SessionTokenTTL    time.Duration `yaml:"session_token_ttl" env-default:"30m"`
	SessionTokenSecret string        `yaml:"session_token_secret" env-required:"true"`
}

type OTP struct {
	CodeTTL    time.Duration `yaml:"code_ttl" env-default:"2m"`
	CodeDigits int           `yaml:"code_digits" env-default:"4"`
}

// AllowedEmailDomain restricts registration to one mail domain.
// Empty allows any address.
type Registration struct {
	AllowedEmailDomain string `yaml:"allowed_email_domain" env-default:""`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env-required:"true"`
	QueueName string `yaml:"queue_name" env-required:"true"`
}

type Email struct {
	Host     string `yaml:"host" env-default:"smtp.gmail.com"`
	Port     int    `yaml:"port" env-default:"465"`
	Username string `yaml:"username" env-default:""`
	Password string `yaml:"password" env-default:""`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
