package postgres

import (
	"os"
	"time"
)

type Config struct {
	Connection        Connection
	ConnectionDetails ConnectionDetails
}

type Connection struct {
	Host     string `yaml:"host" envconfig:"POSTGRES_HOST"`
	Port     string `yaml:"port" envconfig:"POSTGRES_PORT"`
	User     string `yaml:"user" envconfig:"POSTGRES_USER"`
	Password string `yaml:"password" envconfig:"POSTGRES_PASSWORD"`
	DbName   string `yaml:"dbname" envconfig:"POSTGRES_DB"`
	SSLMode  string `yaml:"sslmode" envconfig:"POSTGRES_SSLMODE"`
}

type ConnectionDetails struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewConfig reads the connection settings from the environment.
func NewConfig() Config {
	return Config{
		Connection: Connection{
			Host:     getenvDefault("POSTGRES_HOST", "localhost"),
			Port:     getenvDefault("POSTGRES_PORT", "5432"),
			User:     getenvDefault("POSTGRES_USER", "postgres"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DbName:   getenvDefault("POSTGRES_DB", "postgres"),
			SSLMode:  getenvDefault("POSTGRES_SSLMODE", "disable"),
		},
		ConnectionDetails: ConnectionDetails{
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: time.Minute,
		},
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
