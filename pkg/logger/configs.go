package logger

import "os"

const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

type Config struct {
	// Level is one of debug, info, warning, error. Anything else means info.
	Level string `yaml:"level" envconfig:"ZAP_LOGGER_LEVEL"`
}

// NewConfig reads the log level from the environment.
func NewConfig() Config {
	return Config{Level: os.Getenv("ZAP_LOGGER_LEVEL")}
}
