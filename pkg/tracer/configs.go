package tracer

import "os"

// Config holds the tracer settings.
type Config struct {
	// ServiceName is the service.name resource attribute on every span.
	ServiceName string `yaml:"service_name" envconfig:"TRACER_SERVICE_NAME"`

	// AppEnv tags spans with the deployment environment, e.g. "production".
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// EnableExport turns on the OTLP HTTP exporter. The endpoint is taken
	// from the standard OTEL_EXPORTER_OTLP_* environment variables.
	EnableExport bool `yaml:"enable_export" envconfig:"TRACER_ENABLE_EXPORT"`
}

// NewConfig reads the tracer settings from the environment.
func NewConfig() Config {
	serviceName := os.Getenv("TRACER_SERVICE_NAME")
	if serviceName == "" {
		serviceName = "pgsearch"
	}
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}
	return Config{
		ServiceName:  serviceName,
		AppEnv:       appEnv,
		EnableExport: os.Getenv("TRACER_ENABLE_EXPORT") == "true",
	}
}
