package observability

import (
	"os"
	"strconv"
	"strings"

	"github.com/smallbiznis/invoicedesk/internal/config"
)

// Config is the observability slice of the process configuration.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	// AccountingEnvironment is sandbox or production.
	AccountingEnvironment string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "invoicedesk"
	}
	protocol := strings.ToLower(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = strings.ToLower(traces)
	}

	return Config{
		ServiceName:           serviceName,
		Environment:           getenv("DEPLOYMENT_ENV", cfg.Environment),
		Version:               getenv("SERVICE_VERSION", cfg.AppVersion),
		AccountingEnvironment: cfg.OAuth.Environment,
		LogLevel:              strings.ToLower(getenv("LOG_LEVEL", defaultLogLevel(cfg.Environment))),
		LogFormat:             strings.ToLower(getenv("LOG_FORMAT", "json")),
		OtelEnabled:           getenvBool("OTEL_ENABLED", false),
		OtelExporterEndpoint:  getenv("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol:  protocol,
		OtelSamplingRatio:     getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
	}
}

func defaultLogLevel(environment string) string {
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "dev", "development", "local", "test":
		return "debug"
	default:
		return "info"
	}
}

func getenv(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(def)
}

func getenvBool(key string, def bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed < 0 || parsed > 1 {
		return def
	}
	return parsed
}
