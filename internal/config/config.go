package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port    string `mapstructure:"PORT"`
	Env     string `mapstructure:"ENV"`
	AppName string `mapstructure:"APP_NAME"`

	// vacío => repos in-memory
	DBDSN string `mapstructure:"DB_DSN"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	Timezone      string `mapstructure:"TIMEZONE"`
	HorizonMonths int    `mapstructure:"HORIZON_MONTHS"`
	BatchSize     int    `mapstructure:"BATCH_SIZE"`

	AuthSigningKey    string        `mapstructure:"AUTH_SIGNING_KEY"`
	AuthTokenTTL      time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	AdminEmail        string        `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash string        `mapstructure:"ADMIN_PASSWORD_HASH"`

	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	FormularyFile     string        `mapstructure:"FORMULARY_FILE"`
	FormularyURL      string        `mapstructure:"FORMULARY_URL"`
	FormularyAPIKey   string        `mapstructure:"FORMULARY_API_KEY"`
	FormularyInterval time.Duration `mapstructure:"FORMULARY_REFRESH_INTERVAL"`

	OTLPEndpoint  string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTELSampleRate float64 `mapstructure:"OTEL_SAMPLE_RATE"`
}

var keys = []string{
	"PORT", "ENV", "APP_NAME", "DB_DSN", "LOG_LEVEL", "LOG_FORMAT",
	"TIMEZONE", "HORIZON_MONTHS", "BATCH_SIZE",
	"AUTH_SIGNING_KEY", "AUTH_TOKEN_TTL", "ADMIN_EMAIL", "ADMIN_PASSWORD_HASH",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
	"FORMULARY_FILE", "FORMULARY_URL", "FORMULARY_API_KEY", "FORMULARY_REFRESH_INTERVAL",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SAMPLE_RATE",
}

// Load lee variables de entorno y, si existe, el archivo indicado (o .env).
func Load(file string) (*Config, error) {
	v := viper.New()
	if file == "" {
		file = ".env"
	}
	v.SetConfigFile(file)
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("APP_NAME", "oncology-dispatch")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("TIMEZONE", "America/Bogota")
	v.SetDefault("HORIZON_MONTHS", 6)
	v.SetDefault("BATCH_SIZE", 400)
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("KAFKA_TOPIC", "despachos.eventos")
	v.SetDefault("FORMULARY_REFRESH_INTERVAL", "1h")
	v.SetDefault("OTEL_SAMPLE_RATE", 1.0)

	// Unmarshal solo ve claves conocidas por viper
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// .env es opcional; uno explícito que no se puede leer sí es error
	if err := v.ReadInConfig(); err != nil && file != ".env" {
		return nil, fmt.Errorf("read config %s: %w", file, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// Location resuelve TIMEZONE; "hoy" se calcula en esa zona.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func (c *Config) Validate() error {
	if c.HorizonMonths < 1 {
		return fmt.Errorf("HORIZON_MONTHS must be >= 1, got %d", c.HorizonMonths)
	}
	if c.BatchSize < 1 {
		return fmt.Errorf("BATCH_SIZE must be >= 1, got %d", c.BatchSize)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be within [0,1], got %v", c.OTELSampleRate)
	}
	// fuera de dev se exige el login gate
	if !c.IsDev() && strings.TrimSpace(c.AuthSigningKey) == "" {
		return fmt.Errorf("AUTH_SIGNING_KEY is required when ENV=%q", c.Env)
	}
	return nil
}
