package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de la consola de saldos.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`
}

// EngineConfig controla el cálculo de saldos y la conversión de divisas.
type EngineConfig struct {
	// HubCurrency es la moneda pivote: toda conversión pasa por ella y las
	// cotizaciones se expresan contra ella.
	HubCurrency string `yaml:"hub_currency"`

	// ConsolidationCurrency es la moneda en la que se consolida el profit
	// de una operación. Si está vacía se usa el hub.
	ConsolidationCurrency string `yaml:"consolidation_currency"`

	FreshWindowMinutes int `yaml:"fresh_window_minutes"` // cotización oficial usable sin aviso
	StaleWindowHours   int `yaml:"stale_window_hours"`   // usable con aviso; más vieja se descarta

	// FallbackRates es la tabla curada de último recurso, moneda → tasa
	// contra el hub, como strings decimales.
	FallbackRates map[string]string `yaml:"fallback_rates"`

	WatchIntervalSeconds int `yaml:"watch_interval_seconds"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// Default devuelve la configuración con todos los defaults aplicados, para
// arrancar sin archivo YAML.
func Default() *Config {
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)
	return &cfg
}

// FreshWindow devuelve la ventana de frescura como time.Duration.
func (c *Config) FreshWindow() time.Duration {
	return time.Duration(c.Engine.FreshWindowMinutes) * time.Minute
}

// StaleWindow devuelve la ventana stale como time.Duration.
func (c *Config) StaleWindow() time.Duration {
	return time.Duration(c.Engine.StaleWindowHours) * time.Hour
}

// WatchInterval devuelve el intervalo del modo watch como time.Duration.
func (c *Config) WatchInterval() time.Duration {
	return time.Duration(c.Engine.WatchIntervalSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BANKROLL_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("BANKROLL_HUB_CURRENCY"); v != "" {
		cfg.Engine.HubCurrency = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Engine.HubCurrency == "" {
		cfg.Engine.HubCurrency = "BRL"
	}
	if cfg.Engine.ConsolidationCurrency == "" {
		cfg.Engine.ConsolidationCurrency = cfg.Engine.HubCurrency
	}
	if cfg.Engine.FreshWindowMinutes <= 0 {
		cfg.Engine.FreshWindowMinutes = 30
	}
	if cfg.Engine.StaleWindowHours <= 0 {
		cfg.Engine.StaleWindowHours = 24
	}
	if cfg.Engine.WatchIntervalSeconds <= 0 {
		cfg.Engine.WatchIntervalSeconds = 15
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "bankroll.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
