// Package config loads application.yml, environment overrides and flag
// bindings into a typed Config.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override: BAKERY_SERVER_ADDR.
	EnvPrefix = "BAKERY"
	cfgName   = "application"

	ModeProduction  = "production"
	ModeDevelopment = "development"

	EngineFiber   = "fiber"
	EngineNetHTTP = "nethttp"
)

// Config is the full daemon configuration.
type Config struct {
	Server        Server        `mapstructure:"server"`
	Storage       Storage       `mapstructure:"storage"`
	LiveOps       LiveOps       `mapstructure:"liveops"`
	Auth          Auth          `mapstructure:"auth"`
	Sync          Sync          `mapstructure:"sync"`
	Logging       Logging       `mapstructure:"logging"`
	Notifications Notifications `mapstructure:"notifications"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	Mode            string        `mapstructure:"mode"`
	Engine          string        `mapstructure:"engine"`
	StaticDir       string        `mapstructure:"static_dir"`
	BasePath        string        `mapstructure:"base_path"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Production reports whether built assets should be served.
func (s Server) Production() bool {
	return s.Mode == ModeProduction
}

type Storage struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type LiveOps struct {
	OrderInterval       time.Duration `mapstructure:"order_interval"`
	AlertInterval       time.Duration `mapstructure:"alert_interval"`
	AlertProbability    float64       `mapstructure:"alert_probability"`
	OrderCapacity       int           `mapstructure:"order_capacity"`
	AlertCapacity       int           `mapstructure:"alert_capacity"`
	ManualAlertCapacity int           `mapstructure:"manual_alert_capacity"`
	MinAmount           int           `mapstructure:"min_amount"`
	AmountSpan          int           `mapstructure:"amount_span"`
}

type Auth struct {
	PIN string `mapstructure:"pin"`
}

type Sync struct {
	StepDelay time.Duration `mapstructure:"step_delay"`
}

type Logging struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type Notifications struct {
	AMQPURL  string `mapstructure:"amqp_url"`
	Exchange string `mapstructure:"exchange"`
}

var defaults = map[string]any{
	"server.addr":                   ":8080",
	"server.metrics_addr":           ":9091",
	"server.mode":                   ModeDevelopment,
	"server.engine":                 EngineFiber,
	"server.static_dir":             "dist",
	"server.base_path":              "",
	"server.shutdown_timeout":       "10s",
	"storage.driver":                "sqlite",
	"storage.dsn":                   "file:bakeryops.db?_pragma=busy_timeout(5000)",
	"liveops.order_interval":        "4s",
	"liveops.alert_interval":        "10s",
	"liveops.alert_probability":     0.3,
	"liveops.order_capacity":        10,
	"liveops.alert_capacity":        5,
	"liveops.manual_alert_capacity": 10,
	"liveops.min_amount":            50,
	"liveops.amount_span":           500,
	"auth.pin":                      "3130",
	"sync.step_delay":               "1s",
	"logging.level":                 "info",
	"logging.development":           false,
	"notifications.amqp_url":        "",
	"notifications.exchange":        "bakeryops.live",
}

// New returns a viper instance with defaults, env overrides and the config
// search paths set. Callers may bind flags before passing it to Load.
func New(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(cfgName)
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}
	return v
}

// Load reads the config file (optional unless set explicitly) and decodes
// it into Config.
func Load(v *viper.Viper) mo.Result[Config] {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return mo.Err[Config](fmt.Errorf("config: read: %w", err))
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return mo.Err[Config](fmt.Errorf("config: decode: %w", err))
	}
	if err := cfg.Validate(); err != nil {
		return mo.Err[Config](err)
	}
	return mo.Ok(cfg)
}

// Validate rejects values the daemon cannot run with.
func (c Config) Validate() error {
	if !lo.Contains([]string{ModeProduction, ModeDevelopment}, c.Server.Mode) {
		return fmt.Errorf("config: server.mode must be %s or %s, got %q", ModeProduction, ModeDevelopment, c.Server.Mode)
	}
	if !lo.Contains([]string{EngineFiber, EngineNetHTTP}, c.Server.Engine) {
		return fmt.Errorf("config: server.engine must be %s or %s, got %q", EngineFiber, EngineNetHTTP, c.Server.Engine)
	}
	if strings.TrimSpace(c.Auth.PIN) == "" {
		return errors.New("config: auth.pin is required")
	}
	if c.LiveOps.AlertProbability < 0 || c.LiveOps.AlertProbability > 1 {
		return fmt.Errorf("config: liveops.alert_probability must be within [0,1], got %v", c.LiveOps.AlertProbability)
	}
	if c.Sync.StepDelay < 0 {
		return errors.New("config: sync.step_delay cannot be negative")
	}
	return nil
}
