package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-bakeryops/pkg/config"
)

var (
	cfgFile string
	v       *viper.Viper
)

var rootCmd = &cobra.Command{
	Use:   "bakeryd",
	Short: "Bakery operations dashboard server",
	Long: `bakeryd serves the bakery operations dashboard: the login gate, the
simulated live feed, the estimators, the scripted sync and the log API.

Configuration is read from application.yml (or --config), BAKERY_* environment
variables and the flags below, in increasing order of precedence.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		v = config.New(cfgFile)
		bindFlags(cmd, v)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(v).Get()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg, logger)
	},
}

// flag name -> config key
var flagKeys = map[string]string{
	"addr":           "server.addr",
	"metrics-addr":   "server.metrics_addr",
	"mode":           "server.mode",
	"engine":         "server.engine",
	"static-dir":     "server.static_dir",
	"storage-driver": "storage.driver",
	"storage-dsn":    "storage.dsn",
	"pin":            "auth.pin",
	"log-level":      "logging.level",
	"amqp-url":       "notifications.amqp_url",
}

func init() {
	flags := rootCmd.Flags()
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./application.yml or ./config/application.yml)")
	flags.String("addr", ":8080", "HTTP listen address")
	flags.String("metrics-addr", ":9091", "metrics and event stream listen address (fiber engine)")
	flags.String("mode", config.ModeDevelopment, "production serves built assets from --static-dir")
	flags.String("engine", config.EngineFiber, "HTTP engine: fiber or nethttp")
	flags.String("static-dir", "dist", "directory of the built front end")
	flags.String("storage-driver", "sqlite", "log store driver: sqlite, sqlite3, pgx, postgres, mysql")
	flags.String("storage-dsn", "", "log store data source name")
	flags.String("pin", "", "login pin")
	flags.String("log-level", "info", "log level")
	flags.String("amqp-url", "", "publish live feed events to this RabbitMQ URL")
}

// bindFlags binds only the flags the user set, so unset flags do not
// shadow the config file.
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			_ = v.BindPFlag(key, f)
		}
	}
}

func newLogger(cfg config.Logging) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
