package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application.
type Config struct {
	App      AppConfig
	Backtest BacktestConfig
	SABR     SABRConfig
	API      APIConfig
	Kafka    KafkaConfig
	Metrics  MetricsConfig
}

// General application configuration.
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string
}

// Configuration for a backtest run.
type BacktestConfig struct {
	StartDate      string
	EndDate        string
	Underlying     string
	InitialCapital float64
	// Pricing model: black_scholes, bachelier, sabr or surface_greeks.
	Model string
	// Advisory label; the engine processes every available trading day.
	RebalanceFrequency string
	CostPerContract    float64
	CostPct            float64
	// Declared but not applied to any cash flow.
	SlippageBps float64
	DefaultVol  float64
}

// Static SABR parameters used when the sabr model is selected.
type SABRConfig struct {
	Alpha float64
	Beta  float64
	Rho   float64
	Nu    float64
}

// Configuration for the results API server.
type APIConfig struct {
	Enabled         bool
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Configuration for result publication to Kafka.
type KafkaConfig struct {
	Enabled      bool
	Brokers      []string
	ResultsTopic string
	TradesTopic  string
	WriteTimeout time.Duration
}

// Configuration for Prometheus metrics.
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Load reads the configuration from a file and environment variables.
func Load() (*Config, error) {
	setDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")

	if err := viper.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env vars still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	viper.SetEnvPrefix("BACKTEST")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "options-backtester")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")

	// Backtest defaults
	viper.SetDefault("backtest.start_date", "2024-01-02")
	viper.SetDefault("backtest.end_date", "2024-06-28")
	viper.SetDefault("backtest.underlying", "SPY")
	viper.SetDefault("backtest.initial_capital", 100000.0)
	viper.SetDefault("backtest.model", "black_scholes")
	viper.SetDefault("backtest.rebalance_frequency", "daily")
	viper.SetDefault("backtest.cost_per_contract", 0.65)
	viper.SetDefault("backtest.cost_pct", 0.0001)
	viper.SetDefault("backtest.slippage_bps", 1.0)
	viper.SetDefault("backtest.default_vol", 0.20)

	// SABR defaults
	viper.SetDefault("sabr.alpha", 0.2)
	viper.SetDefault("sabr.beta", 0.5)
	viper.SetDefault("sabr.rho", -0.3)
	viper.SetDefault("sabr.nu", 0.4)

	// API defaults
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", "10s")
	viper.SetDefault("api.write_timeout", "10s")
	viper.SetDefault("api.shutdown_timeout", "30s")

	// Kafka defaults
	viper.SetDefault("kafka.enabled", false)
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.results_topic", "backtest.results.daily")
	viper.SetDefault("kafka.trades_topic", "backtest.trades")
	viper.SetDefault("kafka.write_timeout", "5s")

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
}

// GetConfigPath returns the configuration file location.
func GetConfigPath() string {
	if configPath := os.Getenv("BACKTEST_CONFIG_PATH"); configPath != "" {
		return configPath
	}
	return "./config/config.yaml"
}
