package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Scanner ScannerConfig `mapstructure:"scanner"`
	NSE     NSEConfig     `mapstructure:"nse"`
	Market  MarketConfig  `mapstructure:"market"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type ScannerConfig struct {
	Symbols               []string `mapstructure:"symbols"`
	MaxWorkers            int      `mapstructure:"max_workers"`
	FetchTimeoutSeconds   int      `mapstructure:"fetch_timeout_seconds"`
	HighCarryThresholdPct float64  `mapstructure:"high_carry_threshold_pct"`
	RefreshSchedule       string   `mapstructure:"refresh_schedule"`
	ExpiryFormats         []string `mapstructure:"expiry_formats"`
}

type NSEConfig struct {
	BaseURL               string  `mapstructure:"base_url"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds"`
	RatePerSecond         float64 `mapstructure:"rate_per_second"`
	RateBurst             int     `mapstructure:"rate_burst"`
	UserAgent             string  `mapstructure:"user_agent"`
}

type MarketConfig struct {
	Timezone string `mapstructure:"timezone"`
	Open     string `mapstructure:"open"`
	Close    string `mapstructure:"close"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/carrydash")
	}

	v.SetEnvPrefix("CARRYDASH")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; use defaults and environment
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)

	// Scanner defaults
	v.SetDefault("scanner.symbols", []string{
		"INFY", "TCS", "RELIANCE", "HDFCBANK", "ITC", "ICICIBANK",
	})
	v.SetDefault("scanner.max_workers", 70)
	v.SetDefault("scanner.fetch_timeout_seconds", 10)
	v.SetDefault("scanner.high_carry_threshold_pct", 8.0)
	v.SetDefault("scanner.refresh_schedule", "@every 60s")
	v.SetDefault("scanner.expiry_formats", []string{"02-Jan-2006", "2006-01-02"})

	// NSE defaults
	v.SetDefault("nse.base_url", "https://www.nseindia.com")
	v.SetDefault("nse.request_timeout_seconds", 10)
	v.SetDefault("nse.rate_per_second", 10.0)
	v.SetDefault("nse.rate_burst", 20)
	v.SetDefault("nse.user_agent", "")

	// Market hours defaults (NSE: 09:15-15:30 IST, Mon-Fri)
	v.SetDefault("market.timezone", "Asia/Kolkata")
	v.SetDefault("market.open", "09:15")
	v.SetDefault("market.close", "15:30")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
