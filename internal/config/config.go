package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds process-level configuration loaded from the environment
type Config struct {
	Environment string
	LogDir      string

	Exchange struct {
		APIKey    string
		APISecret string
		Category  string
		Testnet   bool
		Demo      bool
	}

	Trading struct {
		Symbols          []string
		InitialValue     float64
		CycleInterval    time.Duration
		MonitorInterval  time.Duration
		WeightInterval   time.Duration
		HistoryWindow    int
	}

	Monitoring struct {
		APIPort        int
		PrometheusPort int
	}
}

// Load reads process configuration from environment variables
func Load() *Config {
	cfg := &Config{
		Environment: getEnv("ENV", "development"),
		LogDir:      getEnv("LOG_DIR", "logs"),
	}

	cfg.Exchange.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Exchange.APISecret = getEnv("BYBIT_API_SECRET", "")
	cfg.Exchange.Category = getEnv("BYBIT_CATEGORY", "spot")
	cfg.Exchange.Testnet = getEnvBool("BYBIT_TESTNET", true)
	cfg.Exchange.Demo = getEnvBool("BYBIT_DEMO", false)

	cfg.Trading.Symbols = splitList(getEnv("TRADING_SYMBOLS", "BTCUSDT"))
	cfg.Trading.InitialValue = getEnvFloat("INITIAL_PORTFOLIO_VALUE", 100000.0)
	cfg.Trading.CycleInterval = getEnvDuration("SIGNAL_CYCLE_INTERVAL", time.Minute)
	cfg.Trading.MonitorInterval = getEnvDuration("RISK_MONITOR_INTERVAL", 10*time.Second)
	cfg.Trading.WeightInterval = getEnvDuration("WEIGHT_RECOMPUTE_INTERVAL", time.Hour)
	cfg.Trading.HistoryWindow = getEnvInt("MARKET_HISTORY_WINDOW", 200)

	cfg.Monitoring.APIPort = getEnvInt("API_PORT", 8080)
	cfg.Monitoring.PrometheusPort = getEnvInt("PROMETHEUS_PORT", 9090)

	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func splitList(val string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(val); i++ {
		if i == len(val) || val[i] == ',' {
			if i > start {
				out = append(out, val[start:i])
			}
			start = i + 1
		}
	}
	return out
}
