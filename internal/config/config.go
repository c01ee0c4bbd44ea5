package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// Backend
	APIURL      string
	Module      string
	PageLimit   int
	HTTPTimeout time.Duration

	// Statistics
	StatsTimeout time.Duration

	// Gateway
	GatewayAddr string

	// Local state
	DataDir string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// fileConfig is the optional config.yaml overlay in the data dir.
// Environment variables win over file values.
type fileConfig struct {
	APIURL       string `yaml:"api_url"`
	Module       string `yaml:"module"`
	PageLimit    int    `yaml:"page_limit"`
	HTTPTimeout  string `yaml:"http_timeout"`
	StatsTimeout string `yaml:"stats_timeout"`
	GatewayAddr  string `yaml:"gateway_addr"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
}

// Load reads configuration from config.yaml (if present) and environment
// variables, env taking precedence.
func Load() Config {
	dataDir := getEnv("HELPDESK_DATA_DIR", defaultDataDir())
	fc := loadFile(filepath.Join(dataDir, "config.yaml"))

	cfg := Config{
		APIURL:       getEnvOr("HELPDESK_API_URL", fc.APIURL, "http://localhost:5000"),
		Module:       getEnvOr("HELPDESK_MODULE", fc.Module, "IT"),
		PageLimit:    parseInt(getEnvOr("HELPDESK_PAGE_LIMIT", itoa(fc.PageLimit), "10"), 10),
		HTTPTimeout:  parseDuration(getEnvOr("HELPDESK_HTTP_TIMEOUT", fc.HTTPTimeout, "30s"), 30*time.Second),
		StatsTimeout: parseDuration(getEnvOr("HELPDESK_STATS_TIMEOUT", fc.StatsTimeout, "10s"), 10*time.Second),
		GatewayAddr:  getEnvOr("HELPDESK_GATEWAY_ADDR", fc.GatewayAddr, ":3000"),
		DataDir:      dataDir,
		LogFile:      getEnvOr("HELPDESK_LOG_FILE", fc.LogFile, filepath.Join(dataDir, "helpdesk.log")),
		LogLevel:     parseLogLevel(getEnvOr("HELPDESK_LOG_LEVEL", fc.LogLevel, "INFO")),
	}
	return cfg
}

// AuthDBPath is the sqlite file holding the logged-in user.
func (c Config) AuthDBPath() string {
	return filepath.Join(c.DataDir, "helpdesk.db")
}

// StatsCachePath is the sqlite file holding cached statistics snapshots.
func (c Config) StatsCachePath() string {
	return filepath.Join(c.DataDir, "stats.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".helpdesk"
	}
	return filepath.Join(home, ".helpdesk")
}

func loadFile(path string) fileConfig {
	var fc fileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		slog.Warn("ignoring malformed config file", "file", path, "error", err)
		return fileConfig{}
	}
	return fc
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvOr resolves env, then the config file, then the built-in default.
func getEnvOr(key, fileVal, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if fileVal != "" {
		return fileVal
	}
	return defaultVal
}

func itoa(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func parseInt(s string, defaultVal int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return defaultVal
	}
	return n
}

func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
