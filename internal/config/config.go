// Package config は既定値・YAMLファイル・環境変数の順に設定を読み込みます
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigEnv は設定ファイルのパスを指定する環境変数です
const ConfigEnv = "AUTOSNIPER_CONFIG"

// Config holds all configuration values.
type Config struct {
	// データセット
	DataDir          string `yaml:"data_dir"`
	LinksFile        string `yaml:"links_file"`
	CanonicalFile    string `yaml:"canonical_file"`
	ActiveFile       string `yaml:"active_file"`
	SoldFile         string `yaml:"sold_file"`
	ReferredFile     string `yaml:"referred_file"`
	VerdictsFile     string `yaml:"verdicts_file"`
	SkippedLinksFile string `yaml:"skipped_links_file"`

	// スクレイピング
	BaseURL       string        `yaml:"base_url"`
	SearchPath    string        `yaml:"search_path"`
	HTTPTimeout   time.Duration `yaml:"http_timeout"`
	FetchAttempts int           `yaml:"fetch_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`

	// サーバー
	Port string `yaml:"port"`

	// ログ
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`

	// 価格推定
	LLMModel     string `yaml:"llm_model"`
	OpenAIAPIKey string `yaml:"openai_api_key"`

	// PostgreSQL への複製（DSN が空なら無効）
	PGDSN      string `yaml:"pg_dsn"`
	PGSchema   string `yaml:"pg_schema"`
	PGMaxConns int    `yaml:"pg_max_conns"`
}

// Default は既定値の設定を返します
func Default() Config {
	return Config{
		DataDir:          "CSV_data",
		LinksFile:        "all_vehicle_links.csv",
		CanonicalFile:    "vehicle_static_details.csv",
		ActiveFile:       "active_vehicle_details.csv",
		SoldFile:         "sold_cars.csv",
		ReferredFile:     "referred_cars.csv",
		VerdictsFile:     "ai_verdicts.csv",
		SkippedLinksFile: "skipped_links.txt",

		BaseURL:       "https://www.grays.com",
		SearchPath:    "/search/automotive-trucks-and-marine/motor-vehiclesmotor-cycles/motor-vehicles",
		HTTPTimeout:   30 * time.Second,
		FetchAttempts: 2,
		RetryDelay:    2 * time.Second,

		Port: "8080",

		LogFile:  filepath.Join(os.TempDir(), "autosniper.log"),
		LogLevel: "INFO",

		LLMModel: "gpt-4",

		PGMaxConns: 2,
	}
}

// Load は既定値に設定ファイルと環境変数を順に上書きして返します
// path が空の場合は AUTOSNIPER_CONFIG を参照し、それも空ならファイルは読みません
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.DataDir, "AUTOSNIPER_DATA_DIR")
	setString(&c.BaseURL, "AUTOSNIPER_BASE_URL")
	setString(&c.SearchPath, "AUTOSNIPER_SEARCH_PATH")
	setString(&c.LogFile, "AUTOSNIPER_LOG_FILE")
	setString(&c.LogLevel, "AUTOSNIPER_LOG_LEVEL")
	setString(&c.LLMModel, "AUTOSNIPER_LLM_MODEL")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIAPIKey, "AUTOSNIPER_OPENAI_API_KEY")
	setString(&c.PGDSN, "AUTOSNIPER_PG_DSN")
	setString(&c.PGSchema, "AUTOSNIPER_PG_SCHEMA")
	setString(&c.Port, "PORT")
	setString(&c.Port, "AUTOSNIPER_PORT")

	var errs []error
	errs = append(errs,
		setDuration(&c.HTTPTimeout, "AUTOSNIPER_HTTP_TIMEOUT"),
		setDuration(&c.RetryDelay, "AUTOSNIPER_RETRY_DELAY"),
		setInt(&c.FetchAttempts, "AUTOSNIPER_FETCH_ATTEMPTS"),
		setInt(&c.PGMaxConns, "AUTOSNIPER_PG_MAX_CONNS"),
	)
	return errors.Join(errs...)
}

// Path はデータディレクトリ配下のファイルパスを返します
func (c Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// Level はログレベルを slog.Level に変換します
func (c Config) Level() slog.Level {
	return parseLogLevel(c.LogLevel)
}

// MirrorEnabled は PostgreSQL への複製を行うかどうかを返します
func (c Config) MirrorEnabled() bool {
	return strings.TrimSpace(c.PGDSN) != ""
}

func setString(dst *string, key string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func setDuration(dst *time.Duration, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func setInt(dst *int, key string) error {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
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
