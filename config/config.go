package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env      string         `mapstructure:"env"`
	Market   MarketConfig   `mapstructure:"market"`
	Excel    ExcelConfig    `mapstructure:"excel"`
	Sheets   SheetsConfig   `mapstructure:"sheets"`
	Report   ReportConfig   `mapstructure:"report"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Export   ExportConfig   `mapstructure:"export"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// MarketConfig points the fetcher at the CoinGecko markets endpoint.
type MarketConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	VsCurrency     string        `mapstructure:"vs_currency"`
	PageSize       int           `mapstructure:"page_size"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RequestsPerMin float64       `mapstructure:"requests_per_min"`
}

type ExcelConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	SheetName string `mapstructure:"sheet_name"`
}

// SheetsConfig locates the remote Google Sheet. SpreadsheetID wins over
// SpreadsheetName when both are set. CredentialsParameter, when non-empty,
// names an SSM parameter holding the service-account JSON and takes the place
// of CredentialsPath.
type SheetsConfig struct {
	Enabled              bool   `mapstructure:"enabled"`
	SpreadsheetName      string `mapstructure:"spreadsheet_name"`
	SpreadsheetID        string `mapstructure:"spreadsheet_id"`
	CredentialsPath      string `mapstructure:"credentials_path"`
	CredentialsParameter string `mapstructure:"credentials_parameter"`
}

type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
	TopN    int    `mapstructure:"top_n"`
}

type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Align    bool          `mapstructure:"align"`
}

// ExportConfig controls the optional flat-file copy of each snapshot.
// An empty Format disables it.
type ExportConfig struct {
	Format string `mapstructure:"format"` // "csv", "json" or "parquet"
	Dir    string `mapstructure:"dir"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "dev")

	v.SetDefault("market.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("market.vs_currency", "usd")
	v.SetDefault("market.page_size", 50)
	v.SetDefault("market.timeout", 15*time.Second)
	v.SetDefault("market.requests_per_min", 10)

	v.SetDefault("excel.enabled", true)
	v.SetDefault("excel.path", "data/crypto_data.xlsx")
	v.SetDefault("excel.sheet_name", "Crypto Market Data")

	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.spreadsheet_name", "Crypto_Tracker")
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.credentials_path", "credentials.json")
	v.SetDefault("sheets.credentials_parameter", "")

	v.SetDefault("report.enabled", true)
	v.SetDefault("report.path", "data/crypto_report.pdf")
	v.SetDefault("report.top_n", 5)

	v.SetDefault("schedule.interval", 300*time.Second)
	v.SetDefault("schedule.align", false)

	v.SetDefault("export.format", "")
	v.SetDefault("export.dir", "data")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.dbname", "cryptotracker")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
}

// DefaultPath is read when no config file is named. Unlike an explicit
// path, it may be absent.
const DefaultPath = "config/config.yaml"

// Load loads application configuration using Viper.
// It reads the YAML file at path, or DefaultPath when path is empty and that
// file exists, and overrides with environment variables
// (e.g. MARKET_BASE_URL, SCHEDULE_INTERVAL).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Fall back to defaults when the default file is missing
	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Support environment variables with dot notation (e.g., MARKET_PAGE_SIZE)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that would make a cycle impossible.
func (c *Config) Validate() error {
	switch {
	case c.Market.BaseURL == "":
		return fmt.Errorf("market.base_url is required")
	case c.Market.PageSize <= 0 || c.Market.PageSize > 250:
		return fmt.Errorf("market.page_size must be in 1..250, got %d", c.Market.PageSize)
	case c.Schedule.Interval <= 0:
		return fmt.Errorf("schedule.interval must be positive, got %s", c.Schedule.Interval)
	case c.Report.TopN <= 0:
		return fmt.Errorf("report.top_n must be positive, got %d", c.Report.TopN)
	case c.Excel.Enabled && c.Excel.Path == "":
		return fmt.Errorf("excel.path is required when excel is enabled")
	case c.Sheets.Enabled && c.Sheets.SpreadsheetID == "" && c.Sheets.SpreadsheetName == "":
		return fmt.Errorf("sheets.spreadsheet_name or sheets.spreadsheet_id is required when sheets is enabled")
	}
	return nil
}
