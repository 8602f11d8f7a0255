package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// SweeperConfig holds the background sweep runner configuration. The sweeper
// runs unless explicitly disabled; a config file that never mentions it still
// gets the alerting engine.
type SweeperConfig struct {
	Disabled            bool          `yaml:"disabled"`
	Enabled             bool          `yaml:"-"` // Derived from Disabled
	TickSeconds         int           `yaml:"tick_seconds"`
	Tick                time.Duration `yaml:"-"` // Ignored by YAML parser
	Timezone            string        `yaml:"timezone"`
	DailyCheckTime      string        `yaml:"daily_check_time"`
	WeeklySummaryDay    string        `yaml:"weekly_summary_day"`
	WeeklySummaryTime   string        `yaml:"weekly_summary_time"`
	MonthlyReportTime   string        `yaml:"monthly_report_time"`
	OverdueIntervalHrs  int           `yaml:"overdue_interval_hours"`
	UpcomingHorizonDays int           `yaml:"upcoming_horizon_days"`
	WarrantyHorizonDays int           `yaml:"warranty_horizon_days"`
	JobTimeoutSeconds   int           `yaml:"job_timeout_seconds"`
	DigestWorkers       int           `yaml:"digest_workers"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}

	cfg.Sweeper.Enabled = !cfg.Sweeper.Disabled

	if cfg.Sweeper.TickSeconds <= 0 {
		cfg.Sweeper.TickSeconds = 60
	}
	cfg.Sweeper.Tick = time.Duration(cfg.Sweeper.TickSeconds) * time.Second

	if cfg.Sweeper.Timezone == "" {
		cfg.Sweeper.Timezone = "UTC"
	}
	if cfg.Sweeper.DailyCheckTime == "" {
		cfg.Sweeper.DailyCheckTime = "09:00"
	}
	if cfg.Sweeper.WeeklySummaryDay == "" {
		cfg.Sweeper.WeeklySummaryDay = "Monday"
	}
	if cfg.Sweeper.WeeklySummaryTime == "" {
		cfg.Sweeper.WeeklySummaryTime = "08:00"
	}
	if cfg.Sweeper.MonthlyReportTime == "" {
		cfg.Sweeper.MonthlyReportTime = "01:00"
	}
	if cfg.Sweeper.OverdueIntervalHrs <= 0 {
		cfg.Sweeper.OverdueIntervalHrs = 6
	}
	if cfg.Sweeper.UpcomingHorizonDays <= 0 {
		cfg.Sweeper.UpcomingHorizonDays = 7
	}
	if cfg.Sweeper.WarrantyHorizonDays <= 0 {
		cfg.Sweeper.WarrantyHorizonDays = 90
	}
	if cfg.Sweeper.JobTimeoutSeconds <= 0 {
		cfg.Sweeper.JobTimeoutSeconds = 120
	}
	if cfg.Sweeper.DigestWorkers <= 0 {
		cfg.Sweeper.DigestWorkers = 4
	}
}
