package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App    AppConfig    `mapstructure:"app"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	DB     DBConfig     `mapstructure:"db"`
	Cron   CronConfig   `mapstructure:"cron"`

	Sources SourcesConfig `mapstructure:"sources"`
	Search  SearchConfig  `mapstructure:"search"`
	Deal    DealConfig    `mapstructure:"deal"`
	Alert   AlertConfig   `mapstructure:"alert"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DailyScan    string `mapstructure:"daily_scan"`
	UpcomingScan string `mapstructure:"upcoming_scan"`
	DailyDigest  string `mapstructure:"daily_digest"`
}

// SourcesConfig carries per-source credentials and endpoints. Credentials stay
// out of the sources table; an adapter whose required key is blank is skipped
// by the registry.
type SourcesConfig struct {
	BookingData BookingDataConfig `mapstructure:"bookingdata"`
	MaxMilhas   MaxMilhasConfig   `mapstructure:"maxmilhas"`
	Milhas123   Milhas123Config   `mapstructure:"milhas123"`
}

type BookingDataConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	APIKey       string        `mapstructure:"api_key"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

type MaxMilhasConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

type Milhas123Config struct {
	BaseURL      string        `mapstructure:"base_url"`
	SiteURL      string        `mapstructure:"site_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
}

type SearchConfig struct {
	// MaxDateCombinations caps emulated flexible round-trip expansion.
	MaxDateCombinations int `mapstructure:"max_date_combinations"`
}

type DealConfig struct {
	DropPct              int `mapstructure:"drop_pct"`
	BelowAvgPct          int `mapstructure:"below_avg_pct"`
	LookbackDays         int `mapstructure:"lookback_days"`
	DomesticFloor        int `mapstructure:"domestic_floor"`
	LowCostFloor         int `mapstructure:"low_cost_floor"`
	InternationalFloor   int `mapstructure:"international_floor"`
	MaxFavorableStops    int `mapstructure:"max_favorable_stops"`
	DomesticCeiling      int `mapstructure:"domestic_ceiling"`
	InternationalCeiling int `mapstructure:"international_ceiling"`
	LastMinuteDays       int `mapstructure:"last_minute_days"`
}

type AlertConfig struct {
	RecheckHours int `mapstructure:"recheck_hours"`
}

type NotifyConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MinInterval time.Duration `mapstructure:"min_interval"`
	From        string        `mapstructure:"from"`
	SMTP        SMTPConfig    `mapstructure:"smtp"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type MonitorConfig struct {
	Workers      int `mapstructure:"workers"`
	DaysAhead    int `mapstructure:"days_ahead"`
	UpcomingDays int `mapstructure:"upcoming_days"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")

	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.daily_scan", "0 0 1 * * *")
	v.SetDefault("cron.upcoming_scan", "@every 4h")
	v.SetDefault("cron.daily_digest", "0 0 12 * * *")

	v.SetDefault("sources.bookingdata.base_url", "https://booking-data.p.rapidapi.com")
	v.SetDefault("sources.bookingdata.api_key", "")
	v.SetDefault("sources.bookingdata.timeout", "30s")
	v.SetDefault("sources.bookingdata.probe_timeout", "5s")
	v.SetDefault("sources.maxmilhas.base_url", "https://api.maxmilhas.com.br")
	v.SetDefault("sources.maxmilhas.timeout", "30s")
	v.SetDefault("sources.maxmilhas.probe_timeout", "5s")
	v.SetDefault("sources.milhas123.base_url", "https://123milhas.com/api/v1")
	v.SetDefault("sources.milhas123.site_url", "https://123milhas.com")
	v.SetDefault("sources.milhas123.timeout", "30s")
	v.SetDefault("sources.milhas123.probe_timeout", "5s")
	v.SetDefault("sources.milhas123.user_agent", "Mozilla/5.0")

	v.SetDefault("search.max_date_combinations", 30)

	v.SetDefault("deal.drop_pct", 20)
	v.SetDefault("deal.below_avg_pct", 15)
	v.SetDefault("deal.lookback_days", 30)
	v.SetDefault("deal.domestic_floor", 50)
	v.SetDefault("deal.low_cost_floor", 150)
	v.SetDefault("deal.international_floor", 300)
	v.SetDefault("deal.max_favorable_stops", 1)
	v.SetDefault("deal.domestic_ceiling", 200)
	v.SetDefault("deal.international_ceiling", 600)
	v.SetDefault("deal.last_minute_days", 7)

	v.SetDefault("alert.recheck_hours", 12)

	v.SetDefault("notify.enabled", true)
	v.SetDefault("notify.min_interval", "24h")
	v.SetDefault("notify.from", "alerts@flightmatrix.local")
	v.SetDefault("notify.smtp.host", "localhost")
	v.SetDefault("notify.smtp.port", 587)

	v.SetDefault("monitor.workers", 5)
	v.SetDefault("monitor.days_ahead", 60)
	v.SetDefault("monitor.upcoming_days", 7)

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
