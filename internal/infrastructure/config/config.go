// Package config loads the service settings from config.toml, an optional
// .env file and RENTAL_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Ledger    LedgerConfig    `mapstructure:"ledger"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Import    ImportConfig    `mapstructure:"import"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Swagger   SwaggerConfig   `mapstructure:"swagger"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or file path
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

// Database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig holds database connection settings. Lifetimes are minutes.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"` // sqlite file, ":memory:" for a throwaway database
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// HTTPConfig holds HTTP server configuration. An empty CORS origin list
// allows no cross-origin requests.
type HTTPConfig struct {
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodySize       int64         `mapstructure:"max_body_size"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
	CORSAllowOrigins  []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods  []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders  []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies    []string      `mapstructure:"trusted_proxies"`
}

// SchedulerConfig drives the daily ledger jobs
type SchedulerConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	DailyCronSchedule string        `mapstructure:"daily_cron_schedule"` // "minute hour * * *"
	Timezone          string        `mapstructure:"timezone"`            // IANA zone the schedule is read in
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
	JobTimeout        time.Duration `mapstructure:"job_timeout"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
	DisabledJobs      []string      `mapstructure:"disabled_jobs"`
}

// JobEnabled reports whether a job may run on the daily schedule
func (s SchedulerConfig) JobEnabled(name string) bool {
	return !slices.Contains(s.DisabledJobs, name)
}

type LedgerConfig struct {
	ExpiringWindowDays  int  `mapstructure:"expiring_window_days"`  // agreements ending within this many days are reported
	DefaultPaymentTerms int  `mapstructure:"default_payment_terms"` // invoice due days when an agreement has none
	InvoicingEnabled    bool `mapstructure:"invoicing_enabled"`
	ReminderMinDays     int  `mapstructure:"reminder_min_days"` // days overdue before a reminder is logged
}

// ImportConfig holds spreadsheet import limits
type ImportConfig struct {
	MaxFileSize int64         `mapstructure:"max_file_size"`
	MaxRows     int           `mapstructure:"max_rows"`
	MaxErrors   int           `mapstructure:"max_errors"`
	SessionTTL  time.Duration `mapstructure:"session_ttl"` // how long a validated file can wait to be run
}

// StorageConfig points documents at an S3 compatible bucket. Disabled
// storage keeps them on the in-memory stub.
type StorageConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Endpoint          string        `mapstructure:"endpoint"`
	Region            string        `mapstructure:"region"`
	Bucket            string        `mapstructure:"bucket"`
	AccessKey         string        `mapstructure:"access_key"`
	SecretKey         string        `mapstructure:"secret_key"`
	UseSSL            bool          `mapstructure:"use_ssl"`
	UsePathStyle      bool          `mapstructure:"use_path_style"` // MinIO and RustFS need it
	PresignExpiration time.Duration `mapstructure:"presign_expiration"`
	MaxUploadSize     int64         `mapstructure:"max_upload_size"`
}

// SwaggerConfig serves the API documentation. SpecPath is the swagger.json
// that `swag init` writes.
type SwaggerConfig struct {
	Enabled    bool     `mapstructure:"enabled"`
	AllowedIPs []string `mapstructure:"allowed_ips"` // addresses or CIDR prefixes, empty allows all
	SpecPath   string   `mapstructure:"spec_path"`
}

// TelemetryConfig holds OpenTelemetry and profiling settings
type TelemetryConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	CollectorEndpoint string  `mapstructure:"collector_endpoint"` // OTLP gRPC, e.g. "localhost:4317"
	SamplingRatio     float64 `mapstructure:"sampling_ratio"`
	ServiceName       string  `mapstructure:"service_name"`
	Insecure          bool    `mapstructure:"insecure"`

	MetricsEnabled        bool          `mapstructure:"metrics_enabled"`
	MetricsExportInterval time.Duration `mapstructure:"metrics_export_interval"`
	LogsEnabled           bool          `mapstructure:"logs_enabled"`

	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"` // development only
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`

	ProfilingEnabled   bool     `mapstructure:"profiling_enabled"`
	PyroscopeAddress   string   `mapstructure:"pyroscope_address"`
	ProfileTypes       []string `mapstructure:"profile_types"`
	MutexProfileRate   int      `mapstructure:"mutex_profile_rate"`
	BlockProfileRate   int      `mapstructure:"block_profile_rate"`
	ProfilingAuthToken string   `mapstructure:"profiling_auth_token"`
}

// defaults lists every key viper should know. A key missing here is not
// picked up from the environment.
var defaults = map[string]any{
	"app.name": "rental-ledger",
	"app.env":  "development",
	"app.port": "8080",

	"database.driver":             DriverPostgres,
	"database.path":               "",
	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "rental",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":        15 * time.Second,
	"http.write_timeout":       15 * time.Second,
	"http.idle_timeout":        time.Minute,
	"http.max_header_bytes":    1 << 20,
	"http.max_body_size":       int64(10 << 20),
	"http.rate_limit_enabled":  false,
	"http.rate_limit_requests": 100,
	"http.rate_limit_window":   time.Minute,
	"http.cors_allow_origins":  []string{},
	"http.cors_allow_methods":  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
	"http.cors_allow_headers":  []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":     []string{},

	"scheduler.enabled":             false,
	"scheduler.daily_cron_schedule": "0 2 * * *",
	"scheduler.timezone":            "UTC",
	"scheduler.max_concurrent_jobs": 3,
	"scheduler.job_timeout":         30 * time.Minute,
	"scheduler.retry_attempts":      3,
	"scheduler.retry_delay":         5 * time.Minute,
	"scheduler.disabled_jobs":       []string{},

	"ledger.expiring_window_days":  30,
	"ledger.default_payment_terms": 30,
	"ledger.invoicing_enabled":     false,
	"ledger.reminder_min_days":     1,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "rental-ledger",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_export_interval": time.Minute,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.pyroscope_address":       "http://localhost:4040",
	"telemetry.profile_types":           []string{"cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"},
	"telemetry.mutex_profile_rate":      5,
	"telemetry.block_profile_rate":      5,
	"telemetry.profiling_auth_token":    "",

	"import.max_file_size": int64(10 << 20),
	"import.max_rows":      10000,
	"import.max_errors":    100,
	"import.session_ttl":   30 * time.Minute,

	"storage.enabled":            false,
	"storage.endpoint":           "",
	"storage.region":             "us-east-1",
	"storage.bucket":             "rental-documents",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            false,
	"storage.use_path_style":     true,
	"storage.presign_expiration": 15 * time.Minute,
	"storage.max_upload_size":    int64(20 << 20),

	"swagger.enabled":     true,
	"swagger.allowed_ips": []string{},
	"swagger.spec_path":   "docs/swagger.json",
}

// Load reads the configuration. RENTAL_DATABASE_PASSWORD overrides
// database.password in config.toml, which overrides the built-in default.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, dir := range []string{".", "./configs", "/app"} {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("RENTAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Database.Driver == DriverSQLite && cfg.Database.Path == "" {
		cfg.Database.Path = "rental.db"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate reports every problem at once
func (c *Config) validate() error {
	return errors.Join(
		c.Database.validate(),
		c.validateProduction(),
		c.validateJobs(),
		c.validateLimits(),
	)
}

func (d *DatabaseConfig) validate() error {
	var errs []error
	if d.Driver != DriverPostgres && d.Driver != DriverSQLite {
		errs = append(errs, fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverSQLite, d.Driver))
	}
	switch {
	case d.MaxOpenConns <= 0:
		errs = append(errs, errors.New("database.max_open_conns must be positive"))
	case d.MaxIdleConns < 0:
		errs = append(errs, errors.New("database.max_idle_conns cannot be negative"))
	case d.MaxIdleConns > d.MaxOpenConns:
		errs = append(errs, fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", d.MaxIdleConns, d.MaxOpenConns))
	}
	return errors.Join(errs...)
}

// validateProduction keeps development conveniences out of production
func (c *Config) validateProduction() error {
	if c.App.Env != "production" {
		return nil
	}
	var errs []error
	if c.Database.Driver != DriverPostgres {
		errs = append(errs, errors.New("database.driver must be postgres in production"))
	}
	if c.Database.Password == "" {
		errs = append(errs, errors.New("database.password is required in production"))
	}
	if c.Database.SSLMode == "disable" {
		errs = append(errs, errors.New("database.sslmode cannot be 'disable' in production"))
	}
	if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
		errs = append(errs, errors.New("http.cors_allow_origins cannot be '*' in production"))
	}
	if c.Telemetry.DBLogFullSQL {
		errs = append(errs, errors.New("telemetry.db_log_full_sql must be false in production"))
	}
	if c.Swagger.Enabled && len(c.Swagger.AllowedIPs) == 0 {
		errs = append(errs, errors.New("swagger must be disabled or limited by swagger.allowed_ips in production"))
	}
	return errors.Join(errs...)
}

func (c *Config) validateJobs() error {
	var errs []error
	if c.Scheduler.MaxConcurrentJobs <= 0 {
		errs = append(errs, errors.New("scheduler.max_concurrent_jobs must be positive"))
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("scheduler.timezone: %w", err))
	}
	if c.Ledger.ExpiringWindowDays < 0 {
		errs = append(errs, errors.New("ledger.expiring_window_days cannot be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) validateLimits() error {
	var errs []error
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", r))
	}
	if c.Import.MaxRows < 0 || c.Import.MaxFileSize < 0 {
		errs = append(errs, errors.New("import limits cannot be negative"))
	}
	if c.Storage.Enabled && (c.Storage.AccessKey == "" || c.Storage.SecretKey == "") {
		errs = append(errs, errors.New("storage.access_key and storage.secret_key are required when storage is enabled"))
	}
	return errors.Join(errs...)
}

// DSN returns the postgres connection URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
