package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App      AppConfig      `yaml:"app"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	HTTP     HTTPConfig     `yaml:"http"`
}

type AppConfig struct {
	Name      string `yaml:"name"`
	Port      string `yaml:"port"`
	Env       string `yaml:"env"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	DBName          string        `yaml:"dbname"`
	SSLMode         string        `yaml:"sslmode"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MigrationsPath  string        `yaml:"migrations_path"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type HTTPConfig struct {
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	RateLimitRPS   float64       `yaml:"rate_limit_rps"`
	RateLimitBurst int           `yaml:"rate_limit_burst"`
}

func defaults() *Config {
	cfg := &Config{}
	cfg.App.Name = "marketplace-service"
	cfg.App.Port = "8080"
	cfg.App.Env = "development"
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"

	cfg.Postgres.Port = "5432"
	cfg.Postgres.SSLMode = "disable"
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute
	cfg.Postgres.MigrationsPath = "migrations"

	cfg.Redis.Addr = "localhost:6379"

	cfg.HTTP.ReadTimeout = 10 * time.Second
	cfg.HTTP.WriteTimeout = 10 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.RequestTimeout = 8 * time.Second
	cfg.HTTP.CORSOrigins = []string{"http://localhost:5173"}
	cfg.HTTP.RateLimitRPS = 20
	cfg.HTTP.RateLimitBurst = 40
	return cfg
}

// NewConfig builds the configuration from, in increasing priority: built-in
// defaults, the YAML file named by CONFIG_FILE, a .env file in the working
// directory, and the process environment.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	return Load(os.Getenv("CONFIG_FILE"))
}

// Load applies the optional YAML file at path and then the environment.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", path, err)
		}
	}

	env := envReader{}
	env.str(&cfg.App.Port, "APP_PORT")
	env.str(&cfg.App.Env, "APP_ENV")
	env.str(&cfg.App.LogLevel, "LOG_LEVEL")
	env.str(&cfg.App.LogFormat, "LOG_FORMAT")

	env.str(&cfg.Postgres.Host, "DB_HOST")
	env.str(&cfg.Postgres.Port, "DB_PORT")
	env.str(&cfg.Postgres.User, "DB_USER")
	env.str(&cfg.Postgres.Password, "DB_PASSWORD")
	env.str(&cfg.Postgres.DBName, "DB_NAME")
	env.str(&cfg.Postgres.SSLMode, "DB_SSLMODE")
	env.int32(&cfg.Postgres.MaxConns, "DB_MAX_CONNS")
	env.int32(&cfg.Postgres.MinConns, "DB_MIN_CONNS")
	env.duration(&cfg.Postgres.MaxConnLifetime, "DB_MAX_CONN_LIFETIME")
	env.str(&cfg.Postgres.MigrationsPath, "DB_MIGRATIONS_PATH")

	env.str(&cfg.Redis.Addr, "REDIS_ADDR")
	env.str(&cfg.Redis.Password, "REDIS_PASSWORD")
	env.int(&cfg.Redis.DB, "REDIS_DB")

	env.str(&cfg.Auth.JWTSecret, "JWT_SECRET")
	env.str(&cfg.Auth.Issuer, "JWT_ISSUER")

	env.duration(&cfg.HTTP.ReadTimeout, "HTTP_READ_TIMEOUT")
	env.duration(&cfg.HTTP.WriteTimeout, "HTTP_WRITE_TIMEOUT")
	env.duration(&cfg.HTTP.IdleTimeout, "HTTP_IDLE_TIMEOUT")
	env.duration(&cfg.HTTP.RequestTimeout, "HTTP_REQUEST_TIMEOUT")
	env.list(&cfg.HTTP.CORSOrigins, "CORS_ORIGINS")
	env.float(&cfg.HTTP.RateLimitRPS, "RATE_LIMIT_RPS")
	env.int(&cfg.HTTP.RateLimitBurst, "RATE_LIMIT_BURST")

	if len(env.errs) > 0 {
		return nil, errors.Join(env.errs...)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Postgres.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if c.Postgres.User == "" {
		missing = append(missing, "DB_USER")
	}
	if c.Postgres.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if c.Postgres.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if c.Postgres.MinConns > c.Postgres.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.Postgres.MinConns, c.Postgres.MaxConns)
	}
	if c.HTTP.RateLimitRPS <= 0 || c.HTTP.RateLimitBurst <= 0 {
		return errors.New("rate limit rps and burst must be positive")
	}

	return nil
}

// envReader overrides config fields from environment variables and collects
// parse errors instead of stopping at the first one.
type envReader struct {
	errs []error
}

func (e *envReader) str(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func (e *envReader) int(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return
	}
	*dst = n
}

func (e *envReader) int32(dst *int32, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return
	}
	*dst = int32(n)
}

func (e *envReader) float(dst *float64, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid number %q", key, v))
		return
	}
	*dst = f
}

func (e *envReader) duration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return
	}
	*dst = d
}

func (e *envReader) list(dst *[]string, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	*dst = out
}
