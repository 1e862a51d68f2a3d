// Package config builds the immutable application configuration. Values are
// layered with documented precedence: command-line flags override the yaml
// config file, which overrides environment variables, which override defaults.
// The configuration is evaluated once at startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

type Config struct {
	// Env affects only error-message verbosity and log format, never core
	// behavior.
	Env        string `yaml:"env"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	HTTPServer `yaml:"http_server"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
}

type HTTPServer struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxHeaderBytes int           `yaml:"max_header_bytes"`
}

var defaultHTTPServer = HTTPServer{
	Port:           8080,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	// URL, when set, wins over the component fields below.
	URL             string        `yaml:"url"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	if p.URL != "" {
		return p.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

var defaultRedis = Redis{
	Addr:     "localhost:6379",
	PoolSize: 10,
}

// flagOptions is the command-line layer. Pointer fields distinguish "not
// given" from zero values.
type flagOptions struct {
	Env         *string `long:"env" description:"deployment environment (dev|prod)"`
	Port        *int    `long:"port" description:"http server port"`
	BaseURL     *string `long:"base-url" description:"public base url for short links"`
	APIKey      *string `long:"api-key" description:"api key protecting the stats endpoint"`
	DatabaseURL *string `long:"database-url" description:"postgres connection string"`
	RedisAddr   *string `long:"redis-addr" description:"redis address"`
}

// Load builds the configuration from defaults, environment variables, the
// yaml file at path (skipped when path is empty) and the given command-line
// arguments, in ascending precedence.
func Load(path string, args []string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)
	applyEnv(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if err := applyFlags(&cfg, args); err != nil {
		return nil, fmt.Errorf("%s: failed to parse flags: %w", op, err)
	}

	return &cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.BaseURL = "http://localhost:8080"
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.HTTPServer.Port = port
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
}

func applyFlags(cfg *Config, args []string) error {
	var opts flagOptions

	parser := flags.NewParser(&opts, flags.IgnoreUnknown)
	if _, err := parser.ParseArgs(args); err != nil {
		return err
	}

	if opts.Env != nil {
		cfg.Env = *opts.Env
	}
	if opts.Port != nil {
		cfg.HTTPServer.Port = *opts.Port
	}
	if opts.BaseURL != nil {
		cfg.BaseURL = *opts.BaseURL
	}
	if opts.APIKey != nil {
		cfg.APIKey = *opts.APIKey
	}
	if opts.DatabaseURL != nil {
		cfg.Postgres.URL = *opts.DatabaseURL
	}
	if opts.RedisAddr != nil {
		cfg.Redis.Addr = *opts.RedisAddr
	}

	return nil
}
