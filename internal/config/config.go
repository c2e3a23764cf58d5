package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPath = "config.yml"
	envPrefix   = "TODO"
)

const (
	RepositoryInMemory  = "inmemory"
	RepositoryPostgres  = "postgres"
	RepositorySQLite    = "sqlite"
	RepositoryFirestore = "firestore"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Repository RepositoryConfig `mapstructure:"repository"`
	SQLite     SQLiteConfig     `mapstructure:"sqlite"`
	Firestore  FirestoreConfig  `mapstructure:"firestore"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Notify     NotifyConfig     `mapstructure:"notify"`
	Users      UsersConfig      `mapstructure:"users"`
	Tasks      TasksConfig      `mapstructure:"tasks"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CorsOrigins     []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections"`
	MinConnections int32         `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	ConnectRetries uint64        `mapstructure:"connect_retries"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type FirestoreConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	Collection      string `mapstructure:"collection"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig bounds requests per user. AuthFailures is the number of
// failed authentications tolerated per client address and window.
type RateLimitConfig struct {
	Requests     int           `mapstructure:"requests"`
	Window       time.Duration `mapstructure:"window"`
	MaxClients   int           `mapstructure:"max_clients"`
	AuthFailures int           `mapstructure:"auth_failures"`
}

type WorkerConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Interval  time.Duration `mapstructure:"interval"`
	BatchSize int           `mapstructure:"batch_size"`
}

type NotifyConfig struct {
	Buffer  int `mapstructure:"buffer"`
	Workers int `mapstructure:"workers"`
}

type UsersConfig struct {
	File string `mapstructure:"file"`
}

type TasksConfig struct {
	MaxSubtaskDepth int    `mapstructure:"max_subtask_depth"`
	Timezone        string `mapstructure:"timezone"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)
	v.SetDefault("server.cors_origins", []string{"*"})

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.idle_timeout", 5*time.Minute)
	v.SetDefault("database.connect_retries", 5)

	v.SetDefault("repository.type", RepositoryInMemory)
	v.SetDefault("sqlite.path", "data/todo.db")
	v.SetDefault("firestore.project_id", "")
	v.SetDefault("firestore.collection", "tasks")
	v.SetDefault("firestore.credentials_file", "")

	v.SetDefault("logging.development", false)
	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", time.Minute)
	v.SetDefault("rate_limit.max_clients", 10000)
	v.SetDefault("rate_limit.auth_failures", 10)

	v.SetDefault("worker.enabled", true)
	v.SetDefault("worker.interval", time.Minute)
	v.SetDefault("worker.batch_size", 100)

	v.SetDefault("notify.buffer", 256)
	v.SetDefault("notify.workers", 2)

	v.SetDefault("users.file", "")
	v.SetDefault("tasks.max_subtask_depth", 32)
	v.SetDefault("tasks.timezone", "Local")
}

// Load reads the config file at path, then applies TODO_* environment
// overrides (TODO_DATABASE_URL for database.url). A .env file in the working
// directory is loaded first when present. A missing file at DefaultPath is
// not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = DefaultPath
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound)
		if !(path == DefaultPath && missing) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Repository.Type {
	case RepositoryInMemory, RepositorySQLite:
	case RepositoryPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres repository"))
		}
	case RepositoryFirestore:
		if c.Firestore.ProjectID == "" {
			errs = append(errs, errors.New("firestore.project_id is required for the firestore repository"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown repository.type %q", c.Repository.Type))
	}

	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("auth.jwt_secret must be at least 16 characters"))
	}
	if c.Tasks.MaxSubtaskDepth < 0 {
		errs = append(errs, errors.New("tasks.max_subtask_depth must not be negative"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location is the zone "today" is computed in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Tasks.Timezone)
	if err != nil {
		return nil, fmt.Errorf("tasks.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
