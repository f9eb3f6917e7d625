package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Storage    StorageConfig
	Tracing    TracingConfig `mapstructure:"tracing"`
	Redis      RedisConfig
	CORS       CORSConfig       `mapstructure:"cors"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Simulation SimulationConfig `mapstructure:"simulation"`

	// set from command line flags, not from the config file
	ForceMigrate bool   `mapstructure:"-"`
	MigrateOnly  bool   `mapstructure:"-"`
	ImportPath   string `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Driver    string
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	SSLMode   string `mapstructure:"sslmode"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
	// lifetime of presigned audio links, in minutes
	URLExpiryMinutes int `mapstructure:"url_expiry_minutes"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int `mapstructure:"pool_size"`
	MinIdleConns int `mapstructure:"min_idle_conns"`
}

// SimulationPreset holds the per-section sizes of an assembled full test.
type SimulationPreset struct {
	ReadingPassages    int `mapstructure:"reading_passages" json:"readingPassages"`
	ListeningPrompts   int `mapstructure:"listening_prompts" json:"listeningPrompts"`
	StructureQuestions int `mapstructure:"structure_questions" json:"structureQuestions"`
}

type SimulationConfig struct {
	SessionTTLHours       int                         `mapstructure:"session_ttl_hours"`
	SessionStore          string                      `mapstructure:"session_store"`
	AnswerKeyCacheMinutes int                         `mapstructure:"answer_key_cache_minutes"`
	DefaultPreset         string                      `mapstructure:"default_preset"`
	Presets               map[string]SimulationPreset `mapstructure:"presets"`
}

const (
	SessionStoreDatabase = "database"
	SessionStoreRedis    = "redis"
)

// DefaultSimulationConfig mirrors the sizes of the real exam (full) and the two shortened drills.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		SessionTTLHours:       3,
		SessionStore:          SessionStoreDatabase,
		AnswerKeyCacheMinutes: 10,
		DefaultPreset:         "full",
		Presets: map[string]SimulationPreset{
			"full":  {ReadingPassages: 5, ListeningPrompts: 1, StructureQuestions: 40},
			"short": {ReadingPassages: 1, ListeningPrompts: 1, StructureQuestions: 10},
			"mini":  {ReadingPassages: 1, ListeningPrompts: 0, StructureQuestions: 5},
		},
	}
}

func (c SimulationConfig) SessionTTL() time.Duration {
	if c.SessionTTLHours <= 0 {
		return 3 * time.Hour
	}
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c SimulationConfig) AnswerKeyCacheTTL() time.Duration {
	return time.Duration(c.AnswerKeyCacheMinutes) * time.Minute
}

// Preset resolves a preset by name; an empty name selects the default preset.
func (c SimulationConfig) Preset(name string) (SimulationPreset, bool) {
	if name == "" {
		name = c.DefaultPreset
	}
	p, ok := c.Presets[name]
	return p, ok
}

func (c *SimulationConfig) applyDefaults() {
	d := DefaultSimulationConfig()
	if c.SessionTTLHours <= 0 {
		c.SessionTTLHours = d.SessionTTLHours
	}
	if c.SessionStore == "" {
		c.SessionStore = d.SessionStore
	}
	if c.DefaultPreset == "" {
		c.DefaultPreset = d.DefaultPreset
	}
	if c.Presets == nil {
		c.Presets = map[string]SimulationPreset{}
	}
	for name, p := range d.Presets {
		if _, ok := c.Presets[name]; !ok {
			c.Presets[name] = p
		}
	}
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TOEFL")
	v.AutomaticEnv()

	// Database
	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.host", "DATABASE_HOST")
	v.BindEnv("database.port", "DATABASE_PORT")
	v.BindEnv("database.user", "DATABASE_USER")
	v.BindEnv("database.password", "DATABASE_PASSWORD")
	v.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	// Simulation
	v.BindEnv("simulation.session_store", "SIMULATION_SESSION_STORE")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Storage.URLExpiryMinutes <= 0 {
		cfg.Storage.URLExpiryMinutes = 60
	}
	if cfg.Redis.PoolSize <= 0 {
		cfg.Redis.PoolSize = 50
	}
	cfg.Simulation.applyDefaults()

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	switch cfg.Simulation.SessionStore {
	case SessionStoreDatabase, SessionStoreRedis:
	default:
		return nil, fmt.Errorf("unknown simulation.session_store %q", cfg.Simulation.SessionStore)
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}
