package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/Ramsey-B/sage/pkg/classifier"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/graph"
	"github.com/Ramsey-B/sage/pkg/kafka"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/Ramsey-B/sage/pkg/redis"
	"github.com/Ramsey-B/sage/pkg/tracing/exporters"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppName                       string `env:"APP_NAME" env-default:"sage-api" mapstructure:"app_name"`
	Version                       string `env:"APP_VERSION" env-default:"dev" mapstructure:"app_version"`
	Port                          int    `env:"PORT" env-default:"3004" mapstructure:"port"`
	LogLevel                      string `env:"LOG_LEVEL" env-default:"info" mapstructure:"log_level"`
	PrettyLogs                    bool   `env:"PRETTY_LOGS" env-default:"false" mapstructure:"pretty_logs"`
	HttpServerWriteTimeoutSeconds int    `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10" mapstructure:"http_server_write_timeout_seconds"`
	HttpServerReadTimeoutSeconds  int    `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10" mapstructure:"http_server_read_timeout_seconds"`
	HttpServerIdleTimeoutSeconds  int    `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10" mapstructure:"http_server_idle_timeout_seconds"`
	MaxHeaderBytes                int    `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000" mapstructure:"http_server_max_header_bytes"`
	ReadHeaderTimeoutSeconds      int    `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10" mapstructure:"http_server_read_header_timeout_seconds"`
	StartupMaxAttempts            int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5" mapstructure:"startup_max_attempts"`

	// Profile limits
	MaxRolesPerProject       int `env:"MAX_ROLES_PER_PROJECT" env-default:"3" mapstructure:"max_roles_per_project"`
	ProfileDescriptionLength int `env:"PROFILE_DESCRIPTION_LENGTH" env-default:"4000" mapstructure:"profile_description_length"`

	// Storage: postgres or memory
	StoreDriver string `env:"STORE_DRIVER" env-default:"postgres" mapstructure:"store_driver"`

	// PostgreSQL
	DatabaseHost                string        `env:"DB_HOST" env-default:"localhost" mapstructure:"db_host"`
	DatabasePort                int           `env:"DB_PORT" env-default:"5432" mapstructure:"db_port"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:"" mapstructure:"db_user_name"`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:"" mapstructure:"db_password"`
	DatabaseName                string        `env:"DB_NAME" env-default:"sage" mapstructure:"db_name"`
	DatabaseSSLMode             string        `env:"DB_SSL_MODE" env-default:"disable" mapstructure:"db_ssl_mode"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25" mapstructure:"db_max_open_conns"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10" mapstructure:"db_max_idle_conns"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s" mapstructure:"db_conn_max_lifetime"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg" mapstructure:"db_migration_folder_path"`
	DatabaseMigrationVersion    int           `env:"DB_MIGRATION_VERSION" env-default:"0" mapstructure:"db_migration_version"`
	DatabaseMigrationForce      int           `env:"DB_MIGRATION_FORCE" env-default:"0" mapstructure:"db_migration_force"`

	// Redis (import locks, classifier cache)
	RedisEnabled  bool          `env:"REDIS_ENABLED" env-default:"true" mapstructure:"redis_enabled"`
	RedisHost     string        `env:"REDIS_HOST" env-default:"localhost" mapstructure:"redis_host"`
	RedisPort     int           `env:"REDIS_PORT" env-default:"6379" mapstructure:"redis_port"`
	RedisPassword string        `env:"REDIS_PASSWORD" env-default:"" mapstructure:"redis_password"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0" mapstructure:"redis_db"`
	ImportLockTTL time.Duration `env:"IMPORT_LOCK_TTL" env-default:"30s" mapstructure:"import_lock_ttl"`

	// Skill classifier
	ClassifierURL      string        `env:"CLASSIFIER_URL" env-default:"" mapstructure:"classifier_url"`
	ClassifierTimeout  time.Duration `env:"CLASSIFIER_TIMEOUT" env-default:"5s" mapstructure:"classifier_timeout"`
	ClassifierCacheTTL time.Duration `env:"CLASSIFIER_CACHE_TTL" env-default:"24h" mapstructure:"classifier_cache_ttl"`
	ClassifierRate     float64       `env:"CLASSIFIER_RATE" env-default:"0" mapstructure:"classifier_rate"`

	// Graph Database (projection)
	GraphEnabled    bool   `env:"GRAPH_ENABLED" env-default:"false" mapstructure:"graph_enabled"`
	GraphDBHost     string `env:"GRAPH_DB_HOST" env-default:"localhost" mapstructure:"graph_db_host"`
	GraphDBPort     int    `env:"GRAPH_DB_PORT" env-default:"7687" mapstructure:"graph_db_port"`
	GraphDBUser     string `env:"GRAPH_DB_USER" env-default:"" mapstructure:"graph_db_user"`
	GraphDBPassword string `env:"GRAPH_DB_PASSWORD" env-default:"" mapstructure:"graph_db_password"`

	// Kafka Consumer (import requests)
	KafkaBrokers         []string `env:"KAFKA_BROKERS" env-default:"localhost:9092" mapstructure:"kafka_brokers"`
	KafkaInputTopic      string   `env:"KAFKA_INPUT_TOPIC" env-default:"profile-imports" mapstructure:"kafka_input_topic"`
	KafkaConsumerGroup   string   `env:"KAFKA_CONSUMER_GROUP" env-default:"sage-consumer" mapstructure:"kafka_consumer_group"`
	KafkaConsumerEnabled bool     `env:"KAFKA_CONSUMER_ENABLED" env-default:"false" mapstructure:"kafka_consumer_enabled"`

	// Kafka Producer settings
	KafkaProducerEnabled bool   `env:"KAFKA_PRODUCER_ENABLED" env-default:"false" mapstructure:"kafka_producer_enabled"`
	KafkaOutputTopic     string `env:"KAFKA_OUTPUT_TOPIC" env-default:"profile-events" mapstructure:"kafka_output_topic"`
	KafkaBatchSize       int    `env:"KAFKA_BATCH_SIZE" env-default:"100" mapstructure:"kafka_batch_size"`
	KafkaBatchTimeout    int    `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100" mapstructure:"kafka_batch_timeout_ms"`
	KafkaRequiredAcks    int    `env:"KAFKA_REQUIRED_ACKS" env-default:"1" mapstructure:"kafka_required_acks"`
	KafkaCompression     string `env:"KAFKA_COMPRESSION" env-default:"snappy" mapstructure:"kafka_compression"`

	// Tracing
	OTLPEndpoint string        `env:"OTLP_ENDPOINT" env-default:"" mapstructure:"otlp_endpoint"`
	OTLPProtocol string        `env:"OTLP_PROTOCOL" env-default:"grpc" mapstructure:"otlp_protocol"`
	OTLPInsecure bool          `env:"OTLP_INSECURE" env-default:"true" mapstructure:"otlp_insecure"`
	OTLPTimeout  time.Duration `env:"OTLP_TIMEOUT" env-default:"10s" mapstructure:"otlp_timeout"`
	OTLPHeaders  string        `env:"OTLP_HEADERS" env-default:"" mapstructure:"otlp_headers"`
	OTLPSampling float64       `env:"OTLP_SAMPLE_RATIO" env-default:"1" mapstructure:"otlp_sample_ratio"`

}

// Load reads .env files, then the environment, into a Config. Values already
// present in the environment win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env", ".env.local"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	if err := bind(v, reflect.TypeOf(Config{})); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bind registers every env tag with viper, using env-default as the default.
func bind(v *viper.Viper, t reflect.Type) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		env := f.Tag.Get("env")
		if env == "" {
			continue
		}
		key := f.Tag.Get("mapstructure")
		if def, ok := f.Tag.Lookup("env-default"); ok {
			v.SetDefault(key, def)
		}
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}
	if c.MaxRolesPerProject < 1 {
		return fmt.Errorf("MAX_ROLES_PER_PROJECT must be positive, got %d", c.MaxRolesPerProject)
	}
	if c.ProfileDescriptionLength < 1 {
		return fmt.Errorf("PROFILE_DESCRIPTION_LENGTH must be positive, got %d", c.ProfileDescriptionLength)
	}
	return nil
}

// Reconcile returns the limits the reconciliation engine is built with.
func (c *Config) Reconcile() reconcile.Settings {
	return reconcile.Settings{
		MaxRolesPerProject:       c.MaxRolesPerProject,
		ProfileDescriptionLength: c.ProfileDescriptionLength,
	}
}

func (c *Config) Database() database.Config {
	return database.Config{
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		User:            c.DatabaseUserName,
		Password:        c.DatabasePassword,
		Name:            c.DatabaseName,
		SSLMode:         c.DatabaseSSLMode,
		MaxOpenConns:    c.DatabaseMaxOpenConns,
		MaxIdleConns:    c.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.DatabaseConnMaxLifetime,
	}
}

func (c *Config) Migration() database.MigrationConfig {
	version := c.DatabaseMigrationVersion
	if version < 0 {
		version = 0
	}
	return database.MigrationConfig{
		MigrationFolderPath: c.DatabaseMigrationFolderPath,
		Version:             uint(version),
		Force:               c.DatabaseMigrationForce,
	}
}

func (c *Config) Redis() redis.Config {
	return redis.Config{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c *Config) Classifier() classifier.Config {
	return classifier.Config{
		URL:           c.ClassifierURL,
		Timeout:       c.ClassifierTimeout,
		RatePerSecond: c.ClassifierRate,
	}
}

func (c *Config) Graph() graph.Config {
	return graph.Config{
		Host:     c.GraphDBHost,
		Port:     c.GraphDBPort,
		Username: c.GraphDBUser,
		Password: c.GraphDBPassword,
	}
}

func (c *Config) Producer() kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:      c.KafkaBrokers,
		Topic:        c.KafkaOutputTopic,
		BatchSize:    c.KafkaBatchSize,
		BatchTimeout: time.Duration(c.KafkaBatchTimeout) * time.Millisecond,
		RequiredAcks: c.KafkaRequiredAcks,
		Compression:  c.KafkaCompression,
	}
}

func (c *Config) Consumer() kafka.ConsumerConfig {
	return kafka.ConsumerConfig{
		Brokers:       c.KafkaBrokers,
		Topic:         c.KafkaInputTopic,
		ConsumerGroup: c.KafkaConsumerGroup,
	}
}

func (c *Config) OTLP() exporters.OTLPConfig {
	return exporters.OTLPConfig{
		Endpoint:    c.OTLPEndpoint,
		Protocol:    strings.ToLower(c.OTLPProtocol),
		Insecure:    c.OTLPInsecure,
		Headers:     exporters.ParseHeaders(c.OTLPHeaders),
		Timeout:     c.OTLPTimeout,
		SampleRatio: c.OTLPSampling,
	}
}
