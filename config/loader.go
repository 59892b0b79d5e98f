// =============================================================================
// Second Brain engine configuration loader
// =============================================================================
// Unified config loading: YAML file + environment variable override.
//
// Usage:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("SECONDBRAIN").
//	    Load()
//
// Precedence: defaults -> YAML file -> environment variables
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Core configuration structure (spec §6.3 option table)
// =============================================================================

// Config is the engine's full configuration surface.
type Config struct {
	Server         ServerConfig         `yaml:"server" env:"SERVER"`
	ModeDefaults   ModeDefaultsConfig   `yaml:"mode_defaults" env:"MODE_DEFAULTS"`
	Thresholds     ThresholdsConfig     `yaml:"thresholds" env:"THRESHOLDS"`
	Embedding      EmbeddingConfig      `yaml:"embedding" env:"EMBEDDING"`
	Timeouts       TimeoutsConfig       `yaml:"timeouts" env:"TIMEOUTS"`
	ProviderStatus ProviderStatusConfig `yaml:"provider_status" env:"PROVIDER_STATUS"`
	Conversation   ConversationConfig   `yaml:"conversation" env:"CONVERSATION"`
	Trace          TraceConfig          `yaml:"trace" env:"TRACE"`
	Providers      ProvidersConfig      `yaml:"providers" env:"PROVIDERS"`
	LLM            LLMConfig            `yaml:"llm" env:"LLM"`
	Vectorstore    VectorstoreConfig    `yaml:"vectorstore" env:"VECTORSTORE"`
	Database       DatabaseConfig       `yaml:"database" env:"DATABASE"`
	Redis          RedisConfig          `yaml:"redis" env:"REDIS"`
	Log            LogConfig            `yaml:"log" env:"LOG"`
	Telemetry      TelemetryConfig      `yaml:"telemetry" env:"TELEMETRY"`
	Secrets        SecretsConfig        `yaml:"secrets" env:"SECRETS"`
}

// ServerConfig is the cmd/secondbrain-server HTTP listener configuration.
type ServerConfig struct {
	HTTPPort        int           `yaml:"http_port" env:"HTTP_PORT"`
	MetricsPort     int           `yaml:"metrics_port" env:"METRICS_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// ModePolicy is one mode's routing defaults, mirroring router.Policy.
type ModePolicy struct {
	TopK       int      `yaml:"top_k" env:"TOP_K"`
	RerankTopK int      `yaml:"rerank_top_k" env:"RERANK_TOP_K"`
	Threshold  float64  `yaml:"threshold" env:"THRESHOLD"`
	Rerank     bool     `yaml:"rerank" env:"RERANK"`
	Providers  []string `yaml:"providers" env:"PROVIDERS"`
}

// ModeDefaultsConfig holds mode_defaults.{fast,accurate,conversation}.
type ModeDefaultsConfig struct {
	Fast         ModePolicy `yaml:"fast" env:"FAST"`
	Accurate     ModePolicy `yaml:"accurate" env:"ACCURATE"`
	Conversation ModePolicy `yaml:"conversation" env:"CONVERSATION"`
}

// ThresholdsConfig holds the BranchPolicy decision boundaries.
type ThresholdsConfig struct {
	Proceed       float64 `yaml:"proceed" env:"PROCEED"`
	LowConfidence float64 `yaml:"low_confidence" env:"LOW_CONFIDENCE"`
}

// EmbeddingConfig configures the EmbeddingPort.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider" env:"PROVIDER"`
	Model     string `yaml:"model" env:"MODEL"`
	Dimension int    `yaml:"dimension" env:"DIMENSION"`
	BaseURL   string `yaml:"base_url" env:"BASE_URL"`
}

// TimeoutsConfig holds every per-call and per-request deadline.
type TimeoutsConfig struct {
	Embed           time.Duration `yaml:"embed" env:"EMBED"`
	Vector          time.Duration `yaml:"vector" env:"VECTOR"`
	Memory          time.Duration `yaml:"memory" env:"MEMORY"`
	Rerank          time.Duration `yaml:"rerank" env:"RERANK"`
	LLM             time.Duration `yaml:"llm" env:"LLM"`
	RequestFast     time.Duration `yaml:"request_fast" env:"REQUEST_FAST"`
	RequestAccurate time.Duration `yaml:"request_accurate" env:"REQUEST_ACCURATE"`
}

// ProviderStatusConfig configures the ProviderRouter's cooldown tracking
// and its optional Redis-backed multi-instance store.
type ProviderStatusConfig struct {
	CooldownSeconds int    `yaml:"cooldown_seconds" env:"COOLDOWN_SECONDS"`
	Backend         string `yaml:"backend" env:"BACKEND"` // "memory" or "redis"
	RedisAddr       string `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisKeyPrefix  string `yaml:"redis_key_prefix" env:"REDIS_KEY_PREFIX"`
}

// ConversationConfig bounds the ConversationStore.
type ConversationConfig struct {
	MaxTurns    int `yaml:"max_turns" env:"MAX_TURNS"`
	MaxSessions int `yaml:"max_sessions" env:"MAX_SESSIONS"`
}

// TraceConfig bounds the TraceCollector ring buffer.
type TraceConfig struct {
	MaxEvents int `yaml:"max_events" env:"MAX_EVENTS"`
}

// ProvidersConfig selects which MemoryProvider variants to wire.
type ProvidersConfig struct {
	Enabled       []string `yaml:"enabled" env:"ENABLED"` // subset of {vector, memory}; the server wires no other name
	VectorName    string   `yaml:"vector_name" env:"VECTOR_NAME"`
	MemoryName    string   `yaml:"memory_name" env:"MEMORY_NAME"`
	MemoryBaseURL string   `yaml:"memory_base_url" env:"MEMORY_BASE_URL"`
}

// LLMConfig configures whether and how the Planner calls an LLMPort.
type LLMConfig struct {
	Enabled   bool          `yaml:"enabled" env:"ENABLED"`
	Provider  string        `yaml:"provider" env:"PROVIDER"`
	Model     string        `yaml:"model" env:"MODEL"`
	BaseURL   string        `yaml:"base_url" env:"BASE_URL"`
	MaxTokens int           `yaml:"max_tokens" env:"MAX_TOKENS"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
}

// VectorstoreConfig selects and configures the VectorStorePort backend.
type VectorstoreConfig struct {
	Backend    string `yaml:"backend" env:"BACKEND"` // "qdrant", "postgres", "sqlite", "memory"
	Host       string `yaml:"host" env:"HOST"`
	Port       int    `yaml:"port" env:"PORT"`
	APIKey     string `yaml:"api_key" env:"API_KEY"`
	Collection string `yaml:"collection" env:"COLLECTION"`
}

// DatabaseConfig is the relational store backing vectorstore.SQL and
// ingestreport.Store.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DRIVER"` // "postgres" or "sqlite"
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Name            string        `yaml:"name" env:"NAME"`
	SSLMode         string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`
}

// RedisConfig backs the optional multi-instance ProviderStatus store.
type RedisConfig struct {
	Addr         string `yaml:"addr" env:"ADDR"`
	Password     string `yaml:"password" env:"PASSWORD"`
	DB           int    `yaml:"db" env:"DB"`
	PoolSize     int    `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int    `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level            string   `yaml:"level" env:"LEVEL"`
	Format           string   `yaml:"format" env:"FORMAT"`
	OutputPaths      []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	EnableCaller     bool     `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool     `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig configures the OTel SDK init.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled" env:"ENABLED"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// SecretsConfig holds credentials, read once at construction and never
// logged.
type SecretsConfig struct {
	EmbeddingAPIKey   string `yaml:"embedding_api_key" env:"EMBEDDING_API_KEY"`
	RerankAPIKey      string `yaml:"rerank_api_key" env:"RERANK_API_KEY"`
	MemoryAPIKey      string `yaml:"memory_api_key" env:"MEMORY_API_KEY"`
	VectorstoreAPIKey string `yaml:"vectorstore_api_key" env:"VECTORSTORE_API_KEY"`
	LLMAPIKey         string `yaml:"llm_api_key" env:"LLM_API_KEY"`
}

// =============================================================================
// Loader
// =============================================================================

// Loader is a builder-style configuration loader.
type Loader struct {
	configPath string
	envPrefix  string
	validators []func(*Config) error
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{
		envPrefix:  "SECONDBRAIN",
		validators: make([]func(*Config) error, 0),
	}
}

// WithConfigPath sets the YAML config file path.
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix sets the environment variable prefix.
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// WithValidator adds a configuration validator.
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validators = append(l.validators, v)
	return l
}

// Load loads the configuration.
// Precedence: defaults -> YAML file -> environment variables
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		if err := l.loadFromFile(cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := l.loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	for _, v := range l.validators {
		if err := v(cfg); err != nil {
			return nil, fmt.Errorf("config validation failed: %w", err)
		}
	}

	return cfg, nil
}

func (l *Loader) loadFromFile(cfg *Config) error {
	data, err := os.ReadFile(l.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

func (l *Loader) loadFromEnv(cfg *Config) error {
	return l.setFieldsFromEnv(reflect.ValueOf(cfg).Elem(), l.envPrefix)
}

// setFieldsFromEnv recursively walks struct fields, applying the env tag
// convention: <prefix>_<ENV_TAG>, recursing into nested structs.
func (l *Loader) setFieldsFromEnv(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		envTag := fieldType.Tag.Get("env")
		if envTag == "" || envTag == "-" {
			continue
		}

		envKey := prefix + "_" + envTag

		if field.Kind() == reflect.Struct {
			if err := l.setFieldsFromEnv(field, envKey); err != nil {
				return err
			}
			continue
		}

		envValue := os.Getenv(envKey)
		if envValue == "" {
			continue
		}

		if err := setFieldValue(field, envValue); err != nil {
			return fmt.Errorf("failed to set %s: %w", envKey, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(i)
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			field.Set(reflect.ValueOf(parts))
		}
	}

	return nil
}

// =============================================================================
// Helpers
// =============================================================================

// MustLoad loads configuration, panicking on failure.
func MustLoad(path string) *Config {
	cfg, err := NewLoader().WithConfigPath(path).Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return NewLoader().Load()
}

// Validate checks invariants the loader can't express via struct tags:
// embedding dimension must be positive, branch thresholds must be ordered,
// and the provider cooldown must be non-negative.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, "invalid HTTP port")
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, "embedding.dimension must be positive")
	}
	if c.Thresholds.LowConfidence > c.Thresholds.Proceed {
		errs = append(errs, "thresholds.low_confidence must not exceed thresholds.proceed")
	}
	if c.Conversation.MaxTurns < 1 {
		errs = append(errs, "conversation.max_turns must be >= 1")
	}
	if c.Conversation.MaxSessions < 1 {
		errs = append(errs, "conversation.max_sessions must be >= 1")
	}
	if c.ProviderStatus.CooldownSeconds < 0 {
		errs = append(errs, "provider_status.cooldown_seconds must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DSN returns the relational database connection string.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
		)
	case "sqlite":
		return d.Name
	default:
		return ""
	}
}
