// =============================================================================
// Second Brain engine default configuration
// =============================================================================
// Reasonable defaults for every configuration item.
// =============================================================================
package config

import "time"

// DefaultConfig returns the reference-deployment configuration.
func DefaultConfig() *Config {
	return &Config{
		Server:         DefaultServerConfig(),
		ModeDefaults:   DefaultModeDefaultsConfig(),
		Thresholds:     DefaultThresholdsConfig(),
		Embedding:      DefaultEmbeddingConfig(),
		Timeouts:       DefaultTimeoutsConfig(),
		ProviderStatus: DefaultProviderStatusConfig(),
		Conversation:   DefaultConversationConfig(),
		Trace:          DefaultTraceConfig(),
		Providers:      DefaultProvidersConfig(),
		LLM:            DefaultLLMConfig(),
		Vectorstore:    DefaultVectorstoreConfig(),
		Database:       DefaultDatabaseConfig(),
		Redis:          DefaultRedisConfig(),
		Log:            DefaultLogConfig(),
		Telemetry:      DefaultTelemetryConfig(),
	}
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
	}
}

func DefaultModeDefaultsConfig() ModeDefaultsConfig {
	return ModeDefaultsConfig{
		Fast: ModePolicy{
			TopK:      5,
			Threshold: 0.60,
			Rerank:    false,
			Providers: []string{"vector"},
		},
		Accurate: ModePolicy{
			TopK:       10,
			RerankTopK: 5,
			Threshold:  0.55,
			Rerank:     true,
			Providers:  []string{"vector", "memory"},
		},
		Conversation: ModePolicy{
			TopK:      5,
			Threshold: 0.60,
			Rerank:    true,
			Providers: []string{"vector", "memory"},
		},
	}
}

func DefaultThresholdsConfig() ThresholdsConfig {
	return ThresholdsConfig{Proceed: 0.60, LowConfidence: 0.45}
}

func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{Provider: "mock", Model: "text-embedding-3-small", Dimension: 1536}
}

func DefaultTimeoutsConfig() TimeoutsConfig {
	return TimeoutsConfig{
		Embed:           10 * time.Second,
		Vector:          10 * time.Second,
		Memory:          10 * time.Second,
		Rerank:          10 * time.Second,
		LLM:             30 * time.Second,
		RequestFast:     30 * time.Second,
		RequestAccurate: 60 * time.Second,
	}
}

func DefaultProviderStatusConfig() ProviderStatusConfig {
	return ProviderStatusConfig{CooldownSeconds: 30, Backend: "memory"}
}

func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{MaxTurns: 20, MaxSessions: 10000}
}

func DefaultTraceConfig() TraceConfig {
	return TraceConfig{MaxEvents: 10000}
}

func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{Enabled: []string{"vector", "memory"}, VectorName: "vector", MemoryName: "memory"}
}

func DefaultLLMConfig() LLMConfig {
	return LLMConfig{Enabled: false, Provider: "anthropic", Model: "claude-sonnet-4.5", MaxTokens: 1024, Timeout: 30 * time.Second}
}

func DefaultVectorstoreConfig() VectorstoreConfig {
	return VectorstoreConfig{Backend: "memory", Host: "localhost", Port: 6334, Collection: "secondbrain_chunks"}
}

func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "secondbrain",
		Name:            "secondbrain",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{Addr: "localhost:6379", PoolSize: 10, MinIdleConns: 2}
}

func DefaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "json", OutputPaths: []string{"stdout"}, EnableCaller: true}
}

func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{Enabled: false, OTLPEndpoint: "localhost:4317", ServiceName: "secondbrain-engine", SampleRate: 0.1}
}
