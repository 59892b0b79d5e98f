/*
Package config manages the engine's configuration surface.

# Overview

config owns the full lifecycle of a single Config value: defaults,
optional YAML overlay, and environment-variable overrides, merged in
that order. The engine loads configuration once at process start;
there is no runtime reconfiguration surface.

# Core structures

  - Config: top-level aggregate covering Server, ModeDefaults,
    Thresholds, Embedding, Timeouts, ProviderStatus, Conversation,
    Trace, Providers, LLM, Vectorstore, Database, Redis, Log,
    Telemetry, and Secrets.
  - Loader: builder-style loader supporting a chained config file
    path, environment variable prefix, and custom validators.

# Usage

	cfg, err := config.NewLoader().
		WithConfigPath("config.yaml").
		WithEnvPrefix("SECONDBRAIN").
		Load()
*/
package config
