package config

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// searchPaths lists the standard config-file locations, checked in order
// after the explicit GATEWAY_CONFIG path. Grounded on the reference
// implementation's CONFIG_SEARCH_PATHS.
func searchPaths() []string {
	paths := []string{
		"./rag-config.yaml",
		"./config/rag-config.yaml",
		"./services/config/rag-config.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, "Developer", "advanced-rag", "services", "config", "rag-config.yaml"))
	}
	return paths
}

func findConfigFile(explicit string) (string, bool) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, true
		}
		// An explicit path that doesn't exist is not retried against the
		// standard search list.
		return "", false
	}
	for _, p := range searchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

func loadYAMLFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config file %s", path)
	}
	return cfg, nil
}

// buildFromEnv constructs a Config purely from environment variables, used
// when no config file is found. Mirrors the reference implementation's
// _build_config_from_env: a single "openai" embedding provider and, unless
// RERANK_PROVIDER names something else, a "none" passthrough rerank
// provider.
func buildFromEnv(e envOverrides) *Config {
	embedModel := firstNonEmpty(e.EmbeddingModel, e.OpenAIEmbeddingModel, "text-embedding-3-small")
	embedBaseURL := firstNonEmpty(e.EmbeddingBaseURL, e.OpenAIBaseURL)

	cfg := &Config{
		Embedding: EmbeddingConfig{
			Active: "openai",
			Providers: map[string]EmbeddingProviderConfig{
				"openai": {
					ProviderConfig: ProviderConfig{
						Type:      "openai-compatible",
						BaseURL:   embedBaseURL,
						APIKeyEnv: "EMBEDDING_API_KEY",
						Model:     embedModel,
					},
					MaxBatch:          64,
					MaxTokensPerInput: 8191,
					RequestsPerMinute: e.EmbeddingRPM,
					TokensPerMinute:   e.EmbeddingTPM,
				},
			},
		},
		Rerank: RerankConfig{
			Active: "none",
			Providers: map[string]RerankProviderConfig{
				"none": {ProviderConfig: ProviderConfig{Type: "passthrough", Model: "none"}},
			},
		},
		Services: ServicesConfig{
			EmbeddingServiceURL: e.EmbeddingServiceURL,
			RerankServiceURL:    e.RerankServiceURL,
		},
		Backend: backendFromEnv(e),
	}

	if e.RerankProvider != "" && e.RerankProvider != "none" {
		model := firstNonEmpty(e.RerankModel, e.OpenAIRerankModel)
		switch e.RerankProvider {
		case "cohere":
			if model == "" {
				model = "rerank-english-v3.0"
			}
			cfg.Rerank.Active = "cohere"
			cfg.Rerank.Providers["cohere"] = RerankProviderConfig{
				ProviderConfig: ProviderConfig{
					Type:      "cohere",
					BaseURL:   e.RerankBaseURL,
					APIKeyEnv: "COHERE_API_KEY",
					Model:     model,
				},
			}
		default:
			if model == "" {
				model = "gpt-4.1-mini"
			}
			cfg.Rerank.Active = e.RerankProvider
			cfg.Rerank.Providers[e.RerankProvider] = RerankProviderConfig{
				ProviderConfig: ProviderConfig{
					Type:      "openai-compatible",
					BaseURL:   firstNonEmpty(e.RerankBaseURL, e.OpenAIBaseURL),
					APIKeyEnv: "RERANK_API_KEY",
					Model:     model,
				},
			}
		}
	}

	return cfg
}

func backendFromEnv(e envOverrides) BackendConfig {
	b := BackendConfig{Type: firstNonEmpty(e.GatewayBackend, "memory")}
	b.Milvus = MilvusConfig{
		Host:       e.MilvusHost,
		Port:       e.MilvusPort,
		User:       e.MilvusUser,
		Password:   e.MilvusPassword,
		Collection: e.MilvusCollection,
		Dim:        e.MilvusDim,
	}
	b.Memory = MemoryConfig{MaxDocs: e.GatewayMaxDocs}
	return b
}

// applyEnvOverrides applies the post-load environment overrides that take
// effect even when a config file was found: active provider name and
// service URL overrides.
func applyEnvOverrides(cfg *Config, e envOverrides) *Config {
	if e.RagEmbeddingProvider != "" {
		cfg.Embedding.Active = e.RagEmbeddingProvider
	}
	if e.RagRerankProvider != "" {
		cfg.Rerank.Active = e.RagRerankProvider
	}
	if e.EmbeddingServiceURL != "" {
		cfg.Services.EmbeddingServiceURL = e.EmbeddingServiceURL
	}
	if e.RerankServiceURL != "" {
		cfg.Services.RerankServiceURL = e.RerankServiceURL
	}
	if e.GatewayBackend != "" {
		cfg.Backend.Type = e.GatewayBackend
	}
	if active, ok := cfg.Embedding.Providers[cfg.Embedding.Active]; ok {
		if e.EmbeddingRPM != 0 {
			active.RequestsPerMinute = e.EmbeddingRPM
		}
		if e.EmbeddingTPM != 0 {
			active.TokensPerMinute = e.EmbeddingTPM
		}
		cfg.Embedding.Providers[cfg.Embedding.Active] = active
	}
	cfg.RequireBackend = e.GatewayRequireBackend
	if cfg.AuthTokenEnv == "" {
		cfg.AuthTokenEnv = "AUTH_TOKEN"
	}
	return cfg
}

// Load resolves the gateway configuration following the documented
// precedence. It is not memoized: callers (cmd/gateway) load once and pass
// the resulting *Config by reference, per the Design Notes' preference for
// an explicit value over a global singleton.
func Load() (*Config, error) {
	e, err := parseEnvOverrides()
	if err != nil {
		return nil, errors.Wrap(err, "parsing environment overrides")
	}

	path, found := findConfigFile(e.GatewayConfig)
	var cfg *Config
	if found {
		loaded, err := loadYAMLFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = buildFromEnv(e)
	}
	return applyEnvOverrides(cfg, e), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
