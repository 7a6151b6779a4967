// Package config loads the gateway's process-wide configuration: active
// embedding/rerank provider selection, service-first URLs, and backend
// settings. Resolution follows rag-config.yaml's precedence rules from the
// reference implementation this gateway replaces: explicit path env var,
// then standard search paths, then environment-only defaults, then
// environment overrides of active provider names and service URLs.
package config

// ProviderConfig is the shared shape of an embedding or rerank provider
// entry in the config file.
type ProviderConfig struct {
	Type      string `yaml:"type"`
	BaseURL   string `yaml:"base_url,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	Model     string `yaml:"model,omitempty"`
}

// EmbeddingProviderConfig configures one named embedding provider.
type EmbeddingProviderConfig struct {
	ProviderConfig    `yaml:",inline"`
	Dimensions        int `yaml:"dimensions,omitempty"`
	MaxBatch          int `yaml:"max_batch,omitempty"`
	MaxTokensPerInput int `yaml:"max_tokens_per_input,omitempty"`
	RequestsPerMinute int `yaml:"requests_per_minute,omitempty"`
	TokensPerMinute   int `yaml:"tokens_per_minute,omitempty"`
}

// RerankProviderConfig configures one named rerank provider.
type RerankProviderConfig struct {
	ProviderConfig `yaml:",inline"`
	MaxDocuments   int `yaml:"max_documents,omitempty"`
}

// EmbeddingConfig is the top-level embedding section: which provider is
// active and the full named-provider table it is chosen from.
type EmbeddingConfig struct {
	Active    string                             `yaml:"active"`
	Providers map[string]EmbeddingProviderConfig `yaml:"providers"`
}

// RerankConfig is the top-level rerank section. Active "none" disables
// reranking (passthrough).
type RerankConfig struct {
	Active    string                          `yaml:"active"`
	Providers map[string]RerankProviderConfig `yaml:"providers"`
}

// ServicesConfig holds the service-first URLs: when set, the matching
// provider tries the microservice before falling back to the direct API.
type ServicesConfig struct {
	EmbeddingServiceURL string `yaml:"embedding_service_url,omitempty"`
	RerankServiceURL    string `yaml:"rerank_service_url,omitempty"`
}

// MilvusConfig configures the production vector-store backend.
type MilvusConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	User       string `yaml:"user,omitempty"`
	Password   string `yaml:"password,omitempty"`
	Collection string `yaml:"collection,omitempty"`
	Dim        int    `yaml:"dim,omitempty"`
}

// MemoryConfig configures the in-memory test-only backend.
type MemoryConfig struct {
	MaxDocs int `yaml:"max_docs"`
}

// BackendConfig selects and configures the vector-store backend.
type BackendConfig struct {
	Type   string       `yaml:"type"` // "milvus" or "memory"
	Milvus MilvusConfig `yaml:"milvus"`
	Memory MemoryConfig `yaml:"memory"`
}

// Config is the complete, process-wide gateway configuration, loaded once
// at startup and held immutable thereafter (see Design Notes: no hidden
// global singleton — main constructs one Config and passes it by
// reference through the handler tree).
type Config struct {
	Embedding      EmbeddingConfig `yaml:"embedding"`
	Rerank         RerankConfig    `yaml:"rerank"`
	Services       ServicesConfig  `yaml:"services"`
	Backend        BackendConfig   `yaml:"backend"`
	AuthTokenEnv   string          `yaml:"auth_token_env,omitempty"`
	RequireBackend bool            `yaml:"-"`
}

// defaultCollectionName is the literal fallback the reference
// implementation used when neither the request nor the backend config
// names a collection: DEFAULT_COLLECTION = os.environ.get("MILVUS_COLLECTION", "rag_gateway").
const defaultCollectionName = "rag_gateway"

// DefaultCollection returns the collection name to use when a request
// doesn't specify one: the configured Milvus collection if set, else the
// reference implementation's literal fallback.
func (c *Config) DefaultCollection() string {
	if c.Backend.Milvus.Collection != "" {
		return c.Backend.Milvus.Collection
	}
	return defaultCollectionName
}

// ActiveEmbedding returns the config for the active embedding provider,
// and whether it was found.
func (c *Config) ActiveEmbedding() (EmbeddingProviderConfig, bool) {
	p, ok := c.Embedding.Providers[c.Embedding.Active]
	return p, ok
}

// ActiveRerank returns the config for the active rerank provider. Returns
// ok=false when reranking is disabled ("" or "none").
func (c *Config) ActiveRerank() (RerankProviderConfig, bool) {
	if c.Rerank.Active == "" || c.Rerank.Active == "none" {
		return RerankProviderConfig{}, false
	}
	p, ok := c.Rerank.Providers[c.Rerank.Active]
	return p, ok
}
