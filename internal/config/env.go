package config

import (
	"github.com/caarlos0/env/v11"
)

// envOverrides binds the gateway's startup environment variables onto a
// typed struct via caarlos0/env, instead of scattering os.Getenv calls
// across the loader.
type envOverrides struct {
	GatewayBackend        string `env:"GATEWAY_BACKEND"`
	MilvusHost            string `env:"MILVUS_HOST" envDefault:"localhost"`
	MilvusPort            int    `env:"MILVUS_PORT" envDefault:"19530"`
	MilvusUser            string `env:"MILVUS_USER"`
	MilvusPassword        string `env:"MILVUS_PASSWORD"`
	MilvusCollection      string `env:"MILVUS_COLLECTION"`
	MilvusDim             int    `env:"MILVUS_DIM"`
	GatewayMaxDocs        int    `env:"GATEWAY_MAX_DOCS" envDefault:"100000"`
	GatewayRequireBackend bool   `env:"GATEWAY_REQUIRE_BACKEND"`
	GatewayConfig         string `env:"GATEWAY_CONFIG"`
	EmbeddingServiceURL   string `env:"EMBEDDING_SERVICE_URL"`
	RerankServiceURL      string `env:"RERANK_SERVICE_URL"`
	EmbeddingServiceToken string `env:"EMBEDDING_SERVICE_TOKEN"`
	ServiceAuthToken      string `env:"SERVICE_AUTH_TOKEN"`
	AuthToken             string `env:"AUTH_TOKEN"`
	RagEmbeddingProvider  string `env:"RAG_EMBEDDING_PROVIDER"`
	RagRerankProvider     string `env:"RAG_RERANK_PROVIDER"`
	RerankProvider        string `env:"RERANK_PROVIDER"`
	RerankModel           string `env:"RERANK_MODEL"`
	OpenAIRerankModel     string `env:"OPENAI_RERANK_MODEL"`
	RerankBaseURL         string `env:"RERANK_BASE_URL"`
	EmbeddingModel        string `env:"EMBEDDING_MODEL"`
	OpenAIEmbeddingModel  string `env:"OPENAI_EMBEDDING_MODEL"`
	EmbeddingBaseURL      string `env:"EMBEDDING_BASE_URL"`
	OpenAIBaseURL         string `env:"OPENAI_BASE_URL"`
	EmbeddingRPM          int    `env:"EMBEDDING_REQUESTS_PER_MINUTE"`
	EmbeddingTPM          int    `env:"EMBEDDING_TOKENS_PER_MINUTE"`
}

func parseEnvOverrides() (envOverrides, error) {
	var e envOverrides
	if err := env.Parse(&e); err != nil {
		return e, err
	}
	return e, nil
}

// ServiceAuthHeaderToken resolves the bearer token a service-first wrapper
// should send to its backing microservice, preferring the service-specific
// token over the generic one.
func ServiceAuthHeaderToken(serviceSpecific, generic string) string {
	if serviceSpecific != "" {
		return serviceSpecific
	}
	return generic
}
