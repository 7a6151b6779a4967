package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func clearGatewayEnv(t *testing.T) {
	t.Helper()
	vars := []string{
		"GATEWAY_CONFIG", "GATEWAY_BACKEND", "GATEWAY_MAX_DOCS", "GATEWAY_REQUIRE_BACKEND",
		"RAG_EMBEDDING_PROVIDER", "RAG_RERANK_PROVIDER", "RERANK_PROVIDER",
		"EMBEDDING_SERVICE_URL", "RERANK_SERVICE_URL", "EMBEDDING_MODEL",
		"OPENAI_EMBEDDING_MODEL", "EMBEDDING_BASE_URL", "OPENAI_BASE_URL",
		"MILVUS_HOST", "MILVUS_PORT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}

func TestBuildFromEnvDefaultsToOpenAIAndMemory(t *testing.T) {
	clearGatewayEnv(t)
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "openai", cfg.Embedding.Active)
	p, ok := cfg.ActiveEmbedding()
	require.True(t, ok)
	require.Equal(t, "text-embedding-3-small", p.Model)
	require.Equal(t, "none", cfg.Rerank.Active)
	_, ok = cfg.ActiveRerank()
	require.False(t, ok)
	require.Equal(t, "memory", cfg.Backend.Type)
}

func TestEnvOverridesActiveProviderAfterLoad(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("RAG_EMBEDDING_PROVIDER", "local-tei")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "local-tei", cfg.Embedding.Active)
}

func TestResolveAPIKeyFallsBackToOpenAI(t *testing.T) {
	t.Setenv("EMBEDDING_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	require.Equal(t, "sk-test", ResolveAPIKey("EMBEDDING_API_KEY"))
}

func TestResolveAPIKeyEmptyForPassthrough(t *testing.T) {
	require.Equal(t, "", ResolveAPIKey(""))
}

func TestExplicitConfigPathMissingFileDoesNotSearchFurther(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("GATEWAY_CONFIG", "/nonexistent/rag-config.yaml")
	path, found := findConfigFile("/nonexistent/rag-config.yaml")
	require.False(t, found)
	require.Empty(t, path)
}
