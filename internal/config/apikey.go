package config

import "os"

// ResolveAPIKey reads the API key named by a provider's api_key_env field,
// falling back to the legacy environment variable names the reference
// implementation accepts for backward compatibility. Returns "" if no key
// is configured or found (passthrough providers have no api_key_env).
func ResolveAPIKey(apiKeyEnv string) string {
	if apiKeyEnv == "" {
		return ""
	}
	if v := os.Getenv(apiKeyEnv); v != "" {
		return v
	}
	switch apiKeyEnv {
	case "EMBEDDING_API_KEY", "RERANK_API_KEY":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			return v
		}
	case "COHERE_API_KEY":
		if v := os.Getenv("RERANK_API_KEY"); v != "" {
			return v
		}
	}
	return ""
}
