// Command gateway is the composition root: it loads configuration,
// resolves the active embedding and rerank providers into concrete
// values, dials the configured vector-store backend, and serves the
// HTTP surface. Grounded on the teacher's cmd-less single-binary shape
// generalized into an explicit main per SPEC_FULL.md §4.8/§6 (the
// teacher is a library, not a service; the server shape is adapted from
// other_examples' unified-rag-service main.go's gin setup and graceful
// shutdown).
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rdwj/vectorgateway/internal/config"
	"github.com/rdwj/vectorgateway/internal/embedding"
	"github.com/rdwj/vectorgateway/internal/gateway"
	"github.com/rdwj/vectorgateway/internal/httpapi"
	"github.com/rdwj/vectorgateway/internal/logging"
	"github.com/rdwj/vectorgateway/internal/rerank"
	"github.com/rdwj/vectorgateway/internal/store"
)

func main() {
	if err := run(); err != nil {
		logging.Global.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, _ := logging.ParseLevel(os.Getenv("GATEWAY_LOG_LEVEL"))
	log := logging.New(level)

	httpClient := &http.Client{Timeout: 30 * time.Second}

	emb, err := buildEmbedder(cfg, httpClient, log)
	if err != nil {
		return fmt.Errorf("building embedder: %w", err)
	}

	rr := buildReranker(cfg, httpClient, log)

	vectorStore, err := buildStore(cfg, log)
	if err != nil {
		return fmt.Errorf("building store: %w", err)
	}

	pipeline := gateway.New(gateway.Config{
		Embedder:          emb,
		Reranker:          rr,
		Store:             vectorStore,
		Log:               log,
		DefaultCollection: cfg.DefaultCollection(),
	})

	authToken := ""
	if cfg.AuthTokenEnv != "" {
		authToken = os.Getenv(cfg.AuthTokenEnv)
	}
	router := httpapi.New(pipeline, vectorStore, authToken, log)

	addr := ":" + firstNonEmpty(os.Getenv("GATEWAY_PORT"), "8080")
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  90 * time.Second,
		WriteTimeout: 90 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", addr, "backend", vectorStore.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// buildEmbedder resolves the active embedding provider per config.Type
// into a concrete embedding.Embedder, wrapping it in a service-first
// fallback when EMBEDDING_SERVICE_URL is set. Provider selection happens
// once here, not per request (SPEC_FULL.md §4.2).
func buildEmbedder(cfg *config.Config, client *http.Client, log logging.Logger) (embedding.Embedder, error) {
	active, ok := cfg.ActiveEmbedding()
	if !ok {
		return nil, fmt.Errorf("no active embedding provider %q configured", cfg.Embedding.Active)
	}
	apiKey := config.ResolveAPIKey(active.APIKeyEnv)

	var inner embedding.Embedder
	var err error
	switch active.Type {
	case "cohere":
		inner, err = embedding.NewCohereEmbedder(apiKey, active.BaseURL, active.Model, client)
	case "caikit":
		inner, err = embedding.NewCaikitEmbedder(active.BaseURL, active.Model, apiKey, client)
	case "openai-compatible", "":
		inner, err = embedding.NewOpenAIEmbedder(apiKey, active.BaseURL, active.Model, active.Dimensions, active.MaxBatch, active.MaxTokensPerInput, client)
	default:
		return nil, fmt.Errorf("unknown embedding provider type %q", active.Type)
	}
	if err != nil {
		return nil, err
	}

	if active.RequestsPerMinute > 0 || active.TokensPerMinute > 0 {
		inner = embedding.NewRateLimitedEmbedder(inner, active.RequestsPerMinute, active.TokensPerMinute)
	}

	if cfg.Services.EmbeddingServiceURL == "" {
		return inner, nil
	}
	token := config.ServiceAuthHeaderToken(os.Getenv("EMBEDDING_SERVICE_TOKEN"), os.Getenv("SERVICE_AUTH_TOKEN"))
	return embedding.NewServiceFirstEmbedder(inner, cfg.Services.EmbeddingServiceURL, token, client, log), nil
}

// buildReranker resolves the active rerank provider, defaulting to
// passthrough when disabled or unrecognized, and wraps it in a
// service-first fallback when RERANK_SERVICE_URL is set.
func buildReranker(cfg *config.Config, client *http.Client, log logging.Logger) rerank.Reranker {
	var inner rerank.Reranker = rerank.PassthroughReranker{}

	if active, ok := cfg.ActiveRerank(); ok {
		apiKey := config.ResolveAPIKey(active.APIKeyEnv)
		switch active.Type {
		case "cohere":
			inner = rerank.NewCohereReranker(apiKey, active.BaseURL, active.Model, client, log)
		case "jina":
			inner = rerank.NewJinaReranker(apiKey, active.BaseURL, active.Model, client, log)
		case "caikit":
			if r, err := rerank.NewCaikitReranker(active.BaseURL, active.Model, apiKey, client, log); err == nil {
				inner = r
			} else {
				log.Warn("caikit reranker misconfigured, using passthrough", "error", err)
			}
		default:
			log.Warn("unrecognized rerank provider type, using passthrough", "type", active.Type)
		}
	}

	if cfg.Services.RerankServiceURL == "" {
		return inner
	}
	token := config.ServiceAuthHeaderToken(os.Getenv("EMBEDDING_SERVICE_TOKEN"), os.Getenv("SERVICE_AUTH_TOKEN"))
	return rerank.NewServiceFirstReranker(inner, cfg.Services.RerankServiceURL, token, client, log)
}

// buildStore dials Milvus when configured, falling back to the
// in-memory backend unless GATEWAY_REQUIRE_BACKEND demands the
// configured backend succeed (the Open Question decision recorded in
// SPEC_FULL.md §9: fail fast rather than silently degrade to memory in
// production).
func buildStore(cfg *config.Config, log logging.Logger) (store.Store, error) {
	if cfg.Backend.Type != "milvus" {
		return store.NewMemoryStore(cfg.Backend.Memory.MaxDocs), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	m := cfg.Backend.Milvus
	milvusStore, err := store.NewMilvusStore(ctx, store.MilvusDialOptions{
		Address:  fmt.Sprintf("%s:%d", m.Host, m.Port),
		Username: m.User,
		Password: m.Password,
	}, log)
	if err != nil {
		if cfg.RequireBackend {
			return nil, fmt.Errorf("connecting to milvus: %w", err)
		}
		log.Warn("milvus unavailable, falling back to memory backend", "error", err)
		return store.NewMemoryStore(cfg.Backend.Memory.MaxDocs), nil
	}
	return milvusStore, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
