package gateway

import (
	"github.com/rdwj/vectorgateway/internal/embedding"
	"github.com/rdwj/vectorgateway/internal/logging"
	"github.com/rdwj/vectorgateway/internal/rerank"
	"github.com/rdwj/vectorgateway/internal/store"
)

// Pipeline wires the resolved Embedder, Reranker, and Store into the
// query (Search) and upsert (Upsert) operations. One Pipeline is built
// once at startup (cmd/gateway) and shared across requests; it holds no
// per-request state.
type Pipeline struct {
	Embedder   embedding.Embedder
	Reranker   rerank.Reranker
	Store      store.Store
	Log        logging.Logger
	DefaultCol string
	RRFK       int
}

// Config bundles the constructor arguments so cmd/gateway can build a
// Pipeline from a loaded config.Config without repeating its field
// names here.
type Config struct {
	Embedder      embedding.Embedder
	Reranker      rerank.Reranker
	Store         store.Store
	Log           logging.Logger
	DefaultCollection string
	RRFK          int
}

// New builds a Pipeline. RRFK <= 0 defaults to store.DefaultRRFK.
func New(cfg Config) *Pipeline {
	rrfK := cfg.RRFK
	if rrfK <= 0 {
		rrfK = store.DefaultRRFK
	}
	return &Pipeline{
		Embedder:   cfg.Embedder,
		Reranker:   cfg.Reranker,
		Store:      cfg.Store,
		Log:        cfg.Log,
		DefaultCol: cfg.DefaultCollection,
		RRFK:       rrfK,
	}
}

// resolveCollection applies the request-value-or-configured-default rule
// used by both Search and Upsert (spec.md §4.6 step 1, §4.7 step 1).
func (p *Pipeline) resolveCollection(requested string) string {
	if requested != "" {
		return requested
	}
	return p.DefaultCol
}
