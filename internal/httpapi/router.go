package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/rdwj/vectorgateway/internal/gateway"
	"github.com/rdwj/vectorgateway/internal/logging"
	"github.com/rdwj/vectorgateway/internal/store"
)

// Server binds a gateway.Pipeline and a store.Store to the gin routes
// named in SPEC_FULL.md §6.
type Server struct {
	pipeline *gateway.Pipeline
	store    store.Store
	log      logging.Logger
}

// New builds the gin.Engine. authToken disables auth entirely when
// empty, per the Design Notes. Middleware order is recovery ->
// structured log -> auth, so a panic or an auth rejection is still
// logged (SPEC_FULL.md §4.8 Expansion).
func New(pipeline *gateway.Pipeline, vectorStore store.Store, authToken string, log logging.Logger) *gin.Engine {
	s := &Server{pipeline: pipeline, store: vectorStore, log: log}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(recovery(log), requestLogger(log))

	r.GET("/healthz", s.healthz)

	authed := r.Group("/")
	authed.Use(authMiddleware(authToken))
	authed.POST("/upsert", s.upsert)
	authed.POST("/search", s.search)
	authed.GET("/collections", s.listCollections)
	authed.GET("/collections/:name/stats", s.collectionStats)

	return r
}
