package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) healthz(c *gin.Context) {
	count := int64(-1)
	if s.store.Name() == "memory" {
		if names, err := s.store.ListCollections(c.Request.Context()); err == nil {
			count = 0
			for _, name := range names {
				if stats, err := s.store.Stats(c.Request.Context(), name); err == nil {
					count += stats.Count
				}
			}
		}
	}
	c.JSON(http.StatusOK, healthResponseDTO{Status: "ok", Backend: s.store.Name(), Count: count})
}

func (s *Server) upsert(c *gin.Context) {
	var dto upsertRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := s.pipeline.Upsert(c.Request.Context(), dto.toGateway())
	if err != nil {
		respondError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, fromGatewayUpsert(resp))
}

func (s *Server) search(c *gin.Context) {
	var dto searchRequestDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	req := dto.toGateway()
	resp, err := s.pipeline.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, statusFor(err), err.Error())
		return
	}

	setLogFields(c, searchLogFields{
		collection: resp.Collection,
		topK:       req.TopK,
		hasFilters: req.Filters != nil,
		reranked:   resp.Reranked,
		hitCount:   resp.Count,
	})
	c.JSON(http.StatusOK, fromGatewaySearch(resp))
}

func (s *Server) listCollections(c *gin.Context) {
	names, err := s.store.ListCollections(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, collectionsResponseDTO{Collections: names, Count: len(names)})
}

func (s *Server) collectionStats(c *gin.Context) {
	name := c.Param("name")
	stats, err := s.store.Stats(c.Request.Context(), name)
	if err != nil {
		respondError(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, fromStoreStats(name, stats))
}
