package httpapi

import (
	"github.com/rdwj/vectorgateway/internal/gateway"
	"github.com/rdwj/vectorgateway/internal/store"
)

func (dto upsertRequestDTO) toGateway() gateway.UpsertRequest {
	docs := make([]gateway.UpsertDocument, len(dto.Documents))
	for i, d := range dto.Documents {
		doc := gateway.UpsertDocument{DocID: d.DocID, Text: d.Text}
		if d.Metadata != nil {
			doc.FileName = d.Metadata.FileName
			doc.FilePath = d.Metadata.FilePath
			doc.Section = d.Metadata.Section
			doc.MimeType = d.Metadata.MimeType
			if d.Metadata.Page != nil {
				doc.SetPage(*d.Metadata.Page)
			}
			if d.Metadata.CreatedAtTS != nil {
				doc.SetCreatedAtTS(*d.Metadata.CreatedAtTS)
			}
			if d.Metadata.ChunkIndex != nil {
				doc.SetChunkIndex(*d.Metadata.ChunkIndex)
			}
		}
		docs[i] = doc
	}
	return gateway.UpsertRequest{Documents: docs, Collection: dto.Collection, Model: dto.Model}
}

func fromGatewayUpsert(resp gateway.UpsertResponse) upsertResponseDTO {
	return upsertResponseDTO{
		Inserted:   resp.Inserted,
		Total:      resp.Total,
		Backend:    resp.Backend,
		Collection: resp.Collection,
	}
}

func (dto searchRequestDTO) toGateway() gateway.SearchRequest {
	req := gateway.SearchRequest{
		Query:         dto.Query,
		Collection:    dto.Collection,
		TopK:          dto.TopK,
		ContextWindow: dto.ContextWindow,
		Model:         dto.Model,
	}
	if dto.Filters != nil {
		req.Filters = &gateway.SearchFilters{
			FileName:    dto.Filters.FileName,
			FilePattern: dto.Filters.FilePattern,
			MimeType:    dto.Filters.MimeType,
		}
	}
	return req
}

func fromGatewaySearch(resp gateway.SearchResponse) searchResponseDTO {
	hits := make([]searchHitDTO, len(resp.Hits))
	for i, h := range resp.Hits {
		surrounding := make([]surroundingChunkDTO, len(h.SurroundingChunks))
		for j, s := range h.SurroundingChunks {
			surrounding[j] = surroundingChunkDTO{ChunkIndex: s.ChunkIndex, Text: s.Text, Page: s.Page}
		}
		hits[i] = searchHitDTO{
			DocID:             h.DocID,
			Text:              h.Text,
			Score:             h.Score,
			Metadata:          h.Metadata,
			SurroundingChunks: surrounding,
		}
	}
	return searchResponseDTO{
		Hits:       hits,
		Count:      resp.Count,
		LatencyMs:  resp.LatencyMs,
		Backend:    resp.Backend,
		Collection: resp.Collection,
		Reranked:   resp.Reranked,
	}
}

func fromStoreStats(name string, s store.Stats) collectionStatsResponseDTO {
	fileNames := s.FileNames
	if fileNames == nil {
		fileNames = []string{}
	}
	mimeTypes := s.MimeTypes
	if mimeTypes == nil {
		mimeTypes = []string{}
	}
	return collectionStatsResponseDTO{Stats: collectionStatsDTO{
		Name:      name,
		RowCount:  s.Count,
		FileNames: fileNames,
		MimeTypes: mimeTypes,
	}}
}
