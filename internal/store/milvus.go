package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/rdwj/vectorgateway/internal/gwerr"
	"github.com/rdwj/vectorgateway/internal/logging"
)

const (
	fieldChunkID     = "chunk_id"
	fieldEmbedding   = "embedding"
	fieldText        = "text"
	fieldFileName    = "file_name"
	fieldFilePath    = "file_path"
	fieldSection     = "section"
	fieldMimeType    = "mime_type"
	fieldPage        = "page"
	fieldChunkIndex  = "chunk_index"
	fieldCreatedAtTS = "created_at_ts"

	maxTextLen  = 65535
	maxNameLen  = 1024
	loadRetries = 5
	idxRetries  = 10
)

// MilvusStore is the production vector-store backend, grounded on
// internal/rag/vectordb/milvus.go generalized from the teacher's
// auto-incrementing int64 id/schema to the gateway's chunk_id-keyed
// rows (file_name, page, section, mime_type, chunk_index,
// created_at_ts, text). Milvus 2.4's Go SDK has no native BM25 full
// text search, so the lexical leg of HybridSearch is served by a
// lazily built, per-collection bm25Index over the text the collection
// already holds (see lexicalIndex below) rather than a Milvus sparse
// field; this is a deliberate simplification noted in DESIGN.md.
type MilvusStore struct {
	client client.Client
	log    logging.Logger

	indexType    string
	indexParams  map[string]interface{}
	searchParams map[string]interface{}
	metric       entity.MetricType

	mu     sync.Mutex
	loaded map[string]bool
	dims   map[string]int
	lex    map[string]*bm25Index
}

// MilvusDialOptions configures the underlying client and ANN index.
type MilvusDialOptions struct {
	Address     string
	Username    string
	Password    string
	IndexType   string // "IVF_FLAT" or "HNSW"
	Metric      string // "L2" or "IP"
	NProbe      int
	EFConstruct int
	HNSWM       int
}

func NewMilvusStore(ctx context.Context, opts MilvusDialOptions, log logging.Logger) (*MilvusStore, error) {
	if log == nil {
		log = logging.Global
	}
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c, err := client.NewClient(dialCtx, client.Config{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
	})
	if err != nil {
		return nil, gwerr.NewRemote("store", fmt.Errorf("connecting to milvus at %s: %w", opts.Address, err))
	}

	indexType := opts.IndexType
	if indexType == "" {
		indexType = "IVF_FLAT"
	}
	metric := entity.L2
	if opts.Metric == "IP" {
		metric = entity.IP
	}
	nprobe := opts.NProbe
	if nprobe <= 0 {
		nprobe = 16
	}
	efConstruct := opts.EFConstruct
	if efConstruct <= 0 {
		efConstruct = 500
	}
	hnswM := opts.HNSWM
	if hnswM <= 0 {
		hnswM = 16
	}

	return &MilvusStore{
		client:       c,
		log:          log,
		indexType:    indexType,
		indexParams:  map[string]interface{}{"nlist": 1024, "M": hnswM, "efConstruction": efConstruct},
		searchParams: map[string]interface{}{"nprobe": nprobe, "ef": 64},
		metric:       metric,
		loaded:       make(map[string]bool),
		dims:         make(map[string]int),
		lex:          make(map[string]*bm25Index),
	}, nil
}

func (m *MilvusStore) Name() string { return "milvus" }

func (m *MilvusStore) EnsureCollection(ctx context.Context, collection string, dimension int) error {
	has, err := m.client.HasCollection(ctx, collection)
	if err != nil {
		return gwerr.NewRemote("store", fmt.Errorf("checking collection %s: %w", collection, err))
	}
	if has {
		m.mu.Lock()
		m.dims[collection] = dimension
		m.mu.Unlock()
		return nil
	}

	schema := entity.NewSchema().
		WithName(collection).
		WithDescription("gateway chunk collection").
		WithField(entity.NewField().WithName(fieldChunkID).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxNameLen).WithIsPrimaryKey(true)).
		WithField(entity.NewField().WithName(fieldEmbedding).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dimension))).
		WithField(entity.NewField().WithName(fieldText).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTextLen)).
		WithField(entity.NewField().WithName(fieldFileName).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxNameLen)).
		WithField(entity.NewField().WithName(fieldFilePath).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxNameLen)).
		WithField(entity.NewField().WithName(fieldSection).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxNameLen)).
		WithField(entity.NewField().WithName(fieldMimeType).WithDataType(entity.FieldTypeVarChar).WithMaxLength(256)).
		WithField(entity.NewField().WithName(fieldPage).WithDataType(entity.FieldTypeInt32)).
		WithField(entity.NewField().WithName(fieldChunkIndex).WithDataType(entity.FieldTypeInt32)).
		WithField(entity.NewField().WithName(fieldCreatedAtTS).WithDataType(entity.FieldTypeInt64))

	if err := m.client.CreateCollection(ctx, schema, entity.DefaultShardNumber); err != nil {
		return gwerr.NewRemote("store", fmt.Errorf("creating collection %s: %w", collection, err))
	}
	m.mu.Lock()
	m.dims[collection] = dimension
	m.mu.Unlock()
	return nil
}

func (m *MilvusStore) Upsert(ctx context.Context, collection string, chunks []Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	ids := make([]string, len(chunks))
	vectors := make([][]float32, len(chunks))
	texts := make([]string, len(chunks))
	fileNames := make([]string, len(chunks))
	filePaths := make([]string, len(chunks))
	sections := make([]string, len(chunks))
	mimeTypes := make([]string, len(chunks))
	pages := make([]int32, len(chunks))
	chunkIdxs := make([]int32, len(chunks))
	createdAt := make([]int64, len(chunks))

	for i, c := range chunks {
		ids[i] = c.ChunkID
		vectors[i] = c.Vector
		texts[i] = c.Text
		fileNames[i] = c.FileName
		filePaths[i] = c.FilePath
		sections[i] = c.Section
		mimeTypes[i] = c.MimeType
		pages[i] = int32(c.Page)
		chunkIdxs[i] = int32(c.ChunkIndex)
		createdAt[i] = c.CreatedAtTS
	}

	dim := len(vectors[0])
	_, err := m.client.Insert(ctx, collection, "",
		entity.NewColumnVarChar(fieldChunkID, ids),
		entity.NewColumnFloatVector(fieldEmbedding, dim, vectors),
		entity.NewColumnVarChar(fieldText, texts),
		entity.NewColumnVarChar(fieldFileName, fileNames),
		entity.NewColumnVarChar(fieldFilePath, filePaths),
		entity.NewColumnVarChar(fieldSection, sections),
		entity.NewColumnVarChar(fieldMimeType, mimeTypes),
		entity.NewColumnInt32(fieldPage, pages),
		entity.NewColumnInt32(fieldChunkIndex, chunkIdxs),
		entity.NewColumnInt64(fieldCreatedAtTS, createdAt),
	)
	if err != nil {
		return 0, gwerr.NewRemote("store", fmt.Errorf("inserting into %s: %w", collection, err))
	}
	if err := m.client.Flush(ctx, collection, false); err != nil {
		return 0, gwerr.NewRemote("store", fmt.Errorf("flushing %s: %w", collection, err))
	}

	m.mu.Lock()
	delete(m.lex, collection) // invalidate the cached lexical index
	m.mu.Unlock()

	if err := m.createIndexWithRetry(ctx, collection, idxRetries); err != nil {
		return 0, err
	}
	if err := m.ensureLoaded(ctx, collection, loadRetries); err != nil {
		return 0, err
	}
	return len(chunks), nil
}

func (m *MilvusStore) createIndexWithRetry(ctx context.Context, collection string, maxRetries int) error {
	indexes, err := m.client.DescribeIndex(ctx, collection, fieldEmbedding)
	if err == nil && len(indexes) > 0 {
		return nil
	}

	var idx entity.Index
	switch m.indexType {
	case "HNSW":
		idx, err = entity.NewIndexHNSW(m.metric, m.indexParams["M"].(int), m.indexParams["efConstruction"].(int))
	default:
		idx, err = entity.NewIndexIvfFlat(m.metric, m.indexParams["nlist"].(int))
	}
	if err != nil {
		return gwerr.NewConfig("building index parameters: %s", err)
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lastErr = m.client.CreateIndex(ctx, collection, fieldEmbedding, idx, false)
		if lastErr == nil {
			return nil
		}
		m.log.Warn("index creation attempt failed, retrying", "collection", collection, "attempt", i+1, "error", lastErr)
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return gwerr.NewRemote("store", fmt.Errorf("creating index for %s after %d attempts: %w", collection, maxRetries, lastErr))
}

func (m *MilvusStore) ensureLoaded(ctx context.Context, collection string, maxRetries int) error {
	m.mu.Lock()
	if m.loaded[collection] {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		lastErr = m.client.LoadCollection(ctx, collection, false)
		if lastErr == nil {
			m.mu.Lock()
			m.loaded[collection] = true
			m.mu.Unlock()
			return nil
		}
		m.log.Debug("load collection attempt failed, retrying", "collection", collection, "attempt", i+1, "error", lastErr)
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return gwerr.NewRemote("store", fmt.Errorf("loading collection %s after %d attempts: %w", collection, maxRetries, lastErr))
}

func (m *MilvusStore) searchParamFor() (entity.SearchParam, error) {
	switch m.indexType {
	case "HNSW":
		return entity.NewIndexHNSWSearchParam(m.searchParams["ef"].(int))
	default:
		return entity.NewIndexIvfFlatSearchParam(m.searchParams["nprobe"].(int))
	}
}

var outputFields = []string{fieldText, fieldFileName, fieldFilePath, fieldSection, fieldMimeType, fieldPage, fieldChunkIndex, fieldCreatedAtTS}

func columnString(fields []entity.Column, name string, i int) string {
	col := getColumn(fields, name)
	if col == nil {
		return ""
	}
	v, err := col.Get(i)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func columnInt(fields []entity.Column, name string, i int) int64 {
	col := getColumn(fields, name)
	if col == nil {
		return 0
	}
	v, err := col.Get(i)
	if err != nil {
		return 0
	}
	switch n := v.(type) {
	case int32:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

func getColumn(fields []entity.Column, name string) entity.Column {
	for _, f := range fields {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

// rowsFromSearch converts one client.SearchResult (one query vector's
// hits) into Chunks. Grounded on rag/milvus.go's wrapSearchResults,
// generalized from an int64 ID column to the gateway's varchar
// chunk_id primary key.
func rowsFromSearch(rs client.SearchResult) []Chunk {
	chunks := make([]Chunk, 0, rs.ResultCount)
	for i := 0; i < rs.ResultCount; i++ {
		idVal, _ := rs.IDs.Get(i)
		chunkID, _ := idVal.(string)
		c := Chunk{
			ChunkID:     chunkID,
			Text:        columnString(rs.Fields, fieldText, i),
			FileName:    columnString(rs.Fields, fieldFileName, i),
			FilePath:    columnString(rs.Fields, fieldFilePath, i),
			Section:     columnString(rs.Fields, fieldSection, i),
			MimeType:    columnString(rs.Fields, fieldMimeType, i),
			Page:        int(columnInt(rs.Fields, fieldPage, i)),
			ChunkIndex:  int(columnInt(rs.Fields, fieldChunkIndex, i)),
			CreatedAtTS: columnInt(rs.Fields, fieldCreatedAtTS, i),
		}
		if i < len(rs.Scores) {
			c.Distance = float64(rs.Scores[i])
			c.Score = normalizeScore(1 - c.Distance)
		}
		chunks = append(chunks, c)
	}
	return chunks
}

// rowsFromQuery converts the flat []entity.Column shape Client.Query
// returns (one column per requested field, no IDs/Scores wrapper) into
// Chunks.
func rowsFromQuery(chunkIDs []string, fields []entity.Column) []Chunk {
	chunks := make([]Chunk, 0, len(chunkIDs))
	for i, id := range chunkIDs {
		chunks = append(chunks, Chunk{
			ChunkID:     id,
			Text:        columnString(fields, fieldText, i),
			FileName:    columnString(fields, fieldFileName, i),
			FilePath:    columnString(fields, fieldFilePath, i),
			Section:     columnString(fields, fieldSection, i),
			MimeType:    columnString(fields, fieldMimeType, i),
			Page:        int(columnInt(fields, fieldPage, i)),
			ChunkIndex:  int(columnInt(fields, fieldChunkIndex, i)),
			CreatedAtTS: columnInt(fields, fieldCreatedAtTS, i),
		})
	}
	return chunks
}

// fetchRowsByIDs queries rows by chunk_id directly, including their
// embedding, and scores them against queryVector the same way the memory
// backend scores a dense candidate. Used for BM25-only matches that
// never surfaced in the ANN search.
func (m *MilvusStore) fetchRowsByIDs(ctx context.Context, collection string, ids []string, queryVector []float32) ([]Chunk, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = fmt.Sprintf("\"%s\"", escapeExpr(id))
	}
	expr := fmt.Sprintf("%s in [%s]", fieldChunkID, strings.Join(quoted, ", "))

	queryFields := append([]string{fieldChunkID, fieldEmbedding}, outputFields...)
	fields, err := m.client.Query(ctx, collection, nil, expr, queryFields)
	if err != nil {
		return nil, gwerr.NewRemote("store", fmt.Errorf("querying lexical-only rows in %s: %w", collection, err))
	}

	idCol := getColumn(fields, fieldChunkID)
	if idCol == nil {
		return nil, nil
	}
	chunkIDs := make([]string, idCol.Len())
	for i := 0; i < idCol.Len(); i++ {
		v, err := idCol.Get(i)
		if err != nil {
			continue
		}
		chunkIDs[i], _ = v.(string)
	}

	chunks := rowsFromQuery(chunkIDs, fields)
	if vecCol, ok := getColumn(fields, fieldEmbedding).(*entity.ColumnFloatVector); ok {
		vectors := vecCol.Data()
		for i := range chunks {
			if i >= len(vectors) {
				continue
			}
			sim := cosineSimilarity(queryVector, vectors[i])
			chunks[i].Score = normalizeScore((sim + 1.0) / 2.0)
			chunks[i].Distance = 1 - sim
		}
	}
	return chunks, nil
}

func (m *MilvusStore) denseSearch(ctx context.Context, collection string, queryVector []float32, topK int) ([]Chunk, error) {
	if err := m.ensureLoaded(ctx, collection, loadRetries); err != nil {
		return nil, err
	}
	sp, err := m.searchParamFor()
	if err != nil {
		return nil, gwerr.NewConfig("building search parameters: %s", err)
	}

	results, err := m.client.Search(ctx, collection, nil, "", outputFields,
		[]entity.Vector{entity.FloatVector(queryVector)}, fieldEmbedding, m.metric, topK, sp)
	if err != nil {
		return nil, gwerr.NewRemote("store", fmt.Errorf("searching %s: %w", collection, err))
	}
	if len(results) == 0 || results[0].ResultCount == 0 {
		return nil, nil
	}
	return rowsFromSearch(results[0]), nil
}

// lexicalIndex lazily builds and caches a bm25Index over a collection's
// text by scanning it once via Query(); invalidated on every Upsert.
func (m *MilvusStore) lexicalIndex(ctx context.Context, collection string) (*bm25Index, error) {
	m.mu.Lock()
	if idx, ok := m.lex[collection]; ok {
		m.mu.Unlock()
		return idx, nil
	}
	m.mu.Unlock()

	fields, err := m.client.Query(ctx, collection, nil, "", []string{fieldChunkID, fieldText})
	if err != nil {
		return nil, gwerr.NewRemote("store", fmt.Errorf("scanning %s for lexical index: %w", collection, err))
	}

	idx := newBM25Index()
	idCol := getColumn(fields, fieldChunkID)
	textCol := getColumn(fields, fieldText)
	if idCol != nil && textCol != nil {
		for i := 0; i < idCol.Len(); i++ {
			idVal, err := idCol.Get(i)
			if err != nil {
				continue
			}
			id, _ := idVal.(string)
			idx.add(id, columnString(fields, fieldText, i))
		}
	}

	m.mu.Lock()
	m.lex[collection] = idx
	m.mu.Unlock()
	return idx, nil
}

func (m *MilvusStore) HybridSearch(ctx context.Context, collection string, queryVector []float32, queryText string, topK, overfetch, rrfK int) ([]Chunk, error) {
	if overfetch <= 0 {
		overfetch = topK * 3
		if overfetch < 20 {
			overfetch = 20
		}
	}

	dense, err := m.denseSearch(ctx, collection, queryVector, overfetch)
	if err != nil {
		return nil, err
	}

	var lexical []Chunk
	if queryText != "" {
		if idx, lexErr := m.lexicalIndex(ctx, collection); lexErr == nil {
			denseByID := make(map[string]Chunk, len(dense))
			for _, c := range dense {
				denseByID[c.ChunkID] = c
			}
			var missing []string
			for _, id := range idx.search(queryText, overfetch) {
				if c, ok := denseByID[id]; ok {
					lexical = append(lexical, c)
				} else {
					missing = append(missing, id)
				}
			}
			// BM25-only matches never entered the ANN result set, so
			// their dense distance isn't known yet; fetch those rows
			// directly (with their embedding) so a purely-lexical match
			// can still enter RRF instead of being dropped.
			if len(missing) > 0 {
				extra, fetchErr := m.fetchRowsByIDs(ctx, collection, missing, queryVector)
				if fetchErr != nil {
					m.log.Warn("fetching lexical-only rows failed", "collection", collection, "error", fetchErr)
				} else {
					lexical = append(lexical, extra...)
				}
			}
		} else {
			m.log.Warn("lexical index unavailable, falling back to dense-only", "collection", collection, "error", lexErr)
		}
	}

	fused := FuseRRF(dense, lexical, rrfK)
	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

func (m *MilvusStore) NeighborChunks(ctx context.Context, collection, fileName string, chunkIndex, window int) ([]Chunk, error) {
	if window <= 0 {
		return nil, nil
	}
	expr := fmt.Sprintf("%s == \"%s\" && %s >= %d && %s <= %d",
		fieldFileName, escapeExpr(fileName), fieldChunkIndex, chunkIndex-window, fieldChunkIndex, chunkIndex+window)

	queryFields := append([]string{fieldChunkID}, outputFields...)
	fields, err := m.client.Query(ctx, collection, nil, expr, queryFields)
	if err != nil {
		return nil, gwerr.NewRemote("store", fmt.Errorf("querying neighbors in %s: %w", collection, err))
	}
	idCol := getColumn(fields, fieldChunkID)
	if idCol == nil {
		return nil, nil
	}
	ids := make([]string, idCol.Len())
	for i := range ids {
		v, _ := idCol.Get(i)
		ids[i], _ = v.(string)
	}

	var out []Chunk
	for _, c := range rowsFromQuery(ids, fields) {
		if c.ChunkIndex != chunkIndex {
			out = append(out, c)
		}
	}
	return out, nil
}

func escapeExpr(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '"' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}

// statsSampleLimit bounds how many rows Stats scans to extract distinct
// file_name/mime_type values, per the Open Question decision in
// SPEC_FULL.md §9 (sampled, not exhaustive, on large collections).
const statsSampleLimit = 5000

// Stats reports the collection row count via GetCollectionStatistics,
// which Milvus derives from flushed segment metadata rather than a live
// scan, and samples up to statsSampleLimit rows for distinct
// file_name/mime_type values; both are therefore approximate, not
// exact, per the Open Question decision recorded in SPEC_FULL.md.
func (m *MilvusStore) Stats(ctx context.Context, collection string) (Stats, error) {
	has, err := m.client.HasCollection(ctx, collection)
	if err != nil {
		return Stats{}, gwerr.NewRemote("store", fmt.Errorf("checking collection %s: %w", collection, err))
	}
	if !has {
		return Stats{}, gwerr.NewNotFound(collection)
	}

	stats, err := m.client.GetCollectionStatistics(ctx, collection)
	if err != nil {
		return Stats{}, gwerr.NewRemote("store", fmt.Errorf("fetching stats for %s: %w", collection, err))
	}
	count := int64(0)
	if raw, ok := stats["row_count"]; ok {
		fmt.Sscanf(raw, "%d", &count)
	}

	fileNames := map[string]struct{}{}
	mimeTypes := map[string]struct{}{}
	fields, err := m.client.Query(ctx, collection, nil, "", []string{fieldFileName, fieldMimeType}, client.WithLimit(statsSampleLimit))
	if err != nil {
		m.log.Warn("sampling collection stats failed, reporting count only", "collection", collection, "error", err)
	} else {
		fnCol := getColumn(fields, fieldFileName)
		mtCol := getColumn(fields, fieldMimeType)
		n := 0
		if fnCol != nil {
			n = fnCol.Len()
		}
		if n > statsSampleLimit {
			n = statsSampleLimit
		}
		for i := 0; i < n; i++ {
			fileNames[columnString(fields, fieldFileName, i)] = struct{}{}
			mimeTypes[columnString(fields, fieldMimeType, i)] = struct{}{}
		}
		_ = mtCol
	}

	m.mu.Lock()
	dim := m.dims[collection]
	m.mu.Unlock()
	return Stats{
		Count:     count,
		Exact:     false,
		Dimension: dim,
		FileNames: sortedKeys(fileNames),
		MimeTypes: sortedKeys(mimeTypes),
	}, nil
}

func (m *MilvusStore) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := m.client.ListCollections(ctx)
	if err != nil {
		return nil, gwerr.NewRemote("store", fmt.Errorf("listing collections: %w", err))
	}
	names := make([]string, 0, len(collections))
	for _, c := range collections {
		names = append(names, c.Name)
	}
	return names, nil
}

func (m *MilvusStore) Close() error {
	return m.client.Close()
}
