package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/rdwj/vectorgateway/internal/gwerr"
)

// MemoryStore is the in-process, test-only backend. It mirrors
// rag/memory.go's MemoryDB and the original Python reference's
// MemoryBackend: no persistence, linear-scan dense search, and (unlike
// the Python version, which has no BM25 at all) a lexical leg backed by
// bm25Index so hybrid search is exercised even without Milvus. Rows are
// keyed by chunk_id: upserting an existing chunk_id replaces that row.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memoryCollection
	maxDocs     int
}

type memoryCollection struct {
	dimension int
	chunks    map[string]Chunk
	lexical   *bm25Index
}

// NewMemoryStore builds an empty memory store. maxDocs <= 0 means
// unbounded.
func NewMemoryStore(maxDocs int) *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memoryCollection), maxDocs: maxDocs}
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) EnsureCollection(_ context.Context, collection string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.collections[collection]; ok {
		if existing.dimension != dimension {
			return gwerr.NewValidation("dimension", "collection %q has dimension %d, got %d", collection, existing.dimension, dimension)
		}
		return nil
	}
	m.collections[collection] = &memoryCollection{
		dimension: dimension,
		chunks:    make(map[string]Chunk),
		lexical:   newBM25Index(),
	}
	return nil
}

func (m *MemoryStore) totalCount() int {
	total := 0
	for _, c := range m.collections {
		total += len(c.chunks)
	}
	return total
}

func (m *MemoryStore) Upsert(ctx context.Context, collection string, chunks []Chunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxDocs > 0 && m.totalCount()+len(chunks) > m.maxDocs {
		return 0, gwerr.NewCapacity("store limit of %d documents reached", m.maxDocs)
	}

	coll, ok := m.collections[collection]
	if !ok {
		coll = &memoryCollection{dimension: len(chunks[0].Vector), chunks: make(map[string]Chunk), lexical: newBM25Index()}
		m.collections[collection] = coll
	}

	for _, c := range chunks {
		if len(c.Vector) != coll.dimension {
			return 0, gwerr.NewValidation("dimension", "collection %q has dimension %d, got %d", collection, coll.dimension, len(c.Vector))
		}
	}

	for _, c := range chunks {
		coll.chunks[c.ChunkID] = c
		coll.lexical.add(c.ChunkID, c.Text)
	}
	return len(chunks), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func normalizeScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (m *MemoryStore) HybridSearch(ctx context.Context, collection string, queryVector []float32, queryText string, topK, overfetch, rrfK int) ([]Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, gwerr.NewNotFound(collection)
	}
	if overfetch <= 0 {
		overfetch = topK
	}

	// Score every chunk in the collection against the query vector once,
	// so a chunk reached only through the lexical leg below still carries
	// its real dense distance/score instead of a zero value.
	scored := make(map[string]Chunk, len(coll.chunks))
	dense := make([]Chunk, 0, len(coll.chunks))
	for _, c := range coll.chunks {
		sim := cosineSimilarity(queryVector, c.Vector)
		c.Score = normalizeScore((sim + 1.0) / 2.0)
		c.Distance = 1 - sim
		scored[c.ChunkID] = c
		dense = append(dense, c)
	}
	sort.SliceStable(dense, func(i, j int) bool { return dense[i].Score > dense[j].Score })
	if len(dense) > overfetch {
		dense = dense[:overfetch]
	}

	var lexical []Chunk
	for _, id := range coll.lexical.search(queryText, overfetch) {
		if c, ok := scored[id]; ok {
			lexical = append(lexical, c)
		}
	}

	fused := FuseRRF(dense, lexical, rrfK)
	if len(fused) > topK {
		fused = fused[:topK]
	}
	return fused, nil
}

func (m *MemoryStore) NeighborChunks(ctx context.Context, collection, fileName string, chunkIndex, window int) ([]Chunk, error) {
	if window <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	coll, ok := m.collections[collection]
	if !ok {
		return nil, gwerr.NewNotFound(collection)
	}

	var neighbors []Chunk
	for _, c := range coll.chunks {
		if c.FileName != fileName {
			continue
		}
		if c.ChunkIndex == chunkIndex {
			continue
		}
		if c.ChunkIndex >= chunkIndex-window && c.ChunkIndex <= chunkIndex+window {
			neighbors = append(neighbors, c)
		}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].ChunkIndex < neighbors[j].ChunkIndex })
	return neighbors, nil
}

func (m *MemoryStore) Stats(ctx context.Context, collection string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coll, ok := m.collections[collection]
	if !ok {
		return Stats{}, gwerr.NewNotFound(collection)
	}

	fileNames := make(map[string]struct{})
	mimeTypes := make(map[string]struct{})
	for _, c := range coll.chunks {
		fileNames[c.FileName] = struct{}{}
		mimeTypes[c.MimeType] = struct{}{}
	}

	return Stats{
		Count:     int64(len(coll.chunks)),
		Exact:     true,
		Dimension: coll.dimension,
		FileNames: sortedKeys(fileNames),
		MimeTypes: sortedKeys(mimeTypes),
	}, nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *MemoryStore) ListCollections(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
