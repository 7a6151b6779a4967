package store

import (
	"math"
	"sort"
	"strings"
	"sync"
)

// BM25Parameters controls the BM25 ranking function's term-frequency
// saturation (K1) and document-length normalization (B).
type BM25Parameters struct {
	K1 float64
	B  float64
}

// DefaultBM25Parameters returns the commonly used K1=1.5, B=0.75 pair.
func DefaultBM25Parameters() BM25Parameters {
	return BM25Parameters{K1: 1.5, B: 0.75}
}

// bm25Index is the lexical half of the memory backend's hybrid search.
// Grounded on rag/sparse_index.go's BM25Index, re-keyed from int64 IDs
// to string chunk IDs.
type bm25Index struct {
	mu           sync.RWMutex
	termFreq     map[string]map[string]int
	docFreq      map[string]int
	docLength    map[string]int
	avgDocLength float64
	totalDocs    int
	params       BM25Parameters
}

func newBM25Index() *bm25Index {
	return &bm25Index{
		termFreq:  make(map[string]map[string]int),
		docFreq:   make(map[string]int),
		docLength: make(map[string]int),
		params:    DefaultBM25Parameters(),
	}
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func (idx *bm25Index) add(chunkID, text string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	terms := tokenize(text)
	freq := make(map[string]int, len(terms))
	for _, t := range terms {
		freq[t]++
	}
	idx.termFreq[chunkID] = freq
	idx.docLength[chunkID] = len(terms)
	for t := range freq {
		idx.docFreq[t]++
	}

	idx.totalDocs++
	var total int
	for _, l := range idx.docLength {
		total += l
	}
	idx.avgDocLength = float64(total) / float64(idx.totalDocs)
}

func (idx *bm25Index) search(query string, topK int) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.totalDocs == 0 {
		return nil
	}

	scores := make(map[string]float64)
	for _, term := range tokenize(query) {
		df, ok := idx.docFreq[term]
		if !ok {
			continue
		}
		idf := math.Log(1 + (float64(idx.totalDocs)-float64(df)+0.5)/(float64(df)+0.5))
		for chunkID, terms := range idx.termFreq {
			tf, ok := terms[term]
			if !ok {
				continue
			}
			docLen := float64(idx.docLength[chunkID])
			numerator := float64(tf) * (idx.params.K1 + 1)
			denominator := float64(tf) + idx.params.K1*(1-idx.params.B+idx.params.B*docLen/idx.avgDocLength)
			scores[chunkID] += idf * numerator / denominator
		}
	}

	ids := make([]string, 0, len(scores))
	for id := range scores {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return scores[ids[i]] > scores[ids[j]] })
	if len(ids) > topK {
		ids = ids[:topK]
	}
	return ids
}
