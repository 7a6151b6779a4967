package gateway

import (
	"path/filepath"

	"github.com/rdwj/vectorgateway/internal/store"
)

// applyFilters keeps hits matching every set filter field, AND-composed,
// in order file_name (exact) -> file_pattern (glob) -> mime_type (exact).
// A nil filters applies no filtering at all, matching the reference
// implementation's _apply_filters short circuit. path/filepath.Match is
// the one stdlib exception in this package: no third-party glob matcher
// appears anywhere in the example pack, so file_pattern is matched with
// the standard library's shell-style glob (see SPEC_FULL.md §4.6).
func applyFilters(hits []store.Chunk, filters *SearchFilters) []store.Chunk {
	if filters == nil {
		return hits
	}

	out := make([]store.Chunk, 0, len(hits))
	for _, h := range hits {
		if filters.FileName != "" && h.FileName != filters.FileName {
			continue
		}
		if filters.FilePattern != "" {
			ok, err := filepath.Match(filters.FilePattern, h.FileName)
			if err != nil || !ok {
				continue
			}
		}
		if filters.MimeType != "" && h.MimeType != filters.MimeType {
			continue
		}
		out = append(out, h)
	}
	return out
}
