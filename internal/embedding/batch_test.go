package embedding

import (
	"testing"

	"github.com/rdwj/vectorgateway/internal/tokens"
	"github.com/stretchr/testify/require"
)

func TestBatchAccumulatorPreservesOrderAcrossFlushes(t *testing.T) {
	est := tokens.NewEstimator("")
	acc := NewBatchAccumulator(est, 0, 10, 1000)

	var flushes [][]string
	texts := []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc", "dddddddddd"}
	for _, txt := range texts {
		if f := acc.Add(txt); f != nil {
			flushes = append(flushes, f)
		}
	}
	if rest := acc.Flush(); rest != nil {
		flushes = append(flushes, rest)
	}

	var flattened []string
	for _, batch := range flushes {
		flattened = append(flattened, batch...)
	}
	require.Equal(t, texts, flattened)
}

func TestBatchAccumulatorRespectsItemCap(t *testing.T) {
	est := tokens.NewEstimator("")
	acc := NewBatchAccumulator(est, 2, 1000000, 1000)
	batches := acc.Batches([]string{"a", "b", "c", "d", "e"})
	for _, b := range batches[:len(batches)-1] {
		require.Len(t, b, 2)
	}
}

func TestBatchAccumulatorTruncatesOverlongInput(t *testing.T) {
	est := tokens.NewEstimator("")
	acc := NewBatchAccumulator(est, 0, 1000, 5)
	long := ""
	for i := 0; i < 200; i++ {
		long += "word "
	}
	batches := acc.Batches([]string{long})
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	require.Less(t, len(batches[0][0]), len(long))
}
