package recovery

// chunk is a half-open index range [start, end) into the materialized
// base ordering, assigned to exactly one worker.
type chunk struct {
	start int
	end   int
}

// partition splits n items into k contiguous, non-overlapping chunks.
// Chunks are near-equal in size; the last one absorbs the remainder of
// the integer division. k must be >= 1.
func partition(n, k int) []chunk {
	chunks := make([]chunk, k)
	size := n / k
	for i := range chunks {
		chunks[i] = chunk{start: i * size, end: (i + 1) * size}
	}
	chunks[k-1].end = n
	return chunks
}
