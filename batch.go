package docshelf

// Default embedding batch limits.
const (
	DefaultMaxBatchTokens = 8000
	DefaultMaxBatchCount  = 100
)

// PlanBatches greedily packs chunks, in order, into embedding batches.
// A batch is closed when the next chunk would push its summed token
// estimate past maxTokens or its length past maxCount; that chunk then
// starts the next batch. A chunk that alone exceeds maxTokens forms a
// singleton batch. Concatenating the batches yields the input order, so
// per-batch results can be matched to chunks by position.
func PlanBatches(chunks []*Chunk, maxTokens, maxCount int) [][]*Chunk {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxBatchTokens
	}
	if maxCount <= 0 {
		maxCount = DefaultMaxBatchCount
	}

	var batches [][]*Chunk
	var batch []*Chunk
	var tokens int

	for _, c := range chunks {
		t := c.Metadata.TokenEstimate
		if len(batch) > 0 && (tokens+t > maxTokens || len(batch)+1 > maxCount) {
			batches = append(batches, batch)
			batch, tokens = nil, 0
		}
		batch = append(batch, c)
		tokens += t
	}

	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	return batches
}

// BatchTexts returns the contents of a batch in order.
func BatchTexts(batch []*Chunk) []string {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}
	return texts
}
