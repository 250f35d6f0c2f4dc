package docshelf

import "strings"

// Default chunking limits.
const (
	DefaultMaxTokens     = 500
	DefaultOverlapTokens = 50
)

// Chunker splits document text into overlapping, token-budgeted chunks.
// A zero MaxTokens means DefaultMaxTokens and a nil Estimator means the
// heuristic estimator.
type Chunker struct {
	MaxTokens     int
	OverlapTokens int
	Estimator     TokenEstimator
}

// NewChunker returns a Chunker with the default limits.
func NewChunker() *Chunker {
	return &Chunker{
		MaxTokens:     DefaultMaxTokens,
		OverlapTokens: DefaultOverlapTokens,
		Estimator:     HeuristicEstimator,
	}
}

// Split splits text into an ordered sequence of chunk strings.
func (c *Chunker) Split(text string) []string {
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return SplitText(text, maxTokens, max(c.OverlapTokens, 0), c.estimator())
}

func (c *Chunker) estimator() TokenEstimator {
	if c.Estimator == nil {
		return HeuristicEstimator
	}
	return c.Estimator
}

// Chunk splits the text of one file into chunks tagged with source, file
// path, contiguous 0-based indexes and per-chunk metadata.
func (c *Chunker) Chunk(source, filePath, text string) []*Chunk {
	est := c.estimator()

	parts := c.Split(text)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]*Chunk, 0, len(parts))
	for i, content := range parts {
		chunks = append(chunks, &Chunk{
			Source:     source,
			FilePath:   filePath,
			ChunkIndex: i,
			Content:    content,
			Metadata: ChunkMetadata{
				Heading:        ExtractHeading(content),
				TokenEstimate:  est.EstimateTokens(content),
				OriginFilePath: filePath,
			},
		})
	}
	return chunks
}

// SplitText accumulates lines into a buffer and flushes it as a chunk
// before a line would push it past maxTokens. Each new buffer is seeded
// with the longest run of trailing lines from the flushed chunk that fits
// in overlapTokens. Lines are never split, so a single oversized line
// still forms a chunk. Whitespace-only text yields no chunks.
func SplitText(text string, maxTokens, overlapTokens int, est TokenEstimator) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	var buf []string
	var bufTokens int

	for _, line := range strings.Split(text, "\n") {
		lineTokens := est.EstimateTokens(line)

		if bufTokens+lineTokens > maxTokens && len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
			buf, bufTokens = overlapWindow(buf, overlapTokens, est)
		}

		buf = append(buf, line)
		bufTokens += lineTokens
	}

	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}

	return chunks
}

// overlapWindow walks lines backward and returns the trailing window whose
// estimated size stays within budget, together with that size.
func overlapWindow(lines []string, budget int, est TokenEstimator) ([]string, int) {
	start := len(lines)
	tokens := 0
	for i := len(lines) - 1; i >= 0; i-- {
		t := est.EstimateTokens(lines[i])
		if tokens+t > budget {
			break
		}
		tokens += t
		start = i
	}

	window := make([]string, len(lines)-start)
	copy(window, lines[start:])
	return window, tokens
}

// ExtractHeading returns the title of the first markdown heading in text,
// or "" if there is none.
func ExtractHeading(text string) string {
	sections := ExtractSections(text)
	if len(sections) == 0 {
		return ""
	}
	return sections[0].Title
}
