package chunker

import "strings"

// separators, coarsest first. The last level splits on single spaces; a
// fragment containing none of these falls through to a hard character split.
var separators = []string{"\n\n", "\n", ". ", " "}

// Chunk splits text into bounded, overlapping retrieval units. The result is
// deterministic for identical input and parameters. Empty or whitespace-only
// input yields nil.
func Chunk(text string, maxSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize / 2
	}

	if len(text) <= maxSize {
		return []string{text}
	}

	// Separator-free text goes straight to windowed hard splitting, whose
	// stepping already carries the overlap. The overlap pass below would
	// double it.
	if !containsSeparator(text) {
		return hardSplit(text, maxSize, overlap)
	}

	chunks := split(text, separators, maxSize, overlap)
	if overlap > 0 && len(chunks) > 1 {
		chunks = applyOverlap(chunks, overlap)
	}

	out := chunks[:0]
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			out = append(out, c)
		}
	}
	return out
}

func containsSeparator(text string) bool {
	for _, sep := range separators {
		if strings.Contains(text, sep) {
			return true
		}
	}
	return false
}

// split determines chunk boundaries without applying overlap. It walks the
// separator hierarchy, greedily accumulating parts up to maxSize and recursing
// into oversized parts with the next-finer separator. A fragment containing no
// separator at all is hard-split, which guarantees termination.
func split(text string, seps []string, maxSize, overlap int) []string {
	if len(seps) == 0 {
		return hardSplit(text, maxSize, overlap)
	}
	sep := seps[0]
	if !strings.Contains(text, sep) {
		return split(text, seps[1:], maxSize, overlap)
	}

	var chunks []string
	var current string

	for _, part := range strings.Split(text, sep) {
		candidate := strings.TrimSpace(part)
		if current != "" {
			candidate = strings.TrimSpace(current + sep + part)
		}

		if len(candidate) <= maxSize {
			current = candidate
			continue
		}

		if current != "" {
			chunks = append(chunks, current)
		}
		trimmed := strings.TrimSpace(part)
		if len(trimmed) > maxSize && len(seps) > 1 {
			chunks = append(chunks, split(trimmed, seps[1:], maxSize, overlap)...)
			current = ""
		} else {
			// Either the part fits on its own, or the hierarchy is exhausted
			// and a single indivisible token forces an oversized chunk.
			current = trimmed
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// hardSplit slices text into fixed windows of maxSize characters advanced by
// maxSize-overlap each step. Last resort for unsplittable text.
func hardSplit(text string, maxSize, overlap int) []string {
	step := maxSize - overlap
	if step <= 0 {
		step = maxSize
	}
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + maxSize
		if end > len(text) {
			end = len(text)
		}
		if c := strings.TrimSpace(text[start:end]); c != "" {
			chunks = append(chunks, c)
		}
	}
	return chunks
}

// applyOverlap prepends the tail of each chunk's predecessor, joined by a
// single space. It runs once over the final sequence; the prefix is always
// taken from the previous chunk's pre-overlap text, so overlap never
// compounds across more than one neighbor.
func applyOverlap(chunks []string, overlap int) []string {
	out := make([]string, len(chunks))
	out[0] = chunks[0]
	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev
		if len(prev) > overlap {
			tail = prev[len(prev)-overlap:]
		}
		out[i] = tail + " " + chunks[i]
	}
	return out
}
