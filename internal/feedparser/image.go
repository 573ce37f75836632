package feedparser

// imageCandidate is a discovered image URL together with whatever
// dimensions the feed document advertised for it (0 when absent).
type imageCandidate struct {
	url    string
	width  int
	height int
}

// score ranks an image candidate: area when both
// dimensions are known, otherwise the larger of the two (including the
// all-zero case, which scores 0 and only wins if nothing else was found).
func (c imageCandidate) score() int {
	if c.width > 0 && c.height > 0 {
		return c.width * c.height
	}
	if c.width > c.height {
		return c.width
	}
	return c.height
}

// bestImage picks the highest-scoring candidate, breaking ties in favor of
// the earliest one discovered.
func bestImage(candidates []imageCandidate) string {
	best := -1
	bestScore := -1
	for i, c := range candidates {
		if c.url == "" {
			continue
		}
		if s := c.score(); s > bestScore {
			bestScore = s
			best = i
		}
	}
	if best < 0 {
		return ""
	}
	return candidates[best].url
}
