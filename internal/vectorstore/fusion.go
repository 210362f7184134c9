package vectorstore

import "sort"

// ScoredID pairs a chunk ID with a retrieval score.
type ScoredID struct {
	ID    string
	Score float64
}

// fuseScores merges keyword and semantic results into one weighted ranking.
// Bleve scores are unbounded, so they are normalized by the max score into
// [0, 1]. Semantic scores are cosine similarities and already comparable.
// Chunks found by only one index keep that index's weighted contribution.
func fuseScores(keyword, semantic []ScoredID, keywordWeight, semanticWeight float64) []ScoredID {
	var maxKeyword float64
	for _, r := range keyword {
		if r.Score > maxKeyword {
			maxKeyword = r.Score
		}
	}

	fused := make(map[string]float64)
	for _, r := range keyword {
		score := r.Score
		if maxKeyword > 0 {
			score /= maxKeyword
		}
		fused[r.ID] += score * keywordWeight
	}
	for _, r := range semantic {
		fused[r.ID] += r.Score * semanticWeight
	}

	out := make([]ScoredID, 0, len(fused))
	for id, score := range fused {
		out = append(out, ScoredID{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}
