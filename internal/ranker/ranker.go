// Package ranker scores documents against a normalized query, combining a
// truncated tf-idf cosine similarity with a positional proximity bonus.
// The algorithm is grounded directly on the project's cosine-search
// reference implementation: term-at-a-time retrieval, log-weighted tf-idf,
// cosine computed over query-term support only, and proximity from a
// two-pointer shortest-distance sweep over adjacent query-term pairs.
package ranker

import (
	"math"
	"sort"

	"github.com/elias-vance/lexishard/internal/index"
	"github.com/elias-vance/lexishard/internal/posting"
)

// ScoredDoc is one document's final score.
type ScoredDoc struct {
	DocID uint32
	Score float64
}

// Score computes doc_id -> score for queryTerms (already normalized)
// against idx, given totalDocs (the size of the document table used to
// build idx). Documents that share no term with the query are absent from
// the result, not scored zero.
func Score(idx *index.Index, totalDocs int, queryTerms []string) map[uint32]float64 {
	if len(queryTerms) == 0 || totalDocs == 0 {
		return map[uint32]float64{}
	}

	idf := make(map[string]float64)
	postingsByTerm := make(map[string]posting.List)
	docWeights := make(map[uint32]map[string]float64)

	for _, term := range queryTerms {
		if _, seen := idf[term]; seen {
			continue
		}
		postings, ok := idx.Get(term)
		if !ok {
			continue
		}
		postingsByTerm[term] = postings

		df := postings.DocFreq()
		termIDF := math.Log10(float64(totalDocs) / float64(df))
		idf[term] = termIDF

		for _, p := range postings {
			tf := 1 + math.Log10(float64(p.TermFreq))
			weight := tf * termIDF
			if docWeights[p.DocID] == nil {
				docWeights[p.DocID] = make(map[string]float64)
			}
			docWeights[p.DocID][term] = weight
		}
	}

	queryFreq := make(map[string]int)
	for _, term := range queryTerms {
		queryFreq[term]++
	}
	queryWeights := make(map[string]float64)
	for term, qf := range queryFreq {
		termIDF := idf[term] // zero if term absent from index, matching the reference's getOrDefault(term, 0.0)
		tf := 1 + math.Log10(float64(qf))
		queryWeights[term] = tf * termIDF
	}

	scores := make(map[uint32]float64, len(docWeights))
	for docID, weights := range docWeights {
		cosine := cosineSimilarity(weights, queryWeights)
		proximity := proximityScore(queryTerms, docID, postingsByTerm)
		scores[docID] = cosine + proximity
	}
	return scores
}

// cosineSimilarity computes the dot product of docWeights and queryWeights
// over queryWeights' keys, normalized by the Euclidean norm of each vector
// restricted to that same support. This is a truncated cosine: docWeights'
// norm does not include the document's weights for non-query terms, since
// none were ever computed for them.
func cosineSimilarity(docWeights, queryWeights map[string]float64) float64 {
	var dot, docNorm, queryNorm float64

	for term, qw := range queryWeights {
		dot += docWeights[term] * qw
	}
	for _, w := range docWeights {
		docNorm += w * w
	}
	for _, w := range queryWeights {
		queryNorm += w * w
	}

	if docNorm == 0 || queryNorm == 0 {
		return 0
	}
	return dot / (math.Sqrt(docNorm) * math.Sqrt(queryNorm))
}

// proximityScore averages 1/shortest_distance over adjacent query-term
// pairs that both occur in docID, in the order the terms were supplied.
func proximityScore(queryTerms []string, docID uint32, postingsByTerm map[string]posting.List) float64 {
	if len(queryTerms) <= 1 {
		return 0
	}

	var raw float64
	for i := 0; i < len(queryTerms)-1; i++ {
		listA, okA := postingsByTerm[queryTerms[i]]
		listB, okB := postingsByTerm[queryTerms[i+1]]
		if !okA || !okB {
			continue
		}
		postA, okA := listA.ByDocID(docID)
		postB, okB := listB.ByDocID(docID)
		if !okA || !okB {
			continue
		}
		dist := shortestDistance(postA.Positions, postB.Positions)
		if dist > 0 {
			raw += 1.0 / float64(dist)
		}
	}
	return raw / float64(len(queryTerms)-1)
}

// shortestDistance finds the minimum |a[i]-b[j]| over two sorted position
// lists using a two-pointer sweep: at each step, compare the current pair
// and advance whichever pointer holds the smaller position. Returns -1 if
// either list is empty.
func shortestDistance(a, b []int) int {
	if len(a) == 0 || len(b) == 0 {
		return -1
	}
	i, j := 0, 0
	min := -1
	for i < len(a) && j < len(b) {
		diff := a[i] - b[j]
		if diff < 0 {
			diff = -diff
		}
		if min == -1 || diff < min {
			min = diff
		}
		if a[i] < b[j] {
			i++
		} else {
			j++
		}
	}
	return min
}

// Rank scores queryTerms against idx and returns the top `limit` documents
// sorted by descending score, breaking ties by ascending doc id. limit <= 0
// means no limit.
func Rank(idx *index.Index, totalDocs int, queryTerms []string, limit int) []ScoredDoc {
	scores := Score(idx, totalDocs, queryTerms)
	ranked := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		ranked = append(ranked, ScoredDoc{DocID: docID, Score: round4(score)})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
