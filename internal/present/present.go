// Package present formats ranked results for display: resolving doc ids
// back to paths and truncating to the top N, matching the reference
// search tool's "rank. path (score X.XXXX)" presentation.
package present

import (
	"fmt"

	"github.com/elias-vance/lexishard/internal/corpus"
	"github.com/elias-vance/lexishard/internal/ranker"
)

// DefaultTopN is the number of results presented to an interactive user.
const DefaultTopN = 10

// Line is one formatted result line.
type Line struct {
	Rank int
	Path string
	Score float64
}

// Top resolves the first min(topN, len(ranked)) entries of ranked (assumed
// already sorted descending by score) to display paths via table.
func Top(ranked []ranker.ScoredDoc, table *corpus.DocTable, topN int) []Line {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > len(ranked) {
		topN = len(ranked)
	}
	lines := make([]Line, 0, topN)
	for i := 0; i < topN; i++ {
		path := table.Path(ranked[i].DocID)
		if path == "" {
			path = fmt.Sprintf("doc %d", ranked[i].DocID)
		}
		lines = append(lines, Line{Rank: i + 1, Path: path, Score: ranked[i].Score})
	}
	return lines
}

// Format renders lines the way the interactive shell prints them:
// " 1. path (score 0.1234)" one per line.
func Format(lines []Line) string {
	out := ""
	for _, l := range lines {
		out += fmt.Sprintf("%2d. %s (score %.4f)\n", l.Rank, l.Path, l.Score)
	}
	return out
}
