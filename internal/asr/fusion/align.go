package fusion

import (
	"github.com/kathascribe/kathascribe/internal/textutil"
)

// alignedPair maps a pivot token position to the token (if any) the other
// hypothesis contributes at that position.
type alignedPair struct {
	pivotPos int
	token    string
	ok       bool
}

// alignToPivot aligns other against pivot using token-level edit-distance
// dynamic programming, then reads back which other-token sits at each pivot
// position. Insertions relative to the pivot are dropped; deletions leave a
// gap.
func alignToPivot(pivot, other []string) []alignedPair {
	n := len(pivot)
	m := len(other)
	out := make([]alignedPair, n)
	for i := range out {
		out[i] = alignedPair{pivotPos: i}
	}
	if n == 0 || m == 0 {
		return out
	}

	// dp[i][j] = min cost aligning pivot[:i] with other[:j].
	dp := make([][]float64, n+1)
	for i := range dp {
		dp[i] = make([]float64, m+1)
	}
	for i := 1; i <= n; i++ {
		dp[i][0] = float64(i)
	}
	for j := 1; j <= m; j++ {
		dp[0][j] = float64(j)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			subCost := 1.0 - textutil.Similarity(pivot[i-1], other[j-1])
			best := dp[i-1][j-1] + subCost
			if del := dp[i-1][j] + 1; del < best {
				best = del
			}
			if ins := dp[i][j-1] + 1; ins < best {
				best = ins
			}
			dp[i][j] = best
		}
	}

	// Trace back.
	i, j := n, m
	for i > 0 && j > 0 {
		subCost := 1.0 - textutil.Similarity(pivot[i-1], other[j-1])
		switch {
		case dp[i][j] == dp[i-1][j-1]+subCost:
			// A substitution still casts a vote at this position.
			out[i-1] = alignedPair{pivotPos: i - 1, token: other[j-1], ok: true}
			i--
			j--
		case dp[i][j] == dp[i-1][j]+1:
			i-- // pivot token unmatched
		default:
			j-- // other token inserted, dropped
		}
	}
	return out
}
