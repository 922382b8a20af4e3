// Package identity resolves and merges duplicate vessel records created
// by MMSI reuse or deliberate identity swaps. Grounded on the earlier design's
// union-find-style chain walking in cluster_engine.go, generalized here
// from an arbitrary-arity disjoint-set to a scalar merged_into
// pointer chain.
package identity

import "github.com/shadowfleet/aisforensics/internal/apperrors"

const maxCanonicalHops = 20

// MergedIntoLookup returns a vessel's merged_into pointer, or nil if the
// vessel is canonical (its own representative).
type MergedIntoLookup func(vesselID int64) (*int64, bool)

// Canonical walks merged_into up to maxCanonicalHops, raising on a cycle
// (detected via a visited set, not a hop-count heuristic alone) —
// "canonical(v)".
func Canonical(lookup MergedIntoLookup, vesselID int64) (int64, error) {
	visited := map[int64]bool{vesselID: true}
	current := vesselID
	for hop := 0; hop < maxCanonicalHops; hop++ {
		next, ok := lookup(current)
		if !ok {
			return 0, apperrors.New(apperrors.KindMerge, "vessel not found while resolving canonical chain")
		}
		if next == nil {
			return current, nil
		}
		if visited[*next] {
			return 0, apperrors.New(apperrors.KindMerge, "cycle detected in merged_into chain")
		}
		visited[*next] = true
		current = *next
	}
	return 0, apperrors.New(apperrors.KindMerge, "merged_into chain exceeds maximum hop count")
}
