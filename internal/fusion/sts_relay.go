package fusion

import (
	"fmt"
	"sort"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	relayChainMinHops = 2 // 2 hops == 3 vessels
	relayChain3Hop = 20
	relayChain4PlusHop = 40
)

// relayLeg is one STS event reduced to a temporally ordered undirected
// edge for relay-chain path search.
type relayLeg struct {
	other int64
	startedAt time.Time
}

// DetectSTSRelayChains builds an undirected multigraph from STS events
// and walks every simple path whose edges occur in strictly increasing
// temporal order, emitting a FleetAlert(sts_relay_chain) for every
// distinct vessel-ID set reaching 3 or more vessels — e.g. A transfers to B, B later transfers to C: A's
// cargo has moved two hops without either leg alone looking anomalous.
// Grounded on the prior evidence_propagation.go hop-chain building,
// adapted from a linear decayed-LLR chain to an undirected temporal
// graph walk since STS relays have no intrinsic direction or decay.
func DetectSTSRelayChains(repo Repository, since time.Time) (*Result, error) {
	res := &Result{}
	events := repo.STSEventsSince(since)
	if len(events) == 0 {
		return res, nil
	}

	adjacency := make(map[int64][]relayLeg)
	for _, e := range events {
		adjacency[e.Vessel1ID] = append(adjacency[e.Vessel1ID], relayLeg{e.Vessel2ID, e.StartTimeUTC})
		adjacency[e.Vessel2ID] = append(adjacency[e.Vessel2ID], relayLeg{e.Vessel1ID, e.StartTimeUTC})
	}
	for v := range adjacency {
		sort.Slice(adjacency[v], func(i, j int) bool { return adjacency[v][i].startedAt.Before(adjacency[v][j].startedAt) })
	}

	var vertices []int64
	for v := range adjacency {
		vertices = append(vertices, v)
	}
	sort.Slice(vertices, func(i, j int) bool { return vertices[i] < vertices[j] })

	seen := make(map[string]bool)
	for _, start := range vertices {
		walkRelayPaths(start, []int64{start}, time.Time{}, adjacency, seen, repo, res)
	}

	return res, nil
}

func walkRelayPaths(current int64, path []int64, lastHop time.Time, adjacency map[int64][]relayLeg, seen map[string]bool, repo Repository, res *Result) {
	if len(path) >= relayChainMinHops+1 {
		recordRelayChain(path, repo, seen, res)
	}
	if len(path) >= 8 {
		return // bound the search; relays beyond 8 vessels are not actionable
	}

	for _, leg := range adjacency[current] {
		if !leg.startedAt.After(lastHop) {
			continue
		}
		if contains(path, leg.other) {
			continue
		}
		walkRelayPaths(leg.other, append(append([]int64{}, path...), leg.other), leg.startedAt, adjacency, seen, repo, res)
	}
}

func contains(ids []int64, target int64) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func recordRelayChain(path []int64, repo Repository, seen map[string]bool, res *Result) {
	sorted := append([]int64{}, path...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	key := chainKey(sorted)
	if seen[key] {
		return
	}
	seen[key] = true
	if repo.ExistingFleetAlert("sts_relay_chain", sorted) {
		return
	}

	hops := len(path) - 1
	score := relayChain3Hop
	if hops >= 3 {
		score = relayChain4PlusHop
	}

	alert := models.FleetAlert{
		Kind: "sts_relay_chain",
		VesselIDs: sorted,
		Hops: hops,
		Score: score,
	}
	if err := repo.SaveFleetAlert(alert); err == nil {
		res.RelayChainsFound++
	}
}

func chainKey(sortedIDs []int64) string {
	return fmt.Sprint(sortedIDs)
}
