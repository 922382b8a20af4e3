package fusion

import (
	"sort"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	mergeChainMinConfidence = 50
	mergeChainMinSize = 3

	mergeChainHighConfidence = 75
	mergeChainMediumConfidence = 50
)

// mergeEdge is one undirected MergeCandidate edge reduced to its two
// endpoints and confidence, for graph walking.
type mergeEdge struct {
	a, b int64
	confidence int
}

// DetectMergeChains builds an undirected graph from every MergeCandidate
// edge at or above confidence 50, extracts connected components of size
// >= 3, and persists one MergeChain per component not already recorded
// under its sorted vessel-ID list.
// Chain confidence is the minimum edge confidence in the component,
// conservative in the same spirit as the prior dependency-group
// fusion (EvaluateFactorGraph): a chain is only as strong as its
// weakest link.
func DetectMergeChains(repo Repository) (*Result, error) {
	res := &Result{}
	candidates := repo.MergeCandidatesAbove(mergeChainMinConfidence)
	if len(candidates) == 0 {
		return res, nil
	}

	adjacency := make(map[int64][]mergeEdge)
	for _, c := range candidates {
		adjacency[c.VesselAID] = append(adjacency[c.VesselAID], mergeEdge{c.VesselAID, c.VesselBID, c.ConfidenceScore})
		adjacency[c.VesselBID] = append(adjacency[c.VesselBID], mergeEdge{c.VesselBID, c.VesselAID, c.ConfidenceScore})
	}

	visited := make(map[int64]bool)
	var nodes []int64
	for id := range adjacency {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })

	for _, start := range nodes {
		if visited[start] {
			continue
		}
		component, minConfidence := walkComponent(start, adjacency, visited)
		if len(component) < mergeChainMinSize {
			continue
		}

		sort.Slice(component, func(i, j int) bool { return component[i] < component[j] })
		if repo.ExistingMergeChain(component) {
			continue
		}

		containsScrapped := false
		for _, v := range component {
			if repo.ScrappedIMO(v) {
				containsScrapped = true
				break
			}
		}

		chain := models.MergeChain{
			VesselIDs: component,
			Confidence: minConfidence,
			ConfidenceBand: confidenceBand(minConfidence),
			ContainsScrappedIMO: containsScrapped,
		}
		if err := repo.SaveMergeChain(chain); err != nil {
			return res, err
		}
		res.MergeChainsFound++
	}

	return res, nil
}

// walkComponent performs a breadth-first traversal from start, marking
// every reached node visited, and returns the component's member IDs
// plus its minimum edge confidence.
func walkComponent(start int64, adjacency map[int64][]mergeEdge, visited map[int64]bool) ([]int64, int) {
	queue := []int64{start}
	visited[start] = true
	var component []int64
	minConfidence := 100

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		component = append(component, node)

		for _, edge := range adjacency[node] {
			if edge.confidence < minConfidence {
				minConfidence = edge.confidence
			}
			if !visited[edge.b] {
				visited[edge.b] = true
				queue = append(queue, edge.b)
			}
		}
	}
	return component, minConfidence
}

func confidenceBand(confidence int) models.MergeChainConfidence {
	switch {
	case confidence >= mergeChainHighConfidence:
		return models.ChainConfidenceHigh
	case confidence >= mergeChainMediumConfidence:
		return models.ChainConfidenceMedium
	default:
		return models.ChainConfidenceLow
	}
}
