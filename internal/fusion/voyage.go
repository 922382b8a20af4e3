package fusion

import (
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	voyageTemplateMinPorts = 3
	voyageDedupJaccard = 0.5
	voyageSTSDeviationBonus = 25

	ladenRatioThreshold = 0.6
	ladenRussianSTSBonus = 15
)

// LearnVoyageTemplates builds route templates from every canonical
// vessel's port-call sequence (ordered by arrival), keeping only
// sequences of 3 or more ports and deduplicating against already
// persisted templates by Jaccard similarity >= 0.5 on the port-ID set.
// Grounded on the prior migration_tracking.go sequence
// classification, reworked from an address-format timeline into a
// port-call timeline.
func LearnVoyageTemplates(repo Repository, canonicalVesselIDs []int64) (*Result, error) {
	res := &Result{}
	existing := repo.VoyageTemplates()

	for _, vesselID := range canonicalVesselIDs {
		calls := repo.PortCallsFor(vesselID)
		if len(calls) < voyageTemplateMinPorts {
			continue
		}
		ports := make([]int64, len(calls))
		for i, c := range calls {
			ports[i] = c.PortID
		}

		if isDuplicateTemplate(ports, existing) {
			continue
		}
		t := models.VoyageTemplate{Ports: ports, Support: 1}
		if err := repo.SaveVoyageTemplate(t); err != nil {
			return res, err
		}
		existing = append(existing, t)
		res.VoyagesPredicted++
	}

	return res, nil
}

func isDuplicateTemplate(ports []int64, existing []models.VoyageTemplate) bool {
	set := toSet(ports)
	for _, t := range existing {
		if jaccard(set, toSet(t.Ports)) >= voyageDedupJaccard {
			return true
		}
	}
	return false
}

func toSet(ids []int64) map[int64]bool {
	s := make(map[int64]bool, len(ids))
	for _, id := range ids {
		s[id] = true
	}
	return s
}

func jaccard(a, b map[int64]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	intersection := 0
	for id := range a {
		if b[id] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// PredictNextPort looks up the vessel's most recent port in every learned
// template and returns the port that follows it in the highest-support
// template containing it (not as its last port), if any. Only the most
// recent port is compared; earlier ports of the sequence are not matched.
func PredictNextPort(recentPortIDs []int64, templates []models.VoyageTemplate) (int64, bool) {
	if len(recentPortIDs) == 0 {
		return 0, false
	}
	last := recentPortIDs[len(recentPortIDs)-1]

	bestSupport := -1
	var predicted int64
	found := false
	for _, t := range templates {
		for i, portID := range t.Ports {
			if portID != last || i == len(t.Ports)-1 {
				continue
			}
			if t.Support > bestSupport {
				bestSupport = t.Support
				predicted = t.Ports[i+1]
				found = true
			}
		}
	}
	return predicted, found
}

// PredictedRouteSTSZoneBonus returns +25 when the predicted leg's
// corridor is an STS zone.
func PredictedRouteSTSZoneBonus(predictedLegCorridorID *int64, repo Repository) int {
	if predictedLegCorridorID == nil {
		return 0
	}
	t, ok := repo.CorridorTypeByID(*predictedLegCorridorID)
	if ok && t == models.CorridorSTSZone {
		return voyageSTSDeviationBonus
	}
	return 0
}

// LadenRatio computes draught / max_draught(type, dwt); values at or
// above 0.6 classify the vessel as laden.
func LadenRatio(draught float64, vesselType string, dwt float64, repo Repository) (float64, bool) {
	maxDraught, ok := repo.MaxDraughtFor(vesselType, dwt)
	if !ok || maxDraught <= 0 {
		return 0, false
	}
	ratio := draught / maxDraught
	return ratio, true
}

func IsLaden(ratio float64) bool { return ratio >= ladenRatioThreshold }

// LadenRussianSTSBonus returns the +15 bonus when a laden vessel has
// called at a Russian oil terminal and engaged in an STS transfer.
func LadenRussianSTSBonus(laden, calledRussianTerminal, hasSTS bool) int {
	if laden && calledRussianTerminal && hasSTS {
		return ladenRussianSTSBonus
	}
	return 0
}
