package fusion

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	routeLaunderingWindow = 45 * 24 * time.Hour
	piCyclingWindow = 180 * 24 * time.Hour
	piCyclingMinChanges = 2
	sparseTransmissionWindow = 30 * 24 * time.Hour
	sparseTransmissionMaxPerDay = 4.0
)

// DetectRouteLaundering flags a port-call sequence that touches a
// Russian oil terminal, then an unaffiliated pass-through port, then an
// EU port, each within 45 days of the last — cargo relabeled at the
// middle call to obscure its origin.
func DetectRouteLaundering(v models.Vessel, calls []models.PortCall, repo Repository, cfg *config.ScoringConfig) []models.SpoofingAnomaly {
	var out []models.SpoofingAnomaly
	for i := 0; i+2 < len(calls); i++ {
		russian, ok := repo.PortByID(calls[i].PortID)
		if !ok || !russian.IsRussianOilTerminal {
			continue
		}
		for j := i + 1; j < len(calls) && calls[j].ArrivalUTC.Sub(calls[i].ArrivalUTC) <= routeLaunderingWindow; j++ {
			passThrough, ok := repo.PortByID(calls[j].PortID)
			if !ok || passThrough.IsRussianOilTerminal || passThrough.IsEU {
				continue
			}
			for k := j + 1; k < len(calls) && calls[k].ArrivalUTC.Sub(calls[j].ArrivalUTC) <= routeLaunderingWindow; k++ {
				euPort, ok := repo.PortByID(calls[k].PortID)
				if !ok || !euPort.IsEU {
					continue
				}
				if repo.ExistingAnomalyNear(v.ID, models.TypologyRouteLaundering, calls[j].ArrivalUTC) {
					continue
				}
				out = append(out, models.SpoofingAnomaly{
						VesselID: v.ID,
						Typology: models.TypologyRouteLaundering,
						StartTimeUTC: calls[i].ArrivalUTC,
						EndTimeUTC: calls[k].ArrivalUTC,
						RiskScoreComponent: config.IntOrDefault(cfg.Spoofing, "route_laundering", 30),
						Evidence: map[string]any{
							"russian_terminal_port_id": calls[i].PortID,
							"pass_through_port_id": calls[j].PortID,
							"eu_destination_port_id": calls[k].PortID,
						},
				})
				break
			}
		}
	}
	return out
}

// DetectPICycling flags a vessel whose P&I insurance coverage has
// flipped state 2 or more times within 180 days — a known shadow-fleet
// tactic to stay nominally insured just long enough to pass a port
// state inspection.
func DetectPICycling(v models.Vessel, repo Repository, now time.Time, cfg *config.ScoringConfig) *models.SpoofingAnomaly {
	if repo.PICoverageChangeCountSince(v.ID, now.Add(-piCyclingWindow)) < piCyclingMinChanges {
		return nil
	}
	if repo.ExistingAnomalyNear(v.ID, models.TypologyPICycling, now) {
		return nil
	}
	return &models.SpoofingAnomaly{
		VesselID: v.ID,
		Typology: models.TypologyPICycling,
		StartTimeUTC: now.Add(-piCyclingWindow),
		EndTimeUTC: now,
		RiskScoreComponent: config.IntOrDefault(cfg.Spoofing, "pi_cycling", 25),
	}
}

// DetectSparseTransmission flags a vessel whose trailing 30-day AIS
// point rate stays below 4/day without a corresponding gap event — not
// silent, just thin enough to blur its actual track.
func DetectSparseTransmission(v models.Vessel, repo Repository, now time.Time, cfg *config.ScoringConfig) *models.SpoofingAnomaly {
	avg := repo.AveragePointsPerDay(v.ID, sparseTransmissionWindow)
	if avg <= 0 || avg >= sparseTransmissionMaxPerDay {
		return nil
	}
	if repo.ExistingAnomalyNear(v.ID, models.TypologySparseTransmission, now) {
		return nil
	}
	return &models.SpoofingAnomaly{
		VesselID: v.ID,
		Typology: models.TypologySparseTransmission,
		StartTimeUTC: now.Add(-sparseTransmissionWindow),
		EndTimeUTC: now,
		RiskScoreComponent: config.IntOrDefault(cfg.Spoofing, "sparse_transmission", 20),
		Evidence: map[string]any{"avg_points_per_day": avg},
	}
}

// DetectTypeDWTMismatch flags a vessel whose declared type has no
// plausible max-draught entry for its declared deadweight — the
// physical plausibility table (the same one cargo inference's
// laden_ratio draws on) has nothing for this combination, meaning the
// type and tonnage were not reported consistently.
func DetectTypeDWTMismatch(v models.Vessel, repo Repository, now time.Time, cfg *config.ScoringConfig) *models.SpoofingAnomaly {
	if _, ok := repo.MaxDraughtFor(v.VesselType, v.DeadweightTons); ok {
		return nil
	}
	if repo.ExistingAnomalyNear(v.ID, models.TypologyTypeDWTMismatch, now) {
		return nil
	}
	return &models.SpoofingAnomaly{
		VesselID: v.ID,
		Typology: models.TypologyTypeDWTMismatch,
		StartTimeUTC: now,
		EndTimeUTC: now,
		RiskScoreComponent: config.IntOrDefault(cfg.Spoofing, "type_dwt_mismatch", 25),
		Evidence: map[string]any{"vessel_type": v.VesselType, "dwt": v.DeadweightTons},
	}
}
