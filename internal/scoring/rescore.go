package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/apperrors"
	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// GapVesselPair pairs a gap with the vessel it belongs to.
type GapVesselPair struct {
	Gap models.GapEvent
	Vessel models.Vessel
}

// RescoreRepository extends Repository with the bulk operations
// rescore_all needs. Kept separate from Repository so a single-gap
// scoring caller never has to implement the bulk surface.
type RescoreRepository interface {
	Repository

	// ClearDerivedDetections purges every derived detection table (gap
	// events' downstream anomalies, STS events, etc — never the vessel
	// or AIS ingest tables). Only called when clearDetections is true.
	ClearDerivedDetections() error
	// AllGapsWithVessels returns every gap event joined to its owning
	// vessel, with risk_score already reset to zero.
	AllGapsWithVessels() ([]GapVesselPair, error)
	// PersistGapScore writes the freshly computed score and breakdown
	// back to a gap event.
	PersistGapScore(gapID int64, score int, breakdown models.ScoreBreakdown) error
}

// RescoreAll reimplements 's rescore_all: optionally purge
// derived detection tables, reset every gap's score, then rescore
// sequentially, recording the config hash for auditability. Atomicity
// (the "single transaction" requirement) is the concrete internal/db
// implementation's responsibility, matching the non-transactional
// orchestration style already used by internal/identity.ExecuteMerge.
func RescoreAll(repo RescoreRepository, cfg *config.ScoringConfig, clearDetections bool, now time.Time) (*Result, error) {
	res := &Result{ConfigHash: cfg.Hash(), ClearedFirst: clearDetections}

	if clearDetections {
		if err := repo.ClearDerivedDetections(); err != nil {
			return nil, apperrors.Wrap(apperrors.KindScoring, "clear derived detections", err)
		}
	}

	pairs, err := repo.AllGapsWithVessels()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindScoring, "load gaps for rescore", err)
	}

	for _, p := range pairs {
		score, breakdown := ScoreGap(p.Gap, p.Vessel, repo, cfg, now)
		if err := repo.PersistGapScore(p.Gap.ID, score, breakdown); err != nil {
			return nil, apperrors.Wrap(apperrors.KindScoring, "persist gap score", err)
		}
		res.GapsScored++
	}

	return res, nil
}
