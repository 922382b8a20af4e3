package identity

import (
	"strings"
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// CandidateContext bundles everything ScoreCandidate needs about one
// (dark, new) pair so the signal functions stay pure and independently
// testable, mirroring the prior ScoreTransaction input shape in
// realtime_risk.go.
type CandidateContext struct {
	Dark models.Vessel
	New models.Vessel
	DeltaT time.Duration
	Distance float64
	MaxTravel float64
	LastDarkPt models.AISPoint
	FirstNewPt models.AISPoint
}

// ScoreCandidate sums every signal into a labeled breakdown, applies the
// IMO fraud cap, and clamps the final score to [0, 100]. The hard overlap
// guard is applied by DetectCandidates before this is called.
func ScoreCandidate(ctx CandidateContext, repo Repository, cfg *config.ScoringConfig, now time.Time) (int, models.ScoreBreakdown) {
	var b models.ScoreBreakdown

	if ctx.MaxTravel > 0 {
		ratio := 1 - ctx.Distance/ctx.MaxTravel
		b.Add("proximity_ratio", int(ratio*20))
	}
	b.Add("time_tightness", max(0, int(10-ctx.DeltaT.Hours()/24)))

	sameIMO := ctx.Dark.IMO != "" && ctx.Dark.IMO == ctx.New.IMO && ValidIMO(ctx.Dark.IMO)
	if sameIMO {
		b.Add("same_imo", 25)
	}
	if ctx.Dark.VesselType != "" && ctx.Dark.VesselType == ctx.New.VesselType {
		b.Add("same_vessel_type", 10)
	}
	if ratio := dwtRatio(ctx.Dark.DeadweightTons, ctx.New.DeadweightTons); ratio >= 0.8 {
		b.Add("similar_dwt", 10)
	} else if ratio > 0 && ratio < 0.7 {
		b.Add("dwt_mismatch", -15)
	}
	if ctx.Dark.YearBuilt > 0 && ctx.New.YearBuilt > 0 && absInt(ctx.Dark.YearBuilt-ctx.New.YearBuilt) <= 3 {
		b.Add("similar_year_built", 5)
	}
	if !repo.HasAISSince(ctx.Dark.ID, ctx.New.MMSIFirstSeen) {
		b.Add("dark_vessel_silent", 10)
	}
	if isUnallocatedMID(ctx.New.MMSI, cfg.UnallocatedMIDs) {
		b.Add("suspicious_mid", 5)
	}
	if isRussianOriginFlag(ctx.New.Flag, cfg.RussianOriginFlags) {
		b.Add("ru_origin_flag", 5)
	}
	if mid(ctx.Dark.MMSI) != mid(ctx.New.MMSI) {
		b.Add("flag_change", 5)
	}
	if repo.AISWithinNMOfRussianTerminal(ctx.Dark.ID, 5.0, 30*24*time.Hour) {
		b.Add("russian_port_call", 10)
	}
	if ctx.Dark.ISMManager != "" && ctx.Dark.ISMManager == ctx.New.ISMManager {
		b.Add("shared_ism_manager", 10)
	}
	if ctx.Dark.PIClub != "" && ctx.Dark.PIClub == ctx.New.PIClub {
		b.Add("shared_pi_club", 10)
	}
	if ctx.Dark.VesselType != "" && ctx.New.VesselType != "" && ctx.Dark.VesselType != ctx.New.VesselType {
		b.Add("vessel_type_mismatch", -10)
	}

	darkCalls := repo.PortCallsDuring(ctx.Dark.ID, ctx.LastDarkPt.TimestampUTC, ctx.FirstNewPt.TimestampUTC)
	newCalls := repo.PortCallsDuring(ctx.New.ID, ctx.LastDarkPt.TimestampUTC, ctx.FirstNewPt.TimestampUTC)
	if conflicts := disjointPortCallCount(darkCalls, newCalls); conflicts > 0 {
		penalty := conflicts * -15
		if penalty < -45 {
			penalty = -45
		}
		b.Add("conflicting_port_calls", penalty)
	}

	tripleMatch := b.Has("same_vessel_type") && b.Has("similar_dwt") && b.Has("similar_year_built")
	nearby := repo.NearbyVesselCount(ctx.LastDarkPt.Lat, ctx.LastDarkPt.Lon, 5.0, 6*time.Hour, ctx.LastDarkPt.TimestampUTC)
	if nearby > 5 && !sameIMO {
		if tripleMatch {
			b.Add("anchorage_density_penalty", -10)
		} else {
			b.Add("anchorage_density_penalty", -20)
		}
	}

	score := b.PositiveSum() + b.NegativeSum()

	if sameIMO && dominantSignal(b, "same_imo") && repo.SpoofingAnomalyExistsForIMO(ctx.Dark.IMO, ctx.Dark.ID, ctx.New.ID) {
		cap := cfg.MergeAutoConfidenceThreshold - 1
		if score > cap {
			score = cap
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, b
}

func dominantSignal(b models.ScoreBreakdown, name string) bool {
	total := b.PositiveSum()
	if total == 0 {
		return false
	}
	for _, s := range b.Signals {
		if s.Name == name {
			return float64(s.Value)/float64(total) > 0.25
		}
	}
	return false
}

func dwtRatio(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a < b {
		return a / b
	}
	return b / a
}

func absInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func mid(mmsi string) string {
	if len(mmsi) < 3 {
		return mmsi
	}
	return mmsi[:3]
}

func isUnallocatedMID(mmsi string, unallocated []string) bool {
	m := mid(mmsi)
	for _, u := range unallocated {
		if m == u {
			return true
		}
	}
	return false
}

func isRussianOriginFlag(flag string, flags []string) bool {
	for _, f := range flags {
		if strings.EqualFold(flag, f) {
			return true
		}
	}
	return false
}

// disjointPortCallCount counts port calls in darkCalls whose port does
// not appear anywhere in newCalls (a vessel "seen" at two disjoint ports
// during the same silence window cannot be the same hull).
func disjointPortCallCount(darkCalls, newCalls []models.PortCall) int {
	newPorts := make(map[int64]bool, len(newCalls))
	for _, c := range newCalls {
		newPorts[c.PortID] = true
	}
	count := 0
	for _, c := range darkCalls {
		if !newPorts[c.PortID] {
			count++
		}
	}
	return count
}
