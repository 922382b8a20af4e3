package scoring

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	flagChange48h = 48 * time.Hour
	flagChange7d  = 7 * 24 * time.Hour
	flagChange30d = 30 * 24 * time.Hour
	flagChange90d = 90 * 24 * time.Hour

	mmsiChangeStabilityWindow = 6 * time.Hour
	mmsiChangeStableNM        = 5.0

	activeVoyageMaxDays = 30
)

// applyFlagState implements the flag-change hierarchy: the highest tier
// found wins, the 90-day count is stackable on top of any tier found
// (flag change hierarchy).
func applyFlagState(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, vesselID int64, now time.Time) {
	_, hasNameChange := repo.NameChangeWithin(vesselID, now, flagChange48h)
	_, has48h := repo.FlagChangeWithin(vesselID, now, flagChange48h)
	_, has7d := repo.FlagChangeWithin(vesselID, now, flagChange7d)
	_, has30d := repo.FlagChangeWithin(vesselID, now, flagChange30d)

	switch {
	case has48h && hasNameChange:
		b.Add("flag_and_name_change_within_48h", config.IntOrDefault(cfg.FlagState, "flag_and_name_change_within_48h", 30))
	case has7d:
		b.Add("flag_change_in_last_7d", config.IntOrDefault(cfg.FlagState, "flag_change_in_last_7d", 35))
	case has30d:
		b.Add("flag_change_in_last_30d", config.IntOrDefault(cfg.FlagState, "flag_change_in_last_30d", 25))
	}

	if repo.FlagChangeCountSince(vesselID, now.Add(-flagChange90d)) >= 3 {
		b.Add("flag_changes_3_plus_in_90d", config.IntOrDefault(cfg.FlagState, "flag_changes_3_plus_in_90d", 40))
	}
}

// applyMMSIChange verifies position stability across a ±6h window
// around the change and scores accordingly (MMSI change).
func applyMMSIChange(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, vesselID int64, now time.Time) {
	change, ok := repo.MMSIChangeWithin(vesselID, now, flagChange30d)
	if !ok {
		return
	}
	beforeLat, beforeLon, beforeOK := repo.PositionMeanNear(vesselID, change.ObservedAt.Add(-mmsiChangeStabilityWindow), mmsiChangeStabilityWindow)
	afterLat, afterLon, afterOK := repo.PositionMeanNear(vesselID, change.ObservedAt.Add(mmsiChangeStabilityWindow), mmsiChangeStabilityWindow)

	if beforeOK && afterOK && geo.HaversineNM(beforeLat, beforeLon, afterLat, afterLon) <= mmsiChangeStableNM {
		b.Add("mmsi_change_mapped_same_position", config.IntOrDefault(cfg.IdentityMerge, "mmsi_change_mapped_same_position", 45))
		return
	}
	b.Add("mmsi_change_other", config.IntOrDefault(cfg.IdentityMerge, "mmsi_change_other", 20))
}

// applyNameChange scores a name change that fell within the active
// voyage window (last port departure, capped at 30 days); suppressed if
// the 48h flag+name composite already fired (name change during
// voyage).
func applyNameChange(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, vesselID int64, now time.Time) {
	if b.Has("flag_and_name_change_within_48h") {
		return
	}
	change, ok := repo.NameChangeWithin(vesselID, now, activeVoyageMaxDays*24*time.Hour)
	if !ok {
		return
	}
	departure, hasDeparture := repo.LastPortDepartureBefore(vesselID, change.ObservedAt)
	windowStart := now.Add(-activeVoyageMaxDays * 24 * time.Hour)
	if hasDeparture && departure.Before(windowStart) {
		departure = windowStart
	} else if !hasDeparture {
		departure = windowStart
	}
	if change.ObservedAt.After(departure) {
		b.Add("name_change_during_active_voyage", config.IntOrDefault(cfg.IdentityMerge, "name_change_during_active_voyage", 30))
	}
}

// applyMergeChain scores merge-chain depth and a scrapped IMO anywhere
// in the chain — these are config section identity_merge entries not
// covered by the subsumption-critical list but still config-driven.
func applyMergeChain(b *models.ScoreBreakdown, cfg *config.ScoringConfig, repo Repository, vesselID int64) {
	switch length := repo.MergeChainLength(vesselID); {
	case length >= 4:
		b.Add("merge_chain_4plus", config.IntOrDefault(cfg.IdentityMerge, "merge_chain_4plus", 25))
	case length == 3:
		b.Add("merge_chain_3", config.IntOrDefault(cfg.IdentityMerge, "merge_chain_3", 15))
	}
	if repo.ScrappedIMOInChain(vesselID) {
		b.Add("scrapped_imo_in_chain", config.IntOrDefault(cfg.IdentityMerge, "scrapped_imo_in_chain", 35))
	}
}
