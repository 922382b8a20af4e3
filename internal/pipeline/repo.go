// Package pipeline runs the thirteen detection steps in strict order,
// gated by per-step flags, accumulating a single run report.
//
// Grounded on the prior internal/scanner.BlockScanner (sequential
// step runner guarded by an atomic.Bool "already running" flag, with
// progress counters and an alert-broadcast callback) and
// internal/shadow.ShadowRunner (run-a-sequence-of-evaluators-and-
// collect-a-report shape), fused into one orchestrator since this
// system has no shadow/production split to keep separate.
package pipeline

import (
	"time"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/fusion"
	"github.com/shadowfleet/aisforensics/internal/gapdetect"
	"github.com/shadowfleet/aisforensics/internal/identity"
	"github.com/shadowfleet/aisforensics/internal/loitering"
	"github.com/shadowfleet/aisforensics/internal/scoring"
	"github.com/shadowfleet/aisforensics/internal/sts"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// Repository is the full persistence surface a pipeline run needs: the
// narrow per-package ports each detector already depends on, plus the
// vessel/point listings and the write paths no single detector package
// owns (gap/anomaly/STS-event/candidate persistence is the
// orchestrator's job, not the stateless detectors'). A concrete
// implementation lives in internal/db.
type Repository interface {
	gapdetect.Repository
	sts.Repository
	identity.Repository
	scoring.RescoreRepository
	fusion.Repository
	loitering.Repository

	// CanonicalVessels returns every vessel with merged_into == nil,
	// ordered by ID ascending.
	CanonicalVessels() []models.Vessel
	// AllVessels returns every vessel row regardless of merge state, for
	// the dark/new candidate scan which must see absorbed history too.
	AllVessels() []models.Vessel
	// AISPointsFor returns a vessel's full AIS point history ordered by
	// TimestampUTC ascending.
	AISPointsFor(vesselID int64) []models.AISPoint

	SaveGap(gap models.GapEvent) (int64, error)
	SaveEnvelope(env models.MovementEnvelope) error
	SaveAnomaly(a models.SpoofingAnomaly) error
	SaveSTSEvent(e models.StsTransferEvent) (int64, error)
	SaveSatelliteTaskingCandidate(c models.SatelliteTaskingCandidate) error
	SaveMergeCandidate(c models.MergeCandidate) error

	// DarkGapsSince returns every gap event at or after since resolved
	// to a DarkGap (its vessel's off-position attached), for the
	// dark-dark STS correlation pass.
	DarkGapsSince(since time.Time) []sts.DarkGap

	// UpdateLaidUpFlags persists step 5's laid-up classification onto a
	// vessel row.
	UpdateLaidUpFlags(vesselID int64, laidUp30d, laidUp60d, laidUpInSTSZone bool) error
	// VesselIDsInAnyMergeChain returns every vessel ID that is a member
	// of an already-persisted fusion.MergeChain, for the extended
	// (chain-aware) merge pass.
	VesselIDsInAnyMergeChain() []int64
}

// Report is the run-level count-dict the orchestrator accumulates
// across all thirteen steps, in the prior summary-counter style
// (internal/heuristics/investigation.go, block_scanner.go's
// ScanProgress).
type Report struct {
	Gaps *gapdetect.Result
	STS *sts.Result
	Loitering *loitering.Result
	Candidates *identity.Result
	MergeChains *fusion.Result
	IMOFraud *identity.IMOFraudResult
	Fusion *fusion.Result
	Rescore *scoring.Result

	LaidUp30d int
	LaidUp60d int
	LaidUpInSTSZone int

	AutoMerged int
	Typologies int

	ConfidenceBands map[string]int
}

func newReport() *Report {
	return &Report{
		Gaps: &gapdetect.Result{AnomaliesCreated: make(map[models.SpoofingTypology]int)},
		STS: &sts.Result{},
		Loitering: &loitering.Result{},
		Candidates: &identity.Result{},
		MergeChains: &fusion.Result{},
		IMOFraud: &identity.IMOFraudResult{},
		Fusion: &fusion.Result{},
		ConfidenceBands: make(map[string]int),
	}
}

// Flags gates each of the thirteen steps independently.
type Flags struct {
	GapDetection bool
	SpoofingDetection bool
	STSDetection bool
	Loitering bool
	LaidUpClassification bool
	CrossReceiverDetectors bool
	Typologies bool
	FusionEnrichment bool
	MergeCandidates bool
	ExtendedMergePass bool
	MergeChains bool
	IMOFraud bool
	RiskScoring bool
}

// AllEnabled returns a Flags with every step turned on, the default a
// full production run uses.
func AllEnabled() Flags {
	return Flags{
		GapDetection: true, SpoofingDetection: true, STSDetection: true,
		Loitering: true, LaidUpClassification: true, CrossReceiverDetectors: true,
		Typologies: true, FusionEnrichment: true, MergeCandidates: true,
		ExtendedMergePass: true, MergeChains: true, IMOFraud: true, RiskScoring: true,
	}
}

// idx and cfg are carried explicitly through every step rather than as
// package globals, the opposite of the package-level
// heuristics.InitGlobalTaintMap() pattern, deliberately not imitated.
type runContext struct {
	repo Repository
	idx *corridor.Index
	cfg *config.ScoringConfig
	now time.Time
	flags Flags
}
