package pipeline

import (
	"sort"
	"sync"
	"time"

	"github.com/shadowfleet/aisforensics/internal/apperrors"
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

// relayChainSince bounds how far back the STS relay-chain pass looks
// for legs — a detection run only needs to catch chains still forming,
// not re-walk the whole event history every time.
const relayChainSince = 90 * 24 * time.Hour

// Runner executes one pipeline run at a time, in the same
// BlockScanner.isRunning guard: a second call while one run is in
// flight is rejected rather than queued.
type Runner struct {
	mu sync.Mutex
	running bool
}

// Run executes all thirteen steps in strict order against repo, gated
// by flags, and returns the accumulated run report. It returns an error
// in two cases: a constraint violation when another run is in flight,
// and the scoring error of a failed RescoreAll, which ends the run
// before the confidence tally. Failures of the other steps are not
// returned.
func (r *Runner) Run(repo Repository, idx *corridor.Index, cfg *config.ScoringConfig, flags Flags, now time.Time) (*Report, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, apperrors.New(apperrors.KindConstraintViolation, "pipeline run already in progress")
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	rc := &runContext{repo: repo, idx: idx, cfg: cfg, now: now, flags: flags}
	report := newReport()

	vessels := repo.CanonicalVessels()
	sort.Slice(vessels, func(i, j int) bool { return vessels[i].ID < vessels[j].ID })

	pointsByVessel := make(map[int64][]models.AISPoint, len(vessels))
	gapsByVessel := make(map[int64][]models.GapEvent, len(vessels))
	for _, v := range vessels {
		pointsByVessel[v.ID] = rc.repo.AISPointsFor(v.ID)
	}

	// Step 1: gap detection.
	if flags.GapDetection {
		for _, v := range vessels {
			runGapDetection(rc, report, v, pointsByVessel[v.ID], gapsByVessel)
		}
	}

	// Step 2: spoofing detection (movement-geometry typologies).
	if flags.SpoofingDetection {
		for _, v := range vessels {
			runMovementSpoofingDetection(rc, report, v, pointsByVessel[v.ID], gapsByVessel[v.ID])
		}
	}

	// Step 3: STS detection, Phase A/B then Phase C.
	if flags.STSDetection {
		runSTSDetection(rc, report, pointsByVessel, gapsByVessel, vessels)
	}

	// Step 4: loitering.
	loiteringByVessel := make(map[int64][]models.LoiteringEvent, len(vessels))
	if flags.Loitering {
		for _, v := range vessels {
			events, res := loitering.DetectLoitering(v.ID, pointsByVessel[v.ID], idx, repo)
			loiteringByVessel[v.ID] = events
			report.Loitering.LoiteringEventsFound += res.LoiteringEventsFound
		}
	}

	// Step 5: laid-up classification.
	if flags.LaidUpClassification {
		for _, v := range vessels {
			d30, d60, inSTSZone := loitering.ClassifyLaidUp(loiteringByVessel[v.ID], idx)
			if err := repo.UpdateLaidUpFlags(v.ID, d30, d60, inSTSZone); err != nil {
				continue
			}
			if d30 {
				report.LaidUp30d++
			}
			if d60 {
				report.LaidUp60d++
			}
			if inSTSZone {
				report.LaidUpInSTSZone++
			}
		}
	}

	// Step 6: cross-receiver & handshake & cloning detectors — the
	// radio-level typologies (MMSI reuse/cloning, simultaneous dual
	// transmission from two receivers, nav-status handshake mismatches),
	// run as their own pass; each detector sees one vessel's own points
	// and gaps at a time.
	if flags.CrossReceiverDetectors {
		for _, v := range vessels {
			runCrossReceiverDetection(rc, report, v, pointsByVessel[v.ID], gapsByVessel[v.ID])
		}
	}

	// Step 7: route laundering, PI cycling, sparse transmission, type
	// consistency.
	if flags.Typologies {
		for _, v := range vessels {
			runFusionTypologies(rc, report, v)
		}
	}

	// Step 8: fleet / convoy / fingerprint / voyage / cargo / weather
	// enrichment.
	if flags.FusionEnrichment {
		runFusionEnrichment(rc, report, vessels, pointsByVessel, idx)
	}

	// Step 9: merge candidate detection.
	if flags.MergeCandidates {
		runMergeCandidateDetection(rc, report, vessels, now)
	}

	// Step 10: extended merge pass (chain-aware).
	if flags.ExtendedMergePass {
		runExtendedMergePass(rc, report, vessels, now)
	}

	// Step 11: merge chain detection.
	if flags.MergeChains {
		if res, err := fusion.DetectMergeChains(repo); err == nil {
			report.MergeChains = res
		}
	}

	// Step 11b / 11d: IMO fraud detection and recheck.
	if flags.IMOFraud {
		report.IMOFraud = identity.DetectIMOFraud(repo, now)
		recheck := identity.RecheckMergesForIMOFraud(repo, cfg)
		report.IMOFraud.CandidatesRecapped += recheck.CandidatesRecapped
	}

	// Step 12 / 13: risk scoring, then confidence classification.
	if flags.RiskScoring {
		res, err := scoring.RescoreAll(repo, cfg, false, now)
		if err != nil {
			return report, err
		}
		report.Rescore = res

		pairs, err := repo.AllGapsWithVessels()
		if err == nil {
			for _, p := range pairs {
				report.ConfidenceBands[string(models.Band(p.Gap.RiskScore))]++
			}
		}
	}

	return report, nil
}

func runGapDetection(rc *runContext, report *Report, v models.Vessel, points []models.AISPoint, gapsByVessel map[int64][]models.GapEvent) {
	gaps, envelopes, res := gapdetect.DetectGaps(v, points, rc.idx, rc.repo)
	report.Gaps.GapsCreated += res.GapsCreated
	report.Gaps.GapsSkippedDedup += res.GapsSkippedDedup

	var persisted []models.GapEvent
	for i, gap := range gaps {
		id, err := rc.repo.SaveGap(gap)
		if err != nil {
			continue
		}
		gap.ID = id
		persisted = append(persisted, gap)
		if i < len(envelopes) {
			envelopes[i].GapEventID = id
			_ = rc.repo.SaveEnvelope(envelopes[i])
		}
	}
	gapsByVessel[v.ID] = persisted
}

func runMovementSpoofingDetection(rc *runContext, report *Report, v models.Vessel, points []models.AISPoint, gaps []models.GapEvent) {
	var anomalies []models.SpoofingAnomaly
	anomalies = append(anomalies, gapdetect.DetectAnchorSpoof(v, points, rc.idx, rc.repo)...)
	anomalies = append(anomalies, gapdetect.DetectCircleSpoof(v, points, rc.idx, rc.repo)...)
	anomalies = append(anomalies, gapdetect.DetectSlowRoll(v, points, rc.idx, rc.repo)...)
	anomalies = append(anomalies, gapdetect.DetectStaleAIS(v, points, rc.repo)...)

	anomalies = gapdetect.LinkAnomaliesToGaps(anomalies, gaps)
	persistAnomalies(rc, report, anomalies)
}

func runCrossReceiverDetection(rc *runContext, report *Report, v models.Vessel, points []models.AISPoint, gaps []models.GapEvent) {
	var anomalies []models.SpoofingAnomaly
	anomalies = append(anomalies, gapdetect.DetectMMSIReuse(v, points, rc.repo)...)
	anomalies = append(anomalies, gapdetect.DetectDualTransmission(v, points, rc.repo)...)
	anomalies = append(anomalies, gapdetect.DetectNavStatusMismatch(v, points, rc.repo)...)
	anomalies = append(anomalies, gapdetect.DetectErraticNavStatus(v, points, rc.repo)...)

	anomalies = gapdetect.LinkAnomaliesToGaps(anomalies, gaps)
	persistAnomalies(rc, report, anomalies)
}

func persistAnomalies(rc *runContext, report *Report, anomalies []models.SpoofingAnomaly) {
	for _, a := range anomalies {
		if err := rc.repo.SaveAnomaly(a); err != nil {
			continue
		}
		if report.Gaps.AnomaliesCreated == nil {
			report.Gaps.AnomaliesCreated = make(map[models.SpoofingTypology]int)
		}
		report.Gaps.AnomaliesCreated[a.Typology]++
	}
}

func runSTSDetection(rc *runContext, report *Report, pointsByVessel map[int64][]models.AISPoint, gapsByVessel map[int64][]models.GapEvent, vessels []models.Vessel) {
	visible, visRes := sts.DetectVisibleVisible(pointsByVessel, rc.idx, rc.repo)
	report.STS.VisibleVisibleCreated += visRes.VisibleVisibleCreated
	report.STS.SkippedDedup += visRes.SkippedDedup

	latestByVessel := make(map[int64]models.AISPoint, len(pointsByVessel))
	for id, pts := range pointsByVessel {
		if len(pts) == 0 {
			continue
		}
		latestByVessel[id] = pts[len(pts)-1]
	}
	approaching, apprRes := sts.DetectApproaching(latestByVessel, rc.idx, rc.repo)
	report.STS.ApproachingCreated += apprRes.ApproachingCreated

	vesselByID := make(map[int64]models.Vessel, len(vessels))
	for _, v := range vessels {
		vesselByID[v.ID] = v
	}
	darkGaps := rc.repo.DarkGapsSince(rc.now.Add(-relayChainSince))
	dark, satCandidates, darkRes := sts.DetectDarkDark(darkGaps, vesselByID, rc.repo)
	report.STS.DarkDarkCreated += darkRes.DarkDarkCreated

	events := append(append(visible, approaching...), dark...)
	events = sts.ApplyDarkPartnerBonus(events, gapsByVessel)

	for _, e := range events {
		if _, err := rc.repo.SaveSTSEvent(e); err != nil {
			continue
		}
	}
	for _, c := range satCandidates {
		_ = rc.repo.SaveSatelliteTaskingCandidate(c)
	}
}

func runFusionTypologies(rc *runContext, report *Report, v models.Vessel) {
	calls := rc.repo.PortCallsFor(v.ID)
	var anomalies []models.SpoofingAnomaly
	anomalies = append(anomalies, fusion.DetectRouteLaundering(v, calls, rc.repo, rc.cfg)...)
	if a := fusion.DetectPICycling(v, rc.repo, rc.now, rc.cfg); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := fusion.DetectSparseTransmission(v, rc.repo, rc.now, rc.cfg); a != nil {
		anomalies = append(anomalies, *a)
	}
	if a := fusion.DetectTypeDWTMismatch(v, rc.repo, rc.now, rc.cfg); a != nil {
		anomalies = append(anomalies, *a)
	}

	for _, a := range anomalies {
		if err := rc.repo.SaveAnomaly(a); err != nil {
			continue
		}
		report.Typologies++
	}
}

func runFusionEnrichment(rc *runContext, report *Report, vessels []models.Vessel, pointsByVessel map[int64][]models.AISPoint, idx *corridor.Index) {
	if res, err := fusion.DetectSTSRelayChains(rc.repo, rc.now.Add(-relayChainSince)); err == nil {
		report.Fusion.RelayChainsFound += res.RelayChainsFound
	}
	if res, err := fusion.DetectConvoys(pointsByVessel, vesselByIDMap(vessels), idx, rc.repo); err == nil {
		report.Fusion.ConvoysFound += res.ConvoysFound
	}

	for _, v := range vessels {
		fp, ok := fusion.ComputeFingerprint(v.ID, pointsByVessel[v.ID])
		if !ok {
			continue
		}
		if err := rc.repo.SaveFingerprint(fp); err == nil {
			report.Fusion.FingerprintsScored++
		}
	}

	if res, err := fusion.LearnVoyageTemplates(rc.repo, canonicalIDs(vessels)); err == nil {
		report.Fusion.VoyagesPredicted += res.VoyagesPredicted
	}
}

func canonicalIDs(vessels []models.Vessel) []int64 {
	ids := make([]int64, len(vessels))
	for i, v := range vessels {
		ids[i] = v.ID
	}
	return ids
}

func vesselByIDMap(vessels []models.Vessel) map[int64]models.Vessel {
	out := make(map[int64]models.Vessel, len(vessels))
	for _, v := range vessels {
		out[v.ID] = v
	}
	return out
}

func runMergeCandidateDetection(rc *runContext, report *Report, vessels []models.Vessel, now time.Time) {
	var dark, fresh []models.Vessel
	for _, v := range vessels {
		if identity.IsDark(v, rc.repo, now) {
			dark = append(dark, v)
		}
		if identity.IsNew(v, rc.cfg, now) {
			fresh = append(fresh, v)
		}
	}

	candidates, res := identity.DetectCandidates(dark, fresh, rc.repo, rc.cfg, now)
	report.Candidates.CandidatesAutoMerged += res.CandidatesAutoMerged
	report.Candidates.CandidatesPending += res.CandidatesPending
	report.Candidates.CandidatesDiscarded += res.CandidatesDiscarded
	report.Candidates.SkippedExisting += res.SkippedExisting
	report.Candidates.SkippedOverlap += res.SkippedOverlap

	for _, c := range candidates {
		if err := rc.repo.SaveMergeCandidate(c); err != nil {
			continue
		}
		if c.Status == models.MergeCandidateAutoMerged {
			result := identity.ExecuteMerge(c.VesselAID, c.VesselBID, rc.repo, "pipeline", now)
			if result.Success {
				report.AutoMerged++
			}
		}
	}
}

// runExtendedMergePass re-runs candidate detection seeding the dark
// pool with every vessel that already belongs to a persisted merge
// chain — a chain member can look newly "dark"
// against a vessel that started reporting after the chain's most recent
// absorbed identity went silent, a case the first dark/new scan (step
// 9, built from IsDark/IsNew alone) cannot see because chain membership
// isn't itself a dark/new signal.
func runExtendedMergePass(rc *runContext, report *Report, vessels []models.Vessel, now time.Time) {
	chainMembers := make(map[int64]bool)
	for _, id := range rc.repo.VesselIDsInAnyMergeChain() {
		chainMembers[id] = true
	}
	if len(chainMembers) == 0 {
		return
	}

	var dark, fresh []models.Vessel
	for _, v := range vessels {
		if chainMembers[v.ID] {
			dark = append(dark, v)
		}
		if identity.IsNew(v, rc.cfg, now) {
			fresh = append(fresh, v)
		}
	}

	candidates, res := identity.DetectCandidates(dark, fresh, rc.repo, rc.cfg, now)
	report.Candidates.CandidatesAutoMerged += res.CandidatesAutoMerged
	report.Candidates.CandidatesPending += res.CandidatesPending
	report.Candidates.CandidatesDiscarded += res.CandidatesDiscarded
	report.Candidates.SkippedExisting += res.SkippedExisting
	report.Candidates.SkippedOverlap += res.SkippedOverlap

	for _, c := range candidates {
		if err := rc.repo.SaveMergeCandidate(c); err != nil {
			continue
		}
		if c.Status == models.MergeCandidateAutoMerged {
			result := identity.ExecuteMerge(c.VesselAID, c.VesselBID, rc.repo, "pipeline", now)
			if result.Success {
				report.AutoMerged++
			}
		}
	}
}
