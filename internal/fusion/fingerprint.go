package fusion

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

const (
	fingerprintMinPoints = 300
	fingerprintMinSpanHours = 24.0
	fingerprintWindow = 6 * time.Hour
	fingerprintFullCovMinWindows = 10
	fingerprintDiagonalLoad = 1e-6
	fingerprintBatchCap = 500

	anchoredNavStatus = 1 // "at anchor", ITU-R M.1371 nav_status code
)

// featureDims is the fixed feature-vector length every fingerprint
// window contributes: sog median, sog IQR, heading circular variance,
// acceleration mean, acceleration stddev, draught range.
const featureDims = 6

// ComputeFingerprint segments a vessel's non-anchored AIS points into
// 6h windows and extracts a fixed feature vector per window (sog
// median/IQR, heading circular variance, acceleration stats, draught
// range), aggregating to a mean vector and covariance matrix — full
// with diagonal loading once 10 or more windows are available,
// diagonal-only below that.
// Grounded on the prior wallet_fingerprint.go score-table
// attribution, reworked from a discrete per-transaction classifier into
// a continuous per-vessel statistical signature suited to
// Mahalanobis-distance comparison.
func ComputeFingerprint(vesselID int64, points []models.AISPoint) (models.FingerprintVector, bool) {
	nonAnchored := make([]models.AISPoint, 0, len(points))
	for _, p := range points {
		if p.NavStatus != anchoredNavStatus {
			nonAnchored = append(nonAnchored, p)
		}
	}
	if len(nonAnchored) < fingerprintMinPoints {
		return models.FingerprintVector{}, false
	}
	sort.Slice(nonAnchored, func(i, j int) bool { return nonAnchored[i].TimestampUTC.Before(nonAnchored[j].TimestampUTC) })
	span := nonAnchored[len(nonAnchored)-1].TimestampUTC.Sub(nonAnchored[0].TimestampUTC).Hours()
	if span < fingerprintMinSpanHours {
		return models.FingerprintVector{}, false
	}

	windows := segmentIntoWindows(nonAnchored)
	if len(windows) == 0 {
		return models.FingerprintVector{}, false
	}

	features := make([][]float64, 0, len(windows))
	for _, w := range windows {
		if len(w) < 2 {
			continue
		}
		features = append(features, extractWindowFeatures(w))
	}
	if len(features) == 0 {
		return models.FingerprintVector{}, false
	}

	mean := make([]float64, featureDims)
	for _, f := range features {
		for d := 0; d < featureDims; d++ {
			mean[d] += f[d]
		}
	}
	for d := range mean {
		mean[d] /= float64(len(features))
	}

	cov := make([][]float64, featureDims)
	for i := range cov {
		cov[i] = make([]float64, featureDims)
	}
	diagonalOnly := len(features) < fingerprintFullCovMinWindows
	for _, f := range features {
		for i := 0; i < featureDims; i++ {
			if diagonalOnly {
				d := f[i] - mean[i]
				cov[i][i] += d * d
				continue
			}
			for j := 0; j < featureDims; j++ {
				cov[i][j] += (f[i] - mean[i]) * (f[j] - mean[j])
			}
		}
	}
	n := float64(len(features) - 1)
	if n < 1 {
		n = 1
	}
	for i := 0; i < featureDims; i++ {
		for j := 0; j < featureDims; j++ {
			cov[i][j] /= n
		}
		if !diagonalOnly {
			cov[i][i] += fingerprintDiagonalLoad
		}
	}

	return models.FingerprintVector{
		VesselID: vesselID,
		Mean: mean,
		Covariance: cov,
		WindowCount: len(features),
		IsDiagonalOnly: diagonalOnly,
	}, true
}

func segmentIntoWindows(points []models.AISPoint) [][]models.AISPoint {
	var windows [][]models.AISPoint
	var current []models.AISPoint
	var windowStart time.Time

	for _, p := range points {
		if current == nil {
			windowStart = p.TimestampUTC
		}
		if p.TimestampUTC.Sub(windowStart) >= fingerprintWindow {
			windows = append(windows, current)
			current = nil
			windowStart = p.TimestampUTC
		}
		current = append(current, p)
	}
	if len(current) > 0 {
		windows = append(windows, current)
	}
	return windows
}

func extractWindowFeatures(points []models.AISPoint) []float64 {
	sogs := make([]float64, len(points))
	headingsRad := make([]float64, len(points))
	draughts := make([]float64, 0, len(points))
	for i, p := range points {
		sogs[i] = p.SOG
		headingsRad[i] = p.Heading * math.Pi / 180
		if p.Draught > 0 {
			draughts = append(draughts, p.Draught)
		}
	}

	sorted := append([]float64{}, sogs...)
	sort.Float64s(sorted)
	sogMedian := quantileSorted(sorted, 0.5)
	sogIQR := quantileSorted(sorted, 0.75) - quantileSorted(sorted, 0.25)

	var sinSum, cosSum float64
	for _, h := range headingsRad {
		sinSum += math.Sin(h)
		cosSum += math.Cos(h)
	}
	n := float64(len(headingsRad))
	resultantLength := math.Hypot(sinSum, cosSum) / n
	circularVariance := 1 - resultantLength

	var accels []float64
	for i := 1; i < len(points); i++ {
		dt := points[i].TimestampUTC.Sub(points[i-1].TimestampUTC).Hours()
		if dt <= 0 {
			continue
		}
		accels = append(accels, (points[i].SOG-points[i-1].SOG)/dt)
	}
	accelMean, accelStd := meanStdDev(accels)

	draughtRange := 0.0
	if len(draughts) > 0 {
		minD, maxD := draughts[0], draughts[0]
		for _, d := range draughts {
			if d < minD {
				minD = d
			}
			if d > maxD {
				maxD = d
			}
		}
		draughtRange = maxD - minD
	}

	return []float64{sogMedian, sogIQR, circularVariance, accelMean, accelStd, draughtRange}
}

func quantileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

func meanStdDev(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := stat.Mean(values, nil)
	if len(values) < 2 {
		return mean, 0
	}
	return mean, stat.StdDev(values, nil)
}

// MahalanobisDistance compares two fingerprints under the averaged
// covariance of both, falling back to a diagonal-only covariance if the
// averaged matrix is not positive-definite (can happen when one side is
// diagonal-only and the other is near-singular).
func MahalanobisDistance(a, b models.FingerprintVector) (float64, bool) {
	if len(a.Mean) != featureDims || len(b.Mean) != featureDims {
		return 0, false
	}

	avgCov := mat.NewSymDense(featureDims, nil)
	for i := 0; i < featureDims; i++ {
		for j := i; j < featureDims; j++ {
			v := (covAt(a, i, j) + covAt(b, i, j)) / 2
			avgCov.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(avgCov) {
		diag := mat.NewSymDense(featureDims, nil)
		for i := 0; i < featureDims; i++ {
			diag.SetSym(i, i, avgCov.At(i, i)+fingerprintDiagonalLoad)
		}
		if !chol.Factorize(diag) {
			return 0, false
		}
	}

	x := mat.NewVecDense(featureDims, a.Mean)
	y := mat.NewVecDense(featureDims, b.Mean)
	return stat.Mahalanobis(x, y, chol), true
}

func covAt(fp models.FingerprintVector, i, j int) float64 {
	if i >= len(fp.Covariance) || j >= len(fp.Covariance[i]) {
		return 0
	}
	return fp.Covariance[i][j]
}

// FingerprintMergeBonus returns the merge-bonus signal key and score for
// the Mahalanobis distance between two fingerprints, using the
// open-question thresholds carried in ScoringConfig.
func FingerprintMergeBonus(cfg *config.ScoringConfig, distance float64) (string, int) {
	switch {
	case distance <= cfg.FingerprintSimilarQ1:
		return "fingerprint_close", config.IntOrDefault(cfg.Behavioral, "fingerprint_close", 15)
	case distance <= cfg.FingerprintSimilarMedian:
		return "fingerprint_similar", config.IntOrDefault(cfg.Behavioral, "fingerprint_similar", 10)
	default:
		return "fingerprint_divergent", config.IntOrDefault(cfg.Behavioral, "fingerprint_divergent", -5)
	}
}

// RankFingerprintCandidates scores vesselID's fingerprint against up to
// fingerprintBatchCap eligible candidates (the caller's eliminative
// filter already narrowed the list by type/DWT/class), returning the
// merge-bonus signal for each comparison that produced a valid
// Mahalanobis distance.
func RankFingerprintCandidates(cfg *config.ScoringConfig, target models.FingerprintVector, candidates []models.FingerprintVector) map[int64]int {
	bonuses := make(map[int64]int)
	capped := candidates
	if len(capped) > fingerprintBatchCap {
		capped = capped[:fingerprintBatchCap]
	}
	for _, c := range capped {
		dist, ok := MahalanobisDistance(target, c)
		if !ok {
			continue
		}
		_, score := FingerprintMergeBonus(cfg, dist)
		bonuses[c.VesselID] = score
	}
	return bonuses
}
