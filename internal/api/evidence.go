package api

import (
	"fmt"
	"strings"

	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// envelopeToGeoJSON renders a movement envelope's interpolated track as
// a GeoJSON LineString, or falls back to its confidence-ellipse WKT
// ring when no interpolated points were persisted.
func envelopeToGeoJSON(env models.MovementEnvelope) string {
	if len(env.InterpolatedPoints) > 0 {
		coords := make([][2]float64, len(env.InterpolatedPoints))
		for i, p := range env.InterpolatedPoints {
			coords[i] = [2]float64{p.Lon, p.Lat}
		}
		return fmt.Sprintf(`{"type":"LineString","coordinates":%s}`, coordsJSON(coords))
	}
	if env.ConfidenceEllipseWKT != "" {
		if ring, err := geo.ParseWKTPolygonCoords(env.ConfidenceEllipseWKT); err == nil {
			return fmt.Sprintf(`{"type":"Polygon","coordinates":[%s]}`, coordsJSON(ring))
		}
	}
	return ""
}

func coordsJSON(coords [][2]float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range coords {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "[%v,%v]", c[0], c[1])
	}
	b.WriteByte(']')
	return b.String()
}

// evidenceCardMarkdown renders an EvidenceCard the way an analyst would
// paste it into a case note: a heading, the key gap facts, linked
// anomalies, and watchlist hits.
func evidenceCardMarkdown(card models.EvidenceCard) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Evidence card: %s (MMSI %s)\n\n", card.VesselSummary.Name, card.VesselSummary.MMSI)
	fmt.Fprintf(&b, "- Flag: %s\n", card.VesselSummary.Flag)
	fmt.Fprintf(&b, "- Gap: %s to %s (%d min)\n", card.GapEvent.GapStartUTC.Format("2006-01-02T15:04Z"),
		card.GapEvent.GapEndUTC.Format("2006-01-02T15:04Z"), card.GapEvent.DurationMinutes)
	fmt.Fprintf(&b, "- Risk score: %d\n", card.GapEvent.RiskScore)
	fmt.Fprintf(&b, "- Status: %s\n", card.GapEvent.Status)
	if card.SatelliteCheckRecommended {
		b.WriteString("- Satellite tasking recommended\n")
	}

	if len(card.ScoringBreakdown.Signals) > 0 {
		b.WriteString("\n## Scoring breakdown\n\n")
		for _, s := range card.ScoringBreakdown.Signals {
			fmt.Fprintf(&b, "- %s: %+d\n", s.Name, s.Value)
		}
	}

	if len(card.LinkedAnomalies) > 0 {
		b.WriteString("\n## Linked anomalies\n\n")
		for _, a := range card.LinkedAnomalies {
			fmt.Fprintf(&b, "- %s (%s to %s), +%d\n", a.Typology,
				a.StartTimeUTC.Format("2006-01-02T15:04Z"), a.EndTimeUTC.Format("2006-01-02T15:04Z"),
				a.RiskScoreComponent)
		}
	}

	if len(card.WatchlistMatches) > 0 {
		b.WriteString("\n## Watchlist matches\n\n")
		for _, m := range card.WatchlistMatches {
			fmt.Fprintf(&b, "- %s: %q matched on %s (%.0f%% confidence)\n", m.Source, m.MatchedName, m.MatchedOn, m.MatchConfidence)
		}
	}

	return b.String()
}
