package external

import (
	"encoding/json"
	"time"

	"github.com/shadowfleet/aisforensics/pkg/models"
)

// GFWJSONLoader parses a Global Fishing Watch v3 events payload. The
// live polling API client (auth, rate limiting, checkpoint/resume) is
// not implemented here — only the documented payload shape is, since
// events are supplied as a file in offline/batch ingestion.
type GFWJSONLoader struct{}

var _ GFWEventSource = GFWJSONLoader{}

type gfwPayload struct {
	Events []gfwEvent `json:"events"`
}

type gfwEvent struct {
	ID     string  `json:"id"`
	Type   string  `json:"type"`
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Vessel struct {
		SSVID string `json:"ssvid"`
		Name  string `json:"name"`
		Flag  string `json:"flag"`
	} `json:"vessel"`
	Encounter *gfwEncounter `json:"encounter"`
	Gap       *gfwGap       `json:"gap"`
}

type gfwEncounter struct {
	VesselSSVID string `json:"vessel_ssvid"`
}

type gfwGap struct {
	OffPosition       bool    `json:"offPosition"`
	OnPosition        bool    `json:"onPosition"`
	DurationHours     float64 `json:"durationHours"`
	DistanceKM        float64 `json:"distanceKm"`
	ImpliedSpeedKnots float64 `json:"impliedSpeedKnots"`
}

// LoadGFWEvents implements GFWEventSource.
func (GFWJSONLoader) LoadGFWEvents(r ReaderLike, resolver VesselResolver) (GFWImportResult, error) {
	var payload gfwPayload
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return GFWImportResult{}, err
	}

	var result GFWImportResult
	for _, ev := range payload.Events {
		result.EventsSeen++

		start, startOK := parseGFWTime(ev.Start)
		end, endOK := parseGFWTime(ev.End)
		if startOK && (result.EarliestEventUTC.IsZero() || start.Before(result.EarliestEventUTC)) {
			result.EarliestEventUTC = start
		}
		if endOK && end.After(result.LatestEventUTC) {
			result.LatestEventUTC = end
		}

		vessel, ok := resolver.VesselByMMSI(ev.Vessel.SSVID)
		if !ok {
			result.VesselsUnresolved++
			continue
		}

		switch {
		case ev.Encounter != nil || ev.Type == "encounter":
			if ev.Encounter == nil {
				break
			}
			partner, ok := resolver.VesselByMMSI(ev.Encounter.VesselSSVID)
			if !ok {
				result.VesselsUnresolved++
				break
			}
			v1, v2 := vessel.ID, partner.ID
			if v2 < v1 {
				v1, v2 = v2, v1
			}
			result.STSEvents = append(result.STSEvents, models.StsTransferEvent{
				Vessel1ID:     v1,
				Vessel2ID:     v2,
				DetectionType: models.STSGFWEncounter,
				StartTimeUTC:  start,
				EndTimeUTC:    end,
				MeanLat:       ev.Lat,
				MeanLon:       ev.Lon,
			})
		case ev.Gap != nil || ev.Type == "gap":
			g := ev.Gap
			if g == nil {
				g = &gfwGap{}
			}
			result.ReportedGaps = append(result.ReportedGaps, GFWGapReport{
				VesselID:          vessel.ID,
				StartUTC:          start,
				EndUTC:            end,
				DurationHours:     g.DurationHours,
				DistanceKM:        g.DistanceKM,
				ImpliedSpeedKnots: g.ImpliedSpeedKnots,
				Lat:               ev.Lat,
				Lon:               ev.Lon,
			})
		case ev.Type == "port_visit":
			result.PortCalls = append(result.PortCalls, models.PortCall{
				VesselID:   vessel.ID,
				ArrivalUTC: start,
				Source:     "gfw",
			})
		}
	}
	return result, nil
}

func parseGFWTime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
