package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shadowfleet/aisforensics/internal/external"
)

// limitedBody caps one ingest request body at maxUploadBytes, mirroring
// the size ceiling MAX_UPLOAD_SIZE_MB describes.
func limitedBody(c *gin.Context) external.ReaderLike {
	return http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
}

// handleIngestAIS parses an uploaded AIS point CSV, resolving or
// creating a vessel row per MMSI, and persists every well-formed point.
func (h *APIHandler) handleIngestAIS(c *gin.Context) {
	records, stats, err := (external.AISCSVLoader{}).LoadAISPoints(limitedBody(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accepted := 0
	for _, rec := range records {
		vesselID, err := h.store.UpsertVesselByMMSI(rec.MMSI, rec.Point.TimestampUTC)
		if err != nil {
			continue
		}
		if err := h.store.SaveAISPoint(vesselID, rec.Point); err != nil {
			continue
		}
		accepted++
	}

	c.JSON(http.StatusOK, gin.H{"stats": stats, "pointsPersisted": accepted})
}

// handleIngestCorridors replaces the corridor registry with the
// uploaded YAML definition set.
func (h *APIHandler) handleIngestCorridors(c *gin.Context) {
	corridors, err := (external.CorridorYAMLLoader{}).LoadCorridors(limitedBody(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved := 0
	for _, cr := range corridors {
		if err := h.store.SaveCorridor(cr); err == nil {
			saved++
		}
	}
	c.JSON(http.StatusOK, gin.H{"corridorsSeen": len(corridors), "corridorsSaved": saved})
}

// handleIngestPorts loads the port registry CSV.
func (h *APIHandler) handleIngestPorts(c *gin.Context) {
	ports, err := (external.PortCSVLoader{}).LoadPorts(limitedBody(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved := 0
	for _, p := range ports {
		if err := h.store.SavePort(p.Port, p.Lat, p.Lon); err == nil {
			saved++
		}
	}
	c.JSON(http.StatusOK, gin.H{"portsSeen": len(ports), "portsSaved": saved})
}

// handleIngestWatchlist dispatches to the sanctions-source parser named
// by the :source path segment (ofac, kse, gur, fleetleaks,
// opensanctions), resolving each matched row's vessel against the
// current fleet.
func (h *APIHandler) handleIngestWatchlist(c *gin.Context) {
	var loader external.WatchlistSource
	switch c.Param("source") {
	case "ofac":
		loader = external.OFACSDNLoader{}
	case "kse":
		loader = external.KSELoader{}
	case "gur":
		loader = external.GURLoader{}
	case "fleetleaks":
		loader = external.FleetLeaksLoader{}
	case "opensanctions":
		loader = external.OpenSanctionsLoader{}
	default:
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown watchlist source"})
		return
	}

	matches, stats, err := loader.LoadWatchlist(limitedBody(c), h.store)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	saved := 0
	for _, m := range matches {
		if err := h.store.SaveWatchlistMatch(m); err == nil {
			saved++
		}
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "matchesSaved": saved})
}

// handleIngestGFWEvents loads a Global Fishing Watch v3 events payload,
// persisting the encounter-derived STS events, port calls, and
// corroborating gap reports it produces.
func (h *APIHandler) handleIngestGFWEvents(c *gin.Context) {
	result, err := (external.GFWJSONLoader{}).LoadGFWEvents(limitedBody(c), h.store)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	stsSaved := 0
	for _, e := range result.STSEvents {
		if _, err := h.store.SaveSTSEvent(e); err == nil {
			stsSaved++
		}
	}
	portCallsSaved := 0
	for _, pc := range result.PortCalls {
		if err := h.store.SavePortCall(pc); err == nil {
			portCallsSaved++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"eventsSeen":        result.EventsSeen,
		"vesselsUnresolved": result.VesselsUnresolved,
		"stsEventsSaved":    stsSaved,
		"portCallsSaved":    portCallsSaved,
		"reportedGaps":      result.ReportedGaps,
	})
}
