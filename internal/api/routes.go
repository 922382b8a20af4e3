package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shadowfleet/aisforensics/internal/config"
	"github.com/shadowfleet/aisforensics/internal/corridor"
	"github.com/shadowfleet/aisforensics/internal/db"
	"github.com/shadowfleet/aisforensics/internal/geo"
	"github.com/shadowfleet/aisforensics/internal/pipeline"
	"github.com/shadowfleet/aisforensics/pkg/models"
)

// maxUploadBytes caps one ingest request body, read from
// MAX_UPLOAD_SIZE_MB (default 64 MiB), to prevent unbounded memory use
// from a single batch upload.
var maxUploadBytes = int64(config.GetEnvIntOrDefault("MAX_UPLOAD_SIZE_MB", 64)) * 1024 * 1024

// APIHandler is the collaborator boundary for the detection engine: AIS
// and reference-data ingestion, alert query, evidence export, corridor
// GeoJSON, and status. Every pipeline run and detection operation itself
// lives in internal/pipeline and friends — this package only translates
// HTTP in and JSON out.
type APIHandler struct {
	store  *db.Store
	idx    *corridor.Index
	cfg    *config.ScoringConfig
	wsHub  *Hub
	runner *pipeline.Runner
}

// SetupRouter wires the public/protected route groups the same way the
// prior engine's CORS-and-bearer-token split worked, replacing its
// Bitcoin-domain handlers with the AIS ingestion/query surface.
func SetupRouter(store *db.Store, idx *corridor.Index, cfg *config.ScoringConfig, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var.
	// Production: ALLOWED_ORIGINS=https://example.org
	// Development: leave empty for *.
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{store: store, idx: idx, cfg: cfg, wsHub: wsHub, runner: &pipeline.Runner{}}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
		pub.GET("/corridors.geojson", handler.handleCorridorGeoJSON)
		pub.GET("/gaps", handler.handleListGaps)
		pub.GET("/gaps/:id", handler.handleGetGap)
		pub.GET("/gaps/:id/evidence", handler.handleGetEvidenceCard)
		pub.GET("/audit", handler.handleListAuditLog)
	}

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	// Every protected endpoint (ingestion, merge review, status updates,
	// pipeline runs) shares one per-IP ceiling; the public read endpoints
	// are not rate limited.
	auth.Use(NewRateLimiter(20, 5).Middleware())
	{
		ingest := auth.Group("/ingest")
		{
			ingest.POST("/ais", handler.handleIngestAIS)
			ingest.POST("/corridors", handler.handleIngestCorridors)
			ingest.POST("/ports", handler.handleIngestPorts)
			ingest.POST("/watchlist/:source", handler.handleIngestWatchlist)
			ingest.POST("/gfw-events", handler.handleIngestGFWEvents)
		}

		merge := auth.Group("/merge-candidates")
		{
			merge.GET("", handler.handleListMergeCandidates)
			merge.POST("/:id/execute", handler.handleExecuteMerge)
			merge.POST("/operations/:id/reverse", handler.handleReverseMerge)
		}

		auth.POST("/gaps/:id/status", handler.handleSetGapStatus)
		auth.POST("/run", handler.handleRunPipeline)
	}

	return r
}

// handleHealth reports engine status for service discovery/monitoring.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "operational",
		"engine":        "AIS Forensics Engine",
		"corridorsLoaded": h.idx != nil,
		"scoringConfigHash": func() string {
			if h.cfg == nil {
				return ""
			}
			return h.cfg.Hash()
		}(),
	})
}

// handleListGaps returns a filtered, paginated page of GapEvent rows —
// the Alerts view of the system.
func (h *APIHandler) handleListGaps(c *gin.Context) {
	filter := db.GapEventFilter{
		Status: models.GapStatus(c.Query("status")),
		Limit:  atoiOrDefault(c.Query("limit"), 50),
		Offset: atoiOrDefault(c.Query("offset"), 0),
	}
	if raw := c.Query("minRiskScore"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.MinRiskScore = &n
		}
	}
	if raw := c.Query("corridorId"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filter.CorridorID = &n
		}
	}

	gaps, total, err := h.store.ListGapEvents(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  gaps,
		"total": total,
		"limit": filter.Limit,
		"offset": filter.Offset,
	})
}

func (h *APIHandler) handleGetGap(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gap id"})
		return
	}
	gap, ok := h.store.GapEventByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "gap event not found"})
		return
	}
	c.JSON(http.StatusOK, gap)
}

// handleGetEvidenceCard assembles the analyst-facing export for a gap:
// vessel summary, envelope, linked anomalies, and watchlist matches.
func (h *APIHandler) handleGetEvidenceCard(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gap id"})
		return
	}
	gap, ok := h.store.GapEventByID(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "gap event not found"})
		return
	}
	vessel, ok := h.store.VesselByID(gap.VesselID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "vessel not found"})
		return
	}

	card := models.EvidenceCard{
		VesselID:         gap.VesselID,
		VesselSummary:    vessel,
		GapEvent:         gap,
		LinkedAnomalies:  h.store.AnomaliesForGap(gap.ID),
		WatchlistMatches: h.store.WatchlistMatchesForVessel(vessel.ID),
		ScoringBreakdown: gap.RiskBreakdown,
	}
	if env, ok := h.store.EnvelopeForGap(gap.ID); ok {
		card.MovementEnvelopeGeoJSON = envelopeToGeoJSON(env)
	}
	if gap.Status == models.GapStatusNeedsSatelliteCheck {
		card.SatelliteCheckRecommended = true
	}

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(evidenceCardMarkdown(card)))
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *APIHandler) handleSetGapStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid gap id"})
		return
	}
	var req struct {
		Status models.GapStatus `json:"status"`
		Notes  string           `json:"analystNotes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if _, ok := h.store.GapEventByID(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "gap event not found"})
		return
	}
	if err := h.store.AppendAuditLog(models.AuditLogEntry{
		Action:     "gap_status_change",
		EntityType: "gap_event",
		EntityID:   id,
		Details:    map[string]any{"status": req.Status, "analystNotes": req.Notes},
		IPAddress:  c.ClientIP(),
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	_ = h.wsHub.BroadcastAlert("gap_status_changed", gin.H{"gapId": id, "status": req.Status})
	c.JSON(http.StatusOK, gin.H{"status": "recorded"})
}

// handleListAuditLog returns the most recent append-only audit entries.
func (h *APIHandler) handleListAuditLog(c *gin.Context) {
	entries := h.store.RecentAuditLog(atoiOrDefault(c.Query("limit"), 100))
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

// handleCorridorGeoJSON renders the corridor registry as a GeoJSON
// FeatureCollection for map overlays.
func (h *APIHandler) handleCorridorGeoJSON(c *gin.Context) {
	corridors := h.store.AllCorridors()
	features := make([]geoJSONFeature, 0, len(corridors))
	for _, cr := range corridors {
		coords, err := geo.ParseWKTPolygonCoords(cr.Geometry)
		if err != nil {
			continue
		}
		ring := make([][2]float64, len(coords))
		copy(ring, coords)
		features = append(features, geoJSONFeature{
			Type: "Feature",
			Geometry: geoJSONGeometry{
				Type:        "Polygon",
				Coordinates: [][][2]float64{ring},
			},
			Properties: map[string]any{
				"id":            cr.ID,
				"name":          cr.Name,
				"corridorType":  cr.CorridorType,
				"isJammingZone": cr.IsJammingZone,
				"isArctic":      cr.IsArctic,
				"tags":          cr.Tags,
			},
		})
	}
	c.JSON(http.StatusOK, geoJSONFeatureCollection{Type: "FeatureCollection", Features: features})
}

type geoJSONGeometry struct {
	Type        string          `json:"type"`
	Coordinates [][][2]float64  `json:"coordinates"`
}

type geoJSONFeature struct {
	Type       string         `json:"type"`
	Geometry   geoJSONGeometry `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geoJSONFeatureCollection struct {
	Type     string           `json:"type"`
	Features []geoJSONFeature `json:"features"`
}

// handleRunPipeline triggers a full detection run against every
// canonical vessel — the API-surface equivalent of the CLI's "update"
// verb, invoked interactively rather than on a schedule.
func (h *APIHandler) handleRunPipeline(c *gin.Context) {
	report, err := h.runner.Run(h.store, h.idx, h.cfg, pipeline.AllEnabled(), time.Now().UTC())
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	_ = h.wsHub.BroadcastAlert("pipeline_run_complete", report)
	c.JSON(http.StatusOK, report)
}

func atoiOrDefault(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
