package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shadowfleet/aisforensics/internal/identity"
)

// ════════════════════════════════════════════════════════════════════
// Merge-candidate review handlers — the analyst-facing surface over
// internal/identity's merge/reverse-merge operations. Grounded on the
// prior investigation-case CRUD shape (create/inspect/act on a case,
// GET the case's derived artifacts) generalized from fund-tracing cases
// to identity-merge candidates.
// ════════════════════════════════════════════════════════════════════

// handleListMergeCandidates returns every non-rejected merge candidate
// (pending, auto-merged or analyst-merged) at or above the requested
// confidence floor (default 0, i.e. everything).
func (h *APIHandler) handleListMergeCandidates(c *gin.Context) {
	minConfidence, _ := strconv.Atoi(c.DefaultQuery("minConfidence", "0"))
	candidates := h.store.MergeCandidatesAbove(minConfidence)
	c.JSON(http.StatusOK, gin.H{"data": candidates})
}

// handleExecuteMerge executes the proposed identity merge for a merge
// candidate, absorbing vesselB's history into vesselA (or vice versa,
// per internal/identity.ExecuteMerge's own canonical-side resolution).
func (h *APIHandler) handleExecuteMerge(c *gin.Context) {
	var req struct {
		VesselAID  int64  `json:"vesselAId" binding:"required"`
		VesselBID  int64  `json:"vesselBId" binding:"required"`
		ExecutedBy string `json:"executedBy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	executedBy := req.ExecutedBy
	if executedBy == "" {
		executedBy = "api"
	}

	result := identity.ExecuteMerge(req.VesselAID, req.VesselBID, h.store, executedBy, time.Now().UTC())
	if !result.Success {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleReverseMerge reverses a previously executed merge operation,
// best-effort per internal/identity.ReverseMerge's documented limits.
func (h *APIHandler) handleReverseMerge(c *gin.Context) {
	opID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operation id"})
		return
	}
	result := identity.ReverseMerge(opID, h.store)
	if !result.Success {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}
