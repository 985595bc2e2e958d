package api

import (
	"net/http"

	"fanpool/service"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RegisterEvent handles POST /api/v1/admin/events
func (h *Handler) RegisterEvent(c *gin.Context) {
	var req registerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	event, err := h.services.Events.RegisterEvent(c.Request.Context(), service.RegisterEventRequest{
		Title:         req.Title,
		HomeTeam:      req.HomeTeam,
		AwayTeam:      req.AwayTeam,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		PartyCapacity: req.PartyCapacity,
		Approved:      req.Approved,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, event)
}

// GetEvent handles GET /api/v1/events/:id
func (h *Handler) GetEvent(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	event, err := h.services.Events.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, event)
}

// ApproveEvent handles POST /api/v1/admin/events/:id/approve
func (h *Handler) ApproveEvent(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	event, err := h.services.Events.ApproveEvent(c.Request.Context(), eventID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, event)
}

// ReportResult handles POST /api/v1/admin/events/:id/result
func (h *Handler) ReportResult(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req reportResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	event, err := h.services.Events.ReportResult(c.Request.Context(), eventID, req.WinningTeam, req.Score)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, event)
}

// IssueToken handles POST /api/v1/admin/events/:id/tokens
func (h *Handler) IssueToken(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	token, err := h.services.Participation.IssueToken(c.Request.Context(), service.IssueTokenRequest{
		EventID:         eventID,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		MaxScansPerHour: req.MaxScansPerHour,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, token)
}

// DeactivateToken handles POST /api/v1/admin/tokens/:token/deactivate
func (h *Handler) DeactivateToken(c *gin.Context) {
	token, err := h.services.Participation.DeactivateToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, token)
}

// InjectPool handles POST /api/v1/admin/pools
func (h *Handler) InjectPool(c *gin.Context) {
	var req injectPoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := h.services.Pools.InjectPool(c.Request.Context(), service.InjectPoolRequest{
		ApplicationID:   req.ApplicationID,
		AdminID:         req.AdminID,
		Amount:          req.Amount,
		Currency:        req.Currency,
		FeePercentages:  req.FeePercentages,
		TierMultipliers: req.TierMultipliers,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, injectPoolResponse{
		InjectionID:          result.InjectionID,
		NewApplicationStatus: result.NewApplicationStatus,
		Injection:            result.Injection,
	})
}

// GetPool handles GET /api/v1/events/:id/pool
func (h *Handler) GetPool(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	pool, err := h.services.Pools.GetActivePool(c.Request.Context(), eventID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, pool)
}

// Settle handles POST /api/v1/admin/events/:id/settle
func (h *Handler) Settle(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.services.Settlement.Settle(c.Request.Context(), eventID)
	if err != nil {
		fail(c, err)
		return
	}

	log.WithFields(log.Fields{
		"eventID":             eventID,
		"participantsSettled": result.ParticipantsSettled,
		"failures":            len(result.Failures),
	}).Info("Settlement requested over HTTP")
	success(c, http.StatusOK, result)
}
