package api

import (
	"net/http"
	"strconv"

	"fanpool/service"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

// Services groups the services exposed over HTTP
type Services struct {
	Accounts      service.AccountService
	Events        service.EventService
	Pools         service.PoolService
	Stakes        service.StakeService
	Participation service.ParticipationService
	Settlement    service.SettlementService
}

// Handler serves the fanpool HTTP API
type Handler struct {
	services Services
}

// NewHandler creates a new handler
func NewHandler(services Services) *Handler {
	return &Handler{services: services}
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// CreateStake handles POST /api/v1/stakes
func (h *Handler) CreateStake(c *gin.Context) {
	var req createStakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	stake, err := h.services.Stakes.CreateStake(c.Request.Context(), service.CreateStakeRequest{
		UserID:     req.UserID,
		EventID:    req.EventID,
		Amount:     req.Amount,
		Tier:       req.Tier,
		TeamChoice: req.TeamChoice,
	})
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusCreated, newStakeResponse(stake))
}

// CancelStake handles DELETE /api/v1/events/:id/stakes/:user_id
func (h *Handler) CancelStake(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	stake, err := h.services.Stakes.CancelStake(c.Request.Context(), userID, eventID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, newStakeResponse(stake))
}

// GetStakeStatus handles GET /api/v1/events/:id/stakes/:user_id
func (h *Handler) GetStakeStatus(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	status, err := h.services.Stakes.GetStakeStatus(c.Request.Context(), userID, eventID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, status)
}

// Scan handles POST /api/v1/scans
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if req.ClientMetadata.IPAddress == "" {
		req.ClientMetadata.IPAddress = c.ClientIP()
	}

	result, err := h.services.Participation.Scan(c.Request.Context(), service.ScanRequest{
		UserID:            req.UserID,
		Token:             req.Token,
		ParticipationType: req.ParticipationType,
		ClientMetadata:    req.ClientMetadata,
	})
	if err != nil {
		fail(c, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyParticipated {
		status = http.StatusOK
	}
	success(c, status, result)
}

// GetTokenInfo handles GET /api/v1/tokens/:token
func (h *Handler) GetTokenInfo(c *gin.Context) {
	var userID *int64
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "invalid user_id")
			return
		}
		userID = &id
	}

	info, err := h.services.Participation.GetTokenInfo(c.Request.Context(), c.Param("token"), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, info)
}

// OpenAccount handles POST /api/v1/accounts
func (h *Handler) OpenAccount(c *gin.Context) {
	var req openAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	user, err := h.services.Accounts.GetOrCreateAccount(c.Request.Context(), req.UserID, req.Username)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, user)
}

// GetAccount handles GET /api/v1/accounts/:user_id
func (h *Handler) GetAccount(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	user, err := h.services.Accounts.GetAccount(c.Request.Context(), userID)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, user)
}

// GetHistory handles GET /api/v1/accounts/:user_id/history
func (h *Handler) GetHistory(c *gin.Context) {
	userID, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			badRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}

	history, err := h.services.Accounts.GetHistory(c.Request.Context(), userID, limit)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, http.StatusOK, history)
}
