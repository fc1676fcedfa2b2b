package purchases

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/identity"
)

type Handler struct {
	service  Service
	sessions identity.Service
	tokens   *identity.TokenIssuer
	logger   *zap.Logger
}

func NewHandler(service Service, sessions identity.Service, tokens *identity.TokenIssuer, logger *zap.Logger) *Handler {
	return &Handler{service: service, sessions: sessions, tokens: tokens, logger: logger}
}

// RegisterRoutes registers purchase routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/purchases", identity.RequireAuth(h.tokens))
	{
		group.POST("", identity.RequireRole(identity.RoleInvestor), h.Purchase)
		group.GET("", identity.RequireRole(identity.RoleInvestor), h.History)
		group.GET("/:id", h.Get)
	}
}

type purchaseRequest struct {
	FarmID uuid.UUID `json:"farm_id" binding:"required"`
	Amount int64     `json:"amount" binding:"required"`
}

func (h *Handler) Purchase(c *gin.Context) {
	userID, _ := identity.UserID(c)

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	purchase, err := h.service.Purchase(c.Request.Context(), session, req.FarmID, req.Amount)
	if err != nil {
		h.logger.Warn("purchase failed",
			zap.String("investor_id", userID.String()),
			zap.String("farm_id", req.FarmID.String()),
			zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, purchase)
}

func (h *Handler) History(c *gin.Context) {
	userID, _ := identity.UserID(c)

	history, err := h.service.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *Handler) Get(c *gin.Context) {
	userID, _ := identity.UserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid purchase id"})
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	purchase, err := h.service.Get(c.Request.Context(), session, id)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, purchase)
}
