package listings

import (
	"context"
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

// RegisterRoutes registers farm listing routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	auth := identity.RequireAuth(h.tokens)

	farms := api.Group("/farms", auth)
	{
		farms.POST("", identity.RequireRole(identity.RoleFarmer), h.Create)
		farms.GET("/mine", identity.RequireRole(identity.RoleFarmer), h.Mine)
		farms.GET("", identity.RequireRole(identity.RoleAdmin), h.List)
		farms.GET("/:id", h.Get)
		farms.POST("/:id/approve", identity.RequireRole(identity.RoleAdmin), h.Approve)
		farms.POST("/:id/reject", identity.RequireRole(identity.RoleAdmin), h.Reject)
	}

	api.GET("/marketplace", auth, h.Marketplace)
	api.POST("/tokens", auth, identity.RequireRole(identity.RoleAdmin), h.CreateToken)
}

func (h *Handler) Create(c *gin.Context) {
	userID, _ := identity.UserID(c)

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	farm, err := h.service.Create(c.Request.Context(), session, req)
	if err != nil {
		h.logger.Warn("farm creation failed", zap.String("owner_id", userID.String()), zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, farm)
}

func (h *Handler) Mine(c *gin.Context) {
	userID, _ := identity.UserID(c)

	farms, err := h.service.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, farms)
}

func (h *Handler) List(c *gin.Context) {
	farms, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, farms)
}

func (h *Handler) Marketplace(c *gin.Context) {
	farms, err := h.service.Marketplace(c.Request.Context())
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, farms)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid farm id"})
		return
	}

	farm, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, farm)
}

func (h *Handler) Approve(c *gin.Context) {
	h.transition(c, h.service.Approve, StatusApproved)
}

func (h *Handler) Reject(c *gin.Context) {
	h.transition(c, h.service.Reject, StatusRejected)
}

func (h *Handler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID) error, to Status) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid farm id"})
		return
	}

	if err := fn(c.Request.Context(), id); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "status": to})
}

func (h *Handler) CreateToken(c *gin.Context) {
	userID, _ := identity.UserID(c)

	var req TokenCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.CreateSharedToken(c.Request.Context(), session, req)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, result)
}
