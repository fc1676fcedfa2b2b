package achievements

import (
	"net/http"

	"github.com/gin-gonic/gin"
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

// RegisterRoutes registers achievement routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	group := api.Group("/achievements", identity.RequireAuth(h.tokens))
	{
		group.GET("/levels", h.Levels)
		group.GET("", identity.RequireRole(identity.RoleFarmer), h.Gallery)
		group.POST("/evaluate", identity.RequireRole(identity.RoleFarmer), h.Evaluate)
	}
}

func (h *Handler) Levels(c *gin.Context) {
	levels, err := h.service.Levels(c.Request.Context())
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, levels)
}

func (h *Handler) Gallery(c *gin.Context) {
	userID, _ := identity.UserID(c)

	grants, err := h.service.Gallery(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, grants)
}

func (h *Handler) Evaluate(c *gin.Context) {
	userID, _ := identity.UserID(c)

	session, err := h.sessions.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	results, err := h.service.Evaluate(c.Request.Context(), userID, session.Email)
	if err != nil {
		h.logger.Warn("achievement evaluation failed",
			zap.String("owner_id", userID.String()), zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}
