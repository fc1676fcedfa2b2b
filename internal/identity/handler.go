package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agripulse/marketplace/internal/apperrors"
	"github.com/agripulse/marketplace/internal/ledger"
)

type Handler struct {
	service Service
	tokens  *TokenIssuer
	hub     *Hub
	gateway ledger.Gateway
	logger  *zap.Logger
}

func NewHandler(service Service, tokens *TokenIssuer, hub *Hub, gateway ledger.Gateway, logger *zap.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, hub: hub, gateway: gateway, logger: logger}
}

// RegisterRoutes registers auth and wallet routes
func (h *Handler) RegisterRoutes(api *gin.RouterGroup) {
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/logout", RequireAuth(h.tokens), h.Logout)
		authGroup.GET("/me", RequireAuth(h.tokens), h.Me)
	}

	walletGroup := api.Group("/wallet", RequireAuth(h.tokens))
	{
		walletGroup.POST("/connect", h.ConnectWallet)
		walletGroup.GET("", h.Wallet)
		walletGroup.GET("/balance", h.Balance)
	}

	api.GET("/ws/session", RequireAuth(h.tokens), h.SessionEvents)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     Role   `json:"role" binding:"required"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity, err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		h.logger.Warn("registration failed", zap.String("email", req.Email), zap.Error(err))
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":    identity.ID,
		"email": identity.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, session, err := h.service.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":               session.UserID,
			"email":            session.Email,
			"role":             session.Role,
			"wallet_connected": session.WalletConnected(),
		},
	})
}

func (h *Handler) Logout(c *gin.Context) {
	claims, ok := SessionClaims(c)
	if ok {
		h.service.SignOut(c.Request.Context(), claims)
	}
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

func (h *Handler) Me(c *gin.Context) {
	userID, _ := UserID(c)

	session, err := h.service.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{
		"id":               session.UserID,
		"email":            session.Email,
		"role":             session.Role,
		"state":            session.State(),
		"wallet_connected": session.WalletConnected(),
	}
	if session.WalletConnected() {
		resp["account_id"] = session.Binding.AccountID
	}
	c.JSON(http.StatusOK, resp)
}

type connectWalletRequest struct {
	AccountID  string `json:"account_id" binding:"required"`
	PrivateKey string `json:"private_key" binding:"required"`
}

func (h *Handler) ConnectWallet(c *gin.Context) {
	userID, _ := UserID(c)

	var req connectWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.ConnectWallet(c.Request.Context(), userID, req.AccountID, req.PrivateKey); err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": req.AccountID,
		"state":      StateWalletConnected,
	})
}

func (h *Handler) Wallet(c *gin.Context) {
	userID, _ := UserID(c)

	session, err := h.service.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	if !session.WalletConnected() {
		c.JSON(http.StatusOK, gin.H{"connected": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"connected":  true,
		"account_id": session.Binding.AccountID,
	})
}

func (h *Handler) Balance(c *gin.Context) {
	userID, _ := UserID(c)

	session, err := h.service.GetSession(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !session.WalletConnected() {
		c.JSON(apperrors.HTTPStatus(apperrors.ErrWalletNotConnected), gin.H{"error": apperrors.ErrWalletNotConnected.Error()})
		return
	}

	balance, err := h.gateway.GetBalance(c.Request.Context(), session.Binding.AccountID, session.Binding.PrivateKey)
	if err != nil {
		c.JSON(apperrors.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, balance)
}

func (h *Handler) SessionEvents(c *gin.Context) {
	userID, _ := UserID(c)
	if err := h.hub.HandleConnection(c.Writer, c.Request, userID.String()); err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
	}
}
