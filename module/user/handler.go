package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notdezzi/freedomtalk/logger"
	"github.com/notdezzi/freedomtalk/middleware"
	"github.com/notdezzi/freedomtalk/service/storage"
	"github.com/notdezzi/freedomtalk/tools/security"
)

// Handler is the small REST surface the gateway keeps for itself: minting
// tokens and echoing the verified identity. Registration, profiles and
// friends belong to the admin API, not here.
type Handler struct {
	store   storage.Store
	jwtOpts security.Options
}

func NewHandler(store storage.Store, jwtOpts security.Options) *Handler {
	return &Handler{store: store, jwtOpts: jwtOpts}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	u, err := h.store.FindUserByUsername(c.Request.Context(), req.Username)
	if storage.IsNotFound(err) || (err == nil && u.PasswordHash != security.HashPassword(req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		logger.Errorf("[user] login lookup %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	token, expireAt, err := security.Generate(h.jwtOpts, u.ID, u.Scopes)
	if err != nil {
		logger.Errorf("[user] mint token for %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"expires": expireAt.Unix(),
		"user":    gin.H{"id": u.ID, "username": u.Username},
	})
}

// Me returns the identity the auth middleware resolved from the bearer token.
func (h *Handler) Me(c *gin.Context) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.UserID, "scopes": id.Scopes})
}
