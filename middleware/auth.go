package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/notdezzi/freedomtalk/service/chat"
	"github.com/notdezzi/freedomtalk/tools/errs"
)

const ctxIdentityKey = "identity"

// Auth guards REST routes with the same verifier the websocket handshake
// uses. Compatible with Authorization: Bearer xxx.
func Auth(verifier chat.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			ce := errs.AsCodeError(err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ce.Msg, "code": ce.Code})
			return
		}
		c.Set(ctxIdentityKey, id)
		c.Next()
	}
}

// IdentityFrom reads the identity Auth stored on the request context.
func IdentityFrom(c *gin.Context) (*chat.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*chat.Identity)
	return id, ok
}
