package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shareloop/service-booking/pkg/auth"
	"github.com/shareloop/service-booking/pkg/response"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "user_role"
	ctxEmail  = "user_email"
)

// AuthMiddleware requires a valid bearer access token. The token may also be passed as a
// "token" query parameter, which browsers need for WebSocket upgrades.
func AuthMiddleware(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.Unauthorized(c)
			return
		}

		claims, err := jwtManager.ValidateAccessToken(tokenStr)
		if err != nil {
			response.Unauthorized(c)
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxEmail, claims.Email)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds one of the given roles.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			response.Unauthorized(c)
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient role")
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's id.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetUserRole returns the authenticated user's role.
func GetUserRole(c *gin.Context) (auth.Role, bool) {
	v, ok := c.Get(ctxRole)
	if !ok {
		return "", false
	}
	role, ok := v.(auth.Role)
	return role, ok
}

// GetCaller returns the resolved caller, or auth.Anonymous() when the request carries none.
func GetCaller(c *gin.Context) auth.Caller {
	id, ok := GetUserID(c)
	if !ok {
		return auth.Anonymous()
	}
	role, _ := GetUserRole(c)
	return auth.NewCaller(id, role)
}

// SetCaller stores a caller on the context. Used by tests and trusted internal routes.
func SetCaller(c *gin.Context, caller auth.Caller) {
	c.Set(ctxUserID, caller.UserID)
	c.Set(ctxRole, caller.Role)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.Query("token")
}
