package middleware

import (
	"net/http"
	"os"
	"strings"

	"fleet/internal/model"
	"fleet/internal/repository"
	"fleet/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const identityKey = "identity"

func GetJWTSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if os.Getenv("GIN_MODE") == "release" {
			panic("FATAL: JWT_SECRET environment variable is required in production mode")
		}
		secret = "default_super_secret_key" // Development fallback only — DO NOT use in production
	}
	return []byte(secret)
}

// userStore holds the repository used to resolve identities — set via Init.
var userStore repository.UserRepository

// Init sets the user store for the Authenticate middleware.
func Init(repo repository.UserRepository) {
	userStore = repo
}

// Authenticate validates the bearer token and resolves the caller's
// current role, region and custom permissions from the user store. The
// token payload is not trusted for anything beyond the subject id, so
// role/permission edits take effect without re-login.
func Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
			return
		}

		token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return GetJWTSecret(), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		sub, ok := claims["sub"].(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		user, err := userStore.GetByID(c.Request.Context(), sub)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Account no longer exists"))
			return
		}

		c.Set(identityKey, model.Identity{
			UserID:            user.ID,
			Role:              user.Role,
			Region:            user.Region,
			CustomPermissions: user.CustomPermissions,
		})

		c.Next()
	}
}

// RequireRole rejects callers whose resolved role is not in allowedRoles.
// Must run after Authenticate.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		for _, role := range allowedRoles {
			if ident.Role == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient role"))
	}
}

// RequirePermission rejects callers missing any of the named permissions
// in their customPermissions set. Role alone is never sufficient for the
// capability-gated actions. Must run after Authenticate.
func RequirePermission(requiredPerms ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		for _, required := range requiredPerms {
			if !ident.CustomPermissions.Contains(required) {
				c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: missing permission '"+required+"'"))
				return
			}
		}

		c.Next()
	}
}

// CurrentIdentity returns the identity resolved by Authenticate.
func CurrentIdentity(c *gin.Context) (model.Identity, bool) {
	v, exists := c.Get(identityKey)
	if !exists {
		return model.Identity{}, false
	}
	ident, ok := v.(model.Identity)
	return ident, ok
}
