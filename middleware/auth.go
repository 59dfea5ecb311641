package middleware

import (
	"context"
	"strings"

	"tourbook/models"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	// AuthUserKey holds the *utils.AuthEntry of the caller.
	AuthUserKey = "authUser"
	// TokenCookie is the name of the session cookie.
	TokenCookie = "jwt"
)

var errNotLoggedIn = utils.Unauthorized("You are not logged in! Please log in to get access.")

var errForbidden = utils.Forbidden("You do not have permission to perform this action")

// Authenticator resolves tokens to callers.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.AuthEntry, error)
}

// Protect requires a valid token in the Authorization header or the jwt
// cookie.
func Protect(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			_ = c.Error(errNotLoggedIn)
			c.Abort()
			return
		}
		entry, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Set(AuthUserKey, entry)
		if l, ok := c.Get(utils.RequestLoggerKey); ok {
			if logger, ok := l.(*zap.Logger); ok {
				c.Set(utils.RequestLoggerKey, logger.With(zap.String("userId", entry.UserID)))
			}
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

// RestrictTo allows only callers holding one of roles. It must run after
// Protect.
func RestrictTo(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[string(r)] = true
	}
	return func(c *gin.Context) {
		entry, ok := CurrentUser(c)
		if !ok {
			_ = c.Error(errNotLoggedIn)
			c.Abort()
			return
		}
		if !allowed[entry.Role] {
			_ = c.Error(errForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller set by Protect.
func CurrentUser(c *gin.Context) (*utils.AuthEntry, bool) {
	v, ok := c.Get(AuthUserKey)
	if !ok {
		return nil, false
	}
	entry, ok := v.(*utils.AuthEntry)
	return entry, ok && entry != nil
}
