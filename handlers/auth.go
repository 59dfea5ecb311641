package handlers

import (
	"net/http"
	"time"

	"tourbook/config"
	"tourbook/middleware"
	userService "tourbook/services/user"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const loggedOut = "loggedout"

// AuthHandler serves signup, login and password flows.
type AuthHandler struct {
	Users userService.UserService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req userService.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Users.Signup(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	getLogger(c).Info("User signed up", zap.String("userId", res.User.ID.Hex()))
	sendToken(c, http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	sendToken(c, http.StatusOK, res)
}

// Logout overwrites the token cookie with a short lived placeholder.
func (h *AuthHandler) Logout(c *gin.Context) {
	setTokenCookie(c, loggedOut, 10*time.Second)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		return
	}
	var req userService.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Users.UpdatePassword(c.Request.Context(), caller, req)
	if err != nil {
		fail(c, err)
		return
	}
	sendToken(c, http.StatusOK, res)
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	if err := h.Users.ForgotPassword(c.Request.Context(), req.Email, resetURLBase(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req userService.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}
	res, err := h.Users.ResetPassword(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		fail(c, err)
		return
	}
	sendToken(c, http.StatusOK, res)
}

func resetURLBase(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host + "/api/v1/users/resetPassword"
}

func sendToken(c *gin.Context, status int, res *userService.AuthResponse) {
	setTokenCookie(c, res.Token, time.Duration(config.AppConfig.JWTCookieExpiresInDay)*24*time.Hour)
	c.JSON(status, gin.H{
		"status": "success",
		"token":  res.Token,
		"data":   gin.H{"user": res.User},
	})
}

func setTokenCookie(c *gin.Context, value string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, value, int(ttl.Seconds()), "/", "", config.IsProduction(), true)
}
