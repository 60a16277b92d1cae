package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/config"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/internal/sessions"
	"github.com/campuslink/campuslink-server/internal/tokens"
	"github.com/campuslink/campuslink-server/internal/users"
	"github.com/campuslink/campuslink-server/pkg/logger"
	"github.com/campuslink/campuslink-server/pkg/metrics"
	"github.com/campuslink/campuslink-server/pkg/middleware"
)

// AuthHandler serves registration, login and session management.
type AuthHandler struct {
	cfg    *config.Config
	users  *users.Service
	issuer *tokens.Issuer
}

func NewAuthHandler(cfg *config.Config, u *users.Service, issuer *tokens.Issuer) *AuthHandler {
	return &AuthHandler{cfg: cfg, users: u, issuer: issuer}
}

// Register routes under /auth. The authed parameter is the authentication
// middleware shared by all protected routes.
func (h *AuthHandler) Register(rg *gin.RouterGroup, authed gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/logout", authed, h.Logout)
	a.GET("/me", authed, h.Me)
	a.GET("/verify", authed, h.Verify)
	a.PUT("/profile", authed, h.UpdateProfile)
	a.PUT("/password", authed, h.ChangePassword)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authPayload struct {
	User  interface{} `json:"user"`
	Token string      `json:"token"`
}

// SignUp creates an account and immediately issues a credential.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req users.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	metrics.UsersRegistered.Inc()

	tok, err := h.issuer.Issue(u.ID.Hex())
	if err != nil {
		response.Error(c, apperr.Internal("failed to issue token", err))
		return
	}
	response.Created(c, "registration successful", authPayload{User: u, Token: tok})
}

// Login verifies the password and issues a fresh credential.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		response.Error(c, err)
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	tok, err := h.issuer.Issue(u.ID.Hex())
	if err != nil {
		response.Error(c, apperr.Internal("failed to issue token", err))
		return
	}
	response.OK(c, "login successful", authPayload{User: u, Token: tok})
}

// Logout revokes the presented credential for its remaining lifetime.
func (h *AuthHandler) Logout(c *gin.Context) {
	raw := middleware.TokenFrom(c)
	if raw != "" {
		// the middleware already verified the token; on a parse failure
		// fall back to the full configured lifetime
		ttl := h.cfg.Auth.TokenTTL
		if rem, err := h.issuer.RemainingLife(raw); err == nil {
			ttl = rem
		}
		if err := sessions.RevokeToken(c.Request.Context(), raw, ttl); err != nil {
			logger.Warnf("token revocation failed: %v", err)
		}
	}
	c.JSON(http.StatusOK, response.Envelope{Success: true, Message: "logged out"})
}

// Me returns the authenticated account, email included.
func (h *AuthHandler) Me(c *gin.Context) {
	response.OK(c, "current user", middleware.UserFrom(c))
}

// Verify confirms the presented credential is still accepted. Reaching the
// handler means the middleware already validated it.
func (h *AuthHandler) Verify(c *gin.Context) {
	u := middleware.UserFrom(c)
	response.OK(c, "token valid", gin.H{"valid": true, "user": u.PublicView()})
}

type profileRequest struct {
	Username    *string                 `json:"username"`
	Avatar      *string                 `json:"avatar"`
	Profile     *models.UserProfile     `json:"profile"`
	Preferences *models.UserPreferences `json:"preferences"`
}

// UpdateProfile edits the caller's own profile fields.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), middleware.UserIDFrom(c), users.ProfileUpdate{
		Username:    req.Username,
		Avatar:      req.Avatar,
		Profile:     req.Profile,
		Preferences: req.Preferences,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "profile updated", u)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// ChangePassword verifies the current password before applying the new one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	if err := h.users.ChangePassword(c.Request.Context(), middleware.UserIDFrom(c), req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "password updated", nil)
}
