package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/authz"
	"github.com/campuslink/campuslink-server/internal/models"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/internal/sessions"
	"github.com/campuslink/campuslink-server/internal/tokens"
)

// Gin context keys set by the auth middleware.
const (
	ContextActor  = "actor"
	ContextUser   = "user"
	ContextUserID = "userID"
	ContextToken  = "token"
)

// UserLoader resolves the account behind a verified credential. Satisfied by
// users.Repository.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// authenticate resolves the bearer token into a live account. A verified
// token whose account has since been deleted is still unauthenticated, and a
// disabled account is reported distinctly from bad credentials.
func authenticate(c *gin.Context, issuer *tokens.Issuer, users UserLoader) (*models.User, string, error) {
	raw := bearerToken(c)
	if raw == "" {
		return nil, "", apperr.Unauthenticated("authentication required")
	}

	userID, err := issuer.Verify(raw)
	if err != nil {
		if err == tokens.ErrExpired {
			return nil, "", apperr.Unauthenticated("token expired")
		}
		return nil, "", apperr.Unauthenticated("invalid token")
	}

	revoked, err := sessions.IsTokenRevoked(c.Request.Context(), raw)
	if err != nil {
		return nil, "", apperr.Internal("failed to check token revocation", err)
	}
	if revoked {
		return nil, "", apperr.Unauthenticated("token has been revoked")
	}

	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, "", apperr.Unauthenticated("invalid token")
	}
	u, err := users.GetByID(c.Request.Context(), oid)
	if err != nil {
		return nil, "", apperr.Internal("failed to load account", err)
	}
	if u == nil {
		return nil, "", apperr.Unauthenticated("account no longer exists")
	}
	if !u.IsActive {
		return nil, "", apperr.AccountDisabled("account is disabled")
	}
	return u, raw, nil
}

func setActor(c *gin.Context, u *models.User, raw string) {
	c.Set(ContextActor, &authz.Actor{ID: u.ID.Hex(), Role: u.Role})
	c.Set(ContextUser, u)
	c.Set(ContextUserID, u.ID)
	c.Set(ContextToken, raw)
	// claims map keys the per-subject rate limiter
	c.Set("claims", map[string]interface{}{"sub": u.ID.Hex()})
}

// Auth returns a middleware requiring a valid bearer token for a live
// account.
func Auth(issuer *tokens.Issuer, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, raw, err := authenticate(c, issuer, users)
		if err != nil {
			response.AbortError(c, err)
			return
		}
		setActor(c, u, raw)
		c.Next()
	}
}

// OptionalAuth attaches the actor when a valid bearer token is present and
// lets the request through anonymously otherwise. Used on public reads where
// the response varies by viewer.
func OptionalAuth(issuer *tokens.Issuer, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bearerToken(c) == "" {
			c.Next()
			return
		}
		u, raw, err := authenticate(c, issuer, users)
		if err != nil {
			// a token was sent but is unusable: reject rather than downgrade
			response.AbortError(c, err)
			return
		}
		setActor(c, u, raw)
		c.Next()
	}
}

// RequireAdmin must run after Auth; it rejects non-admin actors.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if err := authz.Authorize(actor, authz.ActionUpdate, authz.AdminOnly()); err != nil {
			response.AbortError(c, err)
			return
		}
		c.Next()
	}
}

// ActorFrom extracts the authenticated actor, or nil for anonymous requests.
func ActorFrom(c *gin.Context) *authz.Actor {
	if v, ok := c.Get(ContextActor); ok {
		if a, ok := v.(*authz.Actor); ok {
			return a
		}
	}
	return nil
}

// UserFrom extracts the authenticated account, or nil.
func UserFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// UserIDFrom extracts the authenticated account id; the zero id means
// anonymous.
func UserIDFrom(c *gin.Context) primitive.ObjectID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}

// TokenFrom extracts the raw bearer token for revocation on logout.
func TokenFrom(c *gin.Context) string {
	if v, ok := c.Get(ContextToken); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
