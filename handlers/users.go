package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/internal/users"
	"github.com/campuslink/campuslink-server/pkg/middleware"
)

// UsersHandler serves profile reads and the admin account operations.
type UsersHandler struct {
	users *users.Service
}

func NewUsersHandler(u *users.Service) *UsersHandler {
	return &UsersHandler{users: u}
}

func (h *UsersHandler) Register(rg *gin.RouterGroup, authed, optional, admin gin.HandlerFunc) {
	g := rg.Group("/users")
	g.GET("", authed, admin, h.List)
	g.GET("/stats/overview", authed, admin, h.Stats)
	g.GET("/:id", optional, h.Get)
	g.PUT("/:id/status", authed, admin, h.SetStatus)
	g.PUT("/:id/role", authed, admin, h.SetRole)
}

func objectIDParam(c *gin.Context, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperr.ValidationField(name, "invalid id")
	}
	return id, nil
}

type listPayload struct {
	Items      interface{}       `json:"items"`
	Pagination *query.Pagination `json:"pagination"`
}

// List is the admin account listing with role filter and search.
func (h *UsersHandler) List(c *gin.Context) {
	p := query.Parse(c.Request.URL.Query()).Equals("role", c.Query("role"))
	list, total, err := h.users.List(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	pg := p.Paginate(total)
	response.OK(c, "users", listPayload{Items: list, Pagination: &pg})
}

// Get returns a profile. Admins and the account owner see the full record,
// everyone else, anonymous readers included, the public view without the
// email.
func (h *UsersHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	viewer := middleware.UserFrom(c)
	if viewer != nil && (viewer.IsAdmin() || viewer.ID == u.ID) {
		response.OK(c, "user", u)
		return
	}
	response.OK(c, "user", u.PublicView())
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

// SetStatus toggles the account activity flag (admin only).
func (h *UsersHandler) SetStatus(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
		response.Error(c, apperr.ValidationField("isActive", "isActive is required"))
		return
	}
	u, err := h.users.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "status updated", u)
}

type roleRequest struct {
	Role string `json:"role"`
}

// SetRole changes an account role (admin only, never by ownership).
func (h *UsersHandler) SetRole(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.users.SetRole(c.Request.Context(), id, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "role updated", u)
}

// Stats is the admin account dashboard aggregate.
func (h *UsersHandler) Stats(c *gin.Context) {
	ov, err := h.users.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "user stats", ov)
}
