package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/forum"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/pkg/metrics"
	"github.com/campuslink/campuslink-server/pkg/middleware"
)

// PostsHandler serves the forum: posts, likes and comments.
type PostsHandler struct {
	forum *forum.Service
}

func NewPostsHandler(f *forum.Service) *PostsHandler {
	return &PostsHandler{forum: f}
}

// Register routes under /posts. Reads are public (viewer-aware when a token
// is sent), mutations require authentication.
func (h *PostsHandler) Register(rg *gin.RouterGroup, authed, optional gin.HandlerFunc) {
	g := rg.Group("/posts")
	g.GET("", optional, h.List)
	g.GET("/:id", optional, h.Get)
	g.POST("", authed, h.Create)
	g.PUT("/:id", authed, h.Update)
	g.DELETE("/:id", authed, h.Delete)
	g.POST("/:id/like", authed, h.ToggleLike)
	g.POST("/:id/comments", authed, h.AddComment)
	g.DELETE("/:id/comments/:commentId", authed, h.DeleteComment)
}

// List returns active posts, filterable by category and author.
func (h *PostsHandler) List(c *gin.Context) {
	p := query.Parse(c.Request.URL.Query()).Equals("category", c.Query("category"))
	if author := c.Query("author"); author != "" {
		oid, err := primitive.ObjectIDFromHex(author)
		if err != nil {
			response.Error(c, apperr.ValidationField("author", "invalid id"))
			return
		}
		p.Filters["author"] = oid
	}
	posts, pg, err := h.forum.List(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "posts", listPayload{Items: posts, Pagination: pg})
}

// Get returns one post and bumps its view counter.
func (h *PostsHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	p, err := h.forum.Get(c.Request.Context(), id, true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "post", p)
}

// Create publishes a post authored by the caller.
func (h *PostsHandler) Create(c *gin.Context) {
	var req forum.CreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	p, err := h.forum.Create(c.Request.Context(), middleware.UserIDFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	metrics.PostsCreated.Inc()
	response.Created(c, "post created", p)
}

// Update edits a post's whitelisted fields; owner or admin only.
func (h *PostsHandler) Update(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req forum.UpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	p, err := h.forum.Update(c.Request.Context(), middleware.ActorFrom(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "post updated", p)
}

// Delete soft-deletes a post; owner or admin only.
func (h *PostsHandler) Delete(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.forum.Delete(c.Request.Context(), middleware.ActorFrom(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "post deleted", nil)
}

// ToggleLike flips the caller's like on the post.
func (h *PostsHandler) ToggleLike(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	res, err := h.forum.ToggleLike(c.Request.Context(), id, middleware.UserIDFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if res.Liked {
		metrics.LikesToggled.WithLabelValues("like").Inc()
		response.OK(c, "post liked", res)
		return
	}
	metrics.LikesToggled.WithLabelValues("unlike").Inc()
	response.OK(c, "like removed", res)
}

type commentRequest struct {
	Content  string  `json:"content"`
	ParentID *string `json:"parentId"`
}

// AddComment appends a comment authored by the caller.
func (h *PostsHandler) AddComment(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	var parentID *primitive.ObjectID
	if req.ParentID != nil && *req.ParentID != "" {
		pid, err := primitive.ObjectIDFromHex(*req.ParentID)
		if err != nil {
			response.Error(c, apperr.ValidationField("parentId", "invalid id"))
			return
		}
		parentID = &pid
	}
	cm, err := h.forum.AddComment(c.Request.Context(), id, middleware.UserIDFrom(c), req.Content, parentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "comment added", cm)
}

// DeleteComment soft-deletes a comment; comment owner or admin only.
func (h *PostsHandler) DeleteComment(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	commentID, err := objectIDParam(c, "commentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.forum.DeleteComment(c.Request.Context(), middleware.ActorFrom(c), id, commentID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "comment deleted", nil)
}
