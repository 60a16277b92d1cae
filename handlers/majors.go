package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/catalog"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/pkg/middleware"
)

// MajorsHandler serves the major side of the reference catalog.
type MajorsHandler struct {
	catalog *catalog.Service
}

func NewMajorsHandler(s *catalog.Service) *MajorsHandler {
	return &MajorsHandler{catalog: s}
}

func (h *MajorsHandler) Register(rg *gin.RouterGroup, authed, admin gin.HandlerFunc) {
	g := rg.Group("/majors")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", authed, admin, h.Create)
	g.PUT("/:id", authed, admin, h.Update)
	g.DELETE("/:id", authed, admin, h.Delete)
}

// List returns active majors, filterable by category and degree level.
func (h *MajorsHandler) List(c *gin.Context) {
	p := query.Parse(c.Request.URL.Query()).
		Equals("category", c.Query("category")).
		Equals("degreeLevel", c.Query("degreeLevel"))
	list, pg, err := h.catalog.ListMajors(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "majors", listPayload{Items: list, Pagination: pg})
}

func (h *MajorsHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	m, err := h.catalog.GetMajor(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "major", m)
}

func (h *MajorsHandler) Create(c *gin.Context) {
	var req catalog.MajorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	m, err := h.catalog.CreateMajor(c.Request.Context(), middleware.UserIDFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "major created", m)
}

func (h *MajorsHandler) Update(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req catalog.MajorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	m, err := h.catalog.UpdateMajor(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "major updated", m)
}

func (h *MajorsHandler) Delete(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.catalog.DeleteMajor(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "major deleted", nil)
}
