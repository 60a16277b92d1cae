package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/catalog"
	"github.com/campuslink/campuslink-server/internal/query"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/pkg/middleware"
)

// UniversitiesHandler serves the university side of the reference catalog.
// Reads are public; every mutation is admin only.
type UniversitiesHandler struct {
	catalog *catalog.Service
}

func NewUniversitiesHandler(s *catalog.Service) *UniversitiesHandler {
	return &UniversitiesHandler{catalog: s}
}

func (h *UniversitiesHandler) Register(rg *gin.RouterGroup, authed, admin gin.HandlerFunc) {
	g := rg.Group("/universities")
	g.GET("", h.List)
	g.GET("/stats/overview", h.Stats)
	g.GET("/:id", h.Get)
	g.POST("", authed, admin, h.Create)
	g.PUT("/:id", authed, admin, h.Update)
	g.DELETE("/:id", authed, admin, h.Delete)
	g.POST("/:id/majors/:majorId", authed, admin, h.LinkMajor)
	g.DELETE("/:id/majors/:majorId", authed, admin, h.UnlinkMajor)
}

// List returns active universities, filterable by type, level and location.
func (h *UniversitiesHandler) List(c *gin.Context) {
	p := query.Parse(c.Request.URL.Query()).
		Equals("type", c.Query("type")).
		Equals("level", c.Query("level")).
		Equals("location.province", c.Query("province")).
		Equals("location.city", c.Query("city"))
	list, pg, err := h.catalog.ListUniversities(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "universities", listPayload{Items: list, Pagination: pg})
}

func (h *UniversitiesHandler) Get(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	u, err := h.catalog.GetUniversity(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "university", u)
}

func (h *UniversitiesHandler) Create(c *gin.Context) {
	var req catalog.UniversityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.catalog.CreateUniversity(c.Request.Context(), middleware.UserIDFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "university created", u)
}

func (h *UniversitiesHandler) Update(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req catalog.UniversityInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.Validation("invalid request body"))
		return
	}
	u, err := h.catalog.UpdateUniversity(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "university updated", u)
}

func (h *UniversitiesHandler) Delete(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.catalog.DeleteUniversity(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "university deleted", nil)
}

// LinkMajor records the association on both sides.
func (h *UniversitiesHandler) LinkMajor(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	majorID, err := objectIDParam(c, "majorId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.catalog.LinkMajor(c.Request.Context(), id, majorID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "major linked", nil)
}

// UnlinkMajor removes the association from both sides.
func (h *UniversitiesHandler) UnlinkMajor(c *gin.Context) {
	id, err := objectIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	majorID, err := objectIDParam(c, "majorId")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.catalog.UnlinkMajor(c.Request.Context(), id, majorID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "major unlinked", nil)
}

// Stats aggregates catalog counts by type, level and province. Public like
// the rest of the catalog reads.
func (h *UniversitiesHandler) Stats(c *gin.Context) {
	ov, err := h.catalog.UniversityOverviewStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "university stats", ov)
}
