package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campuslink/campuslink-server/internal/apperr"
	"github.com/campuslink/campuslink-server/internal/response"
	"github.com/campuslink/campuslink-server/internal/storage"
)

// UploadsHandler accepts image uploads for posts and avatars and stores them
// in the configured object store.
type UploadsHandler struct {
	store *storage.ImageStore
}

func NewUploadsHandler(s *storage.ImageStore) *UploadsHandler {
	return &UploadsHandler{store: s}
}

func (h *UploadsHandler) Register(rg *gin.RouterGroup, authed gin.HandlerFunc) {
	g := rg.Group("/uploads")
	g.POST("", authed, h.Upload)
}

type uploadPayload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Upload reads a multipart "file" part, validates type and size, and returns
// the stored key plus a presigned URL valid for a week.
func (h *UploadsHandler) Upload(c *gin.Context) {
	if h.store == nil {
		response.Error(c, apperr.Internal("object storage is not configured", nil))
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperr.ValidationField("file", "file is required"))
		return
	}
	if fh.Size > storage.MaxUploadSize {
		response.Error(c, apperr.ValidationField("file", "file too large"))
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !storage.AllowedContentType(contentType) {
		response.Error(c, apperr.ValidationField("file", "unsupported image type"))
		return
	}
	prefix := c.DefaultPostForm("kind", "posts")
	if prefix != "posts" && prefix != "avatars" {
		response.Error(c, apperr.ValidationField("kind", "kind must be posts or avatars"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.Error(c, apperr.Internal("failed to read upload", err))
		return
	}
	defer f.Close()

	key, err := h.store.UploadImage(c.Request.Context(), prefix, f, fh.Size, contentType)
	if err != nil {
		response.Error(c, apperr.Internal("failed to store upload", err))
		return
	}
	url, err := h.store.PresignedURL(c.Request.Context(), key, 7*24*time.Hour)
	if err != nil {
		response.Error(c, apperr.Internal("failed to sign url", err))
		return
	}
	response.Created(c, "upload stored", uploadPayload{Key: key, URL: url})
}
