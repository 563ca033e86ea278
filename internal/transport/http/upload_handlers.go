package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abbb1399/coding-together-server/internal/store"
)

// UploadHandlers manages coach avatar images on local disk.
type UploadHandlers struct {
	store     store.CoachStore
	uploadDir string
	maxBytes  int64
	log       *zerolog.Logger
}

// NewUploadHandlers creates a new upload handlers instance.
func NewUploadHandlers(st store.CoachStore, uploadDir string, maxBytes int64, logger *zerolog.Logger) *UploadHandlers {
	return &UploadHandlers{
		store:     st,
		uploadDir: uploadDir,
		maxBytes:  maxBytes,
		log:       logger,
	}
}

// allowedAvatarExt maps accepted MIME types to their stored extension.
var allowedAvatarExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// UploadAvatar stores an avatar image for one of the caller's coaches.
// POST /api/coaches/:id/avatar (multipart field "avatar")
func (h *UploadHandlers) UploadAvatar(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid coach id"})
		return
	}

	coach, err := h.store.GetCoachForOwner(c.Request.Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "coach not found"})
			return
		}
		h.log.Error().Err(err).Int64("coach_id", id).Msg("failed to get coach")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "avatar file is required"})
		return
	}
	if fileHeader.Size > h.maxBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "avatar exceeds size limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.log.Error().Err(err).Msg("failed to open uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read uploaded file")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if int64(len(data)) > h.maxBytes {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "avatar exceeds size limit"})
		return
	}

	// Sniff the real content type; the client-supplied one is not
	// trustworthy.
	ext, ok := allowedAvatarExt[mimetype.Detect(data).String()]
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "avatar must be a png or jpeg image"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.log.Error().Err(err).Str("dir", h.uploadDir).Msg("failed to create upload dir")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	path := filepath.Join(h.uploadDir, fmt.Sprintf("coach_%d%s", coach.ID, ext))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		h.log.Error().Err(err).Str("path", path).Msg("failed to write avatar")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	// Replacing a png with a jpg leaves the old file behind; clean it up.
	if coach.AvatarPath != "" && coach.AvatarPath != path {
		_ = os.Remove(coach.AvatarPath)
	}

	coach.AvatarPath = path
	if _, err := h.store.UpdateCoach(c.Request.Context(), coach); err != nil {
		h.log.Error().Err(err).Int64("coach_id", id).Msg("failed to record avatar path")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("coach_id", id).Str("path", path).Msg("avatar uploaded")
	c.Status(http.StatusOK)
}

// GetAvatar serves a coach's avatar image.
// GET /api/coaches/:id/avatar
func (h *UploadHandlers) GetAvatar(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid coach id"})
		return
	}

	coach, err := h.store.GetCoach(c.Request.Context(), id)
	if err != nil || coach.AvatarPath == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "avatar not found"})
		return
	}

	c.File(coach.AvatarPath)
}

// DeleteAvatar removes a coach's avatar image.
// DELETE /api/coaches/:id/avatar
func (h *UploadHandlers) DeleteAvatar(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid coach id"})
		return
	}

	coach, err := h.store.GetCoachForOwner(c.Request.Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "coach not found"})
			return
		}
		h.log.Error().Err(err).Int64("coach_id", id).Msg("failed to get coach")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if coach.AvatarPath == "" {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "avatar not found"})
		return
	}

	_ = os.Remove(coach.AvatarPath)
	coach.AvatarPath = ""
	if _, err := h.store.UpdateCoach(c.Request.Context(), coach); err != nil {
		h.log.Error().Err(err).Int64("coach_id", id).Msg("failed to clear avatar path")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.Status(http.StatusOK)
}
