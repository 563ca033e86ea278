package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abbb1399/coding-together-server/internal/store"
)

// CoachHandlers provides HTTP handlers for the coach directory.
type CoachHandlers struct {
	store store.CoachStore
	log   *zerolog.Logger
}

// NewCoachHandlers creates a new coach handlers instance.
func NewCoachHandlers(st store.CoachStore, logger *zerolog.Logger) *CoachHandlers {
	return &CoachHandlers{
		store: st,
		log:   logger,
	}
}

// CreateCoachRequest represents the create coach request body.
type CreateCoachRequest struct {
	Name        string   `json:"name" binding:"required,min=1,max=64"`
	Areas       []string `json:"areas" binding:"required,min=1"`
	Description string   `json:"description" binding:"required"`
	Completed   bool     `json:"completed"`
}

// CoachResponse represents a coach in API responses.
type CoachResponse struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Areas       []string `json:"areas"`
	Description string   `json:"description"`
	Completed   bool     `json:"completed"`
	OwnerID     int64    `json:"owner_id"`
	HasAvatar   bool     `json:"has_avatar"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func coachResponse(coach *store.Coach) CoachResponse {
	return CoachResponse{
		ID:          coach.ID,
		Name:        coach.Name,
		Areas:       coach.Areas,
		Description: coach.Description,
		Completed:   coach.Completed,
		OwnerID:     coach.OwnerID,
		HasAvatar:   coach.AvatarPath != "",
		CreatedAt:   coach.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   coach.UpdatedAt.Format(time.RFC3339),
	}
}

func coachResponses(coaches []*store.Coach) []CoachResponse {
	out := make([]CoachResponse, 0, len(coaches))
	for _, coach := range coaches {
		out = append(out, coachResponse(coach))
	}
	return out
}

// Create handles coach creation.
// POST /api/coaches
func (h *CoachHandlers) Create(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create coach request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	coach, err := h.store.CreateCoach(c.Request.Context(), &store.Coach{
		Name:        req.Name,
		Areas:       req.Areas,
		Description: req.Description,
		Completed:   req.Completed,
		OwnerID:     ownerID,
	})
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("failed to create coach")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("coach_id", coach.ID).Int64("owner_id", ownerID).Msg("coach created")
	c.JSON(http.StatusCreated, coachResponse(coach))
}

// ListAll handles the public full directory listing.
// GET /api/coach-list
func (h *CoachHandlers) ListAll(c *gin.Context) {
	coaches, err := h.store.ListCoaches(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list coaches")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, coachResponses(coaches))
}

// ListPage handles the public paginated listing, newest first.
// GET /api/coach-list/:page?filter=<area|all>
func (h *CoachHandlers) ListPage(c *gin.Context) {
	skip, err := strconv.Atoi(c.Param("page"))
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		return
	}

	area := c.DefaultQuery("filter", "all")

	coaches, err := h.store.ListCoachesPage(c.Request.Context(), skip, area)
	if err != nil {
		h.log.Error().Err(err).Int("skip", skip).Str("area", area).Msg("failed to list coach page")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, coachResponses(coaches))
}

// ListOwned handles listing the caller's coaches.
// GET /api/coaches?completed=true&sortBy=createdAt:desc&limit=10&skip=20
func (h *CoachHandlers) ListOwned(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var filter store.CoachFilter

	if v := c.Query("completed"); v != "" {
		completed := v == "true"
		filter.Completed = &completed
	}
	if v := c.Query("sortBy"); v != "" {
		parts := strings.SplitN(v, ":", 2)
		filter.SortBy = parts[0]
		filter.SortDesc = len(parts) == 2 && parts[1] == "desc"
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}
	if v := c.Query("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Skip = n
		}
	}

	coaches, err := h.store.ListCoachesForOwner(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.log.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to list owned coaches")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, coachResponses(coaches))
}

// Get handles fetching one of the caller's coaches.
// GET /api/coaches/:id
func (h *CoachHandlers) Get(c *gin.Context) {
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

	c.JSON(http.StatusOK, coachResponse(coach))
}

// updatableCoachFields names the fields PATCH may touch.
var updatableCoachFields = map[string]struct{}{
	"name":        {},
	"areas":       {},
	"description": {},
	"completed":   {},
}

// Update handles partial updates of one of the caller's coaches.
// Unknown fields are rejected outright.
// PATCH /api/coaches/:id
func (h *CoachHandlers) Update(c *gin.Context) {
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

	var raw map[string]json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	for field := range raw {
		if _, known := updatableCoachFields[field]; !known {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid updates"})
			return
		}
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

	if err := applyCoachUpdates(coach, raw); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	updated, err := h.store.UpdateCoach(c.Request.Context(), coach)
	if err != nil {
		h.log.Error().Err(err).Int64("coach_id", id).Msg("failed to update coach")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, coachResponse(updated))
}

// Delete handles removing one of the caller's coaches.
// DELETE /api/coaches/:id
func (h *CoachHandlers) Delete(c *gin.Context) {
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

	coach, err := h.store.DeleteCoach(c.Request.Context(), id, ownerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "coach not found"})
			return
		}
		h.log.Error().Err(err).Int64("coach_id", id).Msg("failed to delete coach")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Int64("coach_id", id).Int64("owner_id", ownerID).Msg("coach deleted")
	c.JSON(http.StatusOK, coachResponse(coach))
}

func applyCoachUpdates(coach *store.Coach, raw map[string]json.RawMessage) error {
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &coach.Name); err != nil {
			return err
		}
	}
	if v, ok := raw["areas"]; ok {
		if err := json.Unmarshal(v, &coach.Areas); err != nil {
			return err
		}
	}
	if v, ok := raw["description"]; ok {
		if err := json.Unmarshal(v, &coach.Description); err != nil {
			return err
		}
	}
	if v, ok := raw["completed"]; ok {
		if err := json.Unmarshal(v, &coach.Completed); err != nil {
			return err
		}
	}
	return nil
}
