package gym

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/api"
	"github.com/eduAbreu/train-book/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a gym
// @Description  Owner-only: register a gym (one per owner)
// @Tags         owner,gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.CreateGymRequest true "Gym payload"
// @Success      201 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /owner/gym [post]
func (h *Handler) CreateGym(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req CreateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	gym, err := h.service.CreateGym(c.Request.Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "You already have a gym registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create gym"})
		return
	}

	c.JSON(http.StatusCreated, gym)
}

// @Summary      Get the authenticated owner's gym
// @Tags         owner,gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} gym.GymWithSettings
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/gym [get]
func (h *Handler) GetOwnGym(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	gym, err := h.service.GetOwnGym(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch gym"})
		return
	}

	c.JSON(http.StatusOK, gym)
}

// @Summary      List active gyms
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} gym.Gym
// @Router       /gyms [get]
func (h *Handler) ListGyms(c *gin.Context) {
	gyms, err := h.service.ListGyms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch gyms"})
		return
	}

	c.JSON(http.StatusOK, gyms)
}

// @Summary      Get a gym with its settings
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} gym.GymWithSettings
// @Failure      404 {object} api.ErrorResponse
// @Router       /gyms/{gymID} [get]
func (h *Handler) GetGym(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	gym, err := h.service.GetGym(c.Request.Context(), gymID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch gym"})
		return
	}

	c.JSON(http.StatusOK, gym)
}

// @Summary      Update the owner's gym
// @Tags         owner,gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.UpdateGymRequest true "Fields to update"
// @Success      200 {object} gym.Gym
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/gym [patch]
func (h *Handler) UpdateGym(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req UpdateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	gym, err := h.service.UpdateGym(c.Request.Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update gym"})
		return
	}

	c.JSON(http.StatusOK, gym)
}

// @Summary      Update gym booking settings
// @Tags         owner,gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.UpdateSettingsRequest true "Settings"
// @Success      200 {object} gym.Settings
// @Failure      400 {object} api.ErrorResponse
// @Router       /owner/gym/settings [patch]
func (h *Handler) UpdateSettings(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	settings, err := h.service.UpdateSettings(c.Request.Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// @Summary      Close the owner's gym
// @Description  Soft-deactivates the gym; new bookings are rejected
// @Tags         owner,gyms
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/gym/close [post]
func (h *Handler) CloseGym(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	if err := h.service.CloseGym(c.Request.Context(), ownerID); err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to close gym"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Gym closed"})
}

// @Summary      Create a class type
// @Tags         owner,gyms
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body gym.CreateClassTypeRequest true "Class type"
// @Success      201 {object} gym.ClassType
// @Failure      400 {object} api.ErrorResponse
// @Router       /owner/class-types [post]
func (h *Handler) CreateClassType(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req CreateClassTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	ct, err := h.service.CreateClassType(c.Request.Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create class type"})
		return
	}

	c.JSON(http.StatusCreated, ct)
}

// @Summary      List class types for a gym
// @Tags         gyms
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {array} gym.ClassType
// @Router       /gyms/{gymID}/class-types [get]
func (h *Handler) ListClassTypes(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	types, err := h.service.ListClassTypes(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch class types"})
		return
	}

	c.JSON(http.StatusOK, types)
}
