package schedule

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/api"
	"github.com/eduAbreu/train-book/internal/auth"
	"github.com/eduAbreu/train-book/internal/gym"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Create a weekly template slot
// @Tags         owner,schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.CreateSlotRequest true "Slot definition"
// @Success      201 {object} schedule.WeeklyTemplateSlot
// @Failure      400 {object} api.ErrorResponse
// @Router       /owner/slots [post]
func (h *Handler) CreateSlot(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), ownerID, req)
	if err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// @Summary      Update a weekly template slot
// @Tags         owner,schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        slotID path string true "Slot ID"
// @Param        request body schedule.SlotSpec true "Slot fields"
// @Success      200 {object} schedule.WeeklyTemplateSlot
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/slots/{slotID} [patch]
func (h *Handler) UpdateSlot(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	slotID, err := uuid.Parse(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid slot ID"})
		return
	}

	var spec SlotSpec
	if err := c.ShouldBindJSON(&spec); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	slot, err := h.service.UpdateSlot(c.Request.Context(), ownerID, slotID, spec)
	if err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

// @Summary      Deactivate a weekly template slot
// @Tags         owner,schedule
// @Produce      json
// @Security     BearerAuth
// @Param        slotID path string true "Slot ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/slots/{slotID} [delete]
func (h *Handler) DeleteSlot(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	slotID, err := uuid.Parse(c.Param("slotID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid slot ID"})
		return
	}

	if err := h.service.DeleteSlot(c.Request.Context(), ownerID, slotID); err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Slot deactivated"})
}

// @Summary      List weekly template slots
// @Tags         owner,schedule
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {array} schedule.WeeklyTemplateSlot
// @Router       /gyms/{gymID}/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	slots, err := h.service.ListSlots(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch slots"})
		return
	}

	c.JSON(http.StatusOK, slots)
}

// @Summary      Apply a slot definition to multiple days
// @Description  Mode skip keeps existing slots at the same day and start; mode replace overwrites them.
// @Tags         owner,schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.ApplyToDaysRequest true "Slot and target days"
// @Success      200 {object} schedule.ApplySummary
// @Failure      400 {object} api.ErrorResponse
// @Router       /owner/slots/apply [post]
func (h *Handler) ApplySlotToDays(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req ApplyToDaysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	summary, err := h.service.ApplySlotToDays(c.Request.Context(), ownerID, req)
	if err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// @Summary      Create a one-off class
// @Tags         owner,schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.CreateClassRequest true "Class definition"
// @Success      201 {object} schedule.Class
// @Failure      400 {object} api.ErrorResponse
// @Router       /owner/classes [post]
func (h *Handler) CreateClass(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	class, err := h.service.CreateClass(c.Request.Context(), ownerID, req)
	if err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, class)
}

// @Summary      List classes with availability
// @Tags         schedule
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Param        from query string false "Start date (YYYY-MM-DD), defaults to today"
// @Param        to query string false "End date (YYYY-MM-DD), defaults to from+7d"
// @Success      200 {array} schedule.ClassWithAvailability
// @Router       /gyms/{gymID}/classes [get]
func (h *Handler) ListClasses(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	from := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("from"); raw != "" {
		from, err = ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid from date"})
			return
		}
	}

	to := from.AddDate(0, 0, 7)
	if raw := c.Query("to"); raw != "" {
		to, err = ParseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid to date"})
			return
		}
	}

	classes, err := h.service.ListClasses(c.Request.Context(), gymID, from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch classes"})
		return
	}

	c.JSON(http.StatusOK, classes)
}

type setCapacityRequest struct {
	Capacity int `json:"capacity" binding:"required,min=1"`
}

// @Summary      Change a class's capacity
// @Description  Increasing capacity does not auto-promote; call the promote endpoint to fill seats.
// @Tags         owner,schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Param        request body schedule.setCapacityRequest true "New capacity"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/classes/{classID}/capacity [patch]
func (h *Handler) SetClassCapacity(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	classID, err := uuid.Parse(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	var req setCapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.service.SetClassCapacity(c.Request.Context(), ownerID, classID, req.Capacity); err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Capacity updated"})
}

// @Summary      Generate classes from the weekly template
// @Tags         owner,schedule
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body schedule.GenerateRequest true "Date range"
// @Success      200 {object} schedule.GenerateSummary
// @Failure      400 {object} api.ErrorResponse
// @Router       /owner/classes/generate [post]
func (h *Handler) GenerateClasses(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	summary, err := h.service.GenerateForOwner(c.Request.Context(), ownerID, req)
	if err != nil {
		respondScheduleError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func respondScheduleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrInvalidRange):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, ErrSlotNotFound), errors.Is(err, ErrClassNotFound), errors.Is(err, gym.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong"})
	}
}
