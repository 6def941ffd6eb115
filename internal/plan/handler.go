package plan

import (
	"errors"
	"net/http"

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

// @Summary      Create a plan
// @Tags         owner,plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body plan.CreatePlanRequest true "Plan payload"
// @Success      201 {object} plan.Plan
// @Failure      400 {object} api.ErrorResponse
// @Router       /owner/plans [post]
func (h *Handler) CreatePlan(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	plan, err := h.service.CreatePlan(c.Request.Context(), ownerID, req)
	if err != nil {
		if errors.Is(err, gym.ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create plan"})
		return
	}

	c.JSON(http.StatusCreated, plan)
}

// @Summary      List plans for a gym
// @Tags         plans
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {array} plan.Plan
// @Router       /gyms/{gymID}/plans [get]
func (h *Handler) ListPlans(c *gin.Context) {
	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	plans, err := h.service.ListPlans(c.Request.Context(), gymID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch plans"})
		return
	}

	c.JSON(http.StatusOK, plans)
}

// @Summary      Deactivate a plan
// @Tags         owner,plans
// @Produce      json
// @Security     BearerAuth
// @Param        planID path string true "Plan ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/plans/{planID} [delete]
func (h *Handler) DeactivatePlan(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	planID, err := uuid.Parse(c.Param("planID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid plan ID"})
		return
	}

	if err := h.service.DeactivatePlan(c.Request.Context(), ownerID, planID); err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Plan not found"})
		case errors.Is(err, gym.ErrNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to deactivate plan"})
		}
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Plan deactivated"})
}

// @Summary      Assign a plan to a student
// @Description  Deactivates any previous active assignment for the student
// @Tags         owner,plans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body plan.AssignPlanRequest true "Assignment payload"
// @Success      201 {object} plan.StudentPlan
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/student-plans [post]
func (h *Handler) AssignPlan(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	assignment, err := h.service.AssignPlan(c.Request.Context(), ownerID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPlanNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Plan not found"})
		case errors.Is(err, gym.ErrNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
		default:
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, assignment)
}
