package user

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

// Register godoc
// @Summary      Register new user
// @Description  Creates an owner or student account and returns access & refresh tokens.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body user.RegisterRequest true "Registration data"
// @Success      201 {object} user.LoginResponse
// @Failure      400 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	u, accessToken, refreshToken, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
		Route:        RouteFor(u.Role, u.OnboardingCompleted),
	})
}

// Login godoc
// @Summary      Login user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body user.LoginRequest true "Credentials"
// @Success      200 {object} user.LoginResponse
// @Failure      401 {object} api.ErrorResponse
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	u, accessToken, refreshToken, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid email or password"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *u,
		Route:        RouteFor(u.Role, u.OnboardingCompleted),
	})
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body map[string]string true "Refresh token payload"
// @Success      200 {object} map[string]interface{}
// @Failure      401 {object} api.ErrorResponse
// @Router       /auth/refresh [post]
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "refresh_token is required"})
		return
	}

	newAccessToken, u, err := h.service.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
			return
		}
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Invalid or expired refresh token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": newAccessToken,
		"user":         u,
	})
}

// GetMe godoc
// @Summary      Get current user
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Success      200 {object} map[string]interface{}
// @Failure      404 {object} api.ErrorResponse
// @Router       /me [get]
func (h *Handler) GetMe(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	u, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  u,
		"route": RouteFor(u.Role, u.OnboardingCompleted),
	})
}

// JoinGym godoc
// @Summary      Join a gym
// @Description  Links the authenticated student to the gym and completes onboarding.
// @Tags         user
// @Security     BearerAuth
// @Produce      json
// @Param        gymID path string true "Gym ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      410 {object} api.ErrorResponse
// @Router       /gyms/{gymID}/join [post]
func (h *Handler) JoinGym(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	err = h.service.JoinGym(c.Request.Context(), userID, gymID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Joined gym successfully"})
	case errors.Is(err, ErrStudentLimitReached):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "This gym has reached its member limit"})
	case errors.Is(err, ErrGymInactive):
		c.JSON(http.StatusGone, api.ErrorResponse{Error: "This gym has been closed"})
	case errors.Is(err, ErrNotStudent):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Only students can join a gym"})
	case errors.Is(err, ErrUserNotFound), errors.Is(err, gym.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to join gym"})
	}
}

// UnlinkStudent godoc
// @Summary      Remove a student from the gym
// @Description  Detaches the student, deactivates their plan and cancels upcoming bookings.
// @Tags         owner,user
// @Security     BearerAuth
// @Produce      json
// @Param        studentID path string true "Student ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/students/{studentID}/unlink [post]
func (h *Handler) UnlinkStudent(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	studentID, err := uuid.Parse(c.Param("studentID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid student ID"})
		return
	}

	err = h.service.UnlinkStudent(c.Request.Context(), ownerID, studentID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, api.MessageResponse{Message: "Student unlinked successfully"})
	case errors.Is(err, ErrUserNotFound), errors.Is(err, gym.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to unlink student"})
	}
}

// ListMembers godoc
// @Summary      List gym members
// @Tags         owner,user
// @Security     BearerAuth
// @Produce      json
// @Success      200 {array} user.User
// @Router       /owner/students [get]
func (h *Handler) ListMembers(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "User not authenticated"})
		return
	}

	members, err := h.service.ListMembers(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, gym.ErrNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Gym not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch members"})
		return
	}

	c.JSON(http.StatusOK, members)
}
