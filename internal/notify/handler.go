package notify

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/api"
	"github.com/eduAbreu/train-book/internal/auth"
)

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread query bool false "Only unread"
// @Success      200 {array} notify.Notification
// @Router       /notifications [get]
func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.repo.ListByUser(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Notification ID"
// @Success      200 {object} api.MessageResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *Handler) MarkRead(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid notification ID"})
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Notification not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Notification marked as read"})
}
