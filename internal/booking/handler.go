package booking

import (
	"context"
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

type SelfBookRequest struct {
	GymID uuid.UUID `json:"gym_id" binding:"required"`
}

type OwnerBookRequest struct {
	GymID           uuid.UUID  `json:"gym_id" binding:"required"`
	ParticipantType string     `json:"participant_type" binding:"required,oneof=student guest"`
	StudentID       *uuid.UUID `json:"student_id,omitempty"`
	GuestName       *string    `json:"guest_name,omitempty"`
	GuestEmail      *string    `json:"guest_email,omitempty" binding:"omitempty,email"`
	IgnorePlanLimit *bool      `json:"ignore_plan_limit,omitempty"`
	ForceConfirmed  bool       `json:"force_confirmed"`
}

type CancelRequest struct {
	Force bool `json:"force"`
}

// @Summary      Book a class
// @Description  Self-service student booking; waitlisted when the class is full and the gym allows it
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Param        request body booking.SelfBookRequest true "Booking payload"
// @Success      201 {object} booking.BookResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Failure      410 {object} api.ErrorResponse
// @Router       /classes/{classID}/book [post]
func (h *Handler) BookClass(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	classID, err := uuid.Parse(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	var req SelfBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.service.RequestBooking(c.Request.Context(), BookRequest{
		GymID:   req.GymID,
		ClassID: classID,
		Participant: ParticipantRef{
			Type:   ParticipantStudent,
			UserID: &userID,
		},
		Origin: OriginStudent,
		// Self-service students never bypass their plan quota.
		Options: Options{IgnorePlanLimit: false, ForceConfirmed: false},
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// @Summary      Book a participant into a class
// @Description  Owner-on-behalf booking; plan limits are bypassed unless ignore_plan_limit is explicitly false
// @Tags         owner,bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Param        request body booking.OwnerBookRequest true "Booking payload"
// @Success      201 {object} booking.BookResult
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /owner/classes/{classID}/book [post]
func (h *Handler) OwnerBook(c *gin.Context) {
	classID, err := uuid.Parse(c.Param("classID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid class ID"})
		return
	}

	var req OwnerBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	// Owner-initiated bookings default to ignoring the plan quota.
	ignorePlanLimit := true
	if req.IgnorePlanLimit != nil {
		ignorePlanLimit = *req.IgnorePlanLimit
	}

	participant := ParticipantRef{
		Type:       ParticipantType(req.ParticipantType),
		UserID:     req.StudentID,
		GuestName:  req.GuestName,
		GuestEmail: req.GuestEmail,
	}

	result, err := h.service.RequestBooking(c.Request.Context(), BookRequest{
		GymID:       req.GymID,
		ClassID:     classID,
		Participant: participant,
		Origin:      OriginOwner,
		Options:     Options{IgnorePlanLimit: ignorePlanLimit, ForceConfirmed: req.ForceConfirmed},
	})
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// @Summary      Cancel a booking
// @Description  Participants may cancel until the gym's cutoff; owners may force-cancel past it
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path string true "Booking ID"
// @Param        request body booking.CancelRequest false "Cancel options"
// @Success      200 {object} api.MessageResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings/{bookingID}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}
	role, _ := auth.GetUserRole(c)

	bookingID, err := uuid.Parse(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return
	}

	var req CancelRequest
	_ = c.ShouldBindJSON(&req)

	err = h.service.CancelBooking(c.Request.Context(), bookingID, Actor{UserID: userID, Role: role}, req.Force)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Booking canceled successfully"})
}

// @Summary      Promote the next waitlisted booking
// @Description  Fills one free seat from the waitlist, e.g. after a capacity increase
// @Tags         owner,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} api.ErrorResponse
// @Router       /owner/classes/{classID}/promote [post]
func (h *Handler) Promote(c *gin.Context) {
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

	promotedID, err := h.service.PromoteFromWaitlist(c.Request.Context(), ownerID, classID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	if promotedID == nil {
		c.JSON(http.StatusOK, gin.H{"promoted_booking_id": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"promoted_booking_id": promotedID.String()})
}

// @Summary      List my bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} booking.BookingWithClass
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	bookings, err := h.service.ListMyBookings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      List bookings for a class
// @Tags         owner,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        classID path string true "Class ID"
// @Success      200 {array} booking.BookingWithClass
// @Router       /owner/classes/{classID}/bookings [get]
func (h *Handler) ListByClass(c *gin.Context) {
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

	bookings, err := h.service.ListByClass(c.Request.Context(), ownerID, classID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      List bookings for a gym
// @Tags         owner,bookings
// @Produce      json
// @Security     BearerAuth
// @Param        gymID path string true "Gym ID"
// @Success      200 {array} booking.BookingWithClass
// @Router       /owner/gyms/{gymID}/bookings [get]
func (h *Handler) ListByGym(c *gin.Context) {
	ownerID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "Authentication required"})
		return
	}

	gymID, err := uuid.Parse(c.Param("gymID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid gym ID"})
		return
	}

	bookings, err := h.service.ListByGym(c.Request.Context(), ownerID, gymID)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// respondBookingError maps engine rejections to HTTP statuses. Infra faults
// collapse into a generic 500 (or 503 on lock timeout) without leaking
// internals.
func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBookingFull):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "This class is fully booked"})
	case errors.Is(err, ErrBookingDuplicate):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "You are already booked for this class"})
	case errors.Is(err, ErrBookingOverlap):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "You already have a class at this time"})
	case errors.Is(err, ErrBookingPlanLimit):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "You have reached your weekly class limit"})
	case errors.Is(err, ErrBookingTooLate):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "Booking is no longer available for this class"})
	case errors.Is(err, ErrCancelTooLate):
		c.JSON(http.StatusConflict, api.ErrorResponse{Error: "It's too late to cancel this class"})
	case errors.Is(err, ErrGymInactive):
		c.JSON(http.StatusGone, api.ErrorResponse{Error: "This gym has been closed"})
	case errors.Is(err, ErrNotFound), errors.Is(err, gym.ErrNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Not found"})
	case errors.Is(err, ErrUnauthorized):
		c.JSON(http.StatusForbidden, api.ErrorResponse{Error: "Not allowed"})
	case errors.Is(err, ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, api.ErrorResponse{Error: "Class is busy, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Something went wrong"})
	}
}
