package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/eduAbreu/train-book/internal/db"
	"github.com/eduAbreu/train-book/internal/gym"
	"github.com/eduAbreu/train-book/internal/logger"
	"github.com/eduAbreu/train-book/internal/metrics"
	"github.com/eduAbreu/train-book/internal/notify"
	"github.com/eduAbreu/train-book/internal/plan"
)

// lockTimeout bounds the wait on a contended class. A class under heavy
// write contention fails the request with a retryable error instead of
// blocking the connection indefinitely.
const lockTimeout = 5 * time.Second

type Service interface {
	RequestBooking(ctx context.Context, req BookRequest) (*BookResult, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor, force bool) error
	PromoteFromWaitlist(ctx context.Context, ownerID, classID uuid.UUID) (*uuid.UUID, error)

	ListMyBookings(ctx context.Context, userID uuid.UUID) ([]BookingWithClass, error)
	ListByClass(ctx context.Context, ownerID, classID uuid.UUID) ([]BookingWithClass, error)
	ListByGym(ctx context.Context, ownerID, gymID uuid.UUID) ([]BookingWithClass, error)
}

type service struct {
	db       *sqlx.DB
	repo     Repository
	gyms     gym.Repository
	plans    plan.Repository
	notifier notify.Notifier
}

func NewService(database *sqlx.DB, repo Repository, gyms gym.Repository, plans plan.Repository, notifier notify.Notifier) Service {
	return &service{
		db:       database,
		repo:     repo,
		gyms:     gyms,
		plans:    plans,
		notifier: notifier,
	}
}

func validateRequest(req BookRequest) error {
	switch req.Participant.Type {
	case ParticipantStudent:
		if req.Participant.UserID == nil {
			return fmt.Errorf("%w: student participant requires user_id", ErrInvalidRequest)
		}
	case ParticipantGuest:
		if req.Participant.GuestName == nil || *req.Participant.GuestName == "" ||
			req.Participant.GuestEmail == nil || *req.Participant.GuestEmail == "" {
			return fmt.Errorf("%w: guest participant requires name and email", ErrInvalidRequest)
		}
	default:
		return fmt.Errorf("%w: unknown participant type %q", ErrInvalidRequest, req.Participant.Type)
	}

	if req.Origin != OriginStudent && req.Origin != OriginOwner {
		return fmt.Errorf("%w: unknown origin %q", ErrInvalidRequest, req.Origin)
	}

	return nil
}

func (s *service) RequestBooking(ctx context.Context, req BookRequest) (*BookResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	g, err := s.gyms.GetByID(ctx, req.GymID)
	if err != nil {
		if errors.Is(err, gym.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !g.IsActive {
		return nil, ErrGymInactive
	}

	settings, err := s.gyms.GetSettings(ctx, req.GymID)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var result *BookResult
	err = db.InTx(lockCtx, s.db, func(tx *sqlx.Tx) error {
		class, err := s.repo.LockClass(lockCtx, tx, req.ClassID)
		if err != nil {
			return err
		}
		if class.GymID != req.GymID {
			return ErrNotFound
		}

		now := time.Now()
		if !now.Before(class.StartTime) {
			return ErrBookingTooLate
		}

		if req.Participant.Type == ParticipantStudent {
			studentID := *req.Participant.UserID

			dup, err := s.repo.HasActiveBooking(lockCtx, tx, class.ID, studentID)
			if err != nil {
				return err
			}
			if dup {
				return ErrBookingDuplicate
			}

			overlap, err := s.repo.HasOverlappingActive(lockCtx, tx, studentID, class.ID, class.StartTime, class.EndTime)
			if err != nil {
				return err
			}
			if overlap {
				return ErrBookingOverlap
			}

			if !req.Options.IgnorePlanLimit {
				if err := s.checkPlanLimit(lockCtx, tx, studentID, class.StartTime); err != nil {
					return err
				}
			}
		}

		confirmed, waitlisted, err := s.repo.CountByStatus(lockCtx, tx, class.ID)
		if err != nil {
			return err
		}

		status := StatusConfirmed
		position := 0
		if confirmed >= class.Capacity {
			switch {
			case req.Origin == OriginOwner && req.Options.ForceConfirmed:
				// Owner override: seat beyond capacity, never waitlisted.
			case settings.AllowWaitlist:
				status = StatusWaitlist
				position = waitlisted + 1
			default:
				return ErrBookingFull
			}
		}

		created, err := s.repo.Insert(lockCtx, tx, &Booking{
			GymID:       req.GymID,
			ClassID:     req.ClassID,
			UserID:      req.Participant.UserID,
			Participant: req.Participant.Type,
			Origin:      req.Origin,
			GuestName:   req.Participant.GuestName,
			GuestEmail:  req.Participant.GuestEmail,
			Status:      status,
		})
		if err != nil {
			return err
		}

		result = &BookResult{Booking: created, Status: status, WaitlistPosition: position}
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		if errors.Is(err, ErrBookingPlanLimit) {
			// The student (or the owner booking on their behalf) should hear
			// that the weekly quota, not the class, blocked them.
			s.notifier.Emit(ctx, notify.Event{
				Type:    notify.TypePlanLimit,
				GymID:   req.GymID,
				ClassID: &req.ClassID,
				UserID:  req.Participant.UserID,
			})
		}
		return nil, err
	}

	metrics.RecordBooking(string(result.Status), string(req.Origin))

	eventType := notify.TypeBooked
	if result.Status == StatusWaitlist {
		eventType = notify.TypeWaitlist
	}
	s.notifier.Emit(ctx, notify.Event{
		Type:    eventType,
		GymID:   req.GymID,
		ClassID: &req.ClassID,
		UserID:  req.Participant.UserID,
		Payload: map[string]interface{}{
			"booking_id": result.Booking.ID.String(),
			"status":     string(result.Status),
		},
	})

	logger.Info("booking created",
		"booking_id", result.Booking.ID, "class_id", req.ClassID, "status", result.Status)

	return result, nil
}

func (s *service) checkPlanLimit(ctx context.Context, tx *sqlx.Tx, studentID uuid.UUID, classStart time.Time) error {
	limit, hasPlan, err := s.plans.ActiveWeeklyLimit(ctx, studentID)
	if err != nil {
		return err
	}
	if !hasPlan || limit == nil {
		return nil
	}

	weekStart := WeekStart(classStart)
	count, err := s.repo.CountConfirmedInWeek(ctx, tx, studentID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return err
	}
	if count >= *limit {
		return ErrBookingPlanLimit
	}

	return nil
}

func (s *service) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor Actor, force bool) error {
	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var (
		canceled *Booking
		promoted *Booking
	)
	err := db.InTx(lockCtx, s.db, func(tx *sqlx.Tx) error {
		b, err := s.repo.GetByID(lockCtx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status == StatusCanceled {
			return ErrNotFound
		}

		class, err := s.repo.LockClass(lockCtx, tx, b.ClassID)
		if err != nil {
			return err
		}

		// Re-read under the class lock: the row may have changed while we
		// waited for it.
		b, err = s.repo.GetByID(lockCtx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status == StatusCanceled {
			return ErrNotFound
		}

		g, err := s.gyms.GetByID(lockCtx, b.GymID)
		if err != nil {
			return err
		}

		isOwner := actor.UserID == g.OwnerID
		isParticipant := b.UserID != nil && *b.UserID == actor.UserID
		if !isOwner && !isParticipant {
			return ErrUnauthorized
		}

		settings, err := s.gyms.GetSettings(lockCtx, b.GymID)
		if err != nil {
			return err
		}

		// The cutoff guards a confirmed seat another student could still
		// claim. Leaving the waitlist frees no seat, so it stays open right
		// up to class start.
		if b.Status == StatusConfirmed {
			cutoff := class.StartTime.Add(-time.Duration(settings.CancelLimitHours) * time.Hour)
			if time.Now().After(cutoff) && !(isOwner && force) {
				return ErrCancelTooLate
			}
		}

		if err := s.repo.MarkCanceled(lockCtx, tx, b.ID); err != nil {
			if errors.Is(err, errAlreadyCanceled) {
				return ErrNotFound
			}
			return err
		}
		canceled = b

		// Promotion happens in the same transaction as the cancellation so
		// the freed seat is never observable as unowned.
		if b.Status == StatusConfirmed {
			promoted, err = s.promoteLocked(lockCtx, tx, class)
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return err
	}

	metrics.RecordBookingCancellation()
	s.notifier.Emit(ctx, notify.Event{
		Type:    notify.TypeCanceled,
		GymID:   canceled.GymID,
		ClassID: &canceled.ClassID,
		UserID:  canceled.UserID,
		Payload: map[string]interface{}{"booking_id": canceled.ID.String()},
	})

	if promoted != nil {
		metrics.RecordWaitlistPromotion()
		s.notifier.Emit(ctx, notify.Event{
			Type:    notify.TypePromoted,
			GymID:   promoted.GymID,
			ClassID: &promoted.ClassID,
			UserID:  promoted.UserID,
			Payload: map[string]interface{}{"booking_id": promoted.ID.String()},
		})
		logger.Info("waitlist promotion",
			"booking_id", promoted.ID, "class_id", promoted.ClassID)
	}

	return nil
}

// promoteLocked fills at most one free seat from the waitlist. The caller
// must hold the class lock.
func (s *service) promoteLocked(ctx context.Context, tx *sqlx.Tx, class *ClassInfo) (*Booking, error) {
	confirmed, _, err := s.repo.CountByStatus(ctx, tx, class.ID)
	if err != nil {
		return nil, err
	}
	if confirmed >= class.Capacity {
		return nil, nil
	}

	next, err := s.repo.NextWaitlisted(ctx, tx, class.ID)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return nil, nil
	}

	if err := s.repo.Promote(ctx, tx, next.ID); err != nil {
		return nil, err
	}

	next.Status = StatusConfirmed
	return next, nil
}

func (s *service) PromoteFromWaitlist(ctx context.Context, ownerID, classID uuid.UUID) (*uuid.UUID, error) {
	g, err := s.gyms.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, lockTimeout)
	defer cancel()

	var promoted *Booking
	err = db.InTx(lockCtx, s.db, func(tx *sqlx.Tx) error {
		class, err := s.repo.LockClass(lockCtx, tx, classID)
		if err != nil {
			return err
		}
		if class.GymID != g.ID {
			return ErrNotFound
		}

		promoted, err = s.promoteLocked(lockCtx, tx, class)
		return err
	})
	if err != nil {
		return nil, err
	}

	if promoted == nil {
		return nil, nil
	}

	metrics.RecordWaitlistPromotion()
	s.notifier.Emit(ctx, notify.Event{
		Type:    notify.TypePromoted,
		GymID:   promoted.GymID,
		ClassID: &promoted.ClassID,
		UserID:  promoted.UserID,
		Payload: map[string]interface{}{"booking_id": promoted.ID.String()},
	})

	id := promoted.ID
	return &id, nil
}

func (s *service) ListMyBookings(ctx context.Context, userID uuid.UUID) ([]BookingWithClass, error) {
	return s.repo.ListByUser(ctx, s.db, userID)
}

func (s *service) ListByClass(ctx context.Context, ownerID, classID uuid.UUID) ([]BookingWithClass, error) {
	g, err := s.gyms.GetByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gym.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return s.repo.ListByClass(ctx, s.db, g.ID, classID)
}

func (s *service) ListByGym(ctx context.Context, ownerID, gymID uuid.UUID) ([]BookingWithClass, error) {
	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		if errors.Is(err, gym.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if g.OwnerID != ownerID {
		return nil, ErrUnauthorized
	}
	return s.repo.ListByGym(ctx, s.db, gymID)
}

func (s *service) recordRejection(err error) {
	switch {
	case errors.Is(err, ErrBookingFull):
		metrics.RecordBookingRejection("full")
	case errors.Is(err, ErrBookingDuplicate):
		metrics.RecordBookingRejection("duplicate")
	case errors.Is(err, ErrBookingOverlap):
		metrics.RecordBookingRejection("overlap")
	case errors.Is(err, ErrBookingPlanLimit):
		metrics.RecordBookingRejection("plan_limit")
	case errors.Is(err, ErrBookingTooLate):
		metrics.RecordBookingRejection("too_late")
	case errors.Is(err, ErrCancelTooLate):
		metrics.RecordBookingRejection("cancel_too_late")
	case errors.Is(err, ErrGymInactive):
		metrics.RecordBookingRejection("gym_inactive")
	}
}
