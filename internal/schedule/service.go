package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/gym"
	"github.com/eduAbreu/train-book/internal/logger"
	"github.com/eduAbreu/train-book/internal/metrics"
)

var (
	ErrInvalidSlot  = errors.New("invalid template slot")
	ErrInvalidRange = errors.New("invalid date range")
)

type Service interface {
	CreateSlot(ctx context.Context, ownerID uuid.UUID, req CreateSlotRequest) (*WeeklyTemplateSlot, error)
	UpdateSlot(ctx context.Context, ownerID, slotID uuid.UUID, spec SlotSpec) (*WeeklyTemplateSlot, error)
	DeleteSlot(ctx context.Context, ownerID, slotID uuid.UUID) error
	ListSlots(ctx context.Context, gymID uuid.UUID) ([]WeeklyTemplateSlot, error)
	ApplySlotToDays(ctx context.Context, ownerID uuid.UUID, req ApplyToDaysRequest) (*ApplySummary, error)

	CreateClass(ctx context.Context, ownerID uuid.UUID, req CreateClassRequest) (*Class, error)
	ListClasses(ctx context.Context, gymID uuid.UUID, from, to time.Time) ([]ClassWithAvailability, error)
	SetClassCapacity(ctx context.Context, ownerID, classID uuid.UUID, capacity int) error

	GenerateForOwner(ctx context.Context, ownerID uuid.UUID, req GenerateRequest) (*GenerateSummary, error)
	Generate(ctx context.Context, gymID uuid.UUID, from, to time.Time) (*GenerateSummary, error)
}

type service struct {
	repo Repository
	gyms gym.Repository
}

func NewService(repo Repository, gyms gym.Repository) Service {
	return &service{repo: repo, gyms: gyms}
}

// ValidateSpec applies the slot invariants: duration a positive multiple of
// 15 minutes, capacity within [1,100], well-formed start time.
func ValidateSpec(spec SlotSpec) error {
	if spec.DurationMinutes <= 0 || spec.DurationMinutes%DurationStepMin != 0 {
		return fmt.Errorf("%w: duration must be a positive multiple of %d minutes", ErrInvalidSlot, DurationStepMin)
	}
	if spec.Capacity < MinCapacity || spec.Capacity > MaxCapacity {
		return fmt.Errorf("%w: capacity must be between %d and %d", ErrInvalidSlot, MinCapacity, MaxCapacity)
	}
	if _, _, err := ParseClock(spec.StartTime); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	return nil
}

func (s *service) ownGym(ctx context.Context, ownerID uuid.UUID) (*gym.Gym, error) {
	return s.gyms.GetByOwner(ctx, ownerID)
}

func (s *service) CreateSlot(ctx context.Context, ownerID uuid.UUID, req CreateSlotRequest) (*WeeklyTemplateSlot, error) {
	g, err := s.ownGym(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if !req.Day.Valid() {
		return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidSlot, req.Day)
	}
	if err := ValidateSpec(req.SlotSpec); err != nil {
		return nil, err
	}

	return s.repo.CreateSlot(ctx, g.ID, req.Day, req.SlotSpec)
}

func (s *service) UpdateSlot(ctx context.Context, ownerID, slotID uuid.UUID, spec SlotSpec) (*WeeklyTemplateSlot, error) {
	g, err := s.ownGym(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.GymID != g.ID {
		return nil, ErrSlotNotFound
	}

	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}

	return s.repo.UpdateSlot(ctx, slotID, spec)
}

func (s *service) DeleteSlot(ctx context.Context, ownerID, slotID uuid.UUID) error {
	g, err := s.ownGym(ctx, ownerID)
	if err != nil {
		return err
	}

	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if slot.GymID != g.ID {
		return ErrSlotNotFound
	}

	return s.repo.DeactivateSlot(ctx, slotID)
}

func (s *service) ListSlots(ctx context.Context, gymID uuid.UUID) ([]WeeklyTemplateSlot, error) {
	return s.repo.ListSlots(ctx, gymID, true)
}

func (s *service) ApplySlotToDays(ctx context.Context, ownerID uuid.UUID, req ApplyToDaysRequest) (*ApplySummary, error) {
	g, err := s.ownGym(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if err := ValidateSpec(req.Slot); err != nil {
		return nil, err
	}
	for _, day := range req.Days {
		if !day.Valid() {
			return nil, fmt.Errorf("%w: unknown day %q", ErrInvalidSlot, day)
		}
	}

	summary := &ApplySummary{Applied: []Day{}, Skipped: []Day{}}
	for _, day := range req.Days {
		existing, err := s.repo.FindSlotAt(ctx, g.ID, day, req.Slot.StartTime)
		switch {
		case err == nil:
			if req.Mode == ApplySkip {
				summary.Skipped = append(summary.Skipped, day)
				continue
			}
			if _, err := s.repo.UpdateSlot(ctx, existing.ID, req.Slot); err != nil {
				return nil, err
			}
			summary.Applied = append(summary.Applied, day)
		case errors.Is(err, ErrSlotNotFound):
			if _, err := s.repo.CreateSlot(ctx, g.ID, day, req.Slot); err != nil {
				return nil, err
			}
			summary.Applied = append(summary.Applied, day)
		default:
			return nil, err
		}
	}

	return summary, nil
}

func (s *service) CreateClass(ctx context.Context, ownerID uuid.UUID, req CreateClassRequest) (*Class, error) {
	g, err := s.ownGym(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if req.Capacity < MinCapacity {
		return nil, fmt.Errorf("%w: capacity must be at least %d", ErrInvalidSlot, MinCapacity)
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	start, err := CombineDateTime(date, req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrInvalidSlot)
	}

	class := &Class{
		GymID:       g.ID,
		Date:        date,
		StartTime:   start,
		EndTime:     start.Add(time.Duration(req.DurationMinutes) * time.Minute),
		ClassTypeID: req.ClassTypeID,
		Capacity:    req.Capacity,
		Instructor:  req.Instructor,
	}

	return s.repo.InsertClass(ctx, class)
}

func (s *service) ListClasses(ctx context.Context, gymID uuid.UUID, from, to time.Time) ([]ClassWithAvailability, error) {
	return s.repo.ListClasses(ctx, gymID, from, to)
}

func (s *service) SetClassCapacity(ctx context.Context, ownerID, classID uuid.UUID, capacity int) error {
	g, err := s.ownGym(ctx, ownerID)
	if err != nil {
		return err
	}

	class, err := s.repo.GetClass(ctx, classID)
	if err != nil {
		return err
	}
	if class.GymID != g.ID {
		return ErrClassNotFound
	}

	if capacity < MinCapacity {
		return fmt.Errorf("%w: capacity must be at least %d", ErrInvalidSlot, MinCapacity)
	}

	return s.repo.SetClassCapacity(ctx, classID, capacity)
}

func (s *service) GenerateForOwner(ctx context.Context, ownerID uuid.UUID, req GenerateRequest) (*GenerateSummary, error) {
	g, err := s.ownGym(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	from, err := ParseDate(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	to, err := ParseDate(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}

	return s.Generate(ctx, g.ID, from, to)
}

// Generate materializes dated classes from every active slot over the range.
// Each class-day is independent: a failure is counted and skipped, never
// aborting the batch, and re-running an overlapping range creates nothing new.
func (s *service) Generate(ctx context.Context, gymID uuid.UUID, from, to time.Time) (*GenerateSummary, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	slots, err := s.repo.ListSlots(ctx, gymID, true)
	if err != nil {
		return nil, err
	}

	summary := &GenerateSummary{}
	for _, slot := range slots {
		slot := slot
		for date := from; !date.After(to); date = date.AddDate(0, 0, 1) {
			if DayOf(date) != slot.Day {
				continue
			}

			created, err := s.repo.InsertClassFromSlot(ctx, &slot, date)
			if err != nil {
				logger.Error("class generation failed for date",
					"gym_id", gymID, "slot_id", slot.ID, "date", date.Format(dateLayout), "error", err)
				summary.Skipped++
				continue
			}
			if created {
				summary.Created++
			} else {
				summary.Skipped++
			}
		}
	}

	metrics.RecordClassesGenerated(summary.Created)
	logger.Info("class generation finished",
		"gym_id", gymID, "created", summary.Created, "skipped", summary.Skipped)

	return summary, nil
}
