package gym

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrAlreadyExists = errors.New("owner already has a gym")
	ErrNotOwner      = errors.New("gym does not belong to this owner")
)

type Service interface {
	CreateGym(ctx context.Context, ownerID uuid.UUID, req CreateGymRequest) (*Gym, error)
	GetGym(ctx context.Context, id uuid.UUID) (*GymWithSettings, error)
	GetOwnGym(ctx context.Context, ownerID uuid.UUID) (*GymWithSettings, error)
	ListGyms(ctx context.Context) ([]Gym, error)
	UpdateGym(ctx context.Context, ownerID uuid.UUID, req UpdateGymRequest) (*Gym, error)
	UpdateSettings(ctx context.Context, ownerID uuid.UUID, req UpdateSettingsRequest) (*Settings, error)
	CloseGym(ctx context.Context, ownerID uuid.UUID) error

	CreateClassType(ctx context.Context, ownerID uuid.UUID, req CreateClassTypeRequest) (*ClassType, error)
	ListClassTypes(ctx context.Context, gymID uuid.UUID) ([]ClassType, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) CreateGym(ctx context.Context, ownerID uuid.UUID, req CreateGymRequest) (*Gym, error) {
	existing, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	return s.repo.Create(ctx, ownerID, req)
}

func (s *service) GetGym(ctx context.Context, id uuid.UUID) (*GymWithSettings, error) {
	gym, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	settings, err := s.repo.GetSettings(ctx, id)
	if err != nil {
		return nil, err
	}

	return &GymWithSettings{Gym: *gym, Settings: *settings}, nil
}

func (s *service) GetOwnGym(ctx context.Context, ownerID uuid.UUID) (*GymWithSettings, error) {
	gym, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	settings, err := s.repo.GetSettings(ctx, gym.ID)
	if err != nil {
		return nil, err
	}

	return &GymWithSettings{Gym: *gym, Settings: *settings}, nil
}

func (s *service) ListGyms(ctx context.Context) ([]Gym, error) {
	return s.repo.List(ctx, true)
}

func (s *service) UpdateGym(ctx context.Context, ownerID uuid.UUID, req UpdateGymRequest) (*Gym, error) {
	gym, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, gym.ID, req)
}

func (s *service) UpdateSettings(ctx context.Context, ownerID uuid.UUID, req UpdateSettingsRequest) (*Settings, error) {
	gym, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if req.CancelLimitHours != nil {
		if *req.CancelLimitHours < MinCancelHours || *req.CancelLimitHours > MaxCancelHours {
			return nil, errors.New("cancel_limit_hours out of range")
		}
	}

	return s.repo.UpdateSettings(ctx, gym.ID, req)
}

func (s *service) CloseGym(ctx context.Context, ownerID uuid.UUID) error {
	gym, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	return s.repo.Close(ctx, gym.ID)
}

func (s *service) CreateClassType(ctx context.Context, ownerID uuid.UUID, req CreateClassTypeRequest) (*ClassType, error) {
	gym, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return s.repo.CreateClassType(ctx, gym.ID, req.Name, Slugify(req.Name), req.Color)
}

func (s *service) ListClassTypes(ctx context.Context, gymID uuid.UUID) ([]ClassType, error) {
	return s.repo.ListClassTypes(ctx, gymID)
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases a class type name and collapses runs of non-alphanumeric
// characters to single hyphens.
func Slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
