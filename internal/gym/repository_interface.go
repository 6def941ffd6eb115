package gym

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, ownerID uuid.UUID, req CreateGymRequest) (*Gym, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Gym, error)
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*Gym, error)
	List(ctx context.Context, activeOnly bool) ([]Gym, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateGymRequest) (*Gym, error)
	Close(ctx context.Context, id uuid.UUID) error

	GetSettings(ctx context.Context, gymID uuid.UUID) (*Settings, error)
	UpdateSettings(ctx context.Context, gymID uuid.UUID, req UpdateSettingsRequest) (*Settings, error)

	CreateClassType(ctx context.Context, gymID uuid.UUID, name, slug string, color *string) (*ClassType, error)
	ListClassTypes(ctx context.Context, gymID uuid.UUID) ([]ClassType, error)
}
