package user

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, name, email, passwordHash, role string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// SetGym links a student to a gym and marks onboarding complete.
	SetGym(ctx context.Context, userID, gymID uuid.UUID) error
	SetOnboardingCompleted(ctx context.Context, userID uuid.UUID) error
	CountMembers(ctx context.Context, gymID uuid.UUID) (int, error)
	ListMembers(ctx context.Context, gymID uuid.UUID) ([]User, error)

	// Unlink detaches a student from their gym, deactivates their plan
	// assignment, cancels their upcoming bookings and refills each freed
	// seat from that class's waitlist, all in one tx.
	Unlink(ctx context.Context, userID uuid.UUID) error
}
