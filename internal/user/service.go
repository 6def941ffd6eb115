package user

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/eduAbreu/train-book/internal/auth"
	"github.com/eduAbreu/train-book/internal/gym"
)

var (
	ErrEmailExists         = errors.New("email already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrGymInactive         = errors.New("gym is not active")
	ErrStudentLimitReached = errors.New("gym student limit reached")
	ErrNotStudent          = errors.New("user is not a student")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)

	JoinGym(ctx context.Context, studentID, gymID uuid.UUID) error
	UnlinkStudent(ctx context.Context, ownerID, studentID uuid.UUID) error
	ListMembers(ctx context.Context, ownerID uuid.UUID) ([]User, error)
}

type service struct {
	repo      Repository
	gyms      gym.Repository
	jwtSecret string
}

func NewService(repo Repository, gyms gym.Repository, jwtSecret string) Service {
	return &service{
		repo:      repo,
		gyms:      gyms,
		jwtSecret: jwtSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	u, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, req.Role)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		u.ID,
		u.Email,
		u.Role,
		s.jwtSecret,
		s.jwtSecret,
	)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(
		u.ID,
		u.Email,
		u.Role,
		s.jwtSecret,
		s.jwtSecret,
	)
	if err != nil {
		return nil, "", "", err
	}

	return u, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return "", nil, auth.ErrInvalidToken
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	newAccessToken, err := auth.GenerateAccessToken(u.ID, u.Email, u.Role, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, u, nil
}

// JoinGym links a student to a gym. When the gym caps its member count,
// joining past the cap fails with ErrStudentLimitReached.
func (s *service) JoinGym(ctx context.Context, studentID, gymID uuid.UUID) error {
	u, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		return err
	}
	if u.Role != auth.RoleStudent {
		return ErrNotStudent
	}

	g, err := s.gyms.GetByID(ctx, gymID)
	if err != nil {
		return err
	}
	if !g.IsActive {
		return ErrGymInactive
	}

	settings, err := s.gyms.GetSettings(ctx, g.ID)
	if err != nil {
		return err
	}
	if settings.MaxStudents != nil {
		count, err := s.repo.CountMembers(ctx, g.ID)
		if err != nil {
			return err
		}
		if count >= *settings.MaxStudents {
			return ErrStudentLimitReached
		}
	}

	return s.repo.SetGym(ctx, studentID, g.ID)
}

func (s *service) UnlinkStudent(ctx context.Context, ownerID, studentID uuid.UUID) error {
	g, err := s.gyms.GetByOwner(ctx, ownerID)
	if err != nil {
		return err
	}

	student, err := s.repo.FindByID(ctx, studentID)
	if err != nil {
		return err
	}
	if student.GymID == nil || *student.GymID != g.ID {
		return ErrUserNotFound
	}

	return s.repo.Unlink(ctx, studentID)
}

func (s *service) ListMembers(ctx context.Context, ownerID uuid.UUID) ([]User, error) {
	g, err := s.gyms.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, g.ID)
}
