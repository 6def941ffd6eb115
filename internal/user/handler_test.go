package user

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eduAbreu/train-book/internal/auth"
)

type MockUserService struct{ mock.Mock }

func (m *MockUserService) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockUserService) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, "", "", args.Error(3)
	}
	return args.Get(0).(*User), args.String(1), args.String(2), args.Error(3)
}

func (m *MockUserService) GetByID(ctx context.Context, userID uuid.UUID) (*User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockUserService) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*User), args.Error(2)
}

func (m *MockUserService) JoinGym(ctx context.Context, studentID, gymID uuid.UUID) error {
	return m.Called(ctx, studentID, gymID).Error(0)
}

func (m *MockUserService) UnlinkStudent(ctx context.Context, ownerID, studentID uuid.UUID) error {
	return m.Called(ctx, ownerID, studentID).Error(0)
}

func (m *MockUserService) ListMembers(ctx context.Context, ownerID uuid.UUID) ([]User, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]User), args.Error(1)
}

func newAuthRouter(service Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(service)

	router := gin.New()
	router.POST("/auth/register", handler.Register)
	router.POST("/auth/login", handler.Login)
	return router
}

func TestHandler_Register(t *testing.T) {
	req := RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: auth.RoleOwner}
	body, _ := json.Marshal(req)

	t.Run("New owner is routed to gym onboarding", func(t *testing.T) {
		service := new(MockUserService)
		service.On("Register", mock.Anything, req).
			Return(&User{ID: uuid.New(), Name: "Ana", Email: req.Email, Role: auth.RoleOwner}, "access", "refresh", nil)

		router := newAuthRouter(service)
		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "access", resp.AccessToken)
		assert.Equal(t, "/onboarding/gym", resp.Route)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		service := new(MockUserService)
		service.On("Register", mock.Anything, req).Return(nil, "", "", ErrEmailExists)

		router := newAuthRouter(service)
		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Rejects a short password", func(t *testing.T) {
		bad, _ := json.Marshal(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "short", Role: auth.RoleOwner})

		service := new(MockUserService)
		router := newAuthRouter(service)
		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(bad))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		service.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("Rejects an unknown role", func(t *testing.T) {
		bad, _ := json.Marshal(RegisterRequest{Name: "Ana", Email: "ana@example.com", Password: "s3cret-pass", Role: "admin"})

		service := new(MockUserService)
		router := newAuthRouter(service)
		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest("POST", "/auth/register", bytes.NewReader(bad))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Login(t *testing.T) {
	req := LoginRequest{Email: "ana@example.com", Password: "s3cret-pass"}
	body, _ := json.Marshal(req)

	t.Run("Onboarded student is routed to the dashboard", func(t *testing.T) {
		gymID := uuid.New()
		service := new(MockUserService)
		service.On("Login", mock.Anything, req).
			Return(&User{ID: uuid.New(), Email: req.Email, Role: auth.RoleStudent, GymID: &gymID, OnboardingCompleted: true}, "access", "refresh", nil)

		router := newAuthRouter(service)
		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp LoginResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "/dashboard", resp.Route)
		assert.Empty(t, resp.User.PasswordHash)
	})

	t.Run("Bad credentials", func(t *testing.T) {
		service := new(MockUserService)
		service.On("Login", mock.Anything, req).Return(nil, "", "", ErrInvalidCredentials)

		router := newAuthRouter(service)
		w := httptest.NewRecorder()
		httpReq := httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
		httpReq.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, httpReq)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestHandler_JoinGym(t *testing.T) {
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	gymID := uuid.New()

	newRouter := func(service Service) *gin.Engine {
		handler := NewHandler(service)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Set("user_id", userID)
			c.Set("user_role", auth.RoleStudent)
		})
		router.POST("/gyms/:gymID/join", handler.JoinGym)
		return router
	}

	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{"Joined", nil, http.StatusOK},
		{"Member limit reached", ErrStudentLimitReached, http.StatusConflict},
		{"Gym closed", ErrGymInactive, http.StatusGone},
		{"Owner account", ErrNotStudent, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockUserService)
			service.On("JoinGym", mock.Anything, userID, gymID).Return(tt.serviceErr)

			router := newRouter(service)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("POST", "/gyms/"+gymID.String()+"/join", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
