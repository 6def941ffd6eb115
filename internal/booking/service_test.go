package booking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eduAbreu/train-book/internal/db"
	"github.com/eduAbreu/train-book/internal/gym"
	"github.com/eduAbreu/train-book/internal/notify"
	"github.com/eduAbreu/train-book/internal/plan"
)

// Mock repositories

type MockBookingRepo struct{ mock.Mock }
type MockGymRepo struct{ mock.Mock }
type MockPlanRepo struct{ mock.Mock }
type MockNotifier struct{ mock.Mock }

func (m *MockBookingRepo) LockClass(ctx context.Context, q db.Queryer, classID uuid.UUID) (*ClassInfo, error) {
	args := m.Called(ctx, q, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClassInfo), args.Error(1)
}

func (m *MockBookingRepo) CountByStatus(ctx context.Context, q db.Queryer, classID uuid.UUID) (int, int, error) {
	args := m.Called(ctx, q, classID)
	return args.Int(0), args.Int(1), args.Error(2)
}

func (m *MockBookingRepo) HasActiveBooking(ctx context.Context, q db.Queryer, classID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, q, classID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepo) HasOverlappingActive(ctx context.Context, q db.Queryer, userID, excludeClassID uuid.UUID, start, end time.Time) (bool, error) {
	args := m.Called(ctx, q, userID, excludeClassID, start, end)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepo) CountConfirmedInWeek(ctx context.Context, q db.Queryer, userID uuid.UUID, weekStart, weekEnd time.Time) (int, error) {
	args := m.Called(ctx, q, userID, weekStart, weekEnd)
	return args.Int(0), args.Error(1)
}

func (m *MockBookingRepo) Insert(ctx context.Context, q db.Queryer, b *Booking) (*Booking, error) {
	args := m.Called(ctx, q, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, q db.Queryer, id uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) MarkCanceled(ctx context.Context, q db.Queryer, id uuid.UUID) error {
	return m.Called(ctx, q, id).Error(0)
}

func (m *MockBookingRepo) NextWaitlisted(ctx context.Context, q db.Queryer, classID uuid.UUID) (*Booking, error) {
	args := m.Called(ctx, q, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) Promote(ctx context.Context, q db.Queryer, id uuid.UUID) error {
	return m.Called(ctx, q, id).Error(0)
}

func (m *MockBookingRepo) ListByUser(ctx context.Context, q db.Queryer, userID uuid.UUID) ([]BookingWithClass, error) {
	args := m.Called(ctx, q, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithClass), args.Error(1)
}

func (m *MockBookingRepo) ListByClass(ctx context.Context, q db.Queryer, gymID, classID uuid.UUID) ([]BookingWithClass, error) {
	args := m.Called(ctx, q, gymID, classID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithClass), args.Error(1)
}

func (m *MockBookingRepo) ListByGym(ctx context.Context, q db.Queryer, gymID uuid.UUID) ([]BookingWithClass, error) {
	args := m.Called(ctx, q, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BookingWithClass), args.Error(1)
}

func (m *MockGymRepo) Create(ctx context.Context, ownerID uuid.UUID, req gym.CreateGymRequest) (*gym.Gym, error) {
	args := m.Called(ctx, ownerID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *MockGymRepo) GetByID(ctx context.Context, id uuid.UUID) (*gym.Gym, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *MockGymRepo) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*gym.Gym, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *MockGymRepo) List(ctx context.Context, activeOnly bool) ([]gym.Gym, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.Gym), args.Error(1)
}

func (m *MockGymRepo) Update(ctx context.Context, id uuid.UUID, req gym.UpdateGymRequest) (*gym.Gym, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Gym), args.Error(1)
}

func (m *MockGymRepo) Close(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockGymRepo) GetSettings(ctx context.Context, gymID uuid.UUID) (*gym.Settings, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Settings), args.Error(1)
}

func (m *MockGymRepo) UpdateSettings(ctx context.Context, gymID uuid.UUID, req gym.UpdateSettingsRequest) (*gym.Settings, error) {
	args := m.Called(ctx, gymID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.Settings), args.Error(1)
}

func (m *MockGymRepo) CreateClassType(ctx context.Context, gymID uuid.UUID, name, slug string, color *string) (*gym.ClassType, error) {
	args := m.Called(ctx, gymID, name, slug, color)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gym.ClassType), args.Error(1)
}

func (m *MockGymRepo) ListClassTypes(ctx context.Context, gymID uuid.UUID) ([]gym.ClassType, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]gym.ClassType), args.Error(1)
}

func (m *MockPlanRepo) Create(ctx context.Context, gymID uuid.UUID, req plan.CreatePlanRequest) (*plan.Plan, error) {
	args := m.Called(ctx, gymID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*plan.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) List(ctx context.Context, gymID uuid.UUID) ([]plan.Plan, error) {
	args := m.Called(ctx, gymID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]plan.Plan), args.Error(1)
}

func (m *MockPlanRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPlanRepo) Assign(ctx context.Context, gymID, studentID, planID uuid.UUID, startDate time.Time) (*plan.StudentPlan, error) {
	args := m.Called(ctx, gymID, studentID, planID, startDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.StudentPlan), args.Error(1)
}

func (m *MockPlanRepo) ActiveWeeklyLimit(ctx context.Context, studentID uuid.UUID) (*int, bool, error) {
	args := m.Called(ctx, studentID)
	var limit *int
	if args.Get(0) != nil {
		limit = args.Get(0).(*int)
	}
	return limit, args.Bool(1), args.Error(2)
}

func (m *MockPlanRepo) GetActiveAssignment(ctx context.Context, studentID uuid.UUID) (*plan.StudentPlan, error) {
	args := m.Called(ctx, studentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*plan.StudentPlan), args.Error(1)
}

func (m *MockNotifier) Emit(ctx context.Context, e notify.Event) {
	m.Called(ctx, e)
}

func newTestDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), sqlMock
}

func intPtr(n int) *int { return &n }

func TestService_RequestBooking(t *testing.T) {
	gymID := uuid.New()
	classID := uuid.New()
	studentID := uuid.New()
	futureStart := time.Now().Add(24 * time.Hour)

	activeGym := &gym.Gym{ID: gymID, OwnerID: uuid.New(), IsActive: true}
	waitlistSettings := &gym.Settings{GymID: gymID, AllowWaitlist: true, CancelLimitHours: 24}
	noWaitlistSettings := &gym.Settings{GymID: gymID, AllowWaitlist: false, CancelLimitHours: 24}
	classInfo := &ClassInfo{
		ID:        classID,
		GymID:     gymID,
		StartTime: futureStart,
		EndTime:   futureStart.Add(time.Hour),
		Capacity:  2,
	}

	studentRequest := BookRequest{
		GymID:   gymID,
		ClassID: classID,
		Participant: ParticipantRef{
			Type:   ParticipantStudent,
			UserID: &studentID,
		},
		Origin: OriginStudent,
	}

	tests := []struct {
		name         string
		req          BookRequest
		setupMocks   func(*MockBookingRepo, *MockGymRepo, *MockPlanRepo, *MockNotifier)
		commits      bool
		wantErr      error
		wantStatus   Status
		wantPosition int
	}{
		{
			name: "confirmed when seats are free",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(waitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(false, nil)
				br.On("HasOverlappingActive", mock.Anything, mock.Anything, studentID, classID, classInfo.StartTime, classInfo.EndTime).Return(false, nil)
				pr.On("ActiveWeeklyLimit", mock.Anything, studentID).Return(nil, false, nil)
				br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(1, 0, nil)
				br.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(b *Booking) bool {
					return b.Status == StatusConfirmed && b.ClassID == classID
				})).Return(&Booking{ID: uuid.New(), GymID: gymID, ClassID: classID, UserID: &studentID, Status: StatusConfirmed}, nil)
				n.On("Emit", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
					return e.Type == notify.TypeBooked
				})).Return()
			},
			commits:    true,
			wantStatus: StatusConfirmed,
		},
		{
			name: "waitlisted when full and waitlist allowed",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(waitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(false, nil)
				br.On("HasOverlappingActive", mock.Anything, mock.Anything, studentID, classID, classInfo.StartTime, classInfo.EndTime).Return(false, nil)
				pr.On("ActiveWeeklyLimit", mock.Anything, studentID).Return(nil, false, nil)
				br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(2, 2, nil)
				br.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(b *Booking) bool {
					return b.Status == StatusWaitlist
				})).Return(&Booking{ID: uuid.New(), GymID: gymID, ClassID: classID, UserID: &studentID, Status: StatusWaitlist}, nil)
				n.On("Emit", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
					return e.Type == notify.TypeWaitlist
				})).Return()
			},
			commits:      true,
			wantStatus:   StatusWaitlist,
			wantPosition: 3,
		},
		{
			name: "rejected when full and waitlist disabled",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(noWaitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(false, nil)
				br.On("HasOverlappingActive", mock.Anything, mock.Anything, studentID, classID, classInfo.StartTime, classInfo.EndTime).Return(false, nil)
				pr.On("ActiveWeeklyLimit", mock.Anything, studentID).Return(nil, false, nil)
				br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(2, 0, nil)
			},
			wantErr: ErrBookingFull,
		},
		{
			name: "duplicate active booking",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(waitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(true, nil)
			},
			wantErr: ErrBookingDuplicate,
		},
		{
			name: "overlapping active booking",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(waitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(false, nil)
				br.On("HasOverlappingActive", mock.Anything, mock.Anything, studentID, classID, classInfo.StartTime, classInfo.EndTime).Return(true, nil)
			},
			wantErr: ErrBookingOverlap,
		},
		{
			name: "weekly plan limit reached",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(waitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(false, nil)
				br.On("HasOverlappingActive", mock.Anything, mock.Anything, studentID, classID, classInfo.StartTime, classInfo.EndTime).Return(false, nil)
				pr.On("ActiveWeeklyLimit", mock.Anything, studentID).Return(intPtr(3), true, nil)
				br.On("CountConfirmedInWeek", mock.Anything, mock.Anything, studentID, mock.Anything, mock.Anything).Return(3, nil)
				n.On("Emit", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
					return e.Type == notify.TypePlanLimit && e.UserID != nil && *e.UserID == studentID
				})).Return()
			},
			wantErr: ErrBookingPlanLimit,
		},
		{
			name: "owner booking on behalf bypasses plan limit",
			req: BookRequest{
				GymID:   gymID,
				ClassID: classID,
				Participant: ParticipantRef{
					Type:   ParticipantStudent,
					UserID: &studentID,
				},
				Origin:  OriginOwner,
				Options: Options{IgnorePlanLimit: true},
			},
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(waitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(false, nil)
				br.On("HasOverlappingActive", mock.Anything, mock.Anything, studentID, classID, classInfo.StartTime, classInfo.EndTime).Return(false, nil)
				br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(0, 0, nil)
				br.On("Insert", mock.Anything, mock.Anything, mock.Anything).
					Return(&Booking{ID: uuid.New(), GymID: gymID, ClassID: classID, UserID: &studentID, Status: StatusConfirmed}, nil)
				n.On("Emit", mock.Anything, mock.Anything).Return()
			},
			commits:    true,
			wantStatus: StatusConfirmed,
		},
		{
			name: "owner force confirm seats beyond capacity",
			req: BookRequest{
				GymID:   gymID,
				ClassID: classID,
				Participant: ParticipantRef{
					Type:   ParticipantStudent,
					UserID: &studentID,
				},
				Origin:  OriginOwner,
				Options: Options{IgnorePlanLimit: true, ForceConfirmed: true},
			},
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(noWaitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
				br.On("HasActiveBooking", mock.Anything, mock.Anything, classID, studentID).Return(false, nil)
				br.On("HasOverlappingActive", mock.Anything, mock.Anything, studentID, classID, classInfo.StartTime, classInfo.EndTime).Return(false, nil)
				br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(2, 0, nil)
				br.On("Insert", mock.Anything, mock.Anything, mock.MatchedBy(func(b *Booking) bool {
					return b.Status == StatusConfirmed
				})).Return(&Booking{ID: uuid.New(), GymID: gymID, ClassID: classID, UserID: &studentID, Status: StatusConfirmed}, nil)
				n.On("Emit", mock.Anything, mock.Anything).Return()
			},
			commits:    true,
			wantStatus: StatusConfirmed,
		},
		{
			name: "class already started",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(activeGym, nil)
				gr.On("GetSettings", mock.Anything, gymID).Return(waitlistSettings, nil)
				br.On("LockClass", mock.Anything, mock.Anything, classID).Return(&ClassInfo{
					ID:        classID,
					GymID:     gymID,
					StartTime: time.Now().Add(-time.Hour),
					EndTime:   time.Now(),
					Capacity:  2,
				}, nil)
			},
			wantErr: ErrBookingTooLate,
		},
		{
			name: "closed gym rejects bookings",
			req:  studentRequest,
			setupMocks: func(br *MockBookingRepo, gr *MockGymRepo, pr *MockPlanRepo, n *MockNotifier) {
				gr.On("GetByID", mock.Anything, gymID).Return(&gym.Gym{ID: gymID, IsActive: false}, nil)
			},
			wantErr: ErrGymInactive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			database, sqlMock := newTestDB(t)
			br := new(MockBookingRepo)
			gr := new(MockGymRepo)
			pr := new(MockPlanRepo)
			n := new(MockNotifier)
			tt.setupMocks(br, gr, pr, n)

			// The engine opens a transaction only after the gym checks pass.
			if tt.wantErr != ErrGymInactive {
				sqlMock.ExpectBegin()
				if tt.commits {
					sqlMock.ExpectCommit()
				} else {
					sqlMock.ExpectRollback()
				}
			}

			service := NewService(database, br, gr, pr, n)
			result, err := service.RequestBooking(context.Background(), tt.req)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, result)
				br.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, result.Status)
				assert.Equal(t, tt.wantPosition, result.WaitlistPosition)
			}
			assert.NoError(t, sqlMock.ExpectationsWereMet())
			br.AssertExpectations(t)
			gr.AssertExpectations(t)
			pr.AssertExpectations(t)
			n.AssertExpectations(t)
		})
	}
}

func TestService_RequestBooking_InvalidRequests(t *testing.T) {
	database, _ := newTestDB(t)
	service := NewService(database, new(MockBookingRepo), new(MockGymRepo), new(MockPlanRepo), new(MockNotifier))

	_, err := service.RequestBooking(context.Background(), BookRequest{
		GymID:       uuid.New(),
		ClassID:     uuid.New(),
		Participant: ParticipantRef{Type: ParticipantStudent},
		Origin:      OriginStudent,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = service.RequestBooking(context.Background(), BookRequest{
		GymID:       uuid.New(),
		ClassID:     uuid.New(),
		Participant: ParticipantRef{Type: ParticipantGuest},
		Origin:      OriginOwner,
	})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestService_CancelBooking(t *testing.T) {
	gymID := uuid.New()
	ownerID := uuid.New()
	classID := uuid.New()
	studentID := uuid.New()
	bookingID := uuid.New()
	waitlistedID := uuid.New()
	waitlistedUser := uuid.New()

	theGym := &gym.Gym{ID: gymID, OwnerID: ownerID, IsActive: true}
	settings := &gym.Settings{GymID: gymID, AllowWaitlist: true, CancelLimitHours: 24}

	confirmedBooking := func(start time.Time) *Booking {
		return &Booking{
			ID:          bookingID,
			GymID:       gymID,
			ClassID:     classID,
			UserID:      &studentID,
			Participant: ParticipantStudent,
			Origin:      OriginStudent,
			Status:      StatusConfirmed,
		}
	}

	classAt := func(start time.Time) *ClassInfo {
		return &ClassInfo{
			ID:        classID,
			GymID:     gymID,
			StartTime: start,
			EndTime:   start.Add(time.Hour),
			Capacity:  1,
		}
	}

	t.Run("cancel before cutoff promotes next waitlisted", func(t *testing.T) {
		start := time.Now().Add(48 * time.Hour)
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)
		n := new(MockNotifier)

		br.On("GetByID", mock.Anything, mock.Anything, bookingID).Return(confirmedBooking(start), nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classAt(start), nil)
		gr.On("GetByID", mock.Anything, gymID).Return(theGym, nil)
		gr.On("GetSettings", mock.Anything, gymID).Return(settings, nil)
		br.On("MarkCanceled", mock.Anything, mock.Anything, bookingID).Return(nil)
		br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(0, 1, nil)
		br.On("NextWaitlisted", mock.Anything, mock.Anything, classID).Return(&Booking{
			ID:      waitlistedID,
			GymID:   gymID,
			ClassID: classID,
			UserID:  &waitlistedUser,
			Status:  StatusWaitlist,
		}, nil)
		br.On("Promote", mock.Anything, mock.Anything, waitlistedID).Return(nil)
		n.On("Emit", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
			return e.Type == notify.TypeCanceled
		})).Return()
		n.On("Emit", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
			return e.Type == notify.TypePromoted && *e.UserID == waitlistedUser
		})).Return()

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		service := NewService(database, br, gr, new(MockPlanRepo), n)
		err := service.CancelBooking(context.Background(), bookingID, Actor{UserID: studentID}, false)

		require.NoError(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
		br.AssertExpectations(t)
		n.AssertExpectations(t)
	})

	t.Run("cancel inside cutoff fails and keeps the booking", func(t *testing.T) {
		start := time.Now().Add(time.Hour)
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)

		br.On("GetByID", mock.Anything, mock.Anything, bookingID).Return(confirmedBooking(start), nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classAt(start), nil)
		gr.On("GetByID", mock.Anything, gymID).Return(theGym, nil)
		gr.On("GetSettings", mock.Anything, gymID).Return(settings, nil)

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		service := NewService(database, br, gr, new(MockPlanRepo), new(MockNotifier))
		err := service.CancelBooking(context.Background(), bookingID, Actor{UserID: studentID}, false)

		assert.ErrorIs(t, err, ErrCancelTooLate)
		br.AssertNotCalled(t, "MarkCanceled", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("owner force cancel overrides cutoff", func(t *testing.T) {
		start := time.Now().Add(time.Hour)
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)
		n := new(MockNotifier)

		br.On("GetByID", mock.Anything, mock.Anything, bookingID).Return(confirmedBooking(start), nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classAt(start), nil)
		gr.On("GetByID", mock.Anything, gymID).Return(theGym, nil)
		gr.On("GetSettings", mock.Anything, gymID).Return(settings, nil)
		br.On("MarkCanceled", mock.Anything, mock.Anything, bookingID).Return(nil)
		br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(0, 0, nil)
		br.On("NextWaitlisted", mock.Anything, mock.Anything, classID).Return(nil, nil)
		n.On("Emit", mock.Anything, mock.Anything).Return()

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		service := NewService(database, br, gr, new(MockPlanRepo), n)
		err := service.CancelBooking(context.Background(), bookingID, Actor{UserID: ownerID, Role: "owner"}, true)

		require.NoError(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("stranger cannot cancel someone else's booking", func(t *testing.T) {
		start := time.Now().Add(48 * time.Hour)
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)

		br.On("GetByID", mock.Anything, mock.Anything, bookingID).Return(confirmedBooking(start), nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classAt(start), nil)
		gr.On("GetByID", mock.Anything, gymID).Return(theGym, nil)

		sqlMock.ExpectBegin()
		sqlMock.ExpectRollback()

		service := NewService(database, br, gr, new(MockPlanRepo), new(MockNotifier))
		err := service.CancelBooking(context.Background(), bookingID, Actor{UserID: uuid.New()}, false)

		assert.ErrorIs(t, err, ErrUnauthorized)
		br.AssertNotCalled(t, "MarkCanceled", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("canceling a waitlist booking does not promote", func(t *testing.T) {
		start := time.Now().Add(48 * time.Hour)
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)
		n := new(MockNotifier)

		waitlisted := confirmedBooking(start)
		waitlisted.Status = StatusWaitlist

		br.On("GetByID", mock.Anything, mock.Anything, bookingID).Return(waitlisted, nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classAt(start), nil)
		gr.On("GetByID", mock.Anything, gymID).Return(theGym, nil)
		gr.On("GetSettings", mock.Anything, gymID).Return(settings, nil)
		br.On("MarkCanceled", mock.Anything, mock.Anything, bookingID).Return(nil)
		n.On("Emit", mock.Anything, mock.Anything).Return()

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		service := NewService(database, br, gr, new(MockPlanRepo), n)
		err := service.CancelBooking(context.Background(), bookingID, Actor{UserID: studentID}, false)

		require.NoError(t, err)
		br.AssertNotCalled(t, "NextWaitlisted", mock.Anything, mock.Anything, mock.Anything)
		br.AssertNotCalled(t, "Promote", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("leaving the waitlist is allowed inside the cutoff", func(t *testing.T) {
		// One hour out, well inside the 24h window. No seat is freed, so
		// the cutoff does not apply.
		start := time.Now().Add(time.Hour)
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)
		n := new(MockNotifier)

		waitlisted := confirmedBooking(start)
		waitlisted.Status = StatusWaitlist

		br.On("GetByID", mock.Anything, mock.Anything, bookingID).Return(waitlisted, nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classAt(start), nil)
		gr.On("GetByID", mock.Anything, gymID).Return(theGym, nil)
		gr.On("GetSettings", mock.Anything, gymID).Return(settings, nil)
		br.On("MarkCanceled", mock.Anything, mock.Anything, bookingID).Return(nil)
		n.On("Emit", mock.Anything, mock.MatchedBy(func(e notify.Event) bool {
			return e.Type == notify.TypeCanceled
		})).Return()

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		service := NewService(database, br, gr, new(MockPlanRepo), n)
		err := service.CancelBooking(context.Background(), bookingID, Actor{UserID: studentID}, false)

		require.NoError(t, err)
		br.AssertExpectations(t)
		n.AssertExpectations(t)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}

func TestService_PromoteFromWaitlist(t *testing.T) {
	gymID := uuid.New()
	ownerID := uuid.New()
	classID := uuid.New()

	theGym := &gym.Gym{ID: gymID, OwnerID: ownerID, IsActive: true}
	classInfo := &ClassInfo{ID: classID, GymID: gymID, StartTime: time.Now().Add(time.Hour), Capacity: 3}

	t.Run("promotes the earliest waitlisted booking", func(t *testing.T) {
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)
		n := new(MockNotifier)

		next := &Booking{ID: uuid.New(), GymID: gymID, ClassID: classID, Status: StatusWaitlist}

		gr.On("GetByOwner", mock.Anything, ownerID).Return(theGym, nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
		br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(2, 1, nil)
		br.On("NextWaitlisted", mock.Anything, mock.Anything, classID).Return(next, nil)
		br.On("Promote", mock.Anything, mock.Anything, next.ID).Return(nil)
		n.On("Emit", mock.Anything, mock.Anything).Return()

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		service := NewService(database, br, gr, new(MockPlanRepo), n)
		promotedID, err := service.PromoteFromWaitlist(context.Background(), ownerID, classID)

		require.NoError(t, err)
		require.NotNil(t, promotedID)
		assert.Equal(t, next.ID, *promotedID)
	})

	t.Run("no-op when the class is at capacity", func(t *testing.T) {
		database, sqlMock := newTestDB(t)
		br := new(MockBookingRepo)
		gr := new(MockGymRepo)

		gr.On("GetByOwner", mock.Anything, ownerID).Return(theGym, nil)
		br.On("LockClass", mock.Anything, mock.Anything, classID).Return(classInfo, nil)
		br.On("CountByStatus", mock.Anything, mock.Anything, classID).Return(3, 4, nil)

		sqlMock.ExpectBegin()
		sqlMock.ExpectCommit()

		service := NewService(database, br, gr, new(MockPlanRepo), new(MockNotifier))
		promotedID, err := service.PromoteFromWaitlist(context.Background(), ownerID, classID)

		require.NoError(t, err)
		assert.Nil(t, promotedID)
		br.AssertNotCalled(t, "NextWaitlisted", mock.Anything, mock.Anything, mock.Anything)
	})
}
