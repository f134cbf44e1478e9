package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/clock"
	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *MockRepository) UpdateLastLogin(ctx context.Context, id string, t time.Time) error {
	return m.Called(ctx, id, t).Error(0)
}

func (m *MockRepository) List(ctx context.Context, filter Filter) ([]*User, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*User), args.Int(1), args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, u *User) error {
	return m.Called(ctx, u).Error(0)
}

func newTestService(repo Repository) Service {
	logger := zerolog.Nop()
	return NewService(repo, auth.NewBcryptPasswordHasherWithCost(bcrypt.MinCost), clock.NewFixed(testNow), &logger)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active student with normalized email", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, "ada@campus.edu").Return(nil, ErrNotFound).Once()
		repo.On("Create", ctx, mock.MatchedBy(func(u *User) bool {
			return u.Email == "ada@campus.edu" && u.Role == auth.RoleStudent && u.Status == StatusActive && u.PasswordHash != "secret123"
		})).Return(nil).Once()

		u, err := newTestService(repo).Register(ctx, "  Ada@Campus.edu ", "secret123", " Ada ")
		require.NoError(t, err)
		assert.Equal(t, "Ada", u.DisplayName)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, "ada@campus.edu").Return(&User{ID: "u1"}, nil).Once()

		_, err := newTestService(repo).Register(ctx, "ada@campus.edu", "secret123", "Ada")
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("reports every invalid field", func(t *testing.T) {
		_, err := newTestService(new(MockRepository)).Register(ctx, "", "lettersonly", "A")
		var verr *apperror.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, map[string]string{
			"email":        "email is required",
			"password":     "password must contain at least one letter and one number",
			"display_name": "display name must be between 2 and 100 characters",
		}, verr.FieldErrors)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := newTestService(repo)

	u, err := svc.Register(ctx, "bob@campus.edu", "hunter22", "Bob")
	require.NoError(t, err)

	got, err := svc.Login(ctx, "BOB@campus.edu", "hunter22")
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, testNow, *got.LastLoginAt)

	_, err = svc.Login(ctx, "bob@campus.edu", "wrong-pass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@campus.edu", "hunter22")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	for status, want := range map[Status]error{StatusSuspended: ErrSuspendedUser, StatusInactive: ErrInactiveUser} {
		stored, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		stored.Status = status
		require.NoError(t, repo.Update(ctx, stored))

		_, err = svc.Login(ctx, "bob@campus.edu", "hunter22")
		assert.ErrorIs(t, err, want, string(status))
	}
}

func TestLogin_LastLoginFailureDoesNotFailLogin(t *testing.T) {
	ctx := context.Background()
	hash, err := auth.NewBcryptPasswordHasherWithCost(bcrypt.MinCost).Hash("hunter22")
	require.NoError(t, err)

	repo := new(MockRepository)
	repo.On("GetByEmail", ctx, "bob@campus.edu").Return(&User{ID: "u1", PasswordHash: hash, Status: StatusActive, Role: auth.RoleStudent}, nil)
	repo.On("UpdateLastLogin", ctx, "u1", testNow).Return(errors.New("db down"))

	u, err := newTestService(repo).Login(ctx, "bob@campus.edu", "hunter22")
	require.NoError(t, err)
	assert.Nil(t, u.LastLoginAt)
	repo.AssertExpectations(t)
}

func TestAdministration(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := newTestService(repo)

	admin, err := svc.EnsureAdmin(ctx, "root@campus.edu", "rootpass1", "Root")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, admin.Role)

	again, err := svc.EnsureAdmin(ctx, "root@campus.edu", "rootpass1", "Root")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, again.ID)

	student, err := svc.Register(ctx, "s@campus.edu", "student1", "Stu")
	require.NoError(t, err)

	t.Run("student cannot list users", func(t *testing.T) {
		_, _, err := svc.List(ctx, student.Actor(), Filter{})
		var perr *apperror.PermissionError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "admin", perr.Required)
	})

	t.Run("admin promotes student", func(t *testing.T) {
		u, err := svc.UpdateRole(ctx, admin.Actor(), student.ID, auth.RoleStaff)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleStaff, u.Role)

		list, total, err := svc.List(ctx, admin.Actor(), Filter{Role: "staff"})
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		assert.Equal(t, student.ID, list[0].ID)
	})

	t.Run("admin cannot change own role or status", func(t *testing.T) {
		_, err := svc.UpdateRole(ctx, admin.Actor(), admin.ID, auth.RoleStudent)
		assert.ErrorIs(t, err, ErrChangeOwnRole)
		_, err = svc.UpdateStatus(ctx, admin.Actor(), admin.ID, StatusSuspended)
		assert.ErrorIs(t, err, ErrChangeOwnStatus)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := svc.UpdateRole(ctx, admin.Actor(), student.ID, auth.Role("dean"))
		var verr *apperror.ValidationError
		assert.ErrorAs(t, err, &verr)
		_, err = svc.UpdateStatus(ctx, admin.Actor(), student.ID, Status("banned"))
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("bulk status update reports each item", func(t *testing.T) {
		missing := uuid.NewString()
		res, err := svc.BulkUpdateStatus(ctx, admin.Actor(), []string{student.ID, missing, admin.ID}, StatusSuspended)
		require.NoError(t, err)
		assert.Equal(t, []string{student.ID}, res.Succeeded)
		require.Len(t, res.Failed, 2)
		assert.Equal(t, missing, res.Failed[0].ID)
		assert.ErrorIs(t, res.Failed[0].Err, ErrNotFound)
		assert.ErrorIs(t, res.Failed[1].Err, ErrChangeOwnStatus)

		stored, err := repo.GetByID(ctx, student.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusSuspended, stored.Status)
	})

	t.Run("bulk update denied for staff", func(t *testing.T) {
		staff := auth.Actor{ID: uuid.NewString(), Role: auth.RoleStaff}
		_, err := svc.BulkUpdateStatus(ctx, staff, []string{student.ID}, StatusActive)
		var perr *apperror.PermissionError
		assert.ErrorAs(t, err, &perr)
	})
}
