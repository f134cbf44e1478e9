package resource

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/campushub/booking-core/internal/auth"
	"github.com/campushub/booking-core/internal/booking"
	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var (
	student = auth.Actor{ID: "u-student", Role: auth.RoleStudent}
	staff   = auth.Actor{ID: "u-staff", Role: auth.RoleStaff}
	admin   = auth.Actor{ID: "u-admin", Role: auth.RoleAdmin}
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, res *Resource) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Resource), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*Resource), args.Int(1), args.Error(2)
}

func (m *MockRepository) Update(ctx context.Context, res *Resource) error {
	args := m.Called(ctx, res)
	return args.Error(0)
}

func intPtr(v int) *int { return &v }

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("student denied", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo)
		_, err := svc.Create(ctx, student, CreateRequest{Name: "Room 101", Category: "study_room"})
		var perr *apperror.PermissionError
		require.ErrorAs(t, err, &perr)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("staff creates draft owned by them", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", ctx, mock.MatchedBy(func(r *Resource) bool {
			return r.OwnerID == staff.ID && r.Status == StatusDraft && r.Name == "Room 101"
		})).Return(nil).Once()

		svc := NewService(repo)
		res, err := svc.Create(ctx, staff, CreateRequest{Name: "  Room 101 ", Category: "study_room", Capacity: intPtr(12)})
		require.NoError(t, err)
		assert.False(t, res.Available())
		repo.AssertExpectations(t)
	})

	validation := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"short name", CreateRequest{Name: "ab", Category: "other"}, ErrInvalidName},
		{"unknown category", CreateRequest{Name: "Lab", Category: "spaceship"}, ErrInvalidCategory},
		{"zero capacity", CreateRequest{Name: "Lab", Category: "other", Capacity: intPtr(0)}, ErrInvalidCapacity},
		{"huge capacity", CreateRequest{Name: "Lab", Category: "other", Capacity: intPtr(10001)}, ErrInvalidCapacity},
		{"negative rate", CreateRequest{Name: "Lab", Category: "other", HourlyRate: func() *float64 { v := -1.0; return &v }()}, ErrInvalidRate},
		{"bad status", CreateRequest{Name: "Lab", Category: "other", Status: "hidden"}, ErrInvalidStatus},
	}
	for _, tt := range validation {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(new(MockRepository))
			_, err := svc.Create(ctx, staff, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)

	res, err := svc.Create(ctx, staff, CreateRequest{Name: "Projector", Category: "equipment"})
	require.NoError(t, err)

	published := StatusPublished
	updated, err := svc.Update(ctx, staff, res.ID, UpdateRequest{Status: &published, Capacity: intPtr(1)})
	require.NoError(t, err)
	assert.True(t, updated.Available())

	_, err = svc.Update(ctx, student, res.ID, UpdateRequest{Status: &published})
	var perr *apperror.PermissionError
	require.ErrorAs(t, err, &perr)

	require.ErrorAs(t, svc.Delete(ctx, staff, res.ID), &perr, "archiving needs admin")
	require.NoError(t, svc.Delete(ctx, admin, res.ID))
	assert.ErrorIs(t, svc.Delete(ctx, admin, res.ID), ErrAlreadyArchived)

	got, err := svc.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, got.Status)

	_, err = svc.Update(ctx, staff, "missing", UpdateRequest{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)

	for _, name := range []string{"Chem Lab", "Study Room A", "Study Room B"} {
		_, err := svc.Create(ctx, staff, CreateRequest{Name: name, Category: "study_room", Capacity: intPtr(len(name)), Status: StatusPublished})
		require.NoError(t, err)
	}

	list, total, err := svc.List(ctx, Filter{Search: "study", SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "Study Room A", list[0].Name)

	_, total, err = svc.List(ctx, Filter{MinCapacity: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	rate := 15.0
	res := &Resource{Name: "Gym", Category: "sports", Status: StatusPublished, Capacity: intPtr(40), HourlyRate: &rate}
	require.NoError(t, repo.Create(ctx, res))

	catalog := NewCatalog(repo)
	got, err := catalog.GetResource(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.Resource{ID: res.ID, Capacity: res.Capacity, Available: true, HourlyRate: &rate}, got)

	_, err = catalog.GetResource(ctx, "missing")
	assert.True(t, errors.Is(err, booking.ErrResourceNotFound))
}
