package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

var (
	student = Actor{ID: "u-student", Role: RoleStudent}
	staff   = Actor{ID: "u-staff", Role: RoleStaff}
	admin   = Actor{ID: "u-admin", Role: RoleAdmin}
)

func TestHasRoleIsMonotonic(t *testing.T) {
	for _, actorRole := range Roles {
		a := Actor{ID: "x", Role: actorRole}
		for i, required := range Roles {
			if !HasRole(a, required) {
				continue
			}
			for _, lower := range Roles[:i] {
				assert.True(t, HasRole(a, lower), "%s has %s but not %s", actorRole, required, lower)
			}
		}
	}

	assert.False(t, HasRole(Actor{ID: "x", Role: "guest"}, RoleStudent))
}

func TestAuthorizeTable(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		op      Operation
		target  OwnerHint
		allowed bool
	}{
		{"student creates booking", student, OpCreateBooking, NoTarget, true},
		{"student cancels own booking", student, OpCancelBooking, OwnedBy(student.ID), true},
		{"student cancels other booking", student, OpCancelBooking, OwnedBy("someone"), false},
		{"staff cancels any booking", staff, OpCancelBooking, OwnedBy("someone"), true},
		{"student confirms", student, OpConfirmBooking, NoTarget, false},
		{"staff confirms", staff, OpConfirmBooking, NoTarget, true},
		{"staff completes", staff, OpCompleteBooking, NoTarget, true},
		{"student completes own", student, OpCompleteBooking, OwnedBy(student.ID), false},
		{"staff creates resource", staff, OpCreateResource, NoTarget, true},
		{"student updates resource", student, OpUpdateResource, NoTarget, false},
		{"staff deletes resource", staff, OpDeleteResource, NoTarget, false},
		{"admin deletes resource", admin, OpDeleteResource, NoTarget, true},
		{"staff updates role", staff, OpUpdateUserRole, NoTarget, false},
		{"admin updates status", admin, OpUpdateUserStatus, NoTarget, true},
		{"student flags review", student, OpFlagReview, NoTarget, true},
		{"student hides review", student, OpHideReview, NoTarget, false},
		{"staff hides review", staff, OpHideReview, NoTarget, true},
		{"admin unhides review", admin, OpUnhideReview, NoTarget, true},
		{"student sends message", student, OpSendMessage, NoTarget, true},
		{"participant reads thread", student, OpReadThread, OwnedBy(student.ID), true},
		{"outsider reads thread", student, OpReadThread, NoTarget, false},
		{"staff reads any thread", staff, OpReadThread, NoTarget, true},
		{"sender deletes message", student, OpDeleteMessage, OwnedBy(student.ID), true},
		{"staff deletes other message", staff, OpDeleteMessage, OwnedBy("someone"), false},
		{"admin deletes any message", admin, OpDeleteMessage, OwnedBy("someone"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Authorize(tt.actor, tt.op, tt.target)
			assert.Equal(t, tt.allowed, d.Allowed, d.Reason)
			if tt.allowed {
				assert.NoError(t, d.Err())
			} else {
				assert.NotEmpty(t, d.Reason)
				var permErr *apperror.PermissionError
				require.True(t, errors.As(d.Err(), &permErr))
				assert.Equal(t, string(tt.actor.Role), permErr.Actual)
			}
		})
	}
}

func TestAuthorizeOwnershipFlag(t *testing.T) {
	d := Authorize(student, OpCancelBooking, OwnedBy(student.ID))
	assert.True(t, d.Allowed)
	assert.True(t, d.ViaOwnership)

	d = Authorize(staff, OpCancelBooking, OwnedBy(staff.ID))
	assert.True(t, d.Allowed)
	assert.False(t, d.ViaOwnership, "staff pass on role, not ownership")
}

func TestAuthorizeRejectsMalformedActors(t *testing.T) {
	assert.False(t, Authorize(Actor{Role: RoleAdmin}, OpCreateBooking, NoTarget).Allowed)
	assert.False(t, Authorize(Actor{ID: "x", Role: "root"}, OpCreateBooking, NoTarget).Allowed)
	assert.False(t, Authorize(admin, Operation("launch_rocket"), NoTarget).Allowed)
}

func TestPermissionErrorCarriesRoles(t *testing.T) {
	err := Authorize(student, OpConfirmBooking, NoTarget).Err()

	var permErr *apperror.PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "staff", permErr.Required)
	assert.Equal(t, "student", permErr.Actual)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("  Staff ")
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, r)

	_, err = ParseRole("owner")
	assert.Error(t, err)
}

func TestSystemActor(t *testing.T) {
	sys := System()
	assert.True(t, sys.IsSystem())
	assert.True(t, Authorize(sys, OpCompleteBooking, NoTarget).Allowed)
	assert.False(t, admin.IsSystem())
}
