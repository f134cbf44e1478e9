package auth

import (
	"fmt"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

// Operation names a mutation gated by the policy table.
type Operation string

const (
	OpCreateBooking     Operation = "create_booking"
	OpCancelBooking     Operation = "cancel_booking"
	OpRescheduleBooking Operation = "reschedule_booking"
	OpConfirmBooking    Operation = "confirm_booking"
	OpCompleteBooking   Operation = "complete_booking"
	OpViewAllBookings   Operation = "view_all_bookings"
	OpCreateResource    Operation = "create_resource"
	OpUpdateResource    Operation = "update_resource"
	OpDeleteResource    Operation = "delete_resource"
	OpUpdateUserRole    Operation = "update_user_role"
	OpUpdateUserStatus  Operation = "update_user_status"
	OpListUsers         Operation = "list_users"
	OpCreateReview      Operation = "create_review"
	OpFlagReview        Operation = "flag_review"
	OpHideReview        Operation = "hide_review"
	OpUnhideReview      Operation = "unhide_review"
	OpListFlaggedReview Operation = "list_flagged_reviews"
	OpSendMessage       Operation = "send_message"
	OpReadThread        Operation = "read_thread"
	OpDeleteMessage     Operation = "delete_message"
)

// rule is one row of the policy table. A non-empty ownerRole lets an actor
// who owns the target through with that lower role.
type rule struct {
	label     string
	minRole   Role
	ownerRole Role
}

var policyTable = map[Operation]rule{
	OpCreateBooking:     {label: "create booking", minRole: RoleStudent},
	OpCancelBooking:     {label: "cancel booking", minRole: RoleStaff, ownerRole: RoleStudent},
	OpRescheduleBooking: {label: "reschedule booking", minRole: RoleStaff, ownerRole: RoleStudent},
	OpConfirmBooking:    {label: "confirm booking", minRole: RoleStaff},
	OpCompleteBooking:   {label: "complete booking", minRole: RoleStaff},
	OpViewAllBookings:   {label: "view all bookings", minRole: RoleStaff},
	OpCreateResource:    {label: "create resource", minRole: RoleStaff},
	OpUpdateResource:    {label: "update resource", minRole: RoleStaff},
	OpDeleteResource:    {label: "delete resource", minRole: RoleAdmin},
	OpUpdateUserRole:    {label: "update user role", minRole: RoleAdmin},
	OpUpdateUserStatus:  {label: "update user status", minRole: RoleAdmin},
	OpListUsers:         {label: "list users", minRole: RoleAdmin},
	OpCreateReview:      {label: "create review", minRole: RoleStudent},
	OpFlagReview:        {label: "flag review", minRole: RoleStudent},
	OpHideReview:        {label: "hide review", minRole: RoleStaff},
	OpUnhideReview:      {label: "unhide review", minRole: RoleStaff},
	OpListFlaggedReview: {label: "list flagged reviews", minRole: RoleStaff},
	OpSendMessage:       {label: "send message", minRole: RoleStudent},
	OpReadThread:        {label: "read message thread", minRole: RoleStaff, ownerRole: RoleStudent},
	OpDeleteMessage:     {label: "delete message", minRole: RoleAdmin, ownerRole: RoleStudent},
}

// OwnerHint tells the policy who owns the target of an operation, if anyone.
type OwnerHint struct {
	OwnerID string
}

// NoTarget is the hint for operations without an owned target.
var NoTarget = OwnerHint{}

// OwnedBy builds a hint for a target owned by userID.
func OwnedBy(userID string) OwnerHint {
	return OwnerHint{OwnerID: userID}
}

// Decision is the outcome of Authorize. A denial is a regular value.
type Decision struct {
	Allowed bool
	Reason  string

	// ViaOwnership is set when the actor passed only because it owns the target.
	ViaOwnership bool

	operation string
	required  Role
	actual    Role
}

// Err converts a denial into a *apperror.PermissionError; it is nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &apperror.PermissionError{
		Operation: d.operation,
		Required:  string(d.required),
		Actual:    string(d.actual),
		Reason:    d.Reason,
	}
}

// Authorize decides whether actor may perform op on target. It never does I/O.
func Authorize(actor Actor, op Operation, target OwnerHint) Decision {
	r, ok := policyTable[op]
	if !ok {
		return Decision{Reason: fmt.Sprintf("unknown operation %q", op), operation: string(op), actual: actor.Role}
	}

	deny := func(reason string) Decision {
		return Decision{Reason: reason, operation: r.label, required: r.minRole, actual: actor.Role}
	}

	if actor.ID == "" {
		return deny("unauthenticated actor")
	}
	if !actor.Role.Valid() {
		return deny(fmt.Sprintf("unknown role %q", actor.Role))
	}

	if HasRole(actor, r.minRole) {
		return Decision{Allowed: true, operation: r.label, required: r.minRole, actual: actor.Role}
	}

	if r.ownerRole != "" && target.OwnerID != "" && target.OwnerID == actor.ID && HasRole(actor, r.ownerRole) {
		return Decision{Allowed: true, ViaOwnership: true, operation: r.label, required: r.ownerRole, actual: actor.Role}
	}

	if r.ownerRole != "" {
		return deny(fmt.Sprintf("%s requires ownership or %s role (actor is %s)", r.label, r.minRole, actor.Role))
	}
	return deny(fmt.Sprintf("%s requires %s role (actor is %s)", r.label, r.minRole, actor.Role))
}

// Owns reports whether actor is the owner named by target.
func Owns(actor Actor, target OwnerHint) bool {
	return target.OwnerID != "" && target.OwnerID == actor.ID
}
