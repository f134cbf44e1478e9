package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/booking-core/internal/pkg/apperror"
)

// ErrorResponse defines the JSON structure for error responses.
// Optional fields carry the structured part of the typed domain errors so
// clients can render them without parsing the message.
type ErrorResponse struct {
	Error                 string            `json:"error"`
	FieldErrors           map[string]string `json:"field_errors,omitempty"`
	ConflictingBookingIDs []string          `json:"conflicting_booking_ids,omitempty"`
	RequiredRole          string            `json:"required_role,omitempty"`
	CurrentStatus         string            `json:"current_status,omitempty"`
}

// Error sends a JSON error response.
// Typed domain errors and AppError pick their own status code; anything else
// is reported as 500 without leaking the internal message.
func Error(c *gin.Context, err error) {
	var (
		validationErr *apperror.ValidationError
		conflictErr   *apperror.ConflictError
		permissionErr *apperror.PermissionError
		stateErr      *apperror.InvalidStateError
		coder         apperror.StatusCoder
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(validationErr.HTTPStatus(), ErrorResponse{Error: "validation failed", FieldErrors: validationErr.FieldErrors})
	case errors.As(err, &conflictErr):
		c.JSON(conflictErr.HTTPStatus(), ErrorResponse{Error: conflictErr.Error(), ConflictingBookingIDs: conflictErr.BookingIDs})
	case errors.As(err, &permissionErr):
		c.JSON(permissionErr.HTTPStatus(), ErrorResponse{Error: permissionErr.Error(), RequiredRole: permissionErr.Required})
	case errors.As(err, &stateErr):
		c.JSON(stateErr.HTTPStatus(), ErrorResponse{Error: stateErr.Error(), CurrentStatus: stateErr.Current})
	case errors.As(err, &coder):
		c.JSON(coder.HTTPStatus(), ErrorResponse{Error: err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

// BadRequest sends a 400 for malformed input that never reached the domain.
func BadRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
