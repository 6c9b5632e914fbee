package httperr

import (
	"errors"
	"net/http"

	"villa-booking/internal/domain/booking"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/shared"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// ConflictDetail names the dates of the booking that blocks a request.
type ConflictDetail struct {
	ConflictFrom string `json:"conflictFrom"`
	ConflictTo   string `json:"conflictTo"`
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

type mapping struct {
	sentinel error
	status   int
	message  string
}

// Checked in order; the first matching mark wins.
var mappings = []mapping{
	{errs.ErrValidation, http.StatusBadRequest, "Invalid request"},
	{errs.ErrInvalidDateRange, http.StatusBadRequest, "Invalid date range"},
	{errs.ErrResourceNotFound, http.StatusNotFound, "Resource not found"},
	{errs.ErrBookingNotFound, http.StatusNotFound, "Booking not found"},
	{errs.ErrDateRangeConflict, http.StatusConflict, "Requested dates are already booked"},
	{errs.ErrResourceNotRentable, http.StatusUnprocessableEntity, "Resource cannot be booked"},
	{errs.ErrUnauthorized, http.StatusForbidden, "Forbidden"},
	{errs.ErrInvalidTransition, http.StatusBadRequest, "Invalid status transition"},
}

// Status reports the HTTP status and public message for a usecase error.
func Status(err error) (int, string) {
	for _, m := range mappings {
		if errs.Is(err, m.sentinel) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

// AbortWithUsecaseError translates a usecase error into the JSON error body.
func AbortWithUsecaseError(c *gin.Context, err error) {
	status, msg := Status(err)

	var detail any
	var conflict *shared.ConflictError
	if status == http.StatusConflict && errors.As(err, &conflict) {
		detail = ConflictDetail{
			ConflictFrom: booking.FormatDate(conflict.From),
			ConflictTo:   booking.FormatDate(conflict.To),
		}
	}
	AbortWithError(c, status, err, msg, detail)
}
