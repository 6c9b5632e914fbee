package errs

// Sentinels shared by the command and query sides. Handlers translate them to
// HTTP statuses; wrap causes onto them with Mark.
var (
	// Request errors
	ErrValidation       = New("validation failed")
	ErrInvalidDateRange = New("invalid date range")

	// Lookup errors
	ErrResourceNotFound = New("resource not found")
	ErrBookingNotFound  = New("booking not found")

	// Booking rule errors
	ErrDateRangeConflict   = New("date range conflict")
	ErrResourceNotRentable = New("resource is not rentable")
	ErrUnauthorized        = New("actor is not allowed to perform this action")
	ErrInvalidTransition   = New("invalid status transition")

	// Infrastructure errors
	ErrInternal = New("internal error")
)
