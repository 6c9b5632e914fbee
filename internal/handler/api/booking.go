package api

import (
	"errors"
	"net/http"

	reqdto "villa-booking/internal/handler/dto/request"
	resdto "villa-booking/internal/handler/dto/response"
	"villa-booking/internal/handler/httperr"
	"villa-booking/internal/handler/middleware"
	"villa-booking/internal/usecase/commands"
	"villa-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
)

var (
	errUnauthenticated       = errors.New("no authenticated actor in context")
	errInvalidIdempotencyKey = errors.New("idempotency key must be a UUID")
)

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Reserve a stay. The booking starts pending. Send Idempotency-Key to make retries safe.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Param Idempotency-Key header string false "UUID identifying this request"
// @Param request body reqdto.CreateBookingRequest true "Booking request"
// @Success 201 {object} resdto.CreateBookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 422 {object} httperr.Response
// @Router /resources/{id}/bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	resourceID, ok := parseIDParam(c)
	if !ok {
		return
	}
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	idempotencyKey, err := getIdempotencyKey(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid Idempotency-Key header", nil)
		return
	}
	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}

	result, err := h.cmds.CreateReservation(c.Request.Context(), req.ToInput(resourceID, actor, idempotencyKey))
	if err != nil {
		switch {
		case errors.Is(err, commands.ErrIdempotencyKeyReused):
			httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Idempotency key was used with a different request", nil)
		case errors.Is(err, commands.ErrIdempotencyInProgress):
			httperr.AbortWithError(c, http.StatusConflict, err, "A request with this idempotency key is in progress", nil)
		default:
			httperr.AbortWithUsecaseError(c, err)
		}
		return
	}

	if result.IsReplayed {
		c.Header(IdempotentReplayedHeader, "true")
	}
	c.Header("Location", "/api/bookings/"+result.Booking.ID.String())
	c.JSON(http.StatusCreated, resdto.CreateBookingResponse{
		Booking:    resdto.FromBookingView(&result.Booking),
		TotalPrice: result.TotalPrice,
	})
}

// @Summary List bookings of a resource
// @Description Every booking of the resource, all statuses, ordered by check-in. Owner or admin only.
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 200 {array} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /resources/{id}/bookings [get]
func (h *BookingHandler) ListByResource(c *gin.Context) {
	resourceID, ok := parseIDParam(c)
	if !ok {
		return
	}
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	views, err := h.q.ListByResource(c.Request.Context(), resourceID, actor)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingViews(views))
}

// @Summary Change booking status
// @Description Confirm or cancel a booking. Owner of the resource or admin only.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body reqdto.UpdateBookingStatusRequest true "Target status: confirmed or cancelled"
// @Success 200 {object} resdto.BookingEnvelope
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id}/status [patch]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	bookingID, ok := parseIDParam(c)
	if !ok {
		return
	}
	actor, ok := middleware.GetActor(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized", nil)
		return
	}
	var req reqdto.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return
	}
	view, err := h.cmds.TransitionStatus(c.Request.Context(), bookingID, req.Status, actor)
	if err != nil {
		httperr.AbortWithUsecaseError(c, err)
		return
	}
	c.JSON(http.StatusOK, resdto.BookingEnvelope{Booking: resdto.FromBookingView(view)})
}

func getIdempotencyKey(c *gin.Context) (string, error) {
	keyStr := c.GetHeader(IdempotencyKeyHeader)
	if keyStr == "" {
		return "", nil
	}
	key, err := uuid.Parse(keyStr)
	if err != nil {
		return "", errInvalidIdempotencyKey
	}
	return key.String(), nil
}
