package api

import (
	"context"
	"log/slog"
	"net/http"

	reqdto "toolrental/internal/handler/dto/request"
	resdto "toolrental/internal/handler/dto/response"
	"toolrental/internal/handler/httperr"
	"toolrental/internal/usecase/commands"
	"toolrental/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerIdempotencyKey     = "Idempotency-Key"
	headerIdempotentReplayed = "Idempotent-Replayed"
)

type BookingHandler struct {
	cmds commands.BookingCommands
	q    queries.BookingQueries
}

func NewBookingHandler(cmds commands.BookingCommands, q queries.BookingQueries) *BookingHandler {
	return &BookingHandler{cmds: cmds, q: q}
}

// @Summary Create booking
// @Description Book a quantity of a tool for a rental period. Inventory is reserved atomically.
// @Tags bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Idempotency key (uuid)"
// @Param request body reqdto.CreateBookingRequest true "Create booking request"
// @Success 201 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	idempotencyKey, err := parseIdempotencyKey(c)
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid idempotency key format", nil)
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request", nil)
		return
	}
	in, err := req.ToInput()
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid amount", nil)
		return
	}

	result, err := h.cmds.CreateBooking(c.Request.Context(), in, actor, idempotencyKey)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}

	if result.IsReplayed {
		c.Header(headerIdempotentReplayed, "true")
	}
	h.respondWithBooking(c, http.StatusCreated, result.BookingID)
}

// @Summary Get booking
// @Description Get a booking visible to the caller
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.q.GetByID(c.Request.Context(), viewerFrom(actor), id)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	h.writeBooking(c, http.StatusOK, view)
}

// @Summary List bookings
// @Description Renters see their bookings, providers see bookings for their shops, admins see all
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status"
// @Param limit query int false "Max items (default 20)"
// @Param after query string false "Cursor for keyset pagination"
// @Success 200 {array} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var filter queries.BookingFilter
	if s := c.Query("status"); s != "" {
		filter.Status = &s
	}
	cursor, limit := pageParams(c)

	items, next, err := h.q.List(c.Request.Context(), viewerFrom(actor), filter, cursor, limit)
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	res, err := resdto.FromBookingList(items)
	if err != nil {
		slog.Error("map booking list failed", "error", err)
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	resp := gin.H{"bookings": res}
	if next != nil {
		resp["nextCursor"] = next.After
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Confirm booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/confirm [post]
func (h *BookingHandler) Confirm(c *gin.Context) {
	h.transition(c, h.cmds.ConfirmBooking)
}

// @Summary Cancel booking
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, h.cmds.CancelBooking)
}

// @Summary Mark tool picked up
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id}/pickup [post]
func (h *BookingHandler) Pickup(c *gin.Context) {
	h.transition(c, h.cmds.PickupBooking)
}

// @Summary Mark tool returned
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} resdto.BookingResponse
// @Failure 400 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /bookings/{id}/return [post]
func (h *BookingHandler) Return(c *gin.Context) {
	h.transition(c, h.cmds.ReturnBooking)
}

func (h *BookingHandler) transition(c *gin.Context, fn func(ctx context.Context, id uuid.UUID, actor commands.Actor) error) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), id, actor); err != nil {
		abortWithUseCaseError(c, err)
		return
	}
	h.respondWithBooking(c, http.StatusOK, id)
}

func (h *BookingHandler) respondWithBooking(c *gin.Context, status int, id uuid.UUID) {
	view, err := h.q.GetByIDSystem(c.Request.Context(), id)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Failed to load booking", nil)
		return
	}
	h.writeBooking(c, status, view)
}

func (h *BookingHandler) writeBooking(c *gin.Context, status int, view *queries.BookingView) {
	res, err := resdto.FromBookingView(view)
	if err != nil {
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal error", nil)
		return
	}
	c.JSON(status, res)
}

// parseIdempotencyKey returns nil when the header is absent.
func parseIdempotencyKey(c *gin.Context) (*uuid.UUID, error) {
	keyStr := c.GetHeader(headerIdempotencyKey)
	if keyStr == "" {
		return nil, nil
	}
	key, err := uuid.Parse(keyStr)
	if err != nil {
		return nil, err
	}
	return &key, nil
}
