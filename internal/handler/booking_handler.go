package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type bookingService interface {
	CreateTrialBooking(ctx context.Context, parentID string, req service.CreateTrialBookingRequest) (*models.Booking, error)
	ListParentBookings(ctx context.Context, parentID string) ([]models.Booking, error)
}

// BookingHandler wires parent bookings.
type BookingHandler struct {
	service bookingService
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(svc bookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// CreateTrial godoc
// @Summary Book a course
// @Description Expands the weekly templates into the course's sessions and books them together.
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.CreateTrialBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /bookings/trial [post]
func (h *BookingHandler) CreateTrial(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateTrialBookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	booking, err := h.service.CreateTrialBooking(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// List godoc
// @Summary List own bookings
// @Tags Bookings
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	bookings, err := h.service.ListParentBookings(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}
