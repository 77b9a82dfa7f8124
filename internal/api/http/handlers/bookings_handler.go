package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/municipal-booking/internal/api/dto"
	"github.com/civicdesk/municipal-booking/internal/service"
	apperrors "github.com/civicdesk/municipal-booking/pkg/util/errorutil"
)

// BookingsHandler serves citizen and staff booking endpoints.
type BookingsHandler struct {
	facade *service.Orchestrator
}

// NewBookingsHandler constructs handler.
func NewBookingsHandler(facade *service.Orchestrator) *BookingsHandler {
	return &BookingsHandler{facade: facade}
}

// Create POST /api/bookings.
func (h *BookingsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	booking, err := h.facade.CreateBooking(c.UserContext(), service.CreateBookingRequest{
		Description:  req.Description,
		Municipality: req.Municipality,
		Date:         req.Date,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(bookingResponse(booking))
}

// Get GET /api/bookings/:token.
func (h *BookingsHandler) Get(c *fiber.Ctx) error {
	booking, err := h.facade.GetBooking(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(bookingResponse(booking))
}

// List GET /api/bookings?municipality=&status=.
func (h *BookingsHandler) List(c *fiber.Ctx) error {
	bookings, err := h.facade.ListBookings(c.UserContext(), c.Query("municipality"), c.Query("status"))
	if err != nil {
		return err
	}
	return c.JSON(bookingResponses(bookings))
}

// UpdateStatus PUT /api/bookings/:token/status.
func (h *BookingsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	booking, err := h.facade.UpdateBookingStatus(c.UserContext(), c.Params("token"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(bookingResponse(booking))
}

// Cancel PUT /api/bookings/:token/cancel.
func (h *BookingsHandler) Cancel(c *fiber.Ctx) error {
	booking, err := h.facade.CancelBooking(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(bookingResponse(booking))
}

// History GET /api/bookings/:token/history.
func (h *BookingsHandler) History(c *fiber.Ctx) error {
	entries, err := h.facade.BookingHistory(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(historyResponses(entries))
}

// Admission GET /api/admission/:municipality/:date.
func (h *BookingsHandler) Admission(c *fiber.Ctx) error {
	status, err := h.facade.AdmissionStatus(c.UserContext(), c.Params("municipality"), c.Params("date"))
	if err != nil {
		return err
	}
	return c.JSON(dto.AdmissionResponse{
		Municipality: status.Municipality,
		Date:         status.Date.Format("2006-01-02"),
		Admitted:     status.Admitted,
		Limit:        status.Limit,
		Remaining:    status.Remaining,
	})
}
