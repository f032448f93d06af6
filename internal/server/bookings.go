package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	bookingdomain "github.com/smallbiznis/clubos/internal/booking/domain"
)

// LookupBooking resolves a booking by id across all facilities.
func (s *Server) LookupBooking(c *gin.Context) {
	bookingID := strings.TrimSpace(c.Query("booking_id"))
	if bookingID == "" {
		AbortWithError(c, newValidationError("booking_id", "required", "booking_id is required"))
		return
	}

	booking, err := s.bookings.FindByID(c.Request.Context(), bookingID)
	s.respondBooking(c, booking, err)
}

// LookupBookingBySession resolves a booking from the checkout session id the payment page was given.
func (s *Server) LookupBookingBySession(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query("session_id"))
	if sessionID == "" {
		AbortWithError(c, newValidationError("session_id", "required", "session_id is required"))
		return
	}

	booking, err := s.bookings.FindBySessionID(c.Request.Context(), sessionID)
	s.respondBooking(c, booking, err)
}

func (s *Server) GetBackofficeBooking(c *gin.Context) {
	booking, err := s.bookings.FindByID(c.Request.Context(), c.Param("bookingId"))
	s.respondBooking(c, booking, err)
}

func (s *Server) CurrentActor(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, actor)
}

func (s *Server) respondBooking(c *gin.Context, booking *bookingdomain.Booking, err error) {
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if booking == nil {
		AbortWithError(c, bookingdomain.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, booking)
}
