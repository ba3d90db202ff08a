package handlers

import (
	"net/http"

	"github.com/farellandr/hydrovibe/internal/helpers"
	"github.com/farellandr/hydrovibe/internal/middleware"
	"github.com/farellandr/hydrovibe/internal/services"
	"github.com/gin-gonic/gin"
)

type ValidateTicketRequest struct {
	Payload string `json:"payload" binding:"required"`
}

func BookTickets(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	var input services.BookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindingError(c, svc, err)
		return
	}

	result, err := svc.Bookings.CreateBooking(c.Request.Context(), middleware.GetUserID(c), input)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Booking created. Complete the payment to confirm your tickets.",
		"booking_id":   result.BookingID,
		"reference":    result.Reference,
		"payment_link": result.PaymentLink,
		"amount":       result.Amount,
	})
}

func ListUserBookings(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	page, limit := helpers.Pagination(c, 10, 50)
	bookings, total, err := svc.Bookings.ListBookings(c.Request.Context(), middleware.GetUserID(c), page, limit)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"total":    total,
		"page":     page,
		"limit":    limit,
	})
}

func GetTicketImage(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	png, err := svc.Bookings.TicketImage(c.Request.Context(), middleware.GetUserID(c), c.Param("reference"))
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func ValidateTicket(c *gin.Context) {
	svc, ok := getServices(c)
	if !ok {
		return
	}

	var req ValidateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, svc, err)
		return
	}

	payload, err := svc.Tickets.Verify(req.Payload)
	if err != nil {
		helpers.RespondWithAppError(c, svc.Logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":  true,
		"ticket": payload,
	})
}
