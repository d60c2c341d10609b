package api

import (
	"net/http"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service booking.BookingUseCase
}

type ticketResponse struct {
	ID           string  `json:"id"`
	ApplicantRef string  `json:"applicant_ref"`
	Source       string  `json:"source"`
	Destination  string  `json:"destination"`
	PaymentType  string  `json:"payment_type"`
	Amount       float64 `json:"amount"`
	BookedAt     string  `json:"booked_at"`
}

func NewTicketHandler(service booking.BookingUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.book)
	router.GET("/applicant/:ref", h.listByApplicant)
}

func (h *TicketHandler) book(c *gin.Context) {
	var req booking.BookTicketInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.service.BookTicket(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toTicketResponse(ticket))
}

func (h *TicketHandler) listByApplicant(c *gin.Context) {
	tickets, err := h.service.ListTickets(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]ticketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, toTicketResponse(&tickets[i]))
	}
	c.JSON(http.StatusOK, out)
}

func toTicketResponse(t *domain.Ticket) ticketResponse {
	return ticketResponse{
		ID:           t.ID.String(),
		ApplicantRef: t.ApplicantID.String(),
		Source:       t.Source,
		Destination:  t.Destination,
		PaymentType:  string(t.PaymentType),
		Amount:       t.Amount,
		BookedAt:     t.BookedAt.Format(time.RFC3339),
	}
}
