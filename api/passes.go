package api

import (
	"net/http"
	"time"

	"github.com/Raja-karthikeya-137/ticketing-system/internal/domain"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/service/booking"
	"github.com/Raja-karthikeya-137/ticketing-system/internal/service/issuance"
	"github.com/gin-gonic/gin"
)

type PassHandler struct {
	issuance issuance.IssuanceUseCase
	booking  booking.BookingUseCase
}

type issueResponse struct {
	PassID    string `json:"pass_id"`
	RecordRef string `json:"record_ref"`
	// QRPNG marshals as base64 PNG bytes, ready for the counter to print.
	QRPNG []byte `json:"qr_png"`
}

type recordRefResponse struct {
	RecordRef string `json:"record_ref"`
}

type applicantResponse struct {
	RecordRef    string `json:"record_ref"`
	PassID       string `json:"pass_id"`
	QRPNG        []byte `json:"qr_png"`
	Phone        string `json:"phone"`
	WhatsApp     string `json:"whatsapp"`
	Number       string `json:"number"`
	Name         string `json:"name"`
	FatherName   string `json:"father_name"`
	DateOfBirth  string `json:"date_of_birth"`
	Gender       string `json:"gender"`
	AgeYears     int    `json:"age_years"`
	AgeMonths    int    `json:"age_months"`
	AgeDays      int    `json:"age_days"`
	Address      string `json:"address"`
	District     string `json:"district"`
	Pincode      string `json:"pincode"`
	PhotoPath    string `json:"photo_path"`
	IDProofPath  string `json:"id_proof_path"`
	PassType     string `json:"pass_type"`
	PaymentMode  string `json:"payment_mode"`
	DeliveryMode string `json:"delivery_mode"`
	Counter      string `json:"counter"`
	CreatedAt    string `json:"created_at"`
}

func NewPassHandler(issuanceSvc issuance.IssuanceUseCase, bookingSvc booking.BookingUseCase) *PassHandler {
	return &PassHandler{issuance: issuanceSvc, booking: bookingSvc}
}

func (h *PassHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.issue)
	router.GET("/by-phone/:phone", h.resolveByPhone)
	router.GET("/record/:ref", h.resolveByRecordRef)
	router.GET("/:passId", h.resolveByPassID)
}

func (h *PassHandler) issue(c *gin.Context) {
	var req issuance.IssueInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	applicant, err := h.issuance.Issue(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, issueResponse{
		PassID:    applicant.PassID,
		RecordRef: applicant.ID.String(),
		QRPNG:     applicant.QRPNG,
	})
}

func (h *PassHandler) resolveByPhone(c *gin.Context) {
	applicant, err := h.booking.ResolveByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, recordRefResponse{RecordRef: applicant.ID.String()})
}

func (h *PassHandler) resolveByRecordRef(c *gin.Context) {
	applicant, err := h.booking.ResolveByRecordRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApplicantResponse(applicant))
}

func (h *PassHandler) resolveByPassID(c *gin.Context) {
	applicant, err := h.booking.ResolveByPassID(c.Request.Context(), c.Param("passId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toApplicantResponse(applicant))
}

func toApplicantResponse(a *domain.Applicant) applicantResponse {
	return applicantResponse{
		RecordRef:    a.ID.String(),
		PassID:       a.PassID,
		QRPNG:        a.QRPNG,
		Phone:        a.Phone,
		WhatsApp:     a.WhatsApp,
		Number:       a.AltNumber,
		Name:         a.Name,
		FatherName:   a.FatherName,
		DateOfBirth:  a.DateOfBirth,
		Gender:       a.Gender,
		AgeYears:     a.AgeYears,
		AgeMonths:    a.AgeMonths,
		AgeDays:      a.AgeDays,
		Address:      a.Address,
		District:     a.District,
		Pincode:      a.Pincode,
		PhotoPath:    a.PhotoPath,
		IDProofPath:  a.IDProofPath,
		PassType:     a.PassType,
		PaymentMode:  a.PaymentMode,
		DeliveryMode: a.DeliveryMode,
		Counter:      a.Counter,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
}
