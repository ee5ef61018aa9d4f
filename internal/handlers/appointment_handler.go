package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	"github.com/BruksfildServices01/barber-agenda/internal/middleware"
	ucAppointment "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/validators"
)

// ======================================================
// HANDLER
// ======================================================

type AppointmentHandler struct {
	createUC *ucAppointment.CreateAppointment
	updateUC *ucAppointment.UpdateAppointment
	deleteUC *ucAppointment.DeleteAppointment
	getUC    *ucAppointment.GetAppointment
	listUC   *ucAppointment.ListAppointments
}

func NewAppointmentHandler(
	createUC *ucAppointment.CreateAppointment,
	updateUC *ucAppointment.UpdateAppointment,
	deleteUC *ucAppointment.DeleteAppointment,
	getUC *ucAppointment.GetAppointment,
	listUC *ucAppointment.ListAppointments,
) *AppointmentHandler {
	return &AppointmentHandler{
		createUC: createUC,
		updateUC: updateUC,
		deleteUC: deleteUC,
		getUC:    getUC,
		listUC:   listUC,
	}
}

// ======================================================
// REQUESTS
// ======================================================

type CreateAppointmentRequest struct {
	CustomerName  string `json:"customerName"`
	CustomerPhone string `json:"customerPhone"`
	StartTime     int64  `json:"startTime"`
	EndTime       int64  `json:"endTime"`
	Service       string `json:"service"`
	ServiceID     string `json:"serviceId"`
	Notes         string `json:"notes"`
}

// normalizePhone rewrites *phone in place. Empty stays empty.
func normalizePhone(phone *string) bool {
	if phone == nil || *phone == "" {
		return true
	}
	n := validators.NormalizePhone(*phone)
	if n == "" {
		return false
	}
	*phone = n
	return true
}

func queryMillis(c *gin.Context, key string) (*int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// ======================================================
// LIST
// ======================================================

func (h *AppointmentHandler) List(c *gin.Context) {
	startDate, ok1 := queryMillis(c, "startDate")
	endDate, ok2 := queryMillis(c, "endDate")
	if !ok1 || !ok2 {
		badRequest(c, "startDate and endDate must be epoch milliseconds")
		return
	}

	apps, err := h.listUC.Execute(
		c.Request.Context(),
		c.Param("barberId"),
		startDate,
		endDate,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.List(c, "appointments", apps)
}

// ======================================================
// GET
// ======================================================

func (h *AppointmentHandler) Get(c *gin.Context) {
	ap, err := h.getUC.Execute(
		c.Request.Context(),
		c.Param("barberId"),
		c.Param("appointmentId"),
	)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.Item(c, http.StatusOK, "appointment", ap)
}

// ======================================================
// CREATE
// ======================================================

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	if !normalizePhone(&req.CustomerPhone) {
		badRequest(c, "Invalid customer phone")
		return
	}

	ap, err := h.createUC.Execute(c.Request.Context(), ucAppointment.CreateAppointmentInput{
		Actor:         middleware.Actor(c),
		BarberID:      c.Param("barberId"),
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Service:       req.Service,
		ServiceID:     req.ServiceID,
		Notes:         req.Notes,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.Item(c, http.StatusCreated, "appointment", ap)
}

// ======================================================
// UPDATE
// ======================================================

func (h *AppointmentHandler) Update(c *gin.Context) {
	var patch domain.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "Invalid JSON body")
		return
	}

	if !normalizePhone(patch.CustomerPhone) {
		badRequest(c, "Invalid customer phone")
		return
	}

	ap, err := h.updateUC.Execute(
		c.Request.Context(),
		middleware.Actor(c),
		c.Param("barberId"),
		c.Param("appointmentId"),
		patch,
	)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.Item(c, http.StatusOK, "appointment", ap)
}

// ======================================================
// DELETE
// ======================================================

func (h *AppointmentHandler) Delete(c *gin.Context) {
	if err := h.deleteUC.Execute(
		c.Request.Context(),
		middleware.Actor(c),
		c.Param("barberId"),
		c.Param("appointmentId"),
	); err != nil {
		writeError(c, err)
		return
	}

	httpresp.NoContent(c)
}
