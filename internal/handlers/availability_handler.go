package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/dto"
	"github.com/BruksfildServices01/barber-agenda/internal/httpresp"
	ucAppointment "github.com/BruksfildServices01/barber-agenda/internal/usecase/appointment"
)

type AvailabilityHandler struct {
	getAvailabilityUC *ucAppointment.GetAvailability
	hours             domain.BusinessHours
	timezone          string
}

func NewAvailabilityHandler(
	getAvailabilityUC *ucAppointment.GetAvailability,
	hours domain.BusinessHours,
	timezone string,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		getAvailabilityUC: getAvailabilityUC,
		hours:             hours,
		timezone:          timezone,
	}
}

// GET /barbers/:barberId/availability?date=YYYY-MM-DD&serviceId=
func (h *AvailabilityHandler) Get(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		badRequest(c, "date is required")
		return
	}

	out, err := h.getAvailabilityUC.Execute(
		c.Request.Context(),
		c.Param("barberId"),
		date,
		c.Query("serviceId"),
	)
	if err != nil {
		writeError(c, err)
		return
	}

	httpresp.OK(c, out)
}

// GET /business-hours
func (h *AvailabilityHandler) BusinessHours(c *gin.Context) {
	days := make([]int, 0, len(h.hours.OpenDays))
	for _, d := range h.hours.OpenDays {
		days = append(days, int(d))
	}

	c.JSON(http.StatusOK, dto.BusinessHoursDTO{
		StartHour:           h.hours.StartHour,
		EndHour:             h.hours.EndHour,
		SlotIntervalMinutes: h.hours.SlotIntervalMinutes,
		OpenDays:            days,
		MaxBookingDaysAhead: h.hours.MaxBookingDaysAhead,
		Timezone:            h.timezone,
		Slots:               domain.GenerateTimeSlots(h.hours),
	})
}
