package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/BruksfildServices01/barber-agenda/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-agenda/internal/httperr"
	"github.com/BruksfildServices01/barber-agenda/internal/lock"
	"github.com/BruksfildServices01/barber-agenda/internal/storage"
)

const (
	codeInvalidRequest     = "invalid_request"
	codeNoValidFields      = "no_valid_fields"
	codeInvalidCredentials = "invalid_credentials"
	codeUsernameTaken      = "username_taken"
	codeUserNotFound       = "user_not_found"
	codeInvalidEmailDomain = "invalid_email_domain"
	codePhotosDisabled     = "photo_upload_disabled"
	codeInvalidImage       = "invalid_image"
	codeBusy               = "busy"
	codeInternal           = "internal_error"
)

type errorInfo struct {
	status  int
	message string
}

var businessErrors = map[string]errorInfo{
	domain.CodeValidation:           {http.StatusBadRequest, "Customer name, start time, and end time are required"},
	domain.CodeInvalidDate:          {http.StatusBadRequest, "Date must be formatted as YYYY-MM-DD"},
	domain.CodeInvalidTimeRange:     {http.StatusBadRequest, "End time must be after start time"},
	domain.CodeInvalidStatus:        {http.StatusBadRequest, "Status must be scheduled, completed or cancelled"},
	domain.CodeInPast:               {http.StatusBadRequest, "Scheduled appointments cannot start in the past"},
	domain.CodeCompletedBeforeStart: {http.StatusBadRequest, "Appointments cannot be completed before they start"},
	domain.CodeConflict:             {http.StatusConflict, "Time slot conflicts with existing appointment"},
	domain.CodeBarberNotFound:       {http.StatusNotFound, "Barber not found"},
	domain.CodeServiceNotFound:      {http.StatusNotFound, "Service not found"},
	domain.CodeAppointmentNotFound:  {http.StatusNotFound, "Appointment not found"},
}

// writeError maps use case and storage errors onto the HTTP error body.
func writeError(c *gin.Context, err error) {
	if code := httperr.CodeOf(err); code != "" {
		if info, ok := businessErrors[code]; ok {
			httperr.Write(c, info.status, code, info.message)
			return
		}
		httperr.BadRequest(c, code, code)
		return
	}

	switch {
	case errors.Is(err, lock.ErrBusy):
		httperr.Unavailable(c, codeBusy, "Schedule is busy, try again")
		return
	case errors.Is(err, storage.ErrConflict):
		writeError(c, domain.ErrConflict)
		return
	}

	log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	httperr.Internal(c, codeInternal, "Internal server error")
}

// writeStoreError handles errors of direct store calls; notFound is the
// business error reported for storage.ErrNotFound.
func writeStoreError(c *gin.Context, err error, notFound error) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(c, notFound)
		return
	}
	writeError(c, err)
}

func badRequest(c *gin.Context, message string) {
	httperr.BadRequest(c, codeInvalidRequest, message)
}
