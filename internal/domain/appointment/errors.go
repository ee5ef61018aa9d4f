package appointment

import "github.com/BruksfildServices01/barber-agenda/internal/httperr"

const (
	CodeValidation           = "validation_failed"
	CodeInvalidDate          = "invalid_date"
	CodeInvalidTimeRange     = "invalid_time_range"
	CodeInvalidStatus        = "invalid_status"
	CodeInPast               = "appointment_in_past"
	CodeCompletedBeforeStart = "completed_before_start"
	CodeConflict             = "time_conflict"
	CodeBarberNotFound       = "barber_not_found"
	CodeServiceNotFound      = "service_not_found"
	CodeAppointmentNotFound  = "appointment_not_found"
)

var (
	ErrValidation           = httperr.ErrBusiness(CodeValidation)
	ErrInvalidDate          = httperr.ErrBusiness(CodeInvalidDate)
	ErrConflict             = httperr.ErrBusiness(CodeConflict)
	ErrInvalidTimeRange     = httperr.ErrBusiness(CodeInvalidTimeRange)
	ErrInvalidStatus        = httperr.ErrBusiness(CodeInvalidStatus)
	ErrInPast               = httperr.ErrBusiness(CodeInPast)
	ErrCompletedBeforeStart = httperr.ErrBusiness(CodeCompletedBeforeStart)
	ErrBarberNotFound       = httperr.ErrBusiness(CodeBarberNotFound)
	ErrServiceNotFound      = httperr.ErrBusiness(CodeServiceNotFound)
	ErrAppointmentNotFound  = httperr.ErrBusiness(CodeAppointmentNotFound)
)
