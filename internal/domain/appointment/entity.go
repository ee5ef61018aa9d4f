package appointment

import "github.com/BruksfildServices01/barber-agenda/internal/models"

// Patch is a partial update. Nil fields are left alone; empty names,
// services and statuses and zero times are ignored too.
type Patch struct {
	CustomerName  *string `json:"customerName"`
	CustomerPhone *string `json:"customerPhone"`
	StartTime     *int64  `json:"startTime"`
	EndTime       *int64  `json:"endTime"`
	Service       *string `json:"service"`
	ServiceID     *string `json:"serviceId"`
	Notes         *string `json:"notes"`
	Status        *string `json:"status"`
}

func (p Patch) ChangesTime() bool {
	return (p.StartTime != nil && *p.StartTime != 0) ||
		(p.EndTime != nil && *p.EndTime != 0)
}

func (p Patch) ChangesStatus() bool {
	return p.Status != nil && *p.Status != ""
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

func ApplyPatch(ap *models.Appointment, p Patch) {
	if p.CustomerName != nil && *p.CustomerName != "" {
		ap.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		ap.CustomerPhone = *p.CustomerPhone
	}
	if p.StartTime != nil && *p.StartTime != 0 {
		ap.StartTime = *p.StartTime
	}
	if p.EndTime != nil && *p.EndTime != 0 {
		ap.EndTime = *p.EndTime
	}
	if p.Service != nil && *p.Service != "" {
		ap.Service = *p.Service
	}
	if p.ServiceID != nil {
		ap.ServiceID = *p.ServiceID
	}
	if p.Notes != nil {
		ap.Notes = *p.Notes
	}
	if p.Status != nil && *p.Status != "" {
		ap.Status = *p.Status
	}
}
