package models

// Appointment times are epoch milliseconds; [StartTime, EndTime) is half-open.
type Appointment struct {
	AppointmentID string `gorm:"primaryKey;size:64" json:"appointmentId" dynamodbav:"appointmentId"`
	BarberID      string `gorm:"size:64;not null;index:idx_appointments_barber_start,priority:1" json:"barberId" dynamodbav:"barberId"`

	CustomerName  string `gorm:"size:100;not null" json:"customerName" dynamodbav:"customerName"`
	CustomerPhone string `gorm:"size:20" json:"customerPhone" dynamodbav:"customerPhone"`

	StartTime int64 `gorm:"not null;index:idx_appointments_barber_start,priority:2" json:"startTime" dynamodbav:"startTime"`
	EndTime   int64 `gorm:"not null" json:"endTime" dynamodbav:"endTime"`

	Service   string `gorm:"size:100" json:"service" dynamodbav:"service"`
	ServiceID string `gorm:"size:64" json:"serviceId,omitempty" dynamodbav:"serviceId,omitempty"`
	Notes     string `gorm:"size:255" json:"notes" dynamodbav:"notes"`
	Status    string `gorm:"size:20;default:'scheduled'" json:"status" dynamodbav:"status"`

	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt int64 `gorm:"autoUpdateTime:milli" json:"updatedAt,omitempty" dynamodbav:"updatedAt,omitempty"`
}

const DefaultServiceTitle = "Haircut"
