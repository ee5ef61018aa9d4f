package models

type Service struct {
	ServiceID       string  `gorm:"primaryKey;size:64" json:"serviceId" dynamodbav:"serviceId"`
	Name            string  `gorm:"size:100;not null" json:"name" dynamodbav:"name"`
	Description     string  `gorm:"size:255" json:"description" dynamodbav:"description"`
	Price           float64 `json:"price" dynamodbav:"price"`
	DurationMinutes int     `gorm:"not null" json:"durationMinutes" dynamodbav:"durationMinutes"`

	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"createdAt" dynamodbav:"createdAt"`
}
