package models

type Barber struct {
	BarberID   string     `gorm:"primaryKey;size:64" json:"barberId" dynamodbav:"barberId"`
	Name       string     `gorm:"size:100;not null" json:"name" dynamodbav:"name"`
	ServiceIDs StringList `gorm:"type:text" json:"serviceIds" dynamodbav:"serviceIds"`
	Rating     float64    `json:"rating" dynamodbav:"rating"`
	PhotoURL   string     `gorm:"size:512" json:"photoUrl" dynamodbav:"photoUrl"`

	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"createdAt" dynamodbav:"createdAt"`
}

const DefaultPhotoURL = "https://via.placeholder.com/150"
