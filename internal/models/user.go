package models

type User struct {
	Username     string `gorm:"primaryKey;size:64" json:"username" dynamodbav:"username"`
	PasswordHash string `gorm:"size:255;not null" json:"-" dynamodbav:"password"`
	Email        string `gorm:"size:100" json:"email" dynamodbav:"email"`
	Role         string `gorm:"size:20;default:'user'" json:"role" dynamodbav:"role"`

	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"createdAt" dynamodbav:"createdAt"`
}
