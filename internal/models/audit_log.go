package models

type AuditLog struct {
	ID string `gorm:"primaryKey;size:64" json:"id" dynamodbav:"id"`

	Actor  string `gorm:"size:64" json:"actor" dynamodbav:"actor"`
	Action string `gorm:"size:50;not null" json:"action" dynamodbav:"action"`

	Entity   string `gorm:"size:50" json:"entity" dynamodbav:"entity"`
	EntityID string `gorm:"size:64" json:"entityId" dynamodbav:"entityId"`
	Metadata string `gorm:"type:text" json:"metadata" dynamodbav:"metadata"`

	CreatedAt int64 `gorm:"autoCreateTime:milli" json:"createdAt" dynamodbav:"createdAt"`
}
