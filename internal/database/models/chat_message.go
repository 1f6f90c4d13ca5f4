package models

import "github.com/google/uuid"

// ChatMessage is one side of a chat turn. Rows are append-only: every turn
// produces one row with IsFromUser=true and one with IsFromUser=false.
type ChatMessage struct {
	Base
	Message    string    `gorm:"type:text;not null" json:"message"`
	IsFromUser bool      `gorm:"not null" json:"is_from_user"`
	OwnerID    uuid.UUID `gorm:"type:uuid;index;not null" json:"owner_id"`

	Owner *User `gorm:"foreignKey:OwnerID" json:"-"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
