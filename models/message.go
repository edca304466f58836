package models

import "time"

const (
	MsgTypeText   = "text"
	MsgTypeSystem = "system"
)

// Message is a persisted chat message. UserID is nil for system messages.
type Message struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	RoomID    int64     `json:"room_id" gorm:"index;not null"`
	UserID    *int64    `json:"user_id,omitempty" gorm:"index"`
	MsgType   string    `json:"msg_type" gorm:"size:20;default:'text'"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
