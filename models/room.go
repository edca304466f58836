package models

import "time"

// Room is a persisted chat room. Game rooms are NOT rows here; they live in
// the in-memory session directory and are backed by a Match record instead.
type Room struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:64;not null"`
	Slug         string    `json:"slug" gorm:"index;size:80"` // URL-safe search handle derived from the name
	Code         string    `json:"code" gorm:"uniqueIndex;size:10"`
	OwnerID      int64     `json:"owner_id" gorm:"index"`
	Announcement string    `json:"announcement,omitempty" gorm:"type:text"`
	IsBanned     bool      `json:"is_banned" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`

	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// RoomMember ties a user to a chat room; chat fan-out targets members only.
type RoomMember struct {
	ID       int64     `json:"id" gorm:"primaryKey"`
	UserID   int64     `json:"user_id" gorm:"index;not null;uniqueIndex:idx_room_member"`
	RoomID   int64     `json:"room_id" gorm:"index;not null;uniqueIndex:idx_room_member"`
	JoinedAt time.Time `json:"joined_at" gorm:"autoCreateTime"`
}
