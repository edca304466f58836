package models

import "time"

// Match records a snake match. Rows are never deleted; status is only ever
// advanced waiting -> playing -> finished by the lifecycle manager (or by the
// reconciler when a record was orphaned by a crash or a failed finish write).
type Match struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	RoomCode  string    `json:"room_code" gorm:"uniqueIndex;size:10;not null"`
	MatchType string    `json:"match_type" gorm:"size:10;default:'1v1'"` // 1v1, 3v3, pve
	Status    string    `json:"status" gorm:"size:20;default:'waiting'"` // waiting, playing, finished
	OwnerID   int64     `json:"owner_id" gorm:"index"`
	CreatedAt time.Time `json:"created_at"`
}

// Score is written exactly once per human participant when a match finishes.
// The signed value matters: pve play can drive a score below zero.
type Score struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	UserID    int64     `json:"user_id" gorm:"index;not null"`
	Score     int       `json:"score" gorm:"default:0"`
	MatchType string    `json:"match_type" gorm:"size:10"`
	CreatedAt time.Time `json:"created_at"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
