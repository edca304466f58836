package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the chat/game identity. The realtime core only ever reads the
// nickname and avatar; everything else belongs to the account surface.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:64;not null"`
	Nickname     string    `json:"nickname" gorm:"size:64"`
	UserCode     string    `json:"user_code" gorm:"uniqueIndex;size:10;not null"` // short numeric handle for friend search
	Avatar       string    `json:"avatar" gorm:"size:256"`
	PasswordHash string    `json:"-" gorm:"size:128"`
	IsBanned     bool      `json:"is_banned" gorm:"default:false"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// DisplayName prefers the nickname and falls back to the login name.
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	return u.Username
}

// Session is a server-issued login token. WebSocket upgrades and REST calls
// both present it; expired rows are ignored and lazily deleted.
type Session struct {
	Token     string    `json:"token" gorm:"primaryKey;size:64"`
	UserID    int64     `json:"user_id" gorm:"index;not null"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
