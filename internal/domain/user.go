// Package domain defines the records the bot persists.
package domain

import (
	"strings"
	"time"
)

// User is the persisted record of a Telegram user. Name and Lastname are
// optional; records imported before Telegram ids were stored have no UserID.
type User struct {
	UserID    int64     `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	Lastname  string    `bson:"lastname,omitempty" json:"lastname,omitempty"`
	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// FullName joins the non-empty name parts.
func (u User) FullName() string {
	return strings.TrimSpace(strings.Join([]string{u.Name, u.Lastname}, " "))
}
