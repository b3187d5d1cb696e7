package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

// User is a staff account. Username is unique.
type User struct {
	ID        string    `bson:"_id"       gorm:"primaryKey;size:24"           json:"id"`
	Username  string    `bson:"username"  gorm:"size:100;not null;uniqueIndex" json:"username"`
	Password  string    `bson:"password"  gorm:"size:255;not null"            json:"-"` // bcrypt hash, never serialised
	Role      string    `bson:"role"      gorm:"size:20;not null;index"       json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// ValidRole reports whether role is one the system issues.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleEmployee
}
