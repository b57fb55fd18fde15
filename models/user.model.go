package models

import "time"

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile represents an account in the system
type Profile struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password,omitempty" json:"-"`
	FirstName string    `bson:"first_name" json:"first_name"`
	LastName  string    `bson:"last_name" json:"last_name"`
	Phone     string    `bson:"phone" json:"phone"`
	Role      string    `bson:"role" json:"role"` // "user" or "admin"
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
