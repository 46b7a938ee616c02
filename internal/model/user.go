package model

import "time"

// User is a customer who submits repair requests. Username is the handle
// tasks refer to.
//
// Fields:
//
//	Username     – unique login handle, stored on Task.Requester.
//	PasswordHash – bcrypt hash, never serialized.
//	Gender       – male, female or other.
//	ProfilePath  – optional stored profile picture.
type User struct {
	ID           uint64    `json:"id"`           // users.id
	Username     string    `json:"username"`     // users.username
	Name         string    `json:"name"`         // users.name
	Email        string    `json:"email"`        // users.email
	Phone        string    `json:"phone"`        // users.phone
	Gender       string    `json:"gender"`       // users.gender
	ProfilePath  *string   `json:"profile_path"` // users.profile_path (nullable)
	PasswordHash string    `json:"-"`            // users.password_hash
	CreatedAt    time.Time `json:"created_at"`   // users.created_at
	UpdatedAt    time.Time `json:"updated_at"`   // users.updated_at
}

// Contact is the slice of a user profile shown next to a task.
type Contact struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// Contact returns the denormalized requester view of u.
func (u *User) Contact() *Contact {
	return &Contact{Username: u.Username, Name: u.Name, Phone: u.Phone, Email: u.Email}
}

// Admin is a back-office operator.
type Admin struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
