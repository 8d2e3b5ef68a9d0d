// Package models defines server-side data models persisted in the database
// and the read projections returned by the services.
package models

// User is a row of the users table.
type User struct {
	ID            int64
	Name          string
	Email         string
	PasswordHash  string
	City          *string
	Country       *string
	AuthToken     *string
	PhotoFilename *string
}

// UserInfo is the public view of a user. Email is only filled for the owner.
type UserInfo struct {
	Name    string  `json:"name"`
	City    *string `json:"city"`
	Country *string `json:"country"`
	Email   string  `json:"email,omitempty"`
}

// Session is returned by a successful login.
type Session struct {
	UserID int64  `json:"userId"`
	Token  string `json:"token"`
}

// UserUpdate holds the merged values written by an edit. Nil Name, Email and
// PasswordHash keep the stored value; City and Country are always written.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
	City         *string
	Country      *string
}

// Category is read-only reference data.
type Category struct {
	ID   int64  `json:"categoryId"`
	Name string `json:"name"`
}
