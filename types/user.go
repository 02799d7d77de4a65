package types

import "time"

// User represents an activated account.
// It contains identity, profile, feed preferences, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id" db:"id"`

	// Email is the unique address the account was activated with.
	// It is compared case-sensitively, exactly as stored.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Phone     string `json:"phone" db:"phone"`

	// DOB is the date of birth exactly as supplied at registration.
	DOB string `json:"dob" db:"dob"`

	// Preferences are the tags used to filter the personalized feed.
	Preferences []string `json:"preferences" db:"preferences"`

	// CreatedAt is the timestamp when the account was activated.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent profile update.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PendingUser is the registration payload carried inside an activation
// envelope until the email address is confirmed. Password is still plaintext
// here; it is hashed only when the account is persisted.
type PendingUser struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Phone       string   `json:"phone"`
	Email       string   `json:"email"`
	DOB         string   `json:"dob"`
	Password    string   `json:"password"`
	Preferences []string `json:"preferences"`
}

// AuthorSummary is the public part of a user shown next to their articles.
type AuthorSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}
