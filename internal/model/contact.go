package model

import "time"

// Contact is a client record kept in the CRM.
type Contact struct {
	// ID is the internal unique identifier for this contact.
	ID string `json:"id"`

	// Name is the contact's display name.
	Name string `json:"name"`

	// Email is the contact's primary email address. May be empty;
	// only contacts with an address participate in mail correlation.
	Email string `json:"email"`

	// Phone is the contact's phone number.
	Phone string `json:"phone"`

	CreatedAt time.Time `json:"created_at"`
}
