package domain

import "time"

// Profile is the user document linking an account to a display name.
type Profile struct {
	ID          string    `json:"id" bson:"_id"`
	AccountID   string    `json:"accountId" bson:"account_id"`
	FullName    string    `json:"fullName" bson:"full_name"`
	Email       string    `json:"email" bson:"email"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updated_at"`
	Permissions []string  `json:"permissions" bson:"permissions"`
}
