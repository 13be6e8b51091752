package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/HOLYLABS972/esim-main-sub001/internal/domain"
)

// User is a storefront buyer. Admin access is a flag on the same record.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Email        string    `bson:"email" json:"email"`
	DisplayName  string    `bson:"displayName,omitempty" json:"display_name,omitempty"`
	IsAdmin      bool      `bson:"isAdmin" json:"is_admin"`
	RegisteredAt time.Time `bson:"registeredAt" json:"registered_at"`
	LastSeenAt   time.Time `bson:"lastSeenAt" json:"last_seen_at"`
}

func NewUser(id, email string) (*User, error) {
	if email == "" {
		return nil, domain.ErrInvalidArgument
	}
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now()
	return &User{ID: id, Email: email, RegisteredAt: now, LastSeenAt: now}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastSeenAt = time.Now() }
