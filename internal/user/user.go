package user

import (
	"context"
	"time"
)

// User is the platform account record the identity lookup resolves against.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      string    `gorm:"not null;default:CLIENT" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Name returns the display name used as senderName on broadcast messages.
func (u *User) Name() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// Repository is the identity lookup boundary. GetByEmail returns (nil, nil)
// when no user matches.
type Repository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
}
