package user

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("user not found")

// User is a credit-holding account keyed by the identity provider's user id.
type User struct {
	ID                 string    `gorm:"column:id;primaryKey;type:varchar(128)" json:"id"`
	Email              string    `gorm:"column:email;uniqueIndex;not null" json:"email"`
	CreditsRemaining   int       `gorm:"column:credits_remaining;not null;default:0" json:"credits_remaining"`
	HasUnlimitedAccess bool      `gorm:"column:has_unlimited_access;not null;default:false" json:"has_unlimited_access"`
	LastCreditReset    time.Time `gorm:"column:last_credit_reset;not null" json:"last_credit_reset"`
	CreatedAt          time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt          time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

// DueForReset reports whether a full day has passed since the last reset.
func (u *User) DueForReset(now time.Time) bool {
	if u == nil {
		return false
	}
	return !now.Before(u.LastCreditReset.Add(24 * time.Hour))
}
