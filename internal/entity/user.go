package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName       string    `gorm:"type:varchar(100);not null"`
	PhoneNumber     *string   `gorm:"type:varchar(20)"`
	IsPhoneVerified bool      `gorm:"not null"`
	IsActive        bool      `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`

	OAuthAccounts      []OAuthAccount      `gorm:"-"`
	PhoneVerifications []PhoneVerification `gorm:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Persisted reports whether the user has been assigned an identity by storage.
func (u *User) Persisted() bool {
	return u != nil && u.ID != uuid.Nil
}

func (u *User) Phone() string {
	if u == nil || u.PhoneNumber == nil {
		return ""
	}
	return *u.PhoneNumber
}

func (u *User) HasVerifiedPhone() bool {
	return u != nil && u.IsPhoneVerified && strings.TrimSpace(u.Phone()) != ""
}

// Touch moves UpdatedAt forward to now, never backwards.
func (u *User) Touch(now time.Time) {
	if now.After(u.UpdatedAt) {
		u.UpdatedAt = now
	}
}
