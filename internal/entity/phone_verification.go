package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
	VerificationExpired  VerificationStatus = "expired"
)

func (s VerificationStatus) Terminal() bool {
	return s == VerificationVerified || s == VerificationFailed || s == VerificationExpired
}

type PhoneVerification struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	PhoneNumber      string             `gorm:"type:varchar(20);not null"`
	VerificationCode string             `gorm:"type:varchar(10);not null"`
	Status           VerificationStatus `gorm:"type:varchar(16);not null"`
	Attempts         int                `gorm:"not null"`
	MaxAttempts      int                `gorm:"not null"`

	ExpiresAt  time.Time `gorm:"not null"`
	VerifiedAt *time.Time

	SMSServiceID     *string `gorm:"column:sms_service_id;type:varchar(100)"`
	SMSServiceStatus *string `gorm:"column:sms_service_status;type:varchar(50)"`
	ErrorMessage     *string `gorm:"type:varchar(500)"`

	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (p *PhoneVerification) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *PhoneVerification) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}

func (p *PhoneVerification) AttemptsRemaining() int {
	remaining := p.MaxAttempts - p.Attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}
