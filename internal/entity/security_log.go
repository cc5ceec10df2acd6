package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SecurityAction string

const (
	UserCreated              SecurityAction = "user_created"
	UserSignedIn             SecurityAction = "user_signed_in"
	PhoneCodeSent            SecurityAction = "phone_code_sent"
	PhoneCodeThrottled       SecurityAction = "phone_code_throttled"
	PhoneVerified            SecurityAction = "phone_verified"
	PhoneVerificationFailed  SecurityAction = "phone_verification_failed"
	PhoneVerificationExpired SecurityAction = "phone_verification_expired"
	PhoneCodeRejected        SecurityAction = "phone_code_rejected"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(64);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}

func (l *SecurityLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
