package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OAuthProvider string

const (
	OAuthProviderGoogle    OAuthProvider = "google"
	OAuthProviderFacebook  OAuthProvider = "facebook"
	OAuthProviderMicrosoft OAuthProvider = "microsoft"
	OAuthProviderApple     OAuthProvider = "apple"
)

type OAuthAccount struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`

	Provider       OAuthProvider `gorm:"type:varchar(32);not null"`
	ProviderUserID string        `gorm:"type:varchar(255);not null"`
	ProviderEmail  string        `gorm:"type:varchar(255);not null"`

	ProfileData datatypes.JSON

	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (OAuthAccount) TableName() string {
	return "oauth_accounts"
}

func (a *OAuthAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
