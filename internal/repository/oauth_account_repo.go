package repository

import (
	"context"
	"errors"

	"smssignup/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OAuthAccountRepository interface {
	Create(ctx context.Context, account *entity.OAuthAccount) error
	FindByProviderUserID(ctx context.Context, provider entity.OAuthProvider, providerUserID string) (*entity.OAuthAccount, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.OAuthAccount, error)
}

type oauthAccountRepository struct {
	db *gorm.DB
}

func NewOAuthAccountRepository(db *gorm.DB) OAuthAccountRepository {
	return &oauthAccountRepository{db: db}
}

func (r *oauthAccountRepository) Create(ctx context.Context, account *entity.OAuthAccount) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *oauthAccountRepository) FindByProviderUserID(
	ctx context.Context,
	provider entity.OAuthProvider,
	providerUserID string,
) (*entity.OAuthAccount, error) {

	var account entity.OAuthAccount
	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		First(&account).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *oauthAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.OAuthAccount, error) {
	var accounts []entity.OAuthAccount
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
