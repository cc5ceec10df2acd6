package repository

import (
	"context"
	"errors"
	"time"

	"smssignup/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PhoneVerificationQuery selects the newest record for a user and phone.
// Empty Status matches any status.
type PhoneVerificationQuery struct {
	UserID       uuid.UUID
	PhoneNumber  string
	Status       entity.VerificationStatus
	CreatedAfter *time.Time
	ForUpdate    bool
}

type DeliveryUpdate struct {
	SMSServiceID     *string
	SMSServiceStatus *string
	ErrorMessage     *string
	UpdatedAt        time.Time
}

type PhoneVerificationRepository interface {
	Create(ctx context.Context, verification *entity.PhoneVerification) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PhoneVerification, error)
	FindLatest(ctx context.Context, query PhoneVerificationQuery) (*entity.PhoneVerification, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.PhoneVerification, error)
	Update(ctx context.Context, verification *entity.PhoneVerification) error
	UpdateDelivery(ctx context.Context, id uuid.UUID, delivery DeliveryUpdate) error
}

type phoneVerificationRepository struct {
	db *gorm.DB
}

func NewPhoneVerificationRepository(db *gorm.DB) PhoneVerificationRepository {
	return &phoneVerificationRepository{db: db}
}

func (r *phoneVerificationRepository) Create(ctx context.Context, v *entity.PhoneVerification) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *phoneVerificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PhoneVerification, error) {
	var verification entity.PhoneVerification
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&verification).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *phoneVerificationRepository) FindLatest(
	ctx context.Context,
	q PhoneVerificationQuery,
) (*entity.PhoneVerification, error) {

	query := r.db.WithContext(ctx).
		Where("user_id = ? AND phone_number = ?", q.UserID, q.PhoneNumber)
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.CreatedAfter != nil {
		query = query.Where("created_at > ?", *q.CreatedAfter)
	}
	if q.ForUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var verification entity.PhoneVerification
	err := query.Order("created_at DESC").Limit(1).Take(&verification).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *phoneVerificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.PhoneVerification, error) {
	var verifications []entity.PhoneVerification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&verifications).Error
	if err != nil {
		return nil, err
	}
	return verifications, nil
}

func (r *phoneVerificationRepository) Update(ctx context.Context, v *entity.PhoneVerification) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *phoneVerificationRepository) UpdateDelivery(ctx context.Context, id uuid.UUID, d DeliveryUpdate) error {
	return r.db.WithContext(ctx).
		Model(&entity.PhoneVerification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sms_service_id":     d.SMSServiceID,
			"sms_service_status": d.SMSServiceStatus,
			"error_message":      d.ErrorMessage,
			"updated_at":         d.UpdatedAt,
		}).Error
}
