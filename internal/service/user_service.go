package service

import (
	"context"
	"strings"
	"time"

	"smssignup/internal/dto"
	"smssignup/internal/entity"
	"smssignup/internal/repository"
	"smssignup/internal/utils"

	"github.com/google/uuid"
)

type UserService struct {
	store repository.Store
	clock Clock
}

func NewUserService(store repository.Store, clock Clock) *UserService {
	return &UserService{store: store, clock: clock}
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return s.store.Repos().Users.FindByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	email = utils.NormalizeEmail(email)
	if email == "" {
		return nil, nil
	}
	return s.store.Repos().Users.FindByEmail(ctx, email)
}

// UpdatePhone sets the phone fields directly, outside the verification flow.
// A missing user yields (nil, nil). A verified flag needs a phone number.
func (s *UserService) UpdatePhone(
	ctx context.Context,
	userID uuid.UUID,
	phoneNumber string,
	verified bool,
) (*entity.User, error) {
	if verified && strings.TrimSpace(phoneNumber) == "" {
		return nil, ErrInvalidInput
	}
	if len(phoneNumber) > MaxPhoneLength {
		return nil, errPhoneTooLong
	}
	var updated *entity.User
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		user, err := repos.Users.FindByIDForUpdate(ctx, userID)
		if err != nil || user == nil {
			return err
		}
		if strings.TrimSpace(phoneNumber) == "" {
			user.PhoneNumber = nil
		} else {
			phone := phoneNumber
			user.PhoneNumber = &phone
		}
		user.IsPhoneVerified = verified
		user.Touch(s.now())
		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *UserService) ComputeProfile(user *entity.User) dto.MobileUserProfile {
	status := entity.VerificationPending
	if user.IsPhoneVerified {
		status = entity.VerificationVerified
	}
	return dto.MobileUserProfile{
		FirstName:          user.FirstName,
		Email:              user.Email,
		PhoneNumber:        user.PhoneNumber,
		VerificationStatus: status,
		SignupCompleted:    user.Phone() != "" && user.IsPhoneVerified,
		CreatedDate:        user.CreatedAt.Format(time.RFC3339),
	}
}

func (s *UserService) IsSignupComplete(user *entity.User) bool {
	if user == nil {
		return false
	}
	return strings.TrimSpace(user.Email) != "" &&
		strings.TrimSpace(user.FirstName) != "" &&
		strings.TrimSpace(user.Phone()) != "" &&
		user.IsPhoneVerified
}

func (s *UserService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
