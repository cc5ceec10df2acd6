package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smssignup/internal/entity"
	"smssignup/internal/repository"
	"smssignup/internal/utils"

	"github.com/sirupsen/logrus"
)

const smsStatusFailed = "failed"

type PhoneVerificationService struct {
	store  repository.Store
	sms    SMSGateway
	clock  Clock
	logger logrus.FieldLogger
	config VerificationConfig

	generateCode func(length int) (string, error)
}

func NewPhoneVerificationService(
	store repository.Store,
	sms SMSGateway,
	clock Clock,
	logger logrus.FieldLogger,
	config VerificationConfig,
) *PhoneVerificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PhoneVerificationService{
		store:        store,
		sms:          sms,
		clock:        clock,
		logger:       logger,
		config:       config,
		generateCode: generateVerificationCode,
	}
}

// SendCode issues a new code for the user's phone, or returns the pending
// record created within the resend interval untouched. A nil result with a
// nil error means the user has no identity yet.
func (s *PhoneVerificationService) SendCode(
	ctx context.Context,
	user *entity.User,
	phoneNumber string,
) (*entity.PhoneVerification, error) {
	if !user.Persisted() {
		return nil, nil
	}
	phone := CanonicalPhone(phoneNumber)
	if len(phone) > MaxPhoneLength {
		return nil, errPhoneTooLong
	}
	logger := s.logger.WithFields(logrus.Fields{"user_id": user.ID, "phone": utils.MaskPhone(phone)})

	var (
		verification *entity.PhoneVerification
		reused       bool
	)
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		owner, err := repos.Users.FindByIDForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}

		now := s.now()
		windowStart := now.Add(-s.resendInterval())
		recent, err := repos.PhoneVerifications.FindLatest(ctx, repository.PhoneVerificationQuery{
			UserID:       user.ID,
			PhoneNumber:  phone,
			Status:       entity.VerificationPending,
			CreatedAfter: &windowStart,
		})
		if err != nil {
			return err
		}
		if recent != nil {
			verification = recent
			reused = true
			return nil
		}

		code, err := s.generateCode(s.codeLength())
		if err != nil {
			return fmt.Errorf("generate verification code: %w", err)
		}
		verification = &entity.PhoneVerification{
			UserID:           user.ID,
			PhoneNumber:      phone,
			VerificationCode: code,
			Status:           entity.VerificationPending,
			Attempts:         0,
			MaxAttempts:      s.maxAttempts(),
			ExpiresAt:        now.Add(s.codeTTL()),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return repos.PhoneVerifications.Create(ctx, verification)
	})
	if err != nil {
		return nil, err
	}

	if reused {
		logger.WithField("verification_id", verification.ID).Info("verification code recently sent, reusing pending request")
		_ = logSecurity(ctx, s.store.Repos().SecurityLogs, s.now(), &user.ID, entity.PhoneCodeThrottled, map[string]any{
			"verification_id": verification.ID.String(),
		})
		return verification, nil
	}

	if err := s.deliver(ctx, verification, logger); err != nil {
		return nil, err
	}
	_ = logSecurity(ctx, s.store.Repos().SecurityLogs, s.now(), &user.ID, entity.PhoneCodeSent, map[string]any{
		"verification_id": verification.ID.String(),
		"sms_status":      stringValue(verification.SMSServiceStatus),
	})
	return verification, nil
}

func (s *PhoneVerificationService) deliver(
	ctx context.Context,
	verification *entity.PhoneVerification,
	logger logrus.FieldLogger,
) error {
	logger = logger.WithField("verification_id", verification.ID)
	message := fmt.Sprintf(s.smsTemplate(), verification.VerificationCode)

	var delivery repository.DeliveryUpdate
	receipt, sendErr := s.send(ctx, verification.PhoneNumber, message)
	if sendErr != nil {
		logger.WithError(sendErr).Warn("sms delivery failed")
		delivery.SMSServiceStatus = stringPtr(smsStatusFailed)
		delivery.ErrorMessage = stringPtr(truncate(sendErr.Error(), 500))
	} else {
		logger.WithField("sms_service_id", receipt.ID).Info("verification code sent")
		if receipt.ID != "" {
			delivery.SMSServiceID = stringPtr(receipt.ID)
		}
		delivery.SMSServiceStatus = stringPtr(receipt.Status)
	}
	delivery.UpdatedAt = s.now()
	if delivery.UpdatedAt.Before(verification.UpdatedAt) {
		delivery.UpdatedAt = verification.UpdatedAt
	}

	if err := s.store.Repos().PhoneVerifications.UpdateDelivery(ctx, verification.ID, delivery); err != nil {
		return fmt.Errorf("record sms delivery: %w", err)
	}
	verification.SMSServiceID = delivery.SMSServiceID
	verification.SMSServiceStatus = delivery.SMSServiceStatus
	verification.ErrorMessage = delivery.ErrorMessage
	verification.UpdatedAt = delivery.UpdatedAt
	return nil
}

func (s *PhoneVerificationService) send(ctx context.Context, phone, message string) (SMSReceipt, error) {
	if s.sms == nil {
		return SMSReceipt{}, ErrSMSNotConfigured
	}
	return s.sms.Send(ctx, phone, message)
}

// VerifyCode checks a submitted code against the most recent pending record
// for the user's phone. Business-rule rejections come back in the result;
// the error is reserved for storage failures. On success the caller's user
// is updated in place to match what was stored.
func (s *PhoneVerificationService) VerifyCode(
	ctx context.Context,
	user *entity.User,
	phoneNumber string,
	code string,
) (VerificationResult, error) {
	if !user.Persisted() {
		return VerificationResult{Message: MessageInvalidUser}, nil
	}
	phone := CanonicalPhone(phoneNumber)

	var (
		result   VerificationResult
		verified *entity.User
	)
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		result = VerificationResult{}
		verified = nil

		verification, err := repos.PhoneVerifications.FindLatest(ctx, repository.PhoneVerificationQuery{
			UserID:      user.ID,
			PhoneNumber: phone,
			Status:      entity.VerificationPending,
			ForUpdate:   true,
		})
		if err != nil {
			return err
		}
		if verification == nil {
			result.Message = MessageNoVerification
			return nil
		}
		result.Verification = verification

		now := s.now()
		if verification.Expired(now) {
			verification.Status = entity.VerificationExpired
			touch(&verification.UpdatedAt, now)
			result.Message = MessageCodeExpired
			return repos.PhoneVerifications.Update(ctx, verification)
		}

		if verification.Attempts >= verification.MaxAttempts {
			verification.Status = entity.VerificationFailed
			touch(&verification.UpdatedAt, now)
			result.Message = MessageMaxAttempts
			return repos.PhoneVerifications.Update(ctx, verification)
		}

		verification.Attempts++
		touch(&verification.UpdatedAt, now)

		if !codesEqual(code, verification.VerificationCode) {
			if verification.Attempts >= verification.MaxAttempts {
				verification.Status = entity.VerificationFailed
				result.Message = MessageMaxAttempts
			} else {
				result.Message = fmt.Sprintf(messageInvalidCode, verification.AttemptsRemaining())
			}
			return repos.PhoneVerifications.Update(ctx, verification)
		}

		owner, err := repos.Users.FindByIDForUpdate(ctx, verification.UserID)
		if err != nil {
			return err
		}
		if owner == nil {
			return ErrUserNotFound
		}

		verification.Status = entity.VerificationVerified
		verifiedAt := now
		verification.VerifiedAt = &verifiedAt
		if err := repos.PhoneVerifications.Update(ctx, verification); err != nil {
			return err
		}

		verifiedPhone := verification.PhoneNumber
		owner.PhoneNumber = &verifiedPhone
		owner.IsPhoneVerified = true
		owner.Touch(now)
		if err := repos.Users.Update(ctx, owner); err != nil {
			return err
		}

		result.Success = true
		result.Message = MessageVerified
		verified = owner
		return nil
	})
	if err != nil {
		return VerificationResult{}, err
	}

	if verified != nil {
		user.PhoneNumber = verified.PhoneNumber
		user.IsPhoneVerified = verified.IsPhoneVerified
		user.UpdatedAt = verified.UpdatedAt
	}
	s.auditVerification(ctx, user, result)
	return result, nil
}

func (s *PhoneVerificationService) auditVerification(ctx context.Context, user *entity.User, result VerificationResult) {
	if result.Verification == nil {
		return
	}
	v := result.Verification
	logger := s.logger.WithFields(logrus.Fields{
		"user_id":         user.ID,
		"verification_id": v.ID,
		"phone":           utils.MaskPhone(v.PhoneNumber),
		"status":          v.Status,
		"attempts":        v.Attempts,
	})

	action := entity.PhoneCodeRejected
	switch v.Status {
	case entity.VerificationVerified:
		action = entity.PhoneVerified
		logger.Info("phone number verified")
	case entity.VerificationExpired:
		action = entity.PhoneVerificationExpired
		logger.Info("verification code expired")
	case entity.VerificationFailed:
		action = entity.PhoneVerificationFailed
		logger.Warn("verification failed after maximum attempts")
	default:
		logger.Info("invalid verification code submitted")
	}
	_ = logSecurity(ctx, s.store.Repos().SecurityLogs, s.now(), &user.ID, action, map[string]any{
		"verification_id": v.ID.String(),
		"attempts":        v.Attempts,
	})
}

// GetStatus returns the most recent record of any status for the user's
// phone, or nil.
func (s *PhoneVerificationService) GetStatus(
	ctx context.Context,
	user *entity.User,
	phoneNumber string,
) (*entity.PhoneVerification, error) {
	if !user.Persisted() {
		return nil, nil
	}
	return s.store.Repos().PhoneVerifications.FindLatest(ctx, repository.PhoneVerificationQuery{
		UserID:      user.ID,
		PhoneNumber: CanonicalPhone(phoneNumber),
	})
}

func (s *PhoneVerificationService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}

func (s *PhoneVerificationService) codeLength() int {
	if s.config.CodeLength > 0 {
		return s.config.CodeLength
	}
	return DefaultCodeLength
}

func (s *PhoneVerificationService) maxAttempts() int {
	if s.config.MaxAttempts > 0 {
		return s.config.MaxAttempts
	}
	return DefaultMaxAttempts
}

func (s *PhoneVerificationService) codeTTL() time.Duration {
	if s.config.CodeTTL > 0 {
		return s.config.CodeTTL
	}
	return DefaultCodeTTL
}

func (s *PhoneVerificationService) resendInterval() time.Duration {
	if s.config.ResendInterval > 0 {
		return s.config.ResendInterval
	}
	return DefaultResendInterval
}

func (s *PhoneVerificationService) smsTemplate() string {
	if strings.Contains(s.config.SMSTemplate, "%s") {
		return s.config.SMSTemplate
	}
	return DefaultSMSTemplate
}

func touch(t *time.Time, now time.Time) {
	if now.After(*t) {
		*t = now
	}
}

func stringPtr(value string) *string {
	return &value
}

func stringValue(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max]
}
