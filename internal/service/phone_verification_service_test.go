package service

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"smssignup/internal/entity"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestSendCodeCreatesPendingRecord(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "send@example.com")

	v, err := env.phones.SendCode(context.Background(), user, "+1 (555) 123-4567")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, "+15551234567", v.PhoneNumber)
	assert.Equal(t, entity.VerificationPending, v.Status)
	assert.Equal(t, 0, v.Attempts)
	assert.Equal(t, 3, v.MaxAttempts)
	assert.Regexp(t, sixDigits, v.VerificationCode)
	assert.Equal(t, env.clock.Now().Add(15*time.Minute), v.ExpiresAt)
	assert.Nil(t, v.VerifiedAt)

	require.Equal(t, 1, env.sms.count())
	assert.Equal(t, "+15551234567", env.sms.sent[0].Phone)
	assert.Contains(t, env.sms.sent[0].Message, v.VerificationCode)

	stored, err := env.store.Repos().PhoneVerifications.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "SM-test", *stored.SMSServiceID)
	assert.Equal(t, "queued", *stored.SMSServiceStatus)
}

func TestSendCodeWithoutPersistedUser(t *testing.T) {
	env := newTestEnv(t)

	v, err := env.phones.SendCode(context.Background(), nil, "5551234567")
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = env.phones.SendCode(context.Background(), &entity.User{Email: "new@example.com"}, "5551234567")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 0, env.sms.count())
}

func TestSendCodeForUnknownUserFails(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.phones.SendCode(context.Background(), &entity.User{ID: uuid.New()}, "5551234567")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSendCodeRejectsPhoneWiderThanColumn(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "long@example.com")

	_, err := env.phones.SendCode(context.Background(), user, "+1234567890123456789012")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, env.sms.count())

	records, err := env.store.Repos().PhoneVerifications.ListByUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	v, err := env.phones.SendCode(context.Background(), user, "+1234567890123456789")
	require.NoError(t, err)
	assert.Len(t, v.PhoneNumber, MaxPhoneLength)
}

func TestSendCodeThrottlesWithinResendInterval(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "throttle@example.com")
	ctx := context.Background()

	first, err := env.phones.SendCode(ctx, user, "555-123-4567")
	require.NoError(t, err)

	env.clock.Advance(59 * time.Second)
	second, err := env.phones.SendCode(ctx, user, "+1 555 123 4567")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.VerificationCode, second.VerificationCode)
	assert.Equal(t, 1, env.sms.count())

	env.clock.Advance(time.Second)
	third, err := env.phones.SendCode(ctx, user, "5551234567")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 2, env.sms.count())
}

func TestSendCodeRecordsGatewayFailure(t *testing.T) {
	env := newTestEnv(t)
	env.sms.err = errors.New("carrier unreachable")
	user := env.createUser(t, "gateway@example.com")

	v, err := env.phones.SendCode(context.Background(), user, "5551234567")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, entity.VerificationPending, v.Status)
	assert.Equal(t, "failed", *v.SMSServiceStatus)
	assert.Equal(t, "carrier unreachable", *v.ErrorMessage)

	stored, err := env.store.Repos().PhoneVerifications.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "failed", *stored.SMSServiceStatus)
}

func TestVerifyCodeSuccess(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "verify@example.com")
	ctx := context.Background()

	v, err := env.phones.SendCode(ctx, user, "(555) 123-4567")
	require.NoError(t, err)
	env.clock.Advance(2 * time.Minute)

	result, err := env.phones.VerifyCode(ctx, user, "555.123.4567", v.VerificationCode)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, MessageVerified, result.Message)
	require.NotNil(t, result.Verification)
	assert.Equal(t, v.ID, result.Verification.ID)
	assert.Equal(t, entity.VerificationVerified, result.Verification.Status)
	assert.Equal(t, 1, result.Verification.Attempts)
	require.NotNil(t, result.Verification.VerifiedAt)
	assert.Equal(t, env.clock.Now(), *result.Verification.VerifiedAt)

	assert.True(t, user.IsPhoneVerified)
	assert.Equal(t, "+15551234567", user.Phone())

	stored, err := env.store.Repos().Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsPhoneVerified)
	assert.Equal(t, "+15551234567", stored.Phone())
	assert.Equal(t, env.clock.Now(), stored.UpdatedAt)

	again, err := env.phones.VerifyCode(ctx, user, "5551234567", v.VerificationCode)
	require.NoError(t, err)
	assert.False(t, again.Success)
	assert.Equal(t, MessageNoVerification, again.Message)
	assert.Nil(t, again.Verification)
}

func TestVerifyCodeWrongCodesExhaustAttempts(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "wrong@example.com")
	ctx := context.Background()

	v, err := env.phones.SendCode(ctx, user, "5551234567")
	require.NoError(t, err)
	bad := wrongCode(v.VerificationCode)

	result, err := env.phones.VerifyCode(ctx, user, "5551234567", bad)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Invalid code. 2 attempts remaining", result.Message)
	assert.Equal(t, 1, result.Verification.Attempts)
	assert.Equal(t, entity.VerificationPending, result.Verification.Status)

	result, err = env.phones.VerifyCode(ctx, user, "5551234567", bad)
	require.NoError(t, err)
	assert.Equal(t, "Invalid code. 1 attempts remaining", result.Message)
	assert.Equal(t, 2, result.Verification.Attempts)

	result, err = env.phones.VerifyCode(ctx, user, "5551234567", bad)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MessageMaxAttempts, result.Message)
	assert.Equal(t, 3, result.Verification.Attempts)
	assert.Equal(t, entity.VerificationFailed, result.Verification.Status)

	result, err = env.phones.VerifyCode(ctx, user, "5551234567", v.VerificationCode)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MessageNoVerification, result.Message)

	stored, err := env.store.Repos().Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPhoneVerified)
	assert.Nil(t, stored.PhoneNumber)
}

func TestVerifyCodeAfterExpiry(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "expired@example.com")
	ctx := context.Background()

	v, err := env.phones.SendCode(ctx, user, "5551234567")
	require.NoError(t, err)

	env.clock.Advance(15 * time.Minute)
	result, err := env.phones.VerifyCode(ctx, user, "5551234567", wrongCode(v.VerificationCode))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Verification.Attempts, "expiry is exclusive of expires_at itself")

	env.clock.Advance(time.Second)
	result, err = env.phones.VerifyCode(ctx, user, "5551234567", v.VerificationCode)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MessageCodeExpired, result.Message)
	assert.Equal(t, entity.VerificationExpired, result.Verification.Status)
	assert.Equal(t, 1, result.Verification.Attempts)
	assert.Nil(t, result.Verification.VerifiedAt)

	stored, err := env.store.Repos().Users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPhoneVerified)
}

func TestVerifyCodeDefensiveAttemptLimit(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "defensive@example.com")
	ctx := context.Background()

	now := env.clock.Now()
	v := &entity.PhoneVerification{
		UserID:           user.ID,
		PhoneNumber:      "+15551234567",
		VerificationCode: "424242",
		Status:           entity.VerificationPending,
		Attempts:         3,
		MaxAttempts:      3,
		ExpiresAt:        now.Add(time.Minute),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, env.store.Repos().PhoneVerifications.Create(ctx, v))

	result, err := env.phones.VerifyCode(ctx, user, "5551234567", "424242")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, MessageMaxAttempts, result.Message)
	assert.Equal(t, entity.VerificationFailed, result.Verification.Status)
	assert.Equal(t, 3, result.Verification.Attempts)
}

func TestVerifyCodeWithoutPendingRecord(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "none@example.com")

	result, err := env.phones.VerifyCode(context.Background(), user, "5551234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, VerificationResult{Message: MessageNoVerification}, result)
}

func TestVerifyCodeInvalidUser(t *testing.T) {
	env := newTestEnv(t)

	result, err := env.phones.VerifyCode(context.Background(), &entity.User{}, "5551234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, VerificationResult{Message: MessageInvalidUser}, result)

	result, err = env.phones.VerifyCode(context.Background(), nil, "5551234567", "123456")
	require.NoError(t, err)
	assert.Equal(t, MessageInvalidUser, result.Message)
}

func TestIndependentPhoneChains(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "chains@example.com")
	ctx := context.Background()

	home, err := env.phones.SendCode(ctx, user, "5551234567")
	require.NoError(t, err)
	work, err := env.phones.SendCode(ctx, user, "5559876543")
	require.NoError(t, err)
	assert.NotEqual(t, home.ID, work.ID)

	_, err = env.phones.VerifyCode(ctx, user, "5559876543", wrongCode(work.VerificationCode))
	require.NoError(t, err)

	result, err := env.phones.VerifyCode(ctx, user, "5551234567", home.VerificationCode)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "+15551234567", user.Phone())

	workStatus, err := env.phones.GetStatus(ctx, user, "5559876543")
	require.NoError(t, err)
	assert.Equal(t, entity.VerificationPending, workStatus.Status)
	assert.Equal(t, 1, workStatus.Attempts)
}

func TestGetStatusReturnsLatestAnyStatus(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "status@example.com")
	ctx := context.Background()

	none, err := env.phones.GetStatus(ctx, user, "5551234567")
	require.NoError(t, err)
	assert.Nil(t, none)

	v, err := env.phones.SendCode(ctx, user, "5551234567")
	require.NoError(t, err)
	_, err = env.phones.VerifyCode(ctx, user, "+15551234567", v.VerificationCode)
	require.NoError(t, err)

	latest, err := env.phones.GetStatus(ctx, user, "(555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, v.ID, latest.ID)
	assert.Equal(t, entity.VerificationVerified, latest.Status)
}

func TestConcurrentCorrectSubmissionsVerifyOnce(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "race@example.com")
	ctx := context.Background()

	v, err := env.phones.SendCode(ctx, user, "5551234567")
	require.NoError(t, err)

	const workers = 8
	results := make(chan VerificationResult, workers)
	for i := 0; i < workers; i++ {
		go func() {
			caller := *user
			result, err := env.phones.VerifyCode(ctx, &caller, "5551234567", v.VerificationCode)
			if err != nil {
				result.Message = err.Error()
			}
			results <- result
		}()
	}

	successes := 0
	for i := 0; i < workers; i++ {
		if r := <-results; r.Success {
			successes++
		} else {
			assert.Equal(t, MessageNoVerification, r.Message)
		}
	}
	assert.Equal(t, 1, successes)

	stored, err := env.store.Repos().PhoneVerifications.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Attempts)
}

func TestEndToEndScenario(t *testing.T) {
	env := newTestEnv(t)
	user := env.createUser(t, "e2e@example.com")
	ctx := context.Background()

	r1, err := env.phones.SendCode(ctx, user, "+1 (555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, "+15551234567", r1.PhoneNumber)
	assert.Equal(t, entity.VerificationPending, r1.Status)
	assert.Equal(t, 0, r1.Attempts)

	result, err := env.phones.VerifyCode(ctx, user, "+1 (555) 123-4567", wrongCode(r1.VerificationCode))
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, r1.ID, result.Verification.ID)
	assert.Equal(t, "Invalid code. 2 attempts remaining", result.Message)
	assert.Equal(t, 1, result.Verification.Attempts)

	result, err = env.phones.VerifyCode(ctx, user, "+1 (555) 123-4567", r1.VerificationCode)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, r1.ID, result.Verification.ID)
	assert.Equal(t, MessageVerified, result.Message)
	assert.Equal(t, entity.VerificationVerified, result.Verification.Status)
	assert.True(t, user.IsPhoneVerified)
	assert.Equal(t, "+15551234567", user.Phone())

	logs, err := env.store.Repos().SecurityLogs.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	actions := make([]entity.SecurityAction, 0, len(logs))
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []entity.SecurityAction{entity.PhoneCodeSent, entity.PhoneCodeRejected, entity.PhoneVerified}, actions)
}
