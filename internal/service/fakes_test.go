package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"smssignup/internal/entity"
	"smssignup/internal/repository/memory"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type sentSMS struct {
	Phone   string
	Message string
}

type fakeSMSGateway struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (g *fakeSMSGateway) Send(ctx context.Context, phone string, message string) (SMSReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return SMSReceipt{}, g.err
	}
	g.sent = append(g.sent, sentSMS{Phone: phone, Message: message})
	return SMSReceipt{ID: "SM-test", Status: "queued"}, nil
}

func (g *fakeSMSGateway) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sent)
}

type fakeExchanger struct {
	profile     *OAuthProfile
	exchangeErr error
	codes       []string
}

func (f *fakeExchanger) Provider() entity.OAuthProvider { return entity.OAuthProviderGoogle }

func (f *fakeExchanger) AuthCodeURL(state string) string { return "https://idp.test/auth?state=" + state }

func (f *fakeExchanger) Exchange(ctx context.Context, code string) (*OAuthTokens, error) {
	f.codes = append(f.codes, code)
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &OAuthTokens{AccessToken: "access-" + code}, nil
}

func (f *fakeExchanger) FetchProfile(ctx context.Context, accessToken string) (*OAuthProfile, error) {
	if f.profile == nil {
		return nil, errors.New("no profile")
	}
	return f.profile, nil
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) IssueAccessToken(user entity.User) (string, time.Duration, error) {
	return "token-" + user.ID.String(), time.Hour, nil
}

type testEnv struct {
	store  *memory.Store
	clock  *fakeClock
	sms    *fakeSMSGateway
	logs   *test.Hook
	phones *PhoneVerificationService
	users  *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := newFakeClock()
	store := memory.NewStore().WithClock(clock.Now)
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	sms := &fakeSMSGateway{}
	return &testEnv{
		store:  store,
		clock:  clock,
		sms:    sms,
		logs:   hook,
		phones: NewPhoneVerificationService(store, sms, clock, logger, VerificationConfig{}),
		users:  NewUserService(store, clock),
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *entity.User {
	t.Helper()
	user := &entity.User{Email: email, FirstName: "Grace", IsActive: true}
	require.NoError(t, e.store.Repos().Users.Create(context.Background(), user))
	return user
}

func newNullLogger() (*logrus.Logger, *test.Hook) {
	return test.NewNullLogger()
}
