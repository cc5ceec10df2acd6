package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"smssignup/internal/entity"
	"smssignup/internal/repository"
	"smssignup/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type IdentityService struct {
	store     repository.Store
	exchanger IdentityExchanger
	tokens    AccessTokenIssuer
	clock     Clock
	logger    logrus.FieldLogger
	validate  *validator.Validate
}

func NewIdentityService(
	store repository.Store,
	exchanger IdentityExchanger,
	tokens AccessTokenIssuer,
	clock Clock,
	logger logrus.FieldLogger,
) *IdentityService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &IdentityService{
		store:     store,
		exchanger: exchanger,
		tokens:    tokens,
		clock:     clock,
		logger:    logger,
		validate:  validator.New(),
	}
}

func (s *IdentityService) AuthURL(state string) string {
	return s.exchanger.AuthCodeURL(state)
}

// SignIn completes the authorization-code flow: exchange, profile fetch,
// user resolution and access token issue.
func (s *IdentityService) SignIn(ctx context.Context, code string) (*SignInResult, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidInput
	}
	tokens, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityExchange, err)
	}
	profile, err := s.exchanger.FetchProfile(ctx, tokens.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityExchange, err)
	}

	user, created, err := s.resolve(ctx, profile, s.exchanger.Provider())
	if err != nil {
		return nil, err
	}

	accessToken, expiresIn, err := s.tokens.IssueAccessToken(*user)
	if err != nil {
		return nil, err
	}

	_ = logSecurity(ctx, s.store.Repos().SecurityLogs, s.now(), &user.ID, entity.UserSignedIn, map[string]any{
		"provider": string(s.exchanger.Provider()),
		"created":  created,
	})
	return &SignInResult{
		User:        user,
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		NextStep:    NextStep(user),
		Created:     created,
	}, nil
}

// CreateOrUpdateUser finds the user by the profile's email or creates one
// together with its linked provider account.
func (s *IdentityService) CreateOrUpdateUser(
	ctx context.Context,
	profile *OAuthProfile,
	provider entity.OAuthProvider,
) (*entity.User, error) {
	user, _, err := s.resolve(ctx, profile, provider)
	return user, err
}

func (s *IdentityService) resolve(
	ctx context.Context,
	profile *OAuthProfile,
	provider entity.OAuthProvider,
) (*entity.User, bool, error) {
	if profile == nil {
		return nil, false, ErrInvalidInput
	}
	email := utils.NormalizeEmail(profile.Email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, false, fmt.Errorf("%w: provider returned an invalid email", ErrInvalidInput)
	}

	user, created, err := s.resolveOnce(ctx, email, profile, provider)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// lost a race with a concurrent first sign-in for the same email
		user, created, err = s.resolveOnce(ctx, email, profile, provider)
	}
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.WithFields(logrus.Fields{"user_id": user.ID, "provider": provider}).Info("user created")
		_ = logSecurity(ctx, s.store.Repos().SecurityLogs, s.now(), &user.ID, entity.UserCreated, map[string]any{
			"provider": string(provider),
		})
	}
	return user, created, nil
}

func (s *IdentityService) resolveOnce(
	ctx context.Context,
	email string,
	profile *OAuthProfile,
	provider entity.OAuthProvider,
) (*entity.User, bool, error) {
	var (
		userID  uuid.UUID
		created bool
	)
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		now := s.now()
		existing, err := repos.Users.FindByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			userID = existing.ID
			if !reportsGivenName(profile) || profile.GivenName == existing.FirstName {
				return nil
			}
			existing.FirstName = profile.GivenName
			existing.Touch(now)
			return repos.Users.Update(ctx, existing)
		}

		user := &entity.User{
			Email:     email,
			FirstName: profile.GivenName,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repos.Users.Create(ctx, user); err != nil {
			return err
		}

		payload, err := profilePayload(profile)
		if err != nil {
			return err
		}
		account := &entity.OAuthAccount{
			UserID:         user.ID,
			Provider:       provider,
			ProviderUserID: profile.ExternalID,
			ProviderEmail:  email,
			ProfileData:    payload,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := repos.OAuthAccounts.Create(ctx, account); err != nil {
			return err
		}
		userID = user.ID
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	user, err := s.store.Repos().Users.FindByID(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, ErrUserNotFound
	}
	return user, created, nil
}

// reportsGivenName treats a non-empty name as reported even when the
// exchanger did not set GivenNameSet.
func reportsGivenName(profile *OAuthProfile) bool {
	return profile.GivenNameSet || profile.GivenName != ""
}

func profilePayload(profile *OAuthProfile) (datatypes.JSON, error) {
	raw := profile.Raw
	if raw == nil {
		raw = map[string]any{
			"id":             profile.ExternalID,
			"email":          profile.Email,
			"verified_email": profile.EmailVerified,
			"name":           profile.Name,
			"given_name":     profile.GivenName,
			"family_name":    profile.FamilyName,
			"picture":        profile.Picture,
		}
	}
	bytes, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(bytes), nil
}

func (s *IdentityService) now() time.Time {
	if s.clock == nil {
		return time.Now()
	}
	return s.clock.Now()
}
