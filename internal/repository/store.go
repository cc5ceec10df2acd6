package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repositories struct {
	Users              UserRepository
	PhoneVerifications PhoneVerificationRepository
	OAuthAccounts      OAuthAccountRepository
	SecurityLogs       SecurityLogRepository
}

// Store hands out repositories, either bound to the connection pool or to a
// single transaction. Transaction commits when fn returns nil and rolls back
// otherwise.
type Store interface {
	Repos() Repositories
	Transaction(ctx context.Context, fn func(repos Repositories) error) error
	Ping(ctx context.Context) error
}

type gormStore struct {
	db    *gorm.DB
	repos Repositories
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db, repos: newRepositories(db)}
}

func newRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:              NewUserRepository(db),
		PhoneVerifications: NewPhoneVerificationRepository(db),
		OAuthAccounts:      NewOAuthAccountRepository(db),
		SecurityLogs:       NewSecurityLogRepository(db),
	}
}

func (s *gormStore) Repos() Repositories {
	return s.repos
}

func (s *gormStore) Transaction(ctx context.Context, fn func(repos Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
