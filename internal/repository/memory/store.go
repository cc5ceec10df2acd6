// Package memory is a process-local repository.Store used by tests and by
// local runs without a database. Transactions are serialized by a single
// mutex and roll back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"smssignup/internal/entity"
	"smssignup/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type state struct {
	users         map[uuid.UUID]entity.User
	verifications []entity.PhoneVerification
	oauthAccounts []entity.OAuthAccount
	securityLogs  []entity.SecurityLog
}

func (s *state) clone() *state {
	users := make(map[uuid.UUID]entity.User, len(s.users))
	for id, u := range s.users {
		users[id] = u
	}
	return &state{
		users:         users,
		verifications: append([]entity.PhoneVerification(nil), s.verifications...),
		oauthAccounts: append([]entity.OAuthAccount(nil), s.oauthAccounts...),
		securityLogs:  append([]entity.SecurityLog(nil), s.securityLogs...),
	}
}

type Store struct {
	mu   sync.Mutex
	data *state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{
		data: &state{users: make(map[uuid.UUID]entity.User)},
		now:  time.Now,
	}
}

// WithClock sets the time source used for timestamps the caller left empty.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Repos() repository.Repositories {
	return s.repositories(true)
}

func (s *Store) Transaction(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(s.repositories(false)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) repositories(lock bool) repository.Repositories {
	tx := &txView{store: s, lock: lock}
	return repository.Repositories{
		Users:              userRepository{tx},
		PhoneVerifications: phoneVerificationRepository{tx},
		OAuthAccounts:      oauthAccountRepository{tx},
		SecurityLogs:       securityLogRepository{tx},
	}
}

// txView runs repository calls either under the store mutex (pool mode) or
// assuming the enclosing Transaction already holds it.
type txView struct {
	store *Store
	lock  bool
}

func (v *txView) do(ctx context.Context, fn func(data *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.lock {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn(v.store.data)
}

func (v *txView) stamp(createdAt, updatedAt *time.Time) {
	now := v.store.now()
	if createdAt != nil && createdAt.IsZero() {
		*createdAt = now
	}
	if updatedAt != nil && updatedAt.IsZero() {
		*updatedAt = *createdAt
	}
}

type userRepository struct{ tx *txView }

func (r userRepository) Create(ctx context.Context, user *entity.User) error {
	return r.tx.do(ctx, func(data *state) error {
		for _, existing := range data.users {
			if existing.Email == user.Email {
				return gorm.ErrDuplicatedKey
			}
		}
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		if _, ok := data.users[user.ID]; ok {
			return gorm.ErrDuplicatedKey
		}
		r.tx.stamp(&user.CreatedAt, &user.UpdatedAt)
		data.users[user.ID] = *user
		return nil
	})
}

func (r userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var found *entity.User
	err := r.tx.do(ctx, func(data *state) error {
		if u, ok := data.users[id]; ok {
			found = &u
		}
		return nil
	})
	return found, err
}

func (r userRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.FindByID(ctx, id)
}

func (r userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var found *entity.User
	err := r.tx.do(ctx, func(data *state) error {
		for _, u := range data.users {
			if u.Email == email {
				u := u
				found = &u
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r userRepository) Update(ctx context.Context, user *entity.User) error {
	return r.tx.do(ctx, func(data *state) error {
		if _, ok := data.users[user.ID]; !ok {
			return gorm.ErrRecordNotFound
		}
		for id, existing := range data.users {
			if id != user.ID && existing.Email == user.Email {
				return gorm.ErrDuplicatedKey
			}
		}
		data.users[user.ID] = *user
		return nil
	})
}

type phoneVerificationRepository struct{ tx *txView }

func (r phoneVerificationRepository) Create(ctx context.Context, v *entity.PhoneVerification) error {
	return r.tx.do(ctx, func(data *state) error {
		if _, ok := data.users[v.UserID]; !ok {
			return gorm.ErrForeignKeyViolated
		}
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		r.tx.stamp(&v.CreatedAt, &v.UpdatedAt)
		data.verifications = append(data.verifications, *v)
		return nil
	})
}

func (r phoneVerificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PhoneVerification, error) {
	var found *entity.PhoneVerification
	err := r.tx.do(ctx, func(data *state) error {
		if i := indexOfVerification(data, id); i >= 0 {
			v := data.verifications[i]
			found = &v
		}
		return nil
	})
	return found, err
}

func (r phoneVerificationRepository) FindLatest(
	ctx context.Context,
	q repository.PhoneVerificationQuery,
) (*entity.PhoneVerification, error) {

	var found *entity.PhoneVerification
	err := r.tx.do(ctx, func(data *state) error {
		for i := range data.verifications {
			v := data.verifications[i]
			if v.UserID != q.UserID || v.PhoneNumber != q.PhoneNumber {
				continue
			}
			if q.Status != "" && v.Status != q.Status {
				continue
			}
			if q.CreatedAfter != nil && !v.CreatedAt.After(*q.CreatedAfter) {
				continue
			}
			// later insertions win ties on created_at
			if found == nil || !v.CreatedAt.Before(found.CreatedAt) {
				found = &v
			}
		}
		return nil
	})
	return found, err
}

func (r phoneVerificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.PhoneVerification, error) {
	var list []entity.PhoneVerification
	err := r.tx.do(ctx, func(data *state) error {
		for _, v := range data.verifications {
			if v.UserID == userID {
				list = append(list, v)
			}
		}
		return nil
	})
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, err
}

func (r phoneVerificationRepository) Update(ctx context.Context, v *entity.PhoneVerification) error {
	return r.tx.do(ctx, func(data *state) error {
		i := indexOfVerification(data, v.ID)
		if i < 0 {
			return gorm.ErrRecordNotFound
		}
		data.verifications[i] = *v
		return nil
	})
}

func (r phoneVerificationRepository) UpdateDelivery(ctx context.Context, id uuid.UUID, d repository.DeliveryUpdate) error {
	return r.tx.do(ctx, func(data *state) error {
		i := indexOfVerification(data, id)
		if i < 0 {
			return gorm.ErrRecordNotFound
		}
		v := &data.verifications[i]
		v.SMSServiceID = d.SMSServiceID
		v.SMSServiceStatus = d.SMSServiceStatus
		v.ErrorMessage = d.ErrorMessage
		v.UpdatedAt = d.UpdatedAt
		return nil
	})
}

func indexOfVerification(data *state, id uuid.UUID) int {
	for i := range data.verifications {
		if data.verifications[i].ID == id {
			return i
		}
	}
	return -1
}

type oauthAccountRepository struct{ tx *txView }

func (r oauthAccountRepository) Create(ctx context.Context, account *entity.OAuthAccount) error {
	return r.tx.do(ctx, func(data *state) error {
		if _, ok := data.users[account.UserID]; !ok {
			return gorm.ErrForeignKeyViolated
		}
		for _, existing := range data.oauthAccounts {
			if existing.Provider == account.Provider && existing.ProviderUserID == account.ProviderUserID {
				return gorm.ErrDuplicatedKey
			}
		}
		if account.ID == uuid.Nil {
			account.ID = uuid.New()
		}
		r.tx.stamp(&account.CreatedAt, &account.UpdatedAt)
		data.oauthAccounts = append(data.oauthAccounts, *account)
		return nil
	})
}

func (r oauthAccountRepository) FindByProviderUserID(
	ctx context.Context,
	provider entity.OAuthProvider,
	providerUserID string,
) (*entity.OAuthAccount, error) {

	var found *entity.OAuthAccount
	err := r.tx.do(ctx, func(data *state) error {
		for _, a := range data.oauthAccounts {
			if a.Provider == provider && a.ProviderUserID == providerUserID {
				a := a
				found = &a
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r oauthAccountRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.OAuthAccount, error) {
	var list []entity.OAuthAccount
	err := r.tx.do(ctx, func(data *state) error {
		for _, a := range data.oauthAccounts {
			if a.UserID == userID {
				list = append(list, a)
			}
		}
		return nil
	})
	return list, err
}

type securityLogRepository struct{ tx *txView }

func (r securityLogRepository) Log(ctx context.Context, log *entity.SecurityLog) error {
	return r.tx.do(ctx, func(data *state) error {
		if log.ID == uuid.Nil {
			log.ID = uuid.New()
		}
		r.tx.stamp(&log.CreatedAt, nil)
		data.securityLogs = append(data.securityLogs, *log)
		return nil
	})
}

func (r securityLogRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.SecurityLog, error) {
	var list []entity.SecurityLog
	err := r.tx.do(ctx, func(data *state) error {
		for _, l := range data.securityLogs {
			if l.UserID != nil && *l.UserID == userID {
				list = append(list, l)
			}
		}
		return nil
	})
	return list, err
}

var _ repository.Store = (*Store)(nil)
