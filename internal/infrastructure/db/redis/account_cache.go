package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jyotish/auth-service/internal/core/domain"
	"github.com/jyotish/auth-service/internal/core/ports"
)

const defaultCacheTTL = 5 * time.Minute

// CachedAccountRepository decorates an AccountRepository with a Redis
// read-through cache for FindByEmail, the lookup behind refresh and profile
// requests. Save evicts the entry. Uniqueness checks and login lookups always
// go to the inner store.
//
// Key formats:
//
//	account:email:<normalized email>  cached account
//	account:id:<id>                   email the account was cached under
type CachedAccountRepository struct {
	ports.AccountRepository
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

// NewCachedAccountRepository wraps inner. A non-positive ttl uses defaultCacheTTL.
func NewCachedAccountRepository(inner ports.AccountRepository, client *redis.Client, ttl time.Duration, log zerolog.Logger) *CachedAccountRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedAccountRepository{
		AccountRepository: inner,
		client:            client,
		ttl:               ttl,
		log:               log,
	}
}

// cachedAccount is the cache encoding. Unlike domain.Account it keeps the
// password hash, which login never reads from here.
type cachedAccount struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	FullName     string    `json:"full_name,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	IsVerified   bool      `json:"is_verified"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FindByEmail serves from the cache when possible. Cache failures are logged
// and fall through to the inner store.
func (r *CachedAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	key := r.key(email)

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var ca cachedAccount
		if jsonErr := json.Unmarshal(raw, &ca); jsonErr == nil {
			return ca.toDomain(), nil
		}
		r.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case !errors.Is(err, redis.Nil):
		r.log.Warn().Err(err).Msg("account cache read failed")
	}

	account, err := r.AccountRepository.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(fromDomain(account)); err == nil {
		_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			pipe.Set(ctx, r.idKey(account.ID), account.Email, r.ttl)
			return nil
		})
		if err != nil {
			r.log.Warn().Err(err).Msg("account cache write failed")
		}
	}
	return account, nil
}

// Save writes through to the inner store and evicts the cached entry. When
// the email changed, the entry under the previous email is evicted as well.
func (r *CachedAccountRepository) Save(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	saved, err := r.AccountRepository.Save(ctx, account)
	if err != nil {
		return nil, err
	}

	keys := []string{r.key(saved.Email), r.idKey(saved.ID)}
	previous, err := r.client.Get(ctx, r.idKey(saved.ID)).Result()
	switch {
	case err == nil && previous != "":
		keys = append(keys, r.key(previous))
	case err != nil && !errors.Is(err, redis.Nil):
		r.log.Warn().Err(err).Msg("account cache index read failed")
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		r.log.Warn().Err(err).Msg("account cache eviction failed")
	}
	return saved, nil
}

// Evict drops the cached entry for email.
func (r *CachedAccountRepository) Evict(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, r.key(email)).Err(); err != nil {
		return fmt.Errorf("evict account: %w", err)
	}
	return nil
}

func (r *CachedAccountRepository) key(email string) string {
	return "account:email:" + domain.NormalizeEmail(email)
}

func (r *CachedAccountRepository) idKey(id string) string {
	return "account:id:" + id
}

func fromDomain(a *domain.Account) cachedAccount {
	return cachedAccount{
		ID:           a.ID,
		Email:        a.Email,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		FullName:     a.FullName,
		Role:         a.Role,
		IsActive:     a.IsActive,
		IsVerified:   a.IsVerified,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (c *cachedAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:           c.ID,
		Email:        c.Email,
		Username:     c.Username,
		PasswordHash: c.PasswordHash,
		FullName:     c.FullName,
		Role:         c.Role,
		IsActive:     c.IsActive,
		IsVerified:   c.IsVerified,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
