package ports

import (
	"context"

	"github.com/jyotish/auth-service/internal/core/domain"
)

// AccountRepository is the persistence contract for accounts. Implementations
// own email/username uniqueness: Save must fail with domain.ErrDuplicateEmail
// or domain.ErrDuplicateUsername when a concurrent writer got there first.
type AccountRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// FindByEmailOrUsername returns domain.ErrUserNotFound when no account matches.
	FindByEmailOrUsername(ctx context.Context, identifier string) (*domain.Account, error)
	// FindByEmail returns domain.ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// Save inserts the account, assigning an ID when empty, or replaces the
	// stored account with the same ID.
	Save(ctx context.Context, account *domain.Account) (*domain.Account, error)
}
