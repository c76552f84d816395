package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/domain/repository"
	pkgAuth "github.com/polkiloo/fooddispatch/internal/pkg/auth"
)

// RegisterInput is the unvalidated sign-up payload.
type RegisterInput struct {
	Name                string
	Email               string
	Password            string
	Role                model.Role
	AverageDeliveryTime *int
}

// AuthUseCase handles user lifecycle and token management.
type AuthUseCase struct {
	tx     repository.Transactor
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(tx repository.Transactor, users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{tx: tx, users: users, hasher: hasher, tokens: strategy}
}

// Register creates the account, and the partner profile for delivery users,
// in one transaction and returns an auth token.
func (u *AuthUseCase) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, "", domainErrors.ErrInvalidName
	}
	email, err := NormalizeEmail(in.Email)
	if err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, "", err
	}
	role := model.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))
	if !role.Valid() {
		return nil, "", domainErrors.ErrInvalidRole
	}
	avg := model.DefaultAverageDeliveryTime
	if in.AverageDeliveryTime != nil {
		avg = *in.AverageDeliveryTime
	}
	if role == model.RoleDelivery && avg < model.MinAverageDeliveryTime {
		return nil, "", domainErrors.ErrInvalidDeliveryAvg
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, "", err
	}

	var usr *model.User
	err = u.tx.WithinTransaction(ctx, func(ctx context.Context, repos repository.Set) error {
		created, err := repos.Users.Create(ctx, model.User{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
			Active:       true,
		})
		if err != nil {
			return err
		}
		if role == model.RoleDelivery {
			if _, err := repos.Partners.Create(ctx, created.ID, avg); err != nil {
				return err
			}
		}
		usr = created
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	token, err := u.tokens.IssueToken(model.Identity{ID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

// Login validates credentials and returns an auth token.
func (u *AuthUseCase) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}
	if !usr.Active {
		return nil, "", domainErrors.ErrInactiveUser
	}

	token, err := u.tokens.IssueToken(model.Identity{ID: usr.ID, Role: usr.Role})
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

// ParseToken extracts the caller identity from the provided token.
func (u *AuthUseCase) ParseToken(token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, pkgAuth.ErrInvalidToken
	}
	return u.tokens.ParseToken(token)
}

// Me fetches the caller's account.
func (u *AuthUseCase) Me(ctx context.Context, id int64) (*model.User, error) {
	return u.users.GetByID(ctx, id)
}
