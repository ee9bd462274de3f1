package service

import (
	"context"
	"errors"
	"strings"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/Aurfi/pizzeria/pkg/cryptox"
	"github.com/Aurfi/pizzeria/pkg/idx"
	"github.com/Aurfi/pizzeria/pkg/jwtx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
)

// UserService handles local (non-SSO) registration and login.
type UserService struct {
	Store  store.UserStore
	Tokens *TokenService
}

// RegisterParams carries a new local account's details. Validation of shape
// (email format etc.) happens at the HTTP boundary.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Register creates a customer account and logs it in.
func (s *UserService) Register(ctx context.Context, p RegisterParams) (domain.User, domain.TokenPair, error) {
	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(p.Email)),
		PasswordHash: hash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Phone:        p.Phone,
		Role:         domain.RoleCustomer,
		IsActive:     true,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, domain.TokenPair{}, ErrEmailTaken
		}
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.Tokens.Issue(ctx, identityOf(u))
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return u, pair, nil
}

// Login checks a local password and mints a token pair. Wrong email and
// wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (domain.User, domain.TokenPair, error) {
	log := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.TokenPair{}, err
	}
	if !u.IsActive {
		log.Info("login rejected: account inactive", "user_id", u.ID)
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		log.Info("login rejected: password mismatch", "user_id", u.ID)
		return domain.User{}, domain.TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.Tokens.Issue(ctx, identityOf(u))
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}
	return u, pair, nil
}

func identityOf(u domain.User) jwtx.Identity {
	return jwtx.Identity{
		UserID: u.ID,
		Email:  u.Email,
		Roles:  []string{u.Role.String()},
	}
}
