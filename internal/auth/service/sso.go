package service

import (
	"context"
	"errors"

	"github.com/Aurfi/pizzeria/internal/auth/domain"
	"github.com/Aurfi/pizzeria/internal/auth/store"
	"github.com/Aurfi/pizzeria/pkg/cryptox"
	"github.com/Aurfi/pizzeria/pkg/idx"
	"github.com/Aurfi/pizzeria/pkg/jwtx"
	"github.com/Aurfi/pizzeria/pkg/slogx"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// SSOConfig is the federated-login slice of the app configuration. Endpoints
// are configured explicitly; there is no issuer discovery round trip.
type SSOConfig struct {
	Enabled      bool
	Provider     string // tag stamped into minted tokens, e.g. "keycloak"
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURI  string

	AuthURL     string
	TokenURL    string
	UserInfoURL string
	JWKSURL     string
}

// SSOService is the bridge to a remote identity provider: it drives the
// authorization-code flow, reconciles the remote profile into a local user,
// and terminates by minting local tokens.
type SSOService struct {
	cfg      SSOConfig
	oauth    *oauth2.Config
	provider *oidc.Provider

	Store  store.UserStore
	Tokens *TokenService
}

// NewSSOService wires the bridge. With SSO disabled it still constructs, and
// every operation returns ErrSSODisabled.
func NewSSOService(ctx context.Context, cfg SSOConfig, st store.UserStore, tokens *TokenService) *SSOService {
	s := &SSOService{cfg: cfg, Store: st, Tokens: tokens}
	if !cfg.Enabled {
		return s
	}

	pc := &oidc.ProviderConfig{
		IssuerURL:   cfg.IssuerURL,
		AuthURL:     cfg.AuthURL,
		TokenURL:    cfg.TokenURL,
		UserInfoURL: cfg.UserInfoURL,
		JWKSURL:     cfg.JWKSURL,
		Algorithms:  []string{"RS256"},
	}
	s.provider = pc.NewProvider(ctx)

	s.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     s.provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
	}
	return s
}

// Enabled reports whether the bridge is configured.
func (s *SSOService) Enabled() bool { return s.cfg.Enabled }

// AuthorizationURL builds the redirect to the remote authorization endpoint.
// The caller owns persisting and later validating state; the bridge only
// echoes it.
func (s *SSOService) AuthorizationURL(state string) (string, error) {
	if !s.cfg.Enabled {
		return "", ErrSSODisabled
	}
	return s.oauth.AuthCodeURL(state), nil
}

// HandleCallback finishes the flow: code exchange, profile fetch,
// reconciliation, local token minting.
func (s *SSOService) HandleCallback(ctx context.Context, code string) (domain.User, domain.TokenPair, error) {
	if !s.cfg.Enabled {
		return domain.User{}, domain.TokenPair{}, ErrSSODisabled
	}
	log := slogx.FromContext(ctx)

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, &SSOError{Op: "exchange", Err: err}
	}

	ui, err := s.provider.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return domain.User{}, domain.TokenPair{}, &SSOError{Op: "userinfo", Err: err}
	}

	var profile domain.ExternalProfile
	if err := ui.Claims(&profile); err != nil {
		return domain.User{}, domain.TokenPair{}, &SSOError{Op: "userinfo", Err: err}
	}
	if profile.Email == "" {
		return domain.User{}, domain.TokenPair{}, &SSOError{Op: "userinfo", Err: errors.New("profile has no email")}
	}

	user, err := s.findOrCreateUser(ctx, profile)
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	pair, err := s.Tokens.Issue(ctx, jwtx.Identity{
		UserID:      user.ID,
		Email:       user.Email,
		Roles:       []string{user.Role.String()},
		Groups:      profile.Groups,
		SSOProvider: s.cfg.Provider,
	})
	if err != nil {
		return domain.User{}, domain.TokenPair{}, err
	}

	log.Info("sso login", "user_id", user.ID, "provider", s.cfg.Provider)
	return user, pair, nil
}

// findOrCreateUser reconciles the remote profile into a local row, keyed by
// email, atomically: lookup and insert/update happen in one transaction.
func (s *SSOService) findOrCreateUser(ctx context.Context, p domain.ExternalProfile) (domain.User, error) {
	var out domain.User

	err := s.Store.WithTx(ctx, func(tx store.Users) error {
		existing, err := tx.GetUserByEmail(ctx, p.Email)
		if err == nil {
			if err := tx.UpdateSSOLink(ctx, existing.ID, s.cfg.Provider, p.ID, p.EmailVerified); err != nil {
				return err
			}
			existing.SSOProvider = s.cfg.Provider
			existing.SSOExternalID = p.ID
			existing.EmailVerified = p.EmailVerified
			out = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		first, last := p.DisplayName()
		out = domain.User{
			ID:        idx.New().String(),
			Email:     p.Email,
			FirstName: first,
			LastName:  last,
			Role:      domain.RoleCustomer,
			IsActive:  true,
			// SSO users have no local password; the sentinel can never verify.
			PasswordHash:  cryptox.SentinelHash(),
			SSOProvider:   s.cfg.Provider,
			SSOExternalID: p.ID,
			EmailVerified: p.EmailVerified,
		}
		return tx.CreateUser(ctx, out)
	})
	if err != nil {
		return domain.User{}, err
	}
	return out, nil
}
