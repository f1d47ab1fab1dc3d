// Package services holds the client-side application services: the auth
// service that owns token acquisition and the typed feedback API facade.
package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/feedbackkit/internal/client/models"
	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/logging"
)

// TokenProvider is supplied by the host application and returns a fresh
// access token for the current user.
type TokenProvider func(ctx context.Context) (string, error)

// CredentialStore persists the current credential. The data manager is the
// production implementation.
type CredentialStore interface {
	CurrentCredential(ctx context.Context) (*models.Credential, error)
	UpdateCredential(ctx context.Context, c models.Credential) error
	RemoveCredential(ctx context.Context) error
}

// AuthService hands out access tokens.
//
// Contract:
//   - AccessToken: the stored token, obtained from the provider when none is
//     stored or when the stored JWT has expired.
//   - RefreshedToken: replaces rejected, the token the backend turned down
//     (empty when none was stored). When the stored token already differs
//     from rejected another caller refreshed it and it is returned as is.
//     Otherwise the provider is asked; concurrent callers share one provider
//     call and one credential write.
//   - Logout: forgets the stored credential.
type AuthService interface {
	AccessToken(ctx context.Context) (string, error)
	RefreshedToken(ctx context.Context, rejected string) (string, error)
	Logout(ctx context.Context) error
}

type authService struct {
	provider TokenProvider
	store    CredentialStore
	log      logging.Logger
	now      func() time.Time
	leeway   time.Duration

	group singleflight.Group
}

func NewAuthService(provider TokenProvider, store CredentialStore, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &authService{
		provider: provider,
		store:    store,
		log:      log.With("component", "auth"),
		now:      time.Now,
		leeway:   30 * time.Second,
	}
}

func (a *authService) AccessToken(ctx context.Context) (string, error) {
	cred, err := a.store.CurrentCredential(ctx)
	if err != nil {
		return "", err
	}

	if cred == nil || cred.AccessToken == "" {
		a.log.Debug(ctx, "no stored credential, invoking provider")
		return a.RefreshedToken(ctx, "")
	}

	if a.expired(cred.AccessToken) {
		a.log.Debug(ctx, "stored token expired, refreshing")
		return a.RefreshedToken(ctx, cred.AccessToken)
	}

	return cred.AccessToken, nil
}

func (a *authService) RefreshedToken(ctx context.Context, rejected string) (string, error) {
	v, err, shared := a.group.Do("refresh", func() (any, error) {
		cred, err := a.store.CurrentCredential(ctx)
		if err != nil {
			return "", err
		}
		if cred != nil && cred.AccessToken != "" && cred.AccessToken != rejected {
			a.log.Debug(ctx, "stored token already replaced, skipping provider")
			return cred.AccessToken, nil
		}

		if a.provider == nil {
			return "", common.AuthenticationFailed("no authentication provider configured")
		}

		token, err := a.provider(ctx)
		if err != nil {
			a.log.Warn(ctx, "authentication provider failed", "error", err)
			return "", &common.Error{
				Kind:    common.KindAuthenticationFailed,
				Message: "Invoking the authentication provider failed.",
				Err:     err,
			}
		}
		if token == "" {
			return "", common.AuthenticationFailed("authentication provider returned an empty token")
		}

		if err := a.store.UpdateCredential(ctx, models.Credential{AccessToken: token, ObtainedAt: a.now()}); err != nil {
			return "", err
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	if shared {
		a.log.Debug(ctx, "joined in-flight token refresh")
	}
	return v.(string), nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.store.RemoveCredential(ctx)
}

// expired reports whether token is a JWT whose exp claim falls within the
// leeway. Opaque tokens never expire client side.
func (a *authService) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !a.now().Add(a.leeway).Before(exp.Time)
}
