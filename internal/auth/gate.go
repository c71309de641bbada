// Package auth owns the approval-gated session lifecycle: sign-up,
// sign-in, token rotation and the rule that only an approved profile may
// hold a live session. Handlers and middleware go through the Gate instead
// of touching the auth tables directly, so the gating logic has a single
// home.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"github.com/fairops/fairadmin/internal/repository"
	"github.com/fairops/fairadmin/internal/utils"
)

// Typed gate errors. Handlers map these onto status-specific responses; a
// pending or rejected account must never degrade into a generic auth
// failure.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPendingApproval    = errors.New("account pending admin approval")
	ErrRejected           = errors.New("account rejected")
	ErrProfileNotFound    = errors.New("account profile not found")
	ErrEmailRejected      = errors.New("email has been rejected")
)

// Session is the resolved, approved identity attached to a live token pair.
// IsApproved is always true on a Session returned by the gate; an
// unapproved profile yields a typed error instead of a half-built session.
type Session struct {
	UserID     uint64
	Email      string
	Name       string
	Role       string // "" when the user has no elevated role
	IsApproved bool
	Profile    repository.Profile
}

// IsAdmin reports whether the session carries the admin role.
func (s Session) IsAdmin() bool { return s.Role == repository.RoleAdmin }

// Store interfaces keep the gate testable without a database; the
// repository types satisfy them directly.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (repository.User, error)
}

type ProfileStore interface {
	GetByUserID(ctx context.Context, userID uint64) (repository.Profile, error)
	GetByEmail(ctx context.Context, email string) (repository.Profile, error)
	TouchLastLogin(ctx context.Context, userID uint64) error
}

type RoleStore interface {
	GetByUserID(ctx context.Context, userID uint64) (string, error)
}

type TokenStore interface {
	StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
	RevokeUnapproved(ctx context.Context) (int64, error)
}

// AccountCreator provisions user+profile+role atomically; see Registrar.
type AccountCreator interface {
	CreateAccount(ctx context.Context, email, password, name string) (uint64, error)
}

// Gate wires the stores together with the token parameters.
type Gate struct {
	Users    CredentialStore
	Profiles ProfileStore
	Roles    RoleStore
	Tokens   TokenStore
	Creator  AccountCreator

	Secret         string
	AccessTTLMin   int
	RefreshTTLDays int

	// Profile provisioning may lag sign-up when rows are created out of
	// band, so a missing profile is retried before it is treated as fatal.
	ProfileRetries int
	RetryDelay     time.Duration
}

// TokenPair is the access+refresh pair issued for an approved session.
type TokenPair struct {
	Access  utils.AccessToken
	Refresh utils.RefreshToken
}

// SignUp validates the input locally, refuses rejected emails without
// creating anything, and provisions a pending account. No tokens are issued:
// registration never grants access, the account waits for admin approval.
func (g *Gate) SignUp(ctx context.Context, email, password, name string) error {
	if err := utils.ValidateSignUp(email, password, name); err != nil {
		return err
	}
	email = utils.NormalizeEmail(email)

	// A previously rejected email may not re-register.
	if p, err := g.Profiles.GetByEmail(ctx, email); err == nil {
		if p.ApprovalStatus == repository.ApprovalRejected {
			return ErrEmailRejected
		}
	} else if err != sql.ErrNoRows {
		return err
	}

	_, err := g.Creator.CreateAccount(ctx, email, password, name)
	return err
}

// SignIn authenticates credentials and then re-checks the approval gate
// before declaring the session usable. Pending/rejected/missing profiles
// leave no live session behind: their refresh tokens are revoked and a
// typed error is returned.
func (g *Gate) SignIn(ctx context.Context, email, password string) (Session, TokenPair, error) {
	u, err := g.Users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if err == sql.ErrNoRows {
			return Session{}, TokenPair{}, ErrInvalidCredentials
		}
		return Session{}, TokenPair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return Session{}, TokenPair{}, ErrInvalidCredentials
	}

	sess, err := g.Resolve(ctx, u.ID)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	pair, err := g.issue(ctx, sess)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	return sess, pair, nil
}

// Refresh rotates the refresh token. The approval gate is re-run before
// anything is issued, so a refresh from a user who has since been rejected
// or deleted revokes the session instead of renewing it.
func (g *Gate) Refresh(ctx context.Context, rawRefresh string) (Session, TokenPair, error) {
	hash := utils.HashRefreshRaw(rawRefresh)
	userID, err := g.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return Session{}, TokenPair{}, ErrInvalidCredentials
	}
	if err := g.Tokens.RevokeByHash(ctx, hash); err != nil {
		log.Printf("auth: revoke rotated refresh token: %v", err)
	}

	sess, err := g.Resolve(ctx, userID)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	pair, err := g.issue(ctx, sess)
	if err != nil {
		return Session{}, TokenPair{}, err
	}
	return sess, pair, nil
}

// SignOut clears the session server-side. It never fails observably: revoke
// errors are logged and the caller always treats the session as cleared.
func (g *Gate) SignOut(ctx context.Context, userID uint64, rawRefresh string) {
	if rawRefresh != "" {
		if err := g.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(rawRefresh)); err != nil {
			log.Printf("auth: sign-out revoke by hash: %v", err)
		}
	}
	if userID != 0 {
		if err := g.Tokens.RevokeAllForUser(ctx, userID); err != nil {
			log.Printf("auth: sign-out revoke all for user %d: %v", userID, err)
		}
	}
}

// Resolve fetches the profile (tolerating provisioning lag with a bounded
// retry), enforces the approval gate, loads the role and stamps last_login.
// Only an approved profile produces a Session; every other outcome force-
// revokes the user's refresh tokens.
func (g *Gate) Resolve(ctx context.Context, userID uint64) (Session, error) {
	p, err := g.fetchProfile(ctx, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			g.forceSignOut(ctx, userID)
			return Session{}, ErrProfileNotFound
		}
		// Transient backend failure: leave the last-known state untouched
		// and let the periodic re-validation retry.
		return Session{}, err
	}

	switch p.ApprovalStatus {
	case repository.ApprovalApproved:
		// fall through
	case repository.ApprovalPending:
		g.forceSignOut(ctx, userID)
		return Session{}, ErrPendingApproval
	case repository.ApprovalRejected:
		g.forceSignOut(ctx, userID)
		return Session{}, ErrRejected
	default:
		g.forceSignOut(ctx, userID)
		return Session{}, ErrProfileNotFound
	}

	role, err := g.Roles.GetByUserID(ctx, userID)
	if err != nil {
		if err != sql.ErrNoRows {
			log.Printf("auth: fetch role for user %d: %v", userID, err)
		}
		role = "" // no elevated role
	}

	// Best-effort; failure never affects session state.
	if err := g.Profiles.TouchLastLogin(ctx, userID); err != nil {
		log.Printf("auth: touch last_login for user %d: %v", userID, err)
	}

	return Session{
		UserID:     userID,
		Email:      p.Email,
		Name:       p.Name,
		Role:       role,
		IsApproved: true,
		Profile:    p,
	}, nil
}

// fetchProfile retries a missing profile to absorb the window between
// account creation and profile provisioning.
func (g *Gate) fetchProfile(ctx context.Context, userID uint64) (repository.Profile, error) {
	retries := g.ProfileRetries
	delay := g.RetryDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	var p repository.Profile
	var err error
	for attempt := 0; ; attempt++ {
		p, err = g.Profiles.GetByUserID(ctx, userID)
		if err != sql.ErrNoRows || attempt >= retries {
			return p, err
		}
		select {
		case <-ctx.Done():
			return repository.Profile{}, ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (g *Gate) forceSignOut(ctx context.Context, userID uint64) {
	if err := g.Tokens.RevokeAllForUser(ctx, userID); err != nil {
		log.Printf("auth: force sign-out user %d: %v", userID, err)
	}
}

func (g *Gate) issue(ctx context.Context, sess Session) (TokenPair, error) {
	access, err := utils.NewAccessToken(g.Secret, sess.UserID, sess.Role, g.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewRefreshToken(g.RefreshTTLDays)
	if err != nil {
		return TokenPair{}, err
	}
	if err := g.Tokens.StoreRefresh(ctx, sess.UserID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}
