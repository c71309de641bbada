package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairops/fairadmin/internal/repository"
	"github.com/fairops/fairadmin/internal/utils"
)

// ----- fakes -----

type fakeUsers struct {
	byEmail map[string]repository.User
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (repository.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

type fakeProfiles struct {
	byUser  map[uint64]repository.Profile
	byEmail map[string]repository.Profile

	fetches     int
	missFirstN  int // return ErrNoRows for the first N GetByUserID calls
	touchedUser uint64
}

func (f *fakeProfiles) GetByUserID(_ context.Context, userID uint64) (repository.Profile, error) {
	f.fetches++
	if f.fetches <= f.missFirstN {
		return repository.Profile{}, sql.ErrNoRows
	}
	p, ok := f.byUser[userID]
	if !ok {
		return repository.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeProfiles) GetByEmail(_ context.Context, email string) (repository.Profile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return repository.Profile{}, sql.ErrNoRows
	}
	return p, nil
}

func (f *fakeProfiles) TouchLastLogin(_ context.Context, userID uint64) error {
	f.touchedUser = userID
	return nil
}

type fakeRoles struct {
	byUser map[uint64]string
}

func (f *fakeRoles) GetByUserID(_ context.Context, userID uint64) (string, error) {
	r, ok := f.byUser[userID]
	if !ok {
		return "", sql.ErrNoRows
	}
	return r, nil
}

type fakeTokens struct {
	stored     map[string]uint64 // hash -> user
	revoked    map[string]bool
	revokedAll []uint64
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{stored: map[string]uint64{}, revoked: map[string]bool{}}
}

func (f *fakeTokens) StoreRefresh(_ context.Context, userID uint64, hash string, _ time.Time) error {
	f.stored[hash] = userID
	return nil
}

func (f *fakeTokens) ValidateRefresh(_ context.Context, hash string) (uint64, error) {
	id, ok := f.stored[hash]
	if !ok || f.revoked[hash] {
		return 0, sql.ErrNoRows
	}
	return id, nil
}

func (f *fakeTokens) RevokeByHash(_ context.Context, hash string) error {
	f.revoked[hash] = true
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	f.revokedAll = append(f.revokedAll, userID)
	for h, id := range f.stored {
		if id == userID {
			f.revoked[h] = true
		}
	}
	return nil
}

func (f *fakeTokens) RevokeUnapproved(_ context.Context) (int64, error) { return 0, nil }

func (f *fakeTokens) liveCount() int {
	n := 0
	for h := range f.stored {
		if !f.revoked[h] {
			n++
		}
	}
	return n
}

type fakeCreator struct {
	created []string // emails
}

func (f *fakeCreator) CreateAccount(_ context.Context, email, _, _ string) (uint64, error) {
	f.created = append(f.created, email)
	return uint64(len(f.created)), nil
}

// ----- helpers -----

func testGate(t *testing.T, status string) (*Gate, *fakeProfiles, *fakeTokens, *fakeCreator) {
	t.Helper()
	hash, err := utils.HashPassword("secret1", 4)
	require.NoError(t, err)

	users := &fakeUsers{byEmail: map[string]repository.User{
		"ana@example.com": {ID: 7, Email: "ana@example.com", PasswordHash: hash},
	}}
	profiles := &fakeProfiles{
		byUser: map[uint64]repository.Profile{
			7: {UserID: 7, Name: "Ana", Email: "ana@example.com", IsActive: true, ApprovalStatus: status},
		},
		byEmail: map[string]repository.Profile{},
	}
	tokens := newFakeTokens()
	creator := &fakeCreator{}

	return &Gate{
		Users:          users,
		Profiles:       profiles,
		Roles:          &fakeRoles{byUser: map[uint64]string{7: repository.RoleAdmin}},
		Tokens:         tokens,
		Creator:        creator,
		Secret:         "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		ProfileRetries: 3,
		RetryDelay:     time.Millisecond,
	}, profiles, tokens, creator
}

// ----- sign-up -----

func TestSignUpValidation(t *testing.T) {
	g, _, _, creator := testGate(t, repository.ApprovalApproved)
	ctx := context.Background()

	assert.ErrorIs(t, g.SignUp(ctx, "not-an-email", "secret1", "Ana"), utils.ErrInvalidEmail)
	assert.ErrorIs(t, g.SignUp(ctx, "new@example.com", "short", "Ana"), utils.ErrShortPassword)
	assert.ErrorIs(t, g.SignUp(ctx, "new@example.com", "secret1", "A"), utils.ErrShortName)
	assert.Empty(t, creator.created, "invalid input must not create an account")
}

func TestSignUpRejectedEmailBlocked(t *testing.T) {
	g, profiles, _, creator := testGate(t, repository.ApprovalApproved)
	profiles.byEmail["banned@example.com"] = repository.Profile{
		Email:          "banned@example.com",
		ApprovalStatus: repository.ApprovalRejected,
	}

	err := g.SignUp(context.Background(), "Banned@Example.com", "secret1", "Ana")
	assert.ErrorIs(t, err, ErrEmailRejected)
	assert.Empty(t, creator.created)
}

func TestSignUpCreatesPendingWithoutTokens(t *testing.T) {
	g, _, tokens, creator := testGate(t, repository.ApprovalApproved)

	require.NoError(t, g.SignUp(context.Background(), "  New@Example.com ", "secret1", "Nina"))
	assert.Equal(t, []string{"new@example.com"}, creator.created)
	assert.Zero(t, tokens.liveCount(), "registration must not issue tokens")
}

// ----- sign-in -----

func TestSignInWrongCredentials(t *testing.T) {
	g, _, _, _ := testGate(t, repository.ApprovalApproved)
	ctx := context.Background()

	_, _, err := g.SignIn(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = g.SignIn(ctx, "ghost@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSignInApproved(t *testing.T) {
	g, profiles, tokens, _ := testGate(t, repository.ApprovalApproved)

	sess, pair, err := g.SignIn(context.Background(), "Ana@Example.com", "secret1")
	require.NoError(t, err)

	assert.Equal(t, uint64(7), sess.UserID)
	assert.Equal(t, "Ana", sess.Name)
	assert.True(t, sess.IsApproved)
	assert.True(t, sess.IsAdmin())
	assert.NotEmpty(t, pair.Access.Token)
	assert.NotEmpty(t, pair.Refresh.Raw)
	assert.Equal(t, 1, tokens.liveCount())
	assert.Equal(t, uint64(7), profiles.touchedUser)
}

func TestSignInPendingRevokesAndErrors(t *testing.T) {
	g, _, tokens, _ := testGate(t, repository.ApprovalPending)

	_, _, err := g.SignIn(context.Background(), "ana@example.com", "secret1")
	assert.ErrorIs(t, err, ErrPendingApproval)
	assert.Contains(t, tokens.revokedAll, uint64(7))
	assert.Zero(t, tokens.liveCount())
}

func TestSignInRejected(t *testing.T) {
	g, _, tokens, _ := testGate(t, repository.ApprovalRejected)

	_, _, err := g.SignIn(context.Background(), "ana@example.com", "secret1")
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, tokens.revokedAll, uint64(7))
}

func TestSignInUnknownStatusTreatedAsMissing(t *testing.T) {
	g, _, _, _ := testGate(t, "weird")

	_, _, err := g.SignIn(context.Background(), "ana@example.com", "secret1")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestSignInNoRoleIsNotAnError(t *testing.T) {
	g, _, _, _ := testGate(t, repository.ApprovalApproved)
	g.Roles = &fakeRoles{byUser: map[uint64]string{}}

	sess, _, err := g.SignIn(context.Background(), "ana@example.com", "secret1")
	require.NoError(t, err)
	assert.Empty(t, sess.Role)
	assert.False(t, sess.IsAdmin())
}

// ----- provisioning lag -----

func TestResolveRetriesMissingProfile(t *testing.T) {
	g, profiles, _, _ := testGate(t, repository.ApprovalApproved)
	profiles.missFirstN = 2 // profile appears on the third fetch

	sess, err := g.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Ana", sess.Name)
	assert.Equal(t, 3, profiles.fetches)
}

func TestResolveGivesUpAfterRetries(t *testing.T) {
	g, profiles, tokens, _ := testGate(t, repository.ApprovalApproved)
	profiles.missFirstN = 100

	_, err := g.Resolve(context.Background(), 7)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	// Initial attempt plus the configured retries.
	assert.Equal(t, 1+g.ProfileRetries, profiles.fetches)
	assert.Contains(t, tokens.revokedAll, uint64(7))
}

// ----- refresh and sign-out -----

func TestRefreshRotates(t *testing.T) {
	g, _, tokens, _ := testGate(t, repository.ApprovalApproved)
	ctx := context.Background()

	_, pair, err := g.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	_, next, err := g.Refresh(ctx, pair.Refresh.Raw)
	require.NoError(t, err)
	assert.NotEqual(t, pair.Refresh.Raw, next.Refresh.Raw)

	// The old token is spent.
	_, _, err = g.Refresh(ctx, pair.Refresh.Raw)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, tokens.liveCount())
}

func TestRefreshInvalidToken(t *testing.T) {
	g, _, _, _ := testGate(t, repository.ApprovalApproved)

	_, _, err := g.Refresh(context.Background(), "nonsense")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshAfterRejectionRevokes(t *testing.T) {
	g, profiles, tokens, _ := testGate(t, repository.ApprovalApproved)
	ctx := context.Background()

	_, pair, err := g.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)

	// Approval withdrawn between sign-in and refresh.
	p := profiles.byUser[7]
	p.ApprovalStatus = repository.ApprovalRejected
	profiles.byUser[7] = p

	_, _, err = g.Refresh(ctx, pair.Refresh.Raw)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Zero(t, tokens.liveCount())
}

func TestSignOut(t *testing.T) {
	g, _, tokens, _ := testGate(t, repository.ApprovalApproved)
	ctx := context.Background()

	_, pair, err := g.SignIn(ctx, "ana@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, 1, tokens.liveCount())

	g.SignOut(ctx, 7, pair.Refresh.Raw)
	assert.Zero(t, tokens.liveCount())
}
